package cli

import (
	"context"
	"fmt"
	"io/fs"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/spf13/cobra"
	"github.com/vitalvas/svcdoc/snapshot"
	"github.com/vitalvas/svcdoc/swagger"
	"github.com/vitalvas/svcdoc/swaggerui"
)

func newServeCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve documents and the viewer over HTTP",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if listen, _ := cmd.Flags().GetString("listen"); listen != "" {
				a.cfg.Server.Listen = listen
			}
			record, err := cmd.Flags().GetBool("snapshot")
			if err != nil {
				return err
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			h, closeFn, err := a.handler()
			if err != nil {
				return err
			}
			defer closeFn()

			if record {
				store, err := openStore(ctx, a.cfg.Snapshot.DSN)
				if err != nil {
					return err
				}
				defer store.Close()
				a.recordOnBuild(ctx, store)
			}

			// Build eagerly.
			if _, err := a.documents(); err != nil {
				return err
			}

			srv := swaggerui.NewServer(h, swaggerui.ServerConfig{
				Addr:            a.cfg.Server.Listen,
				MaxConns:        a.cfg.Server.MaxConns,
				ShutdownTimeout: a.cfg.Server.ShutdownTimeout,
				Logger:          a.logger,
			})
			return srv.ListenAndServe(ctx)
		},
	}

	cmd.Flags().String("listen", "", "Listen address (overrides server.listen)")
	cmd.Flags().Bool("snapshot", false, "Record a snapshot once documents are built")
	return cmd
}

// handler builds the documentation handler from the server config. The
// returned func releases static archives.
func (a *app) handler() (http.Handler, func(), error) {
	closeFn := func() {}

	var static []fs.FS
	switch {
	case a.cfg.Server.StaticDir != "":
		static = append(static, os.DirFS(a.cfg.Server.StaticDir))
	case a.cfg.Server.StaticArchive != "":
		archive, closeArchive, err := swaggerui.ArchiveFS(a.cfg.Server.StaticArchive)
		if err != nil {
			return nil, nil, fmt.Errorf("open static archive: %w", err)
		}
		static = append(static, archive)
		closeFn = func() { _ = closeArchive() }
	}

	var origins []string
	for origin := range strings.SplitSeq(a.cfg.Server.CORSOrigin, ",") {
		if origin = strings.TrimSpace(origin); origin != "" {
			origins = append(origins, origin)
		}
	}

	h, err := swaggerui.NewHandler(a.registry, swaggerui.Config{
		BasePath:    a.cfg.Server.BasePath,
		Static:      static,
		CORSOrigins: origins,
		Logger:      a.logger,
	})
	if err != nil {
		closeFn()
		return nil, nil, err
	}
	return h, closeFn, nil
}

// recordOnBuild snapshots the documents once the registry has built
// them. Services left out of a partial build are not recorded.
func (a *app) recordOnBuild(ctx context.Context, store *snapshot.Store) {
	a.registry.OnBuilt(func(docs []*swagger.Document) {
		if err := a.registry.Err(); err != nil {
			a.logger.Warn("recording snapshot of a partial build", "documents", len(docs), "error", err)
		}
		changed, err := store.RecordDocuments(ctx, docs)
		if err != nil {
			a.logger.Error("record snapshot", "error", err)
			return
		}
		a.logger.Info("snapshot recorded", "changed", changed)
	})
}
