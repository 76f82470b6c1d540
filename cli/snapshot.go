package cli

import (
	"context"
	"fmt"
	"slices"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"
	"github.com/vitalvas/svcdoc/snapshot"
)

func newSnapshotCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "snapshot",
		Short: "Record documents that changed since the last snapshot",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			docs, err := a.documents()
			if err != nil {
				return err
			}

			store, err := a.openStore(cmd)
			if err != nil {
				return err
			}
			defer store.Close()

			changed, err := store.RecordDocuments(cmd.Context(), docs)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			for _, key := range snapshot.Keys(docs) {
				state := "unchanged"
				if slices.Contains(changed, key) {
					state = "recorded"
				}
				fmt.Fprintf(out, "%s\t%s\n", state, key)
			}
			return nil
		},
	}
	cmd.PersistentFlags().String("dsn", "", "Snapshot database (overrides snapshot.dsn)")

	history := &cobra.Command{
		Use:   "history <key>",
		Short: "Show recorded snapshots of a document, newest first",
		Long: "Show recorded snapshots of a document, newest first. A document is " +
			"recorded under its name, or under its service type when the name is " +
			"empty or shared.",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			limit, err := cmd.Flags().GetInt("limit")
			if err != nil {
				return err
			}

			store, err := a.openStore(cmd)
			if err != nil {
				return err
			}
			defer store.Close()

			snaps, err := store.History(cmd.Context(), args[0], limit)
			if err != nil {
				return err
			}

			tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, "ID\tDIGEST\tCREATED")
			for _, s := range snaps {
				fmt.Fprintf(tw, "%d\t%s\t%s\n", s.ID, s.Digest[:12], s.CreatedAt.UTC().Format(time.RFC3339))
			}
			return tw.Flush()
		},
	}
	history.Flags().Int("limit", 10, "Maximum number of snapshots, 0 for all")
	cmd.AddCommand(history)

	return cmd
}

func (a *app) openStore(cmd *cobra.Command) (*snapshot.Store, error) {
	dsn, err := cmd.Flags().GetString("dsn")
	if err != nil {
		return nil, err
	}
	if dsn == "" {
		dsn = a.cfg.Snapshot.DSN
	}
	return openStore(cmd.Context(), dsn)
}

func openStore(ctx context.Context, dsn string) (*snapshot.Store, error) {
	store, err := snapshot.Open(ctx, dsn)
	if err != nil {
		return nil, fmt.Errorf("open snapshot store %s: %w", dsn, err)
	}
	return store, nil
}
