// Package cli is the svcdoc command line. Host programs link their
// service types in and hand their discovery source to Execute:
//
//	func main() {
//	    if err := cli.Execute(discovery.Default()); err != nil {
//	        fmt.Fprintln(os.Stderr, err)
//	        os.Exit(1)
//	    }
//	}
package cli

import (
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"
	"github.com/vitalvas/svcdoc/config"
	"github.com/vitalvas/svcdoc/discovery"
	"github.com/vitalvas/svcdoc/registry"
	"github.com/vitalvas/svcdoc/swagger"
)

// Execute runs the svcdoc CLI over the services of src.
func Execute(src discovery.Source) error {
	return NewRootCmd(src).Execute()
}

// app is the state shared by subcommands, prepared before any of them
// runs.
type app struct {
	src      discovery.Source
	cfg      *config.Config
	logger   *slog.Logger
	registry *registry.Registry
}

// NewRootCmd constructs the root command so tests can exercise the CLI
// without a process.
func NewRootCmd(src discovery.Source) *cobra.Command {
	a := &app{src: src}

	cmd := &cobra.Command{
		Use:           "svcdoc",
		Short:         "Generate and serve Swagger 2.0 documents for linked services",
		SilenceErrors: true,
		SilenceUsage:  true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return a.setup(cmd)
		},
		RunE: func(cmd *cobra.Command, _ []string) error {
			return cmd.Help()
		},
	}

	cmd.PersistentFlags().StringP("config", "c", "", "Config file path (default "+config.DefaultPath+")")
	cmd.PersistentFlags().BoolP("verbose", "v", false, "Enable debug logging")

	for _, sub := range []*cobra.Command{
		newListCmd(a),
		newDumpCmd(a),
		newCheckCmd(a),
		newSnapshotCmd(a),
		newServeCmd(a),
	} {
		cmd.AddCommand(sub)
	}

	// Subcommands inherit the flag error func from the root.
	cmd.SetFlagErrorFunc(func(c *cobra.Command, err error) error {
		return newUsageError(fmt.Sprintf("%v\n\n%s", err, c.UsageString()))
	})

	return cmd
}

func (a *app) setup(cmd *cobra.Command) error {
	path, err := cmd.Flags().GetString("config")
	if err != nil {
		return err
	}
	verbose, err := cmd.Flags().GetBool("verbose")
	if err != nil {
		return err
	}

	cfg, err := config.Load(path)
	if err != nil {
		return err
	}
	if verbose {
		cfg.Log.Level = "debug"
	}
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("config: %w", err)
	}

	a.cfg = cfg
	a.logger = cfg.NewLogger(cmd.ErrOrStderr())
	a.registry = registry.NewFromSource(a.src, discovery.Options{
		Filter:   cfg.Filter(),
		Settings: cfg.DocumentSettings(),
		Logger:   a.logger,
	})
	return nil
}

// documents returns the built documents. A partial build is logged and
// tolerated; an empty failed build is an error.
func (a *app) documents() ([]*swagger.Document, error) {
	docs, err := a.registry.Documents()
	if err != nil {
		if len(docs) == 0 {
			return nil, fmt.Errorf("build documents: %w", err)
		}
		a.logger.Warn("some services were left out", "error", err)
	}
	return docs, nil
}

// document returns the named document, or the default one for an empty
// name.
func (a *app) document(name string) (*swagger.Document, error) {
	if _, err := a.documents(); err != nil {
		return nil, err
	}

	var doc *swagger.Document
	var ok bool
	if name == "" {
		doc, ok = a.registry.Default()
	} else {
		doc, ok = a.registry.Lookup(name)
	}
	if !ok {
		if name == "" {
			return nil, fmt.Errorf("%w: no services found", ErrUnknownDocument)
		}
		return nil, fmt.Errorf("%w: %q", ErrUnknownDocument, name)
	}
	return doc, nil
}
