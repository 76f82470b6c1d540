package cli

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"github.com/vitalvas/svcdoc/swagger"
)

func newDumpCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "dump [name]",
		Short: "Print a document as JSON or YAML",
		Long:  "Print the named document, or the default one when no name is given.",
		Example: strings.TrimSpace(`  svcdoc dump
  svcdoc dump widgets --format yaml --output widgets.yaml`),
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			format, err := cmd.Flags().GetString("format")
			if err != nil {
				return err
			}
			output, err := cmd.Flags().GetString("output")
			if err != nil {
				return err
			}

			var serialize func(*swagger.Document) ([]byte, error)
			switch strings.ToLower(format) {
			case "json":
				serialize = swagger.Serialize
			case "yaml", "yml":
				serialize = swagger.SerializeYAML
			default:
				return newUsageError(fmt.Sprintf("unknown format %q (json|yaml)\n\n%s", format, cmd.UsageString()))
			}

			var name string
			if len(args) == 1 {
				name = args[0]
			}
			doc, err := a.document(name)
			if err != nil {
				return err
			}

			data, err := serialize(doc)
			if err != nil {
				return fmt.Errorf("serialize %s: %w", doc.Name, err)
			}

			if output != "" {
				if err := os.WriteFile(output, data, 0o644); err != nil {
					return fmt.Errorf("write %s: %w", output, err)
				}
				a.logger.Info("document written", "document", doc.Name, "path", output)
				return nil
			}

			_, err = cmd.OutOrStdout().Write(data)
			return err
		},
	}

	cmd.Flags().StringP("format", "f", "json", "Output format (json|yaml)")
	cmd.Flags().StringP("output", "o", "", "Write to this file instead of stdout")
	return cmd
}
