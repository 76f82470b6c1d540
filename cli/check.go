package cli

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"github.com/vitalvas/svcdoc/swagger"
	"github.com/vitalvas/svcdoc/validate"
)

// payloadCheck is one --payload flag: a JSON file checked against a
// definition.
type payloadCheck struct {
	definition string
	file       string
}

func parsePayloadChecks(values []string) ([]payloadCheck, error) {
	checks := make([]payloadCheck, 0, len(values))
	for _, v := range values {
		definition, file, ok := strings.Cut(v, "=")
		definition, file = strings.TrimSpace(definition), strings.TrimSpace(file)
		if !ok || definition == "" || file == "" {
			return nil, newUsageError(fmt.Sprintf("invalid --payload %q, want <Definition>=<file.json>", v))
		}
		checks = append(checks, payloadCheck{definition: definition, file: file})
	}
	return checks, nil
}

func newCheckCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "check",
		Short: "Validate every document as OpenAPI",
		Long: "Build every document, convert it to OpenAPI 3 and validate it. " +
			"Services that could not be built are reported as failures.\n\n" +
			"Each --payload <Definition>=<file.json> is validated against that " +
			"definition in every document that has it. A definition no document " +
			"has is a failure.",
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			values, err := cmd.Flags().GetStringArray("payload")
			if err != nil {
				return err
			}
			checks, err := parsePayloadChecks(values)
			if err != nil {
				return err
			}

			docs, buildErr := a.registry.Documents()

			var failures []error
			if buildErr != nil {
				failures = append(failures, buildErr)
			}

			out := cmd.OutOrStdout()
			rendered := make([][]byte, 0, len(docs))
			for _, doc := range docs {
				data, err := swagger.Serialize(doc)
				if err == nil {
					_, err = validate.Document(cmd.Context(), data)
				}
				if err != nil {
					fmt.Fprintf(out, "FAIL\t%s\t%v\n", doc.Name, err)
					failures = append(failures, fmt.Errorf("%s: %w", doc.Name, err))
					rendered = append(rendered, nil)
					continue
				}
				fmt.Fprintf(out, "ok\t%s\n", doc.Name)
				rendered = append(rendered, data)
			}

			for _, c := range checks {
				failures = append(failures, checkPayload(out, c, docs, rendered)...)
			}

			if len(failures) > 0 {
				return fmt.Errorf("check failed: %w", errors.Join(failures...))
			}
			return nil
		},
	}

	cmd.Flags().StringArray("payload", nil, "Validate a JSON file against a definition, as <Definition>=<file.json> (repeatable)")
	return cmd
}

// checkPayload validates one payload file against every document that
// defines c.definition and returns the failures.
func checkPayload(out io.Writer, c payloadCheck, docs []*swagger.Document, rendered [][]byte) []error {
	payload, err := os.ReadFile(c.file)
	if err != nil {
		fmt.Fprintf(out, "FAIL\t%s\t%v\n", c.file, err)
		return []error{fmt.Errorf("read payload: %w", err)}
	}

	var failures []error
	matched := false
	for i, doc := range docs {
		if rendered[i] == nil {
			continue
		}
		if _, ok := doc.Definition(c.definition); !ok {
			continue
		}
		matched = true

		if err := validate.Payload(rendered[i], c.definition, payload); err != nil {
			fmt.Fprintf(out, "FAIL\t%s\t%s\t%s\t%v\n", doc.Name, c.definition, c.file, err)
			failures = append(failures, fmt.Errorf("%s: %s: %w", doc.Name, c.file, err))
			continue
		}
		fmt.Fprintf(out, "ok\t%s\t%s\t%s\n", doc.Name, c.definition, c.file)
	}

	if !matched {
		err := fmt.Errorf("%w: %q", validate.ErrUnknownDefinition, c.definition)
		fmt.Fprintf(out, "FAIL\t%s\t%v\n", c.file, err)
		failures = append(failures, err)
	}
	return failures
}
