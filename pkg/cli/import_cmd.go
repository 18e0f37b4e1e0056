package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/fauxsmith/fauxsmith/pkg/config"
	"github.com/fauxsmith/fauxsmith/pkg/openapi"
)

var importOwner string

var importCmd = &cobra.Command{
	Use:   "import <openapi-file>",
	Short: "Convert an OpenAPI 3 document into a fixture file",
	Long: `Convert an OpenAPI 3 document (JSON or YAML) into a fixture file on
stdout, one mock per documented operation. Pipe it into a file and serve it:

  fauxsmith import petstore.yaml --owner demo > fixtures/petstore.yaml
  fauxsmith serve --fixtures 'fixtures/*.yaml'`,
	Args: cobra.ExactArgs(1),
	RunE: runImport,
}

func init() {
	importCmd.Flags().StringVar(&importOwner, "owner", "", "Owner handle for the generated fixtures (required)")
	_ = importCmd.MarkFlagRequired("owner")
	rootCmd.AddCommand(importCmd)
}

func runImport(cmd *cobra.Command, args []string) error {
	doc, err := os.ReadFile(args[0])
	if err != nil {
		return fmt.Errorf("reading %s: %w", args[0], err)
	}

	paramsList, err := openapi.Import(cmd.Context(), doc)
	if err != nil {
		return err
	}

	out := config.FixtureFile{Owner: importOwner}
	for _, p := range paramsList {
		out.Mocks = append(out.Mocks, config.FixtureMock{
			Route:    p.Route,
			Method:   p.Method,
			Status:   p.Status,
			Response: p.Response,
			IsArray:  p.IsArray,
		})
	}

	enc := yaml.NewEncoder(os.Stdout)
	enc.SetIndent(2)
	if err := enc.Encode(out); err != nil {
		return fmt.Errorf("writing fixture YAML: %w", err)
	}
	return enc.Close()
}
