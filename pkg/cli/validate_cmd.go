package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/fauxsmith/fauxsmith/pkg/config"
	"github.com/fauxsmith/fauxsmith/pkg/mockauth"
	"github.com/fauxsmith/fauxsmith/pkg/mockdef"
)

var validateCmd = &cobra.Command{
	Use:   "validate <glob>",
	Short: "Validate fixture files without starting a server",
	Example: `  fauxsmith validate 'fixtures/**/*.yaml'
  fauxsmith validate fixtures/shop.yaml`,
	Args: cobra.ExactArgs(1),
	RunE: runValidate,
}

func init() {
	rootCmd.AddCommand(validateCmd)
}

func runValidate(cmd *cobra.Command, args []string) error {
	files, err := config.LoadFixtures(args[0])
	if err != nil {
		return err
	}
	if len(files) == 0 {
		return fmt.Errorf("no fixture files match %q", args[0])
	}

	mocks, endpoints := 0, 0
	for _, f := range files {
		for _, m := range f.Mocks {
			// Run the same constructor serve uses, so validate catches
			// everything serve would reject.
			if _, err := mockdef.New(func() string { return "validate" }, "validate", m.Params()); err != nil {
				return fmt.Errorf("owner %q, mock %q: %w", f.Owner, m.Route, err)
			}
			mocks++
		}
		for _, a := range f.AuthEndpoints {
			def := mockauth.Definition{Endpoint: a.Endpoint, Fields: a.Fields}
			if err := def.Validate(); err != nil {
				return fmt.Errorf("owner %q, auth endpoint %q: %w", f.Owner, a.Endpoint, err)
			}
			endpoints++
		}
	}

	fmt.Printf("OK: %d file(s), %d mock(s), %d auth endpoint(s)\n", len(files), mocks, endpoints)
	return nil
}
