package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

// NewMigrateCommand aplica las migraciones SQL pendientes.
func NewMigrateCommand(opts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Aplica las migraciones pendientes",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			b, err := opts.backend(cmd.Context())
			if err != nil {
				return err
			}
			defer b.Close()

			applied, err := b.Migrate(cmd.Context())
			if err != nil {
				return fmt.Errorf("migrar: %w", err)
			}
			out := cmd.OutOrStdout()
			if len(applied) == 0 {
				fmt.Fprintln(out, "sin migraciones pendientes")
				return nil
			}
			for _, name := range applied {
				fmt.Fprintf(out, "aplicada %s\n", name)
			}
			return nil
		},
	}
}
