package cmd

import (
	"fmt"

	"github.com/grovetools/board/config"
	"github.com/grovetools/board/schema"
	"github.com/spf13/cobra"
)

// NewSchemaCmd returns the command printing JSON schemas.
func NewSchemaCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:       "schema [item|config]",
		Short:     "Print a JSON schema",
		Long:      "Print the JSON schema of a listing (the store's create payload) or of board.yml.",
		Args:      cobra.MaximumNArgs(1),
		ValidArgs: []string{"item", "config"},
		RunE: func(cmd *cobra.Command, args []string) error {
			which := "item"
			if len(args) == 1 {
				which = args[0]
			}

			var (
				data []byte
				err  error
			)
			switch which {
			case "item":
				data, err = schema.GenerateItemSchema()
			case "config":
				data, err = config.GenerateSchema()
			default:
				return fmt.Errorf("unknown schema %q (want item or config)", which)
			}
			if err != nil {
				return fmt.Errorf("failed to generate %s schema: %w", which, err)
			}

			fmt.Fprintln(cmd.OutOrStdout(), string(data))
			return nil
		},
	}
	return cmd
}
