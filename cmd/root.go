// Package cmd implements the board command line.
package cmd

import (
	"github.com/grovetools/board/cli"
	"github.com/spf13/cobra"
)

// NewRootCmd returns the board root command with every subcommand attached.
func NewRootCmd() *cobra.Command {
	root := cli.NewStandardCommand("board", "Live listings board")
	root.Long = "Browse, search and post listings on a board store, and run the store itself. " +
		"The store address comes from api_url in board.yml or BOARD_API_URL."

	root.AddCommand(NewServeCmd())
	root.AddCommand(NewWatchCmd())
	root.AddCommand(NewListCmd())
	root.AddCommand(NewPostCmd())
	root.AddCommand(NewSchemaCmd())
	root.AddCommand(NewConfigCmd())
	root.AddCommand(NewPathsCmd())
	root.AddCommand(cli.NewVersionCommand("board"))

	return root
}
