package cmd

import (
	"encoding/json"
	"fmt"

	"github.com/charmbracelet/lipgloss"
	ltable "github.com/charmbracelet/lipgloss/table"
	"github.com/grovetools/board/cli"
	"github.com/grovetools/board/pkg/board"
	"github.com/grovetools/board/pkg/models"
	"github.com/spf13/cobra"
)

// NewListCmd returns the one-shot listing command.
func NewListCmd() *cobra.Command {
	var match string

	cmd := &cobra.Command{
		Use:   "list",
		Short: "Print the current listings, newest first",
		RunE: func(cmd *cobra.Command, args []string) error {
			_, client, logger, err := storeClient(cmd, "board-list")
			if err != nil {
				return err
			}
			defer client.Close()

			view := board.NewView()
			if err := board.NewLoader(client, view, logger).Load(cmd.Context()); err != nil {
				return err
			}

			items := board.Search(view.Items(), match)

			if cli.GetOptions(cmd).JSONOutput {
				enc := json.NewEncoder(cmd.OutOrStdout())
				enc.SetIndent("", "  ")
				return enc.Encode(items)
			}

			if len(items) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "No listings")
				return nil
			}
			fmt.Fprintln(cmd.OutOrStdout(), listingsTable(items))
			return nil
		},
	}

	cmd.Flags().StringVarP(&match, "match", "m", "", "Only show listings whose title matches (typos tolerated)")
	return cmd
}

func listingsTable(items []models.Item) string {
	header := lipgloss.NewStyle().Bold(true).Padding(0, 1)
	cell := lipgloss.NewStyle().Padding(0, 1)

	t := ltable.New().
		Border(lipgloss.RoundedBorder()).
		BorderStyle(lipgloss.NewStyle().Foreground(lipgloss.Color("240"))).
		Headers("ID", "TITLE", "PRICE", "DESCRIPTION").
		StyleFunc(func(row, col int) lipgloss.Style {
			if row < 0 { // header row
				return header
			}
			return cell
		})

	for _, item := range items {
		t.Row(fmt.Sprintf("%d", item.ID), item.Title, item.FormatPrice(), item.Description)
	}
	return t.String()
}
