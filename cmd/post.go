package cmd

import (
	"fmt"

	"github.com/grovetools/board/logging"
	"github.com/grovetools/board/pkg/board"
	"github.com/spf13/cobra"
)

// NewPostCmd returns the command that submits one listing.
func NewPostCmd() *cobra.Command {
	var title, description, price, imageURL string

	cmd := &cobra.Command{
		Use:   "post",
		Short: "Submit a new listing",
		Long: "Submit a new listing to the store. The store assigns the id and announces " +
			"the listing to every open board. A price that is not a number is sent as 0.",
		Example: `  board post --title "Lake cabin" --description "Two bedrooms" --price 120000`,
		RunE: func(cmd *cobra.Command, args []string) error {
			_, client, logger, err := storeClient(cmd, "board-post")
			if err != nil {
				return err
			}
			defer client.Close()

			form, err := board.FormFromValues(map[string]string{
				"title":       title,
				"description": description,
				"price":       price,
				"image_url":   imageURL,
			})
			if err != nil {
				return err
			}

			if err := board.NewSubmitter(client, logger).Submit(cmd.Context(), form); err != nil {
				return err
			}
			logging.NewConsole(cmd.OutOrStdout()).Success(fmt.Sprintf("Submitted %q", title))
			return nil
		},
	}

	cmd.Flags().StringVarP(&title, "title", "t", "", "Listing title (required)")
	cmd.Flags().StringVarP(&description, "description", "d", "", "Listing description (required)")
	cmd.Flags().StringVarP(&price, "price", "p", "", "Asking price")
	cmd.Flags().StringVar(&imageURL, "image-url", "", "Reference to an image of the listing")

	return cmd
}
