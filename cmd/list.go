package cmd

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/garagekb/garagekb/internal/kb"
	"github.com/garagekb/garagekb/internal/utils"
)

var listJSON bool

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List the instructions in the knowledge base",
	RunE: func(cmd *cobra.Command, args []string) error {
		c, err := activeConfig()
		if err != nil {
			return err
		}
		store, err := kb.NewStore(c, nil)
		if err != nil {
			return err
		}
		defer store.Close()

		docs := store.Documents(context.Background())
		if listJSON {
			b, err := utils.PrettyJSON(docs)
			if err != nil {
				return err
			}
			fmt.Println(string(b))
			return nil
		}
		if len(docs) == 0 {
			fmt.Println("(no instructions)")
			return nil
		}
		for _, d := range docs {
			fmt.Printf("- %s: %s (%d images, %s)\n", d.ID, d.Title, len(d.Images), d.ModifiedAt.Format("02.01.2006 15:04"))
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(listCmd)
	listCmd.Flags().BoolVar(&listJSON, "json", false, "output as JSON")
}
