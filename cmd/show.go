package cmd

import (
	"context"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/garagekb/garagekb/internal/kb"
	"github.com/garagekb/garagekb/internal/utils"
)

var showJSON bool

var showCmd = &cobra.Command{
	Use:   "show <id>",
	Short: "Print one instruction with its content",
	Args:  cobra.ExactArgs(1),
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

		doc, err := store.Get(context.Background(), args[0])
		if err != nil {
			return err
		}
		if showJSON {
			b, err := utils.PrettyJSON(doc)
			if err != nil {
				return err
			}
			fmt.Println(string(b))
			return nil
		}

		fmt.Printf("%s: %s\n", doc.ID, doc.Title)
		fmt.Printf("Updated: %s\n", doc.ModifiedAt.Format("02.01.2006 15:04"))
		if len(doc.Images) > 0 {
			fmt.Printf("Images: %s\n", strings.Join(doc.Images, ", "))
		}
		if len(doc.Tags) > 0 {
			fmt.Printf("Tags: %s\n", strings.Join(doc.Tags, ", "))
		}
		fmt.Println()
		fmt.Println(doc.Content)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(showCmd)
	showCmd.Flags().BoolVar(&showJSON, "json", false, "output as JSON")
}
