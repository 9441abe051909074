package cmd

import (
	"context"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/garagekb/garagekb/internal/kb"
	"github.com/garagekb/garagekb/internal/search"
	"github.com/garagekb/garagekb/internal/utils"
)

var (
	searchFlagType  string
	searchFlagMode  string
	searchFlagSort  string
	searchFlagLimit int
	searchFlagJSON  bool
)

var searchCmd = &cobra.Command{
	Use:   "search <query>",
	Short: "Search instructions from the terminal",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		c, err := activeConfig()
		if err != nil {
			return err
		}
		query := strings.Join(args, " ")

		store, err := kb.NewStore(c, nil)
		if err != nil {
			return err
		}
		defer store.Close()

		engine := search.NewEngine(c.PreviewRadius)
		docs := store.Documents(context.Background())
		results := engine.Search(docs, search.Query{Text: query, Type: searchFlagType, Mode: searchFlagMode})
		engine.Sort(results, searchFlagSort)
		if searchFlagLimit > 0 && len(results) > searchFlagLimit {
			results = results[:searchFlagLimit]
		}

		if searchFlagJSON {
			type result struct {
				ID      string `json:"id"`
				Title   string `json:"title"`
				Snippet string `json:"snippet,omitempty"`
			}
			out := make([]result, 0, len(results))
			for _, r := range results {
				out = append(out, result{
					ID:      r.Doc.ID,
					Title:   r.Doc.Title,
					Snippet: flatten(search.Snippet(r.Doc.Content, query, 60)),
				})
			}
			b, err := utils.PrettyJSON(out)
			if err != nil {
				return err
			}
			fmt.Println(string(b))
			return nil
		}

		if len(results) == 0 {
			fmt.Printf("No results for %q\n", query)
			return nil
		}
		fmt.Printf("✓ %d results for %q\n", len(results), query)
		for i, r := range results {
			fmt.Printf("%2d. %s (%s)\n", i+1, r.Doc.Title, r.Doc.ID)
			if snip := flatten(search.Snippet(r.Doc.Content, query, 60)); snip != "" {
				fmt.Printf("    %s\n", snip)
			}
		}
		return nil
	},
}

// flatten folds a snippet onto one line for terminal output.
func flatten(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

func init() {
	rootCmd.AddCommand(searchCmd)
	searchCmd.Flags().StringVar(&searchFlagType, "type", search.TypeTitle, "search type: title, content or advanced")
	searchCmd.Flags().StringVar(&searchFlagMode, "mode", search.ModeAny, "advanced mode: any, all or exact")
	searchCmd.Flags().StringVar(&searchFlagSort, "sort", search.SortRelevance, "sort order: relevance, date_new, date_old or title")
	searchCmd.Flags().IntVar(&searchFlagLimit, "limit", 0, "maximum number of results (0 = all)")
	searchCmd.Flags().BoolVar(&searchFlagJSON, "json", false, "output as JSON")
}
