package cmd

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/garagekb/garagekb/internal/kb"
)

var checkCmd = &cobra.Command{
	Use:   "check",
	Short: "Scan the data directory and report per-folder problems",
	Long: `Check walks every folder under the data directory and reports what the
server would do with it: folders that scan cleanly, folders without
markdown content (hidden from listings), and folders that failed to scan.`,
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

		scans := store.ScanAll(context.Background())
		if len(scans) == 0 {
			fmt.Printf("No instruction folders found in %s\n", store.Root())
			return nil
		}

		var ok, hidden, failed int
		for _, fs := range scans {
			switch {
			case fs.Err != nil:
				failed++
				fmt.Printf("✗ %s: %v\n", fs.Doc.ID, fs.Err)
			case !fs.Doc.Listed():
				hidden++
				fmt.Printf("⚠ %s: no markdown content, hidden from listings\n", fs.Doc.ID)
			default:
				ok++
				fmt.Printf("✓ %s: %s (%d images)\n", fs.Doc.ID, fs.Doc.Title, len(fs.Doc.Images))
			}
		}

		fmt.Printf("\n%d ok, %d hidden, %d failed\n", ok, hidden, failed)
		if failed > 0 {
			return fmt.Errorf("%d folders failed to scan", failed)
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(checkCmd)
}
