package cmd

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/garagekb/garagekb/internal/utils"
)

var addID string

var addCmd = &cobra.Command{
	Use:   "add <file.md>",
	Short: "Import a markdown file as a new instruction folder",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		c, err := activeConfig()
		if err != nil {
			return err
		}
		file := args[0]
		b, err := os.ReadFile(file)
		if err != nil {
			return fmt.Errorf("read %s: %w", file, err)
		}

		id := addID
		if id == "" {
			base := filepath.Base(file)
			id = strings.TrimSuffix(base, filepath.Ext(base))
		}
		dir := filepath.Join(c.DataDir, id)
		if _, err := os.Stat(dir); err == nil {
			return fmt.Errorf("instruction %q already exists at %s", id, dir)
		} else if !os.IsNotExist(err) {
			return fmt.Errorf("stat instruction directory: %w", err)
		}

		if err := utils.EnsureDir(dir); err != nil {
			return err
		}
		if err := utils.SafeWriteFile(filepath.Join(dir, filepath.Base(file)), b); err != nil {
			return err
		}
		fmt.Printf("✓ Instruction added: %s\n", id)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(addCmd)
	addCmd.Flags().StringVar(&addID, "id", "", "instruction id (defaults to the file name without extension)")
}
