package cmd

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/garagekb/garagekb/internal/utils"
)

const sampleInstruction = `# Welcome to the knowledge base

This folder is an instruction: one markdown file plus any images it refers to.

## Adding instructions

Create a new folder next to this one. The folder name becomes the
instruction ID, the first level-one heading becomes its title.

## Images

Drop image files (jpg, png, gif, webp) into the folder and reference them
from the markdown:

![diagram](diagram.png)

The server rewrites relative image links to its own image routes.
`

var initCmd = &cobra.Command{
	Use:   "init [dir]",
	Short: "Create a data directory with a sample instruction",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		c, err := activeConfig()
		if err != nil {
			return err
		}
		dir := c.DataDir
		if len(args) > 0 {
			dir = args[0]
		}

		sampleDir := filepath.Join(dir, "welcome")
		// Refuse to overwrite an existing sample.
		if info, err := os.Stat(sampleDir); err == nil && info.IsDir() {
			entries, err := os.ReadDir(sampleDir)
			if err != nil {
				return fmt.Errorf("inspect sample directory: %w", err)
			}
			if len(entries) > 0 {
				return fmt.Errorf("directory %s already exists and is not empty; refusing to initialize", sampleDir)
			}
		} else if err != nil && !os.IsNotExist(err) {
			return fmt.Errorf("stat sample directory: %w", err)
		}
		if err := utils.EnsureDir(sampleDir); err != nil {
			return err
		}
		if err := utils.SafeWriteFile(filepath.Join(sampleDir, "welcome.md"), []byte(sampleInstruction)); err != nil {
			return err
		}

		fmt.Printf("✓ Data directory initialized: %s\n", dir)
		fmt.Println("Next steps:")
		fmt.Println("  garagekb check            verify the folders scan cleanly")
		fmt.Printf("  garagekb serve --data-dir %s\n", dir)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(initCmd)
}
