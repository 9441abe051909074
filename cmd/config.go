package cmd

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	cfgpkg "github.com/garagekb/garagekb/internal/config"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "View or set configuration",
}

var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show effective configuration",
	RunE: func(cmd *cobra.Command, args []string) error {
		if cfg == nil {
			fmt.Println("No config loaded")
			return nil
		}
		fmt.Printf("data_dir: %s\n", cfg.DataDir)
		fmt.Printf("port: %d\n", cfg.Port)
		fmt.Printf("debug: %t\n", cfg.Debug)
		fmt.Printf("title_pattern: %s\n", cfg.TitlePattern)
		fmt.Printf("share_pattern: %s\n", cfg.SharePattern)
		fmt.Printf("max_file_size: %d\n", cfg.MaxFileSize)
		fmt.Printf("preview_radius: %d\n", cfg.PreviewRadius)
		fmt.Printf("cache_enabled: %t\n", cfg.CacheEnabled)
		fmt.Printf("cache_watch: %t\n", cfg.CacheWatch)
		return nil
	},
}

var configSetCmd = &cobra.Command{
	Use:   "set <key> <value>",
	Short: "Set a config value and save to disk",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		key, val := args[0], args[1]
		if cfg == nil {
			c, err := cfgpkg.Load(cfgFile)
			if err != nil {
				return err
			}
			cfg = c
		}
		switch key {
		case "data_dir":
			cfg.DataDir = val
		case "port":
			i, err := strconv.Atoi(val)
			if err != nil {
				return fmt.Errorf("invalid int for port: %w", err)
			}
			cfg.Port = i
		case "debug":
			b, err := strconv.ParseBool(val)
			if err != nil {
				return fmt.Errorf("invalid bool for debug: %w", err)
			}
			cfg.Debug = b
		case "title_pattern":
			cfg.TitlePattern = val
		case "share_pattern":
			cfg.SharePattern = val
		case "max_file_size":
			i, err := strconv.ParseInt(val, 10, 64)
			if err != nil {
				return fmt.Errorf("invalid int for max_file_size: %w", err)
			}
			cfg.MaxFileSize = i
		case "preview_radius":
			i, err := strconv.Atoi(val)
			if err != nil {
				return fmt.Errorf("invalid int for preview_radius: %w", err)
			}
			cfg.PreviewRadius = i
		case "cache_enabled":
			b, err := strconv.ParseBool(val)
			if err != nil {
				return fmt.Errorf("invalid bool for cache_enabled: %w", err)
			}
			cfg.CacheEnabled = b
		case "cache_watch":
			b, err := strconv.ParseBool(val)
			if err != nil {
				return fmt.Errorf("invalid bool for cache_watch: %w", err)
			}
			cfg.CacheWatch = b
		default:
			return fmt.Errorf("unknown key: %s", key)
		}
		if err := cfg.Validate(); err != nil {
			return err
		}
		path := cfgFile
		if path == "" {
			path = cfgpkg.DefaultFile
		}
		if err := cfgpkg.Save(cfg, path); err != nil {
			return err
		}
		fmt.Println("Saved config")
		return nil
	},
}

func init() {
	rootCmd.AddCommand(configCmd)
	configCmd.AddCommand(configShowCmd)
	configCmd.AddCommand(configSetCmd)
}
