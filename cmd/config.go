package cmd

import (
	"fmt"
	"strconv"

	cfgpkg "github.com/KaramelBytes/ccsdb/internal/config"
	"github.com/KaramelBytes/ccsdb/internal/dataset"
	"github.com/spf13/cobra"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "View or set ccsdb configuration",
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
		fmt.Printf("variant: %s\n", cfg.Variant)
		if cfg.VariantsFile != "" {
			fmt.Printf("variants_file: %s\n", cfg.VariantsFile)
		}
		fmt.Printf("compound_list: %s\n", cfg.CompoundList)
		fmt.Printf("pathway_list: %s\n", cfg.PathwayList)
		if cfg.PeriodicTable != "" {
			fmt.Printf("periodic_table: %s\n", cfg.PeriodicTable)
		}
		fmt.Printf("page_size: %d\n", cfg.PageSize)
		fmt.Printf("mass_tolerance: %.3f\n", cfg.MassTolerance)
		fmt.Printf("structure_image_base: %s\n", cfg.StructureImageBase)
		fmt.Printf("structure_placeholder: %s\n", cfg.StructurePlaceholder)
		fmt.Printf("image_retry_delay_ms: %d\n", cfg.ImageRetryDelayMs)
		fmt.Printf("diagram_service_url: %s\n", cfg.DiagramServiceURL)
		fmt.Printf("http_timeout_sec: %d\n", cfg.HTTPTimeoutSec)
		fmt.Printf("listen_addr: %s\n", cfg.ListenAddr)
		fmt.Printf("log_level: %s\n", cfg.LogLevel)
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
		case "variant":
			vs, err := dataset.LoadVariants(cfg.VariantsFile)
			if err != nil {
				return err
			}
			if _, err := vs.Lookup(val); err != nil {
				return err
			}
			cfg.Variant = val
		case "variants_file":
			if val != "" {
				if _, err := dataset.LoadVariants(val); err != nil {
					return err
				}
			}
			cfg.VariantsFile = val
		case "compound_list":
			cfg.CompoundList = val
		case "pathway_list":
			cfg.PathwayList = val
		case "periodic_table":
			cfg.PeriodicTable = val
		case "page_size":
			i, err := strconv.Atoi(val)
			if err != nil || i <= 0 {
				return fmt.Errorf("invalid positive int for page_size: %v", val)
			}
			cfg.PageSize = i
		case "mass_tolerance":
			f, err := strconv.ParseFloat(val, 64)
			if err != nil || f < 0 {
				return fmt.Errorf("invalid float for mass_tolerance: %v", val)
			}
			cfg.MassTolerance = f
		case "structure_image_base":
			cfg.StructureImageBase = val
		case "structure_placeholder":
			cfg.StructurePlaceholder = val
		case "image_retry_delay_ms":
			i, err := strconv.Atoi(val)
			if err != nil || i < 0 {
				return fmt.Errorf("invalid int for image_retry_delay_ms: %v", val)
			}
			cfg.ImageRetryDelayMs = i
		case "diagram_service_url":
			cfg.DiagramServiceURL = val
		case "http_timeout_sec":
			i, err := strconv.Atoi(val)
			if err != nil {
				return fmt.Errorf("invalid int for http_timeout_sec: %w", err)
			}
			cfg.HTTPTimeoutSec = i
		case "listen_addr":
			cfg.ListenAddr = val
		case "log_level":
			switch val {
			case "error", "warn", "info", "debug":
				cfg.LogLevel = val
			default:
				return fmt.Errorf("invalid log_level: %s (use error, warn, info or debug)", val)
			}
		default:
			return fmt.Errorf("unknown key: %s", key)
		}
		if err := cfgpkg.Save(cfg, cfgFile); err != nil {
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
