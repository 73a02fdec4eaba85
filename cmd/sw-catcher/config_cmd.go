package main

import (
	"fmt"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/corinthian/sw-catcher/internal/config"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Manage the sw-catcher configuration",
}

var configInitCmd = &cobra.Command{
	Use:   "init",
	Short: "Write a default config file",
	Long:  `Creates a commented config.toml (or the file given with --config) unless it already exists.`,
	RunE:  runConfigInit,
}

var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Print the resolved configuration as YAML",
	RunE:  runConfigShow,
}

func init() {
	configCmd.AddCommand(configInitCmd, configShowCmd)
}

func runConfigInit(cmd *cobra.Command, args []string) error {
	path := configPath
	if path == "" {
		path = config.DefaultFile
	}
	created, err := config.WriteDefault(path)
	if err != nil {
		return err
	}
	if created {
		fmt.Printf("%s Created %s\n", successStyle.Render("✓"), path)
	} else {
		fmt.Printf("%s already exists, leaving it untouched\n", path)
	}
	return nil
}

func runConfigShow(cmd *cobra.Command, args []string) error {
	s, err := loadSettings(cmd)
	if err != nil {
		return err
	}
	data, err := yaml.Marshal(s)
	if err != nil {
		return fmt.Errorf("encoding settings: %w", err)
	}
	fmt.Print(string(data))
	return nil
}
