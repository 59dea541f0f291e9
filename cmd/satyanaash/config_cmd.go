package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/rv-nath/satyanaash/pkg/config"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Manage satyanaash's configuration file",
}

var configInitCmd = &cobra.Command{
	Use:   "init",
	Short: "Write a starting config.yaml with documented defaults",
	RunE:  runConfigInit,
}

func init() {
	configCmd.AddCommand(configInitCmd)
	rootCmd.AddCommand(configCmd)
}

func runConfigInit(cmd *cobra.Command, args []string) error {
	path := configFile
	if path == "" {
		path = "config.yaml"
	}
	if err := config.WriteScaffold(path); err != nil {
		return err
	}
	fmt.Printf("wrote %s\n", path)
	return nil
}
