package main

import (
	"fmt"
	"os"

	"github.com/blang/semver"
	"github.com/rhysd/go-github-selfupdate/selfupdate"
	"github.com/spf13/cobra"
)

// currentVersion is bumped at release time; v0.0.0 means a dev build with
// no meaningful comparison against published releases.
const currentVersion = "0.0.0"

// repoSlug names this project's own release repository, the coordinates
// go-github-selfupdate checks against for "update" and "version --check".
const repoSlug = "rv-nath/satyanaash"

var checkOnly bool

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the version, optionally checking for a newer release",
	RunE:  runVersion,
}

var updateCmd = &cobra.Command{
	Use:   "update",
	Short: "Replace the running binary with the latest release",
	RunE:  runUpdate,
}

func init() {
	versionCmd.Flags().BoolVar(&checkOnly, "check", false, "Check for a newer release without installing it")
	rootCmd.AddCommand(versionCmd)
	rootCmd.AddCommand(updateCmd)
}

func runVersion(cmd *cobra.Command, args []string) error {
	fmt.Printf("satyanaash %s\n", currentVersion)
	if !checkOnly {
		return nil
	}

	latest, found, err := selfupdate.DetectLatest(repoSlug)
	if err != nil {
		return fmt.Errorf("checking for updates: %w", err)
	}
	if !found {
		fmt.Println("no releases found")
		return nil
	}

	current, err := semver.Parse(currentVersion)
	if err != nil {
		return fmt.Errorf("parsing current version: %w", err)
	}
	if latest.Version.LTE(current) {
		fmt.Println("already running the latest version")
		return nil
	}
	fmt.Printf("a newer version is available: %s (run 'satyanaash update')\n", latest.Version)
	return nil
}

func runUpdate(cmd *cobra.Command, args []string) error {
	current, err := semver.Parse(currentVersion)
	if err != nil {
		return fmt.Errorf("parsing current version: %w", err)
	}

	latest, err := selfupdate.UpdateSelf(current, repoSlug)
	if err != nil {
		return fmt.Errorf("updating: %w", err)
	}
	if latest.Version.LTE(current) {
		fmt.Println("already running the latest version")
		return nil
	}
	fmt.Printf("updated to version %s\n", latest.Version)
	fmt.Fprintf(os.Stderr, "release notes:\n%s\n", latest.ReleaseNotes)
	return nil
}
