package main

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/rv-nath/satyanaash/pkg/config"
	"github.com/rv-nath/satyanaash/pkg/events"
	"github.com/rv-nath/satyanaash/pkg/orchestrator"
	"github.com/rv-nath/satyanaash/pkg/report"
	"github.com/rv-nath/satyanaash/pkg/style"
	"github.com/rv-nath/satyanaash/pkg/workbook"
)

const banner = `
 ____        _                                   _
/ ___|  __ _| |_ _   _  __ _ _ __   __ _  __ _ ___| |__
\___ \ / _' | __| | | |/ _' | '_ \ / _' |/ _' / __| '_ \
 ___) | (_| | |_| |_| | (_| | | | | (_| | (_| \__ \ | | |
|____/ \__,_|\__|\__, |\__,_|_| |_|\__,_|\__,_|___/_| |_|
                 |___/
`

var (
	configFile string
	startRow   int
	endRow     int
	baseURL    string
	testFile   string
	worksheet  string
	groupFlags []string
	verbose    bool
	rateLimit  float64

	rootCmd = &cobra.Command{
		Use:   "satyanaash",
		Short: "A data-driven HTTP API test harness",
		RunE:  run,
	}
)

func init() {
	rootCmd.Flags().IntVarP(&startRow, "start_row", "s", 0, "Set the start row (requires -w)")
	rootCmd.Flags().IntVarP(&endRow, "end_row", "e", 0, "Set the end row (requires -w)")
	rootCmd.Flags().StringVarP(&baseURL, "base_url", "b", "", "Set the base URL")
	rootCmd.Flags().StringVarP(&testFile, "test_file", "t", "", "Set the test file")
	rootCmd.Flags().StringVarP(&worksheet, "worksheet", "w", "", "Set the worksheet")
	rootCmd.Flags().StringArrayVarP(&groupFlags, "group", "g", nil, "Run only this group (sheet.group, sheet:group, or group); repeatable")
	rootCmd.Flags().BoolVarP(&verbose, "verbose", "v", false, "Verbose output")
	rootCmd.Flags().StringVar(&configFile, "config", "config.yaml", "Path to the YAML configuration file")
	rootCmd.Flags().Float64VarP(&rateLimit, "rate_limit", "r", 0, "Max requests per second per group (0 = unthrottled)")
}

func run(cmd *cobra.Command, args []string) error {
	fmt.Println(banner)

	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		fmt.Fprintf(os.Stderr, "Warning: failed to load .env file: %v\n", err)
	}

	flags := config.Flags{
		BaseURL:   baseURL,
		TestFile:  testFile,
		Worksheet: worksheet,
		Groups:    groupFlags,
		Verbose:   verbose,
		RateLimit: rateLimit,
	}
	if cmd.Flags().Changed("start_row") {
		v := startRow
		flags.StartRow = &v
	}
	if cmd.Flags().Changed("end_row") {
		v := endRow
		flags.EndRow = &v
	}

	cfg, err := config.Load(configFile, flags)
	if err != nil {
		return fmt.Errorf("building config: %w", err)
	}
	if cfg.TestFile == "" {
		return fmt.Errorf("test file not provided")
	}

	wb, err := workbook.Open(cfg.TestFile)
	if err != nil {
		return fmt.Errorf("opening test file: %w", err)
	}
	defer wb.Close()

	bus := events.NewBus()
	go drainEvents(bus, cfg.Verbose)

	counters := orchestrator.Run(wb, cfg, bus, cfg.TestFile)
	bus.Close()

	fmt.Println(report.Render(cfg.TestFile, counters))
	return nil
}

// drainEvents is the default event consumer: it exists so the orchestrator
// never blocks on a missing listener, and optionally echoes case-level
// detail when verbose is set.
func drainEvents(bus *events.Bus, verbose bool) {
	for e := range bus.Events() {
		if !verbose {
			continue
		}
		switch e.Kind {
		case events.CaseEnd:
			fmt.Printf("  [%d] %s\n", e.CaseEnd.CaseID, style.ResultLine(e.CaseEnd.Result))
		case events.GroupEnd:
			fmt.Printf("Group %s.%s: total=%d passed=%d failed=%d skipped=%d\n",
				e.GroupEnd.Worksheet, e.GroupEnd.GroupName,
				e.GroupEnd.Total, e.GroupEnd.Passed, e.GroupEnd.Failed, e.GroupEnd.Skipped)
		}
	}
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
