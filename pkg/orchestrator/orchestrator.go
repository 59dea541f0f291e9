// Package orchestrator implements the suite orchestrator (C8): it walks
// the row stream of an open workbook, detects group boundaries, filters
// by the configured group selectors, and dispatches rows to a fresh group
// executor per group, firing suite-level events around the whole run.
package orchestrator

import (
	"context"
	"fmt"
	"time"

	"github.com/rv-nath/satyanaash/pkg/bootstrap"
	"github.com/rv-nath/satyanaash/pkg/config"
	"github.com/rv-nath/satyanaash/pkg/events"
	"github.com/rv-nath/satyanaash/pkg/executor"
	"github.com/rv-nath/satyanaash/pkg/testcase"
	"github.com/rv-nath/satyanaash/pkg/workbook"
)

// SheetSource is the subset of *workbook.Workbook the orchestrator needs,
// letting tests substitute an in-memory workbook.
type SheetSource interface {
	Sheets() []string
	Rows(sheet string) ([]testcase.Row, error)
}

// Counters aggregates results across the whole suite.
type Counters struct {
	Total, Passed, Failed, Skipped int
}

// Run walks wb's sheets per cfg and emits the full event stream onto bus.
// It returns only the Counters describing the run; per-case failures are
// surfaced through counters and events, never as a Go error (§4.8 step 5).
func Run(wb SheetSource, cfg *config.Config, bus *events.Bus, suiteName string) Counters {
	start := time.Now()
	bus.Publish(events.Event{Kind: events.SuiteBegin, SuiteBegin: &events.SuiteBeginData{
		Timestamp: start, SuiteName: suiteName,
	}})

	var oauthToken string
	if cfg.OAuth2.Enabled() {
		token, err := bootstrap.FetchToken(context.Background(), cfg.OAuth2)
		if err != nil {
			fmt.Printf("Warning: oauth2 bootstrap failed: %v\n", err)
		} else {
			oauthToken = token
		}
	}

	var total Counters
	sheets := sheetsToProcess(wb, cfg)

	for _, sheet := range sheets {
		rows, err := wb.Rows(sheet)
		if err != nil {
			fmt.Printf("Warning: failed to read sheet %s: %v\n", sheet, err)
			continue
		}
		total = total.add(processSheet(sheet, rows, cfg, bus, oauthToken))
	}

	bus.Publish(events.Event{Kind: events.SuiteEnd, SuiteEnd: &events.SuiteEndData{
		Timestamp: time.Now(), SuiteName: suiteName, ExecDuration: time.Since(start),
		Total: total.Total, Passed: total.Passed, Failed: total.Failed, Skipped: total.Skipped,
	}})
	printSummary(total)
	return total
}

// sheetsToProcess returns every sheet to walk: just cfg.Worksheet if one
// is configured, else every sheet in the workbook (§4.8 step 3).
func sheetsToProcess(wb SheetSource, cfg *config.Config) []string {
	if cfg.Worksheet != "" {
		return []string{cfg.Worksheet}
	}
	return wb.Sheets()
}

// processSheet walks one sheet's rows, finalizing and starting groups on
// "Group:" control rows and dispatching every other row to the active
// group (§4.8 step 3).
func processSheet(sheet string, rows []testcase.Row, cfg *config.Config, bus *events.Bus, oauthToken string) Counters {
	var total Counters
	startRow := cfg.StartRowOrDefault()

	var active *executor.GroupExecutor

	finalize := func() {
		if active == nil {
			return
		}
		active.FireEnd()
		printGroupStats(active)
		total.Total += active.Total
		total.Passed += active.Passed
		total.Failed += active.Failed
		total.Skipped += active.Skipped
		active = nil
	}

	boundEndRow := cfg.Worksheet != "" && cfg.EndRow > 0

	for idx, row := range rows {
		if idx < startRow {
			continue
		}
		if boundEndRow && idx > cfg.EndRow {
			break
		}
		first := workbook.FirstCell(row)

		if testcase.IsGroupHeader(first) {
			finalize()
			name := testcase.GroupName(first)
			if cfg.Allows(sheet, name) {
				ge, err := executor.NewGroupExecutor(sheet, name, cfg.TokenKey, bus, cfg.RateLimit, cfg.Verbose)
				if err != nil {
					fmt.Printf("Warning: failed to start group %s.%s: %v\n", sheet, name, err)
					continue
				}
				if oauthToken != "" {
					if err := bootstrap.SeedToken(ge.Ctx.Runtime, oauthToken); err != nil {
						fmt.Printf("Warning: failed to seed oauth2 token for group %s.%s: %v\n", sheet, name, err)
					}
				}
				active = ge
				active.FireBegin()
			}
			continue
		}

		if active != nil {
			active.Exec(row, cfg.BaseURL)
		}
	}
	finalize()
	return total
}

func (c Counters) add(o Counters) Counters {
	return Counters{
		Total:   c.Total + o.Total,
		Passed:  c.Passed + o.Passed,
		Failed:  c.Failed + o.Failed,
		Skipped: c.Skipped + o.Skipped,
	}
}

func printGroupStats(ge *executor.GroupExecutor) {
	fmt.Println()
	fmt.Printf("Group Summary: { Name: %s, Total: %d, Passed: %d, Failed: %d, Skipped: %d }\n",
		ge.Name, ge.Total, ge.Passed, ge.Failed, ge.Skipped)
	fmt.Println(repeat("-", 80))
	fmt.Println()
}

func printSummary(c Counters) {
	fmt.Printf("Summary: { Total: %d, Passed: %d, Failed: %d, Skipped: %d }\n",
		c.Total, c.Passed, c.Failed, c.Skipped)
}

func repeat(s string, n int) string {
	out := make([]byte, 0, n*len(s))
	for i := 0; i < n; i++ {
		out = append(out, s...)
	}
	return string(out)
}
