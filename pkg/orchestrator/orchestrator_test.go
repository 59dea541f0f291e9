package orchestrator

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/rv-nath/satyanaash/pkg/config"
	"github.com/rv-nath/satyanaash/pkg/events"
	"github.com/rv-nath/satyanaash/pkg/testcase"
)

type fakeRow struct {
	cells [12]any
}

func (r fakeRow) String(col int) (string, bool) {
	s, ok := r.cells[col].(string)
	return s, ok
}

func (r fakeRow) Float(col int) (float64, bool) {
	switch v := r.cells[col].(type) {
	case float64:
		return v, true
	default:
		return 0, false
	}
}

func groupHeaderRow(name string) fakeRow {
	return fakeRow{cells: [12]any{"Group: " + name}}
}

func caseRow(id float64, url string) fakeRow {
	return fakeRow{cells: [12]any{
		id, "case", "g", "w", "t", url, "GET", "", "", "", "",
		"SAT.tester('ok', function() { return SAT.response.status === 200; })",
	}}
}

type fakeWorkbook struct {
	sheets map[string][]testcase.Row
}

func (f *fakeWorkbook) Sheets() []string {
	var names []string
	for k := range f.sheets {
		names = append(names, k)
	}
	return names
}

func (f *fakeWorkbook) Rows(sheet string) ([]testcase.Row, error) {
	return f.sheets[sheet], nil
}

func TestRunGroupFilter(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{}`))
	}))
	defer srv.Close()

	wb := &fakeWorkbook{sheets: map[string][]testcase.Row{
		"S1": {fakeRow{cells: [12]any{"header"}}, groupHeaderRow("alpha"), caseRow(1, "/h")},
		"S2": {fakeRow{cells: [12]any{"header"}}, groupHeaderRow("beta"), caseRow(2, "/h")},
	}}
	cfg := &config.Config{BaseURL: srv.URL, Groups: []config.GroupSelector{{Worksheet: "S1", Group: "alpha"}}}
	bus := events.NewBus()

	counters := Run(wb, cfg, bus, "suite")

	if counters.Total != 1 || counters.Passed != 1 {
		t.Fatalf("expected only S1.alpha's one case to run, got %+v", counters)
	}
}

func TestRunSingleWorksheetSelection(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{}`))
	}))
	defer srv.Close()

	wb := &fakeWorkbook{sheets: map[string][]testcase.Row{
		"S1": {fakeRow{cells: [12]any{"header"}}, groupHeaderRow("alpha"), caseRow(1, "/h")},
		"S2": {fakeRow{cells: [12]any{"header"}}, groupHeaderRow("beta"), caseRow(2, "/h")},
	}}
	cfg := &config.Config{BaseURL: srv.URL, Worksheet: "S2"}
	bus := events.NewBus()

	counters := Run(wb, cfg, bus, "suite")
	if counters.Total != 1 {
		t.Fatalf("expected only S2's case to run, got %+v", counters)
	}
}

func TestRunRowsBeforeStartRowSkipped(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{}`))
	}))
	defer srv.Close()

	wb := &fakeWorkbook{sheets: map[string][]testcase.Row{
		"S1": {groupHeaderRow("alpha"), caseRow(1, "/h")},
	}}
	// default start row is 1, which skips index 0 (the group header itself
	// in this fixture) -- so with no rows below index 1 processed as
	// group-header, no group ever becomes active.
	cfg := &config.Config{BaseURL: srv.URL}
	bus := events.NewBus()

	counters := Run(wb, cfg, bus, "suite")
	if counters.Total != 0 {
		t.Fatalf("expected zero cases since the group header itself was skipped, got %+v", counters)
	}
}

func TestRunRowsAfterEndRowSkipped(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{}`))
	}))
	defer srv.Close()

	wb := &fakeWorkbook{sheets: map[string][]testcase.Row{
		"S1": {
			fakeRow{cells: [12]any{"header"}},
			groupHeaderRow("alpha"),
			caseRow(1, "/h"),
			caseRow(2, "/h"),
			caseRow(3, "/h"),
		},
	}}
	cfg := &config.Config{BaseURL: srv.URL, Worksheet: "S1", EndRow: 3}
	bus := events.NewBus()

	counters := Run(wb, cfg, bus, "suite")
	if counters.Total != 2 {
		t.Fatalf("expected only the two cases at or before end_row 3 to run, got %+v", counters)
	}
}

func TestRunEndRowIgnoredWithoutSingleWorksheet(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{}`))
	}))
	defer srv.Close()

	wb := &fakeWorkbook{sheets: map[string][]testcase.Row{
		"S1": {
			fakeRow{cells: [12]any{"header"}},
			groupHeaderRow("alpha"),
			caseRow(1, "/h"),
			caseRow(2, "/h"),
			caseRow(3, "/h"),
		},
	}}
	// EndRow without an explicit Worksheet would normally fail config.Load's
	// conflict check; constructing Config directly bypasses that to confirm
	// processSheet itself only honors EndRow for a single-worksheet run.
	cfg := &config.Config{BaseURL: srv.URL, EndRow: 3}
	bus := events.NewBus()

	counters := Run(wb, cfg, bus, "suite")
	if counters.Total != 3 {
		t.Fatalf("expected all three cases to run when no single worksheet is selected, got %+v", counters)
	}
}

func TestRunEmitsSuiteBeginEnd(t *testing.T) {
	wb := &fakeWorkbook{sheets: map[string][]testcase.Row{"S1": {}}}
	cfg := &config.Config{BaseURL: "http://svc.test"}
	bus := events.NewBus()

	Run(wb, cfg, bus, "suite")

	first := <-bus.Events()
	if first.Kind != events.SuiteBegin {
		t.Errorf("expected first event SuiteBegin, got %v", first.Kind)
	}
	var last events.Event
	for {
		select {
		case e := <-bus.Events():
			last = e
		default:
			if last.Kind != events.SuiteEnd {
				t.Errorf("expected last event SuiteEnd, got %v", last.Kind)
			}
			return
		}
	}
}
