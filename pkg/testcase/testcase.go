// Package testcase parses one spreadsheet row into a case record and
// carries the mutable execution state a case accumulates as it runs.
package testcase

import (
	"fmt"
	"net/http"
	"net/url"
	"os"
	"strings"

	"encoding/json"

	"github.com/rv-nath/satyanaash/pkg/keywords"
)

// AuthType classifies how a case participates in token handoff within a
// group.
type AuthType int

const (
	AuthNone AuthType = iota
	AuthAuthorizer
	AuthAuthorized
)

func (a AuthType) IsAuthorizer() bool { return a == AuthAuthorizer }
func (a AuthType) IsAuthorized() bool { return a == AuthAuthorized }

// UnmarshalJSON accepts the lowercase string form used in column 9's JSON
// config object: "none" | "authorizer" | "authorized".
func (a *AuthType) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	switch strings.ToLower(s) {
	case "", "none":
		*a = AuthNone
	case "authorizer":
		*a = AuthAuthorizer
	case "authorized":
		*a = AuthAuthorized
	default:
		return fmt.Errorf("testcase: unknown auth_type %q", s)
	}
	return nil
}

// Result is the terminal outcome of a case run.
type Result int

const (
	NotYetTested Result = iota
	Passed
	Failed
	Skipped
)

func (r Result) String() string {
	switch r {
	case Passed:
		return "Passed"
	case Failed:
		return "Failed"
	case Skipped:
		return "Skipped"
	default:
		return "NotYetTested"
	}
}

// Header is one ordered (name, value) pair.
type Header struct {
	Name  string
	Value string
}

// Config is the per-case advanced configuration parsed from column 9's
// JSON object, with the schema's documented defaults.
type Config struct {
	RepeatCount   uint32   `json:"repeat_count"`
	AuthType      AuthType `json:"auth_type"`
	DelayMs       uint64   `json:"delay_ms"`
	PayloadSchema string   `json:"payload_schema"`
}

// DefaultConfig returns the config schema's documented zero-value
// defaults: repeat_count=1, auth_type=none, delay_ms=0, payload_schema unset.
func DefaultConfig() Config {
	return Config{RepeatCount: 1, AuthType: AuthNone, DelayMs: 0}
}

// Scripts holds the optional pre/post JavaScript source for a case.
type Scripts struct {
	PreScript  string
	PostScript string
}

// ParseError names the field a parse problem occurred on.
type ParseError struct {
	Field   string
	Message string
}

// ParseErrors accumulates zero or more ParseError entries without failing
// row materialization — a case with errors is still built, but is skipped
// at execution (see §3 invariants).
type ParseErrors struct {
	Errors []ParseError
}

func (e *ParseErrors) Add(field, message string) {
	e.Errors = append(e.Errors, ParseError{Field: field, Message: message})
}

func (e *ParseErrors) HasErrors() bool { return len(e.Errors) > 0 }

// Case is one row of the workbook after the header rows, immutable after
// parse except for its ExecutionState.
type Case struct {
	ID      uint32
	Name    string
	Given   string
	When    string
	Then    string
	URL     string
	Method  string
	Headers []Header
	Payload string
	Config  Config
	Scripts Scripts
	Errors  ParseErrors

	State ExecutionState
}

// ExecutionState is the per-case mutable shadow populated during
// resolution and execution.
type ExecutionState struct {
	EffectiveName    string
	EffectiveURL     string
	EffectivePayload string
	ContentType      string
	Result           Result
}

// NewExecutionState returns the zero-value execution state (Result =
// NotYetTested, per the original's ExecutionState::new()).
func NewExecutionState() ExecutionState {
	return ExecutionState{Result: NotYetTested}
}

// Row is the fixed 12-column layout a parser consumes: id, name, given,
// when, then, url, method, headers, payload, config_json, pre_script,
// post_script. Each accessor mirrors calamine's Data::get_string /
// get_float — an absent or wrong-typed cell returns ok=false.
type Row interface {
	String(col int) (string, bool)
	Float(col int) (float64, bool)
}

const (
	colID = iota
	colName
	colGiven
	colWhen
	colThen
	colURL
	colMethod
	colHeaders
	colPayload
	colConfig
	colPreScript
	colPostScript
)

// Parse builds a Case from row's 12 columns. baseURL is prepended to any
// url cell that is not already absolute. The pre-script is read first (see
// §4.4) so it is captured even if a later field fails to parse.
func Parse(row Row, baseURL string) *Case {
	var errs ParseErrors

	preScript := parseOptionalString(row, colPreScript)

	c := &Case{
		ID:      parseID(row, &errs),
		Name:    parseKeywordString(row, colName, "name", &errs),
		Given:   parseKeywordString(row, colGiven, "given", &errs),
		When:    parseKeywordString(row, colWhen, "when", &errs),
		Then:    parseKeywordString(row, colThen, "then", &errs),
		Method:  parseMethod(row, &errs),
		Headers: parseHeaders(row),
		Config:  parseConfig(row),
		Scripts: Scripts{
			PreScript:  preScript,
			PostScript: keywords.Substitute(parseOptionalString(row, colPostScript)),
		},
		State: NewExecutionState(),
	}
	c.URL = parseURL(row, baseURL, &errs)
	c.Payload = parsePayload(row, &errs)
	c.Errors = errs
	return c
}

func parseID(row Row, errs *ParseErrors) uint32 {
	f, ok := row.Float(colID)
	if !ok {
		errs.Add("id", "ID is not a number.")
		return 0
	}
	return uint32(f)
}

func parseKeywordString(row Row, col int, field string, errs *ParseErrors) string {
	s, ok := row.String(col)
	if !ok {
		errs.Add(field, fmt.Sprintf("Invalid data for '%s' field.", field))
		return ""
	}
	return keywords.Substitute(s)
}

func parseURL(row Row, baseURL string, errs *ParseErrors) string {
	s, ok := row.String(colURL)
	if !ok {
		errs.Add("url", "No data for 'url' field.")
		return ""
	}
	s = keywords.Substitute(s)

	full := s
	if !strings.HasPrefix(s, "http://") && !strings.HasPrefix(s, "https://") {
		full = baseURL + s
	}
	u, err := url.ParseRequestURI(full)
	if err != nil || u.Scheme == "" || u.Host == "" {
		errs.Add("url", "Invalid URL format.")
		return ""
	}
	return full
}

var validMethods = map[string]bool{
	http.MethodGet: true, http.MethodPost: true, http.MethodPut: true,
	http.MethodPatch: true, http.MethodDelete: true, http.MethodHead: true,
	http.MethodOptions: true, http.MethodConnect: true, http.MethodTrace: true,
}

func parseMethod(row Row, errs *ParseErrors) string {
	s, ok := row.String(colMethod)
	if !ok {
		errs.Add("method", "No data for 'method' field.")
		return http.MethodGet
	}
	m := strings.ToUpper(strings.TrimSpace(s))
	if !validMethods[m] {
		errs.Add("method", "Invalid HTTP method.")
		return http.MethodGet
	}
	return m
}

// parseHeaders parses "k1:v1,k2:v2"; malformed pairs are silently dropped.
func parseHeaders(row Row) []Header {
	s, ok := row.String(colHeaders)
	if !ok || s == "" {
		return nil
	}
	var out []Header
	for _, pair := range strings.Split(s, ",") {
		parts := strings.SplitN(pair, ":", 2)
		if len(parts) != 2 {
			continue
		}
		out = append(out, Header{
			Name:  strings.TrimSpace(parts[0]),
			Value: strings.TrimSpace(parts[1]),
		})
	}
	return out
}

func parsePayload(row Row, errs *ParseErrors) string {
	s, ok := row.String(colPayload)
	if !ok {
		return ""
	}
	substituted := keywords.Substitute(s)
	if substituted == "" {
		return substituted
	}
	var v any
	if err := json.Unmarshal([]byte(substituted), &v); err != nil {
		errs.Add("payload", "Invalid JSON payload.")
		return ""
	}
	return substituted
}

// parseConfig parses column 9 as JSON matching Config's schema; on parse
// failure it warns on stderr and falls back to defaults, per §4.4 col 9's
// rule.
func parseConfig(row Row) Config {
	s, ok := row.String(colConfig)
	if !ok || strings.TrimSpace(s) == "" {
		return DefaultConfig()
	}
	cfg := DefaultConfig()
	if err := json.Unmarshal([]byte(s), &cfg); err != nil {
		fmt.Fprintf(os.Stderr, "Error parsing test case config: %v\n", err)
		return DefaultConfig()
	}
	return cfg
}

func parseOptionalString(row Row, col int) string {
	s, ok := row.String(col)
	if !ok {
		return ""
	}
	return s
}

// IsGroupHeader reports whether first, the raw text of column A, marks a
// group control row.
func IsGroupHeader(first string) bool {
	return strings.HasPrefix(first, "Group:")
}

// GroupName extracts the group name following the "Group:" prefix.
func GroupName(first string) string {
	return strings.TrimSpace(strings.TrimPrefix(first, "Group:"))
}
