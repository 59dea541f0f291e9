// Package executor implements the case executor (C6) and group executor
// (C7): running one case against a group's TestContext, and the counters
// and dispatch loop that own a group's lifetime.
package executor

import (
	"bytes"
	"encoding/json"
	"fmt"
	"mime"
	"mime/multipart"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/aymanbagabas/go-udiff"
	"github.com/valyala/fasthttp"

	"github.com/rv-nath/satyanaash/pkg/curlexport"
	"github.com/rv-nath/satyanaash/pkg/events"
	"github.com/rv-nath/satyanaash/pkg/payloadvalidate"
	"github.com/rv-nath/satyanaash/pkg/placeholders"
	"github.com/rv-nath/satyanaash/pkg/progress"
	"github.com/rv-nath/satyanaash/pkg/testcase"
	"github.com/rv-nath/satyanaash/pkg/testcontext"
)

// GroupExecutor owns one TestContext for the lifetime of a single group,
// driving the case loop and aggregating counters (§4.7).
type GroupExecutor struct {
	Name      string
	Worksheet string
	Ctx       *testcontext.Context
	Resolver  *placeholders.Resolver
	Bus       *events.Bus
	TokenKey  string
	Verbose   bool

	Total, Passed, Failed, Skipped int
	ExecDuration                   time.Duration
}

// NewGroupExecutor builds a group executor with a fresh TestContext.
func NewGroupExecutor(worksheet, name, tokenKey string, bus *events.Bus, ratePerSecond float64, verbose bool) (*GroupExecutor, error) {
	ctx, err := testcontext.New()
	if err != nil {
		return nil, fmt.Errorf("executor: %w", err)
	}
	ctx.SetRateLimit(ratePerSecond)
	return &GroupExecutor{
		Name:      name,
		Worksheet: worksheet,
		Ctx:       ctx,
		Resolver:  &placeholders.Resolver{},
		Bus:       bus,
		TokenKey:  tokenKey,
		Verbose:   verbose,
	}, nil
}

// FireBegin emits GroupBegin.
func (g *GroupExecutor) FireBegin() {
	g.Bus.Publish(events.Event{Kind: events.GroupBegin, GroupBegin: &events.GroupBeginData{
		Timestamp: time.Now(), Worksheet: g.Worksheet, GroupName: g.Name,
	}})
}

// FireEnd emits GroupEnd with the accumulated counters.
func (g *GroupExecutor) FireEnd() {
	g.Bus.Publish(events.Event{Kind: events.GroupEnd, GroupEnd: &events.GroupEndData{
		Timestamp: time.Now(), Worksheet: g.Worksheet, GroupName: g.Name,
		ExecDuration: g.ExecDuration, Total: g.Total, Passed: g.Passed, Failed: g.Failed, Skipped: g.Skipped,
	}})
}

// Exec parses row into a case and runs it, folding the outcome into the
// group's counters.
func (g *GroupExecutor) Exec(row testcase.Row, baseURL string) {
	c := testcase.Parse(row, baseURL)
	result := RunCase(c, g.Ctx, g.Resolver, g.Bus, g.TokenKey, g.Verbose)

	g.Total++
	switch result {
	case testcase.Passed:
		g.Passed++
	case testcase.Failed:
		g.Failed++
	case testcase.Skipped:
		g.Skipped++
	}
	g.ExecDuration += g.Ctx.ExecDuration()
}

// RunCase executes one case's full protocol (§4.6), returning the
// aggregate result: Passed iff every repeat iteration passed. When verbose
// is set and repeat_count > 1, each iteration after the first prints a
// unified diff of the response body against the previous iteration's.
func RunCase(c *testcase.Case, ctx *testcontext.Context, resolver *placeholders.Resolver, bus *events.Bus, tokenKey string, verbose bool) testcase.Result {
	bus.Publish(events.Event{Kind: events.CaseBegin, CaseBegin: beginData(c)})

	if c.Errors.HasErrors() {
		c.State.Result = testcase.Skipped
		bus.Publish(events.Event{Kind: events.CaseEnd, CaseEnd: endData(c, 0, 0, "", nil, testcase.Skipped)})
		return testcase.Skipped
	}

	repeatCount := c.Config.RepeatCount
	if repeatCount == 0 {
		repeatCount = 1
	}

	overall := testcase.Passed
	var previousBody string
	for i := uint32(0); i < repeatCount; i++ {
		runPreScript(c, ctx)
		resolve(c, ctx, resolver)

		req := buildRequest(c, ctx)

		if verbose {
			exportCurl(c)
		}

		if c.Config.DelayMs > 0 {
			time.Sleep(time.Duration(c.Config.DelayMs) * time.Millisecond)
		}

		spin := progress.Start(c.State.EffectiveURL)
		ctx.Exec(req, c.Config.AuthType.IsAuthorizer(), tokenKey)
		spin.Stop()
		fasthttp.ReleaseRequest(req)

		passed := ctx.VerifyResult(c.Scripts.PostScript)
		if passed {
			c.State.Result = testcase.Passed
		} else {
			c.State.Result = testcase.Failed
		}

		status := ctx.GetHTTPStatus()
		body, bodyJSON := responseSnapshot(ctx)

		if verbose && repeatCount > 1 && i > 0 {
			reportStabilityDiff(c.ID, i, previousBody, body)
		}
		previousBody = body

		bus.Publish(events.Event{Kind: events.CaseEnd, CaseEnd: endData(c, status, ctx.ExecDuration(), body, bodyJSON, c.State.Result)})

		if c.State.Result == testcase.Failed {
			overall = testcase.Failed
			break
		}
		if c.Config.DelayMs > 0 {
			time.Sleep(time.Duration(c.Config.DelayMs) * time.Millisecond)
		}
	}
	return overall
}

// exportCurl renders the case's effective request as a curl command line
// and copies it to the clipboard, for the operator to replay by hand. A
// clipboard failure (common in headless environments) is reported but does
// not affect the case outcome.
func exportCurl(c *testcase.Case) {
	headers := make([][2]string, 0, len(c.Headers)+1)
	for _, h := range c.Headers {
		if strings.EqualFold(h.Name, "content-type") {
			continue
		}
		headers = append(headers, [2]string{h.Name, h.Value})
	}
	headers = append(headers, [2]string{"Content-Type", c.State.ContentType})

	req := curlexport.Request{
		Method:  c.Method,
		URL:     c.State.EffectiveURL,
		Headers: headers,
		Body:    c.State.EffectivePayload,
	}
	fmt.Fprintf(os.Stderr, "%s\n", curlexport.Command(req))
	if err := curlexport.CopyToClipboard(req); err != nil {
		fmt.Fprintf(os.Stderr, "Warning: could not copy curl command to clipboard: %v\n", err)
	}
}

// reportStabilityDiff prints a unified diff of consecutive repeat
// iterations' response bodies to stderr. Purely informational: it never
// affects the case's pass/fail determination.
func reportStabilityDiff(caseID uint32, iteration uint32, previous, current string) {
	if previous == current {
		return
	}
	d := udiff.Unified(
		fmt.Sprintf("case %d iteration %d", caseID, iteration-1),
		fmt.Sprintf("case %d iteration %d", caseID, iteration),
		previous, current,
	)
	if d == "" {
		return
	}
	fmt.Fprintf(os.Stderr, "Response changed across repeat iterations:\n%s\n", d)
}

func runPreScript(c *testcase.Case, ctx *testcontext.Context) {
	if c.Scripts.PreScript == "" {
		return
	}
	if _, err := ctx.Runtime.Eval(c.Scripts.PreScript); err != nil {
		fmt.Fprintf(os.Stderr, "Error executing pre_test_script: %v\n", err)
	}
}

func resolve(c *testcase.Case, ctx *testcontext.Context, resolver *placeholders.Resolver) {
	c.State.EffectiveName = resolver.Substitute(c.Name, ctx.Runtime)
	c.State.EffectiveURL = resolver.Substitute(c.URL, ctx.Runtime)
	c.State.EffectivePayload = resolver.Substitute(c.Payload, ctx.Runtime)

	if errs := payloadvalidate.Validate(c.Config.PayloadSchema, c.State.EffectivePayload); errs != nil {
		for _, msg := range errs {
			fmt.Fprintf(os.Stderr, "Warning: case %d payload_schema mismatch: %s\n", c.ID, msg)
		}
	}
}

// buildRequest composes the outgoing fasthttp.Request: method, effective
// URL, all headers except Content-Type (which instead gates payload
// encoding), an Authorization header when authorized and a token is held,
// and the encoded body.
func buildRequest(c *testcase.Case, ctx *testcontext.Context) *fasthttp.Request {
	req := fasthttp.AcquireRequest()
	req.SetRequestURI(c.State.EffectiveURL)
	req.Header.SetMethod(c.Method)

	contentType := ""
	for _, h := range c.Headers {
		if strings.EqualFold(h.Name, "content-type") {
			contentType = h.Value
			continue
		}
		req.Header.Set(h.Name, h.Value)
	}
	if c.Config.AuthType.IsAuthorized() && ctx.Token != nil {
		req.Header.Set("Authorization", "Bearer "+*ctx.Token)
	}

	encodePayload(c, req, contentType)
	return req
}

// encodePayload branches on the case's Content-Type header (§4.6e) and
// writes the appropriately encoded body, recording the content type used
// into the case's execution state.
func encodePayload(c *testcase.Case, req *fasthttp.Request, contentType string) {
	lower := strings.ToLower(strings.TrimSpace(contentType))
	switch {
	case lower == "application/json", lower == "":
		c.State.ContentType = "application/json"
		req.Header.SetContentType("application/json")
		req.SetBody(jsonOrEmptyObject(c.State.EffectivePayload))

	case lower == "application/x-www-form-urlencoded":
		c.State.ContentType = "application/x-www-form-urlencoded"
		req.Header.SetContentType("application/x-www-form-urlencoded")
		req.SetBody([]byte(formEncode(c.State.EffectivePayload)))

	case lower == "multipart/form-data":
		c.State.ContentType = "multipart/form-data"
		body, boundary, display := encodeMultipart(c.State.EffectivePayload)
		req.Header.SetContentType("multipart/form-data; boundary=" + boundary)
		req.SetBody(body)
		c.State.EffectivePayload = display

	default:
		c.State.ContentType = "application/json"
		req.Header.SetContentType("application/json")
		req.SetBody(jsonOrEmptyObject(c.State.EffectivePayload))
	}
}

func jsonOrEmptyObject(payload string) []byte {
	if strings.TrimSpace(payload) == "" {
		return []byte("{}")
	}
	var v any
	if err := json.Unmarshal([]byte(payload), &v); err != nil {
		return []byte("{}")
	}
	return []byte(payload)
}

func formEncode(payload string) string {
	fields := map[string]string{}
	_ = json.Unmarshal([]byte(payload), &fields)
	values := url.Values{}
	for k, v := range fields {
		values.Set(k, v)
	}
	return values.Encode()
}

type multipartForm struct {
	FormData struct {
		Fields map[string]any `json:"fields"`
		Files  []struct {
			FieldName string `json:"fieldname"`
			FilePath  string `json:"filepath"`
		} `json:"files"`
	} `json:"form-data"`
}

// encodeMultipart builds a multipart/form-data body from the { "form-data":
// { "fields": {...}, "files": [...] } } payload shape (§4.6e), returning
// the body, the boundary actually used, and a human-readable
// stringification for display/effective_payload purposes.
func encodeMultipart(payload string) (body []byte, boundary string, display string) {
	var form multipartForm
	_ = json.Unmarshal([]byte(payload), &form)

	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)

	var displayParts []string
	for key, v := range form.FormData.Fields {
		var s string
		switch val := v.(type) {
		case string:
			s = val
		default:
			b, _ := json.Marshal(val)
			s = string(b)
		}
		_ = w.WriteField(key, s)
		displayParts = append(displayParts, fmt.Sprintf("%s=%s", key, s))
	}
	for _, f := range form.FormData.Files {
		data, err := os.ReadFile(f.FilePath)
		if err != nil {
			continue
		}
		filename := filepath.Base(f.FilePath)
		mimeType := mime.TypeByExtension(filepath.Ext(filename))
		if mimeType == "" {
			mimeType = "application/octet-stream"
		}
		part, err := w.CreatePart(fileHeader(f.FieldName, filename, mimeType))
		if err != nil {
			continue
		}
		_, _ = part.Write(data)
		displayParts = append(displayParts, fmt.Sprintf("file %s as %s (%s)", f.FilePath, f.FieldName, mimeType))
	}
	_ = w.Close()

	return buf.Bytes(), w.Boundary(), strings.Join(displayParts, "\r\n")
}

func fileHeader(fieldname, filename, mimeType string) map[string][]string {
	return map[string][]string{
		"Content-Disposition": {fmt.Sprintf(`form-data; name="%s"; filename="%s"`, fieldname, filename)},
		"Content-Type":        {mimeType},
	}
}

// responseSnapshot reads the body/json the JS bridge stored, for event
// reporting.
func responseSnapshot(ctx *testcontext.Context) (string, json.RawMessage) {
	body, _ := ctx.Runtime.EvalString("SAT.response.body")
	jsonVal, err := ctx.Runtime.Eval("JSON.stringify(SAT.response.json)")
	if err != nil {
		return body, nil
	}
	s, ok := jsonVal.(string)
	if !ok || s == "null" {
		return body, nil
	}
	return body, json.RawMessage(s)
}

func beginData(c *testcase.Case) *events.CaseBeginData {
	headers := make([][2]string, 0, len(c.Headers))
	for _, h := range c.Headers {
		headers = append(headers, [2]string{h.Name, h.Value})
	}
	return &events.CaseBeginData{
		Timestamp:  time.Now(),
		CaseID:     c.ID,
		CaseName:   c.Name,
		Given:      c.Given,
		When:       c.When,
		Then:       c.Then,
		URL:        c.URL,
		Method:     c.Method,
		Headers:    headers,
		Payload:    c.Payload,
		PreScript:  c.Scripts.PreScript,
		PostScript: c.Scripts.PostScript,
	}
}

func endData(c *testcase.Case, status int, dur time.Duration, body string, bodyJSON json.RawMessage, result testcase.Result) *events.CaseEndData {
	return &events.CaseEndData{
		Timestamp:    time.Now(),
		CaseID:       c.ID,
		ExecDuration: dur,
		Status:       status,
		Response:     body,
		ResponseJSON: bodyJSON,
		Result:       result.String(),
	}
}
