// Package testcontext implements the per-group bundle (C5): an HTTP
// client with certificate validation disabled, an owned JS runtime seeded
// with the SAT namespace, and the bearer token handed off between an
// authorizer case and the authorized cases that follow it.
package testcontext

import (
	"context"
	"crypto/tls"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/valyala/fasthttp"
	"golang.org/x/time/rate"

	"github.com/rv-nath/satyanaash/pkg/jsruntime"
)

// Context is owned exclusively by one group executor for the group's
// lifetime; it must not be shared across groups.
type Context struct {
	Client  *fasthttp.Client
	Runtime *jsruntime.Runtime
	Token   *string

	// Limiter, when set, throttles outgoing requests. Nil means unthrottled.
	Limiter *rate.Limiter

	execDuration time.Duration
}

// New builds a Context with a certificate-validation-disabled HTTP client
// and a freshly seeded JS runtime.
func New() (*Context, error) {
	rt, err := jsruntime.New()
	if err != nil {
		return nil, fmt.Errorf("testcontext: %w", err)
	}
	return &Context{
		Client: &fasthttp.Client{
			TLSConfig: &tls.Config{InsecureSkipVerify: true},
		},
		Runtime: rt,
	}, nil
}

// UpdateToken overwrites the stored bearer token (nil clears it).
func (c *Context) UpdateToken(token *string) {
	c.Token = token
}

// SetRateLimit configures a requests-per-second ceiling with a burst of 1.
// A non-positive ratePerSecond clears the limiter (unthrottled).
func (c *Context) SetRateLimit(ratePerSecond float64) {
	if ratePerSecond <= 0 {
		c.Limiter = nil
		return
	}
	c.Limiter = rate.NewLimiter(rate.Limit(ratePerSecond), 1)
}

// Exec sends req synchronously and bridges the outcome into the JS
// runtime as SAT.response. When isAuthorizer is true and the response
// parses as JSON, the token is extracted via tokenKey's dotted path and
// stored via UpdateToken. A transport failure is not fatal: it is
// reported to the script as status 0.
func (c *Context) Exec(req *fasthttp.Request, isAuthorizer bool, tokenKey string) {
	resp := fasthttp.AcquireResponse()
	defer fasthttp.ReleaseResponse(resp)

	if c.Limiter != nil {
		_ = c.Limiter.Wait(context.Background())
	}

	start := time.Now()
	err := c.Client.Do(req, resp)
	c.execDuration = time.Since(start)

	if err != nil {
		_ = c.Runtime.SetResponse(0, err.Error(), nil)
		return
	}

	status := resp.StatusCode()
	body := string(resp.Body())

	var parsed any
	var bodyJSON json.RawMessage
	if json.Unmarshal([]byte(body), &parsed) == nil {
		bodyJSON = json.RawMessage(body)
		if isAuthorizer {
			if token, ok := ExtractToken([]byte(body), tokenKey); ok {
				c.UpdateToken(&token)
			}
		}
	}

	_ = c.Runtime.SetResponse(status, body, bodyJSON)
}

// VerifyResult evaluates the post-script (if any) and coerces the result
// to a strict boolean; a missing script, an eval error, or a non-true
// result all yield false.
func (c *Context) VerifyResult(script string) bool {
	if script == "" {
		return false
	}
	return c.Runtime.EvalBool(script)
}

// GetTestName reads SAT.testName, the name last passed to SAT.tester.
func (c *Context) GetTestName() string {
	s, _ := c.Runtime.EvalString("SAT.testName")
	return s
}

// GetHTTPStatus reads SAT.response.status as an integer.
func (c *Context) GetHTTPStatus() int {
	return int(c.Runtime.EvalInt("SAT.response.status"))
}

// ExecDuration returns the wall-clock duration of the most recent Exec.
func (c *Context) ExecDuration() time.Duration {
	return c.execDuration
}

// ExtractToken walks body (a JSON document) along tokenKey's dotted path,
// tolerating missing keys at any step (returns ok=false). No array
// indexing is supported, matching the original implementation.
func ExtractToken(body []byte, tokenKey string) (string, bool) {
	if tokenKey == "" {
		return "", false
	}
	var doc any
	if err := json.Unmarshal(body, &doc); err != nil {
		return "", false
	}
	cur := doc
	for _, key := range strings.Split(tokenKey, ".") {
		m, ok := cur.(map[string]any)
		if !ok {
			return "", false
		}
		cur, ok = m[key]
		if !ok {
			return "", false
		}
	}
	s, ok := cur.(string)
	return s, ok
}
