// Package curlexport renders a resolved request as an equivalent curl
// command line, for an operator to replay a failing or interesting case
// by hand. Grounded in the teacher pack's clipboard usage (atotto/clipboard).
package curlexport

import (
	"fmt"
	"strings"

	"github.com/atotto/clipboard"
)

// Request is the subset of a resolved request curlexport needs to render.
type Request struct {
	Method  string
	URL     string
	Headers [][2]string
	Body    string
}

// Command renders req as a single curl command line, quoting header and
// body values with single quotes.
func Command(req Request) string {
	var b strings.Builder
	b.WriteString("curl -X ")
	b.WriteString(req.Method)
	b.WriteString(" '")
	b.WriteString(req.URL)
	b.WriteString("'")
	for _, h := range req.Headers {
		fmt.Fprintf(&b, " -H '%s: %s'", h[0], h[1])
	}
	if req.Body != "" {
		fmt.Fprintf(&b, " -d '%s'", strings.ReplaceAll(req.Body, "'", `'\''`))
	}
	return b.String()
}

// CopyToClipboard renders req and copies the command to the system
// clipboard. Clipboard access can fail in headless environments (no
// display server, no xclip) — that is not fatal to the run, so the error
// is returned for the caller to warn on rather than panic.
func CopyToClipboard(req Request) error {
	return clipboard.WriteAll(Command(req))
}
