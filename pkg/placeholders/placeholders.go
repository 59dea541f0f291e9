// Package placeholders expands {{...}} templates in test case strings,
// after first expanding any $-keyword tokens via pkg/keywords. Three forms
// are recognized: {{env:NAME}}, {{input:NAME}}, and {{EXPR}}, the last one
// evaluated as SAT.globals.EXPR against a group's JS runtime.
package placeholders

import (
	"bufio"
	"fmt"
	"os"
	"regexp"
	"strings"

	"github.com/rv-nath/satyanaash/pkg/keywords"
)

var rePlaceholder = regexp.MustCompile(`\{\{(.*?)\}\}`)

// Evaluator is the subset of pkg/jsruntime.Runtime this package depends on.
type Evaluator interface {
	EvalString(source string) (string, bool)
}

// Resolver substitutes keywords then placeholders in test case strings. A
// Resolver is stateless beyond the input reader used for {{input:...}}
// prompts, so the zero value (with Stdin left nil, defaulting to os.Stdin)
// is ready to use.
type Resolver struct {
	// Stdin is read from for {{input:NAME}} prompts. Defaults to os.Stdin
	// when nil.
	Stdin *bufio.Reader
	// Stderr receives warnings about non-string JS globals. Defaults to
	// os.Stderr when nil.
	Stderr *os.File
}

// Substitute expands $-keywords then {{...}} placeholders in input, using
// js to resolve any placeholder that isn't an env: or input: form.
func (r *Resolver) Substitute(input string, js Evaluator) string {
	keywordSubstituted := keywords.Substitute(input)

	return rePlaceholder.ReplaceAllStringFunc(keywordSubstituted, func(match string) string {
		inner := rePlaceholder.FindStringSubmatch(match)[1]
		expr := strings.TrimSpace(inner)

		switch {
		case strings.HasPrefix(expr, "env:"):
			name := strings.TrimSpace(strings.TrimPrefix(expr, "env:"))
			if v, ok := os.LookupEnv(name); ok {
				return v
			}
			return match

		case strings.HasPrefix(expr, "input:"):
			name := strings.TrimSpace(strings.TrimPrefix(expr, "input:"))
			return r.promptUserInput(name)

		default:
			value, ok := js.EvalString(fmt.Sprintf("SAT.globals.%s", expr))
			if !ok {
				r.warn("JS context variable '%s' is not a string. Leaving placeholder unchanged.\n", expr)
				return match
			}
			return value
		}
	})
}

// promptUserInput blocks on a line of stdin, per §4.2.
func (r *Resolver) promptUserInput(name string) string {
	fmt.Printf("Enter value for '%s': ", name)
	reader := r.Stdin
	if reader == nil {
		reader = bufio.NewReader(os.Stdin)
	}
	line, _ := reader.ReadString('\n')
	return strings.TrimSpace(line)
}

func (r *Resolver) warn(format string, args ...any) {
	out := r.Stderr
	if out == nil {
		out = os.Stderr
	}
	fmt.Fprintf(out, format, args...)
}
