package keywords

import (
	"strings"
	"testing"

	"github.com/google/uuid"
)

func TestSubstituteIdentityWithoutTokens(t *testing.T) {
	input := "plain string, no tokens here"
	if got := Substitute(input); got != input {
		t.Errorf("expected identity, got %q", got)
	}
}

func TestSubstituteUUIDsAreDistinct(t *testing.T) {
	input := "First: $UUID, Second: $UUID"
	out := Substitute(input)
	if strings.Contains(out, "$UUID") {
		t.Fatalf("expected no remaining $UUID tokens, got %q", out)
	}
	parts := strings.SplitN(out, ", Second: ", 2)
	if len(parts) != 2 {
		t.Fatalf("unexpected shape: %q", out)
	}
	first := strings.TrimPrefix(parts[0], "First: ")
	second := parts[1]
	if _, err := uuid.Parse(first); err != nil {
		t.Errorf("first UUID invalid: %v", err)
	}
	if _, err := uuid.Parse(second); err != nil {
		t.Errorf("second UUID invalid: %v", err)
	}
	if first == second {
		t.Errorf("expected distinct UUIDs, got the same value twice: %s", first)
	}
}

func TestSubstituteRandomEmailDomain(t *testing.T) {
	out := Substitute(`$RandomEmail("example.com")`)
	if !strings.Contains(out, "@example.com") {
		t.Errorf("expected domain example.com in %q", out)
	}
}

func TestSubstituteRandomEmailDefaultDomain(t *testing.T) {
	out := Substitute(`$RandomEmail()`)
	if !strings.Contains(out, "@example.com") {
		t.Errorf("expected default domain in %q", out)
	}
}

func TestSubstituteRandomNameNonEmpty(t *testing.T) {
	out := Substitute("Hello $RandomName!")
	if strings.Contains(out, "$RandomName") {
		t.Errorf("expected token replaced, got %q", out)
	}
}
