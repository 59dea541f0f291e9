package bootstrap

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/rv-nath/satyanaash/pkg/jsruntime"
)

func TestSeedDisabledWhenNotConfigured(t *testing.T) {
	rt, err := jsruntime.New()
	if err != nil {
		t.Fatalf("jsruntime.New: %v", err)
	}
	if err := Seed(context.Background(), rt, OAuth2Config{}); err != nil {
		t.Fatalf("expected no-op for an unconfigured OAuth2Config, got %v", err)
	}
}

func TestSeedAssignsGlobal(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"access_token":"T","token_type":"bearer"}`))
	}))
	defer srv.Close()

	rt, err := jsruntime.New()
	if err != nil {
		t.Fatalf("jsruntime.New: %v", err)
	}
	cfg := OAuth2Config{ClientID: "id", ClientSecret: "secret", TokenURL: srv.URL}
	if err := Seed(context.Background(), rt, cfg); err != nil {
		t.Fatalf("Seed: %v", err)
	}
	got, ok := rt.EvalString("SAT.globals.oauth_token")
	if !ok || got != "T" {
		t.Errorf("got %q, ok=%v", got, ok)
	}
}
