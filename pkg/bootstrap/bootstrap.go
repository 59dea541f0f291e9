// Package bootstrap seeds a group's JS runtime with an OAuth2
// client-credentials token before any case runs, so post-scripts and
// placeholders can reference SAT.globals.oauth_token without an explicit
// authorizer case. This supplements the core engine's authorizer/authorized
// handoff for services that gate the whole suite behind a single
// service-account grant.
package bootstrap

import (
	"context"
	"fmt"

	"golang.org/x/oauth2/clientcredentials"

	"github.com/rv-nath/satyanaash/pkg/jsruntime"
)

// OAuth2Config names the client-credentials grant to bootstrap.
type OAuth2Config struct {
	ClientID     string   `yaml:"client_id"`
	ClientSecret string   `yaml:"client_secret"`
	TokenURL     string   `yaml:"token_url"`
	Scopes       []string `yaml:"scopes,omitempty"`
}

// Enabled reports whether cfg carries enough information to attempt a
// grant.
func (cfg OAuth2Config) Enabled() bool {
	return cfg.ClientID != "" && cfg.TokenURL != ""
}

// FetchToken performs the client-credentials flow once and returns the
// resulting access token. The suite orchestrator calls this a single time
// at suite start and hands the token to SeedToken for every fresh group.
func FetchToken(ctx context.Context, cfg OAuth2Config) (string, error) {
	oauthCfg := clientcredentials.Config{
		ClientID:     cfg.ClientID,
		ClientSecret: cfg.ClientSecret,
		TokenURL:     cfg.TokenURL,
		Scopes:       cfg.Scopes,
	}
	token, err := oauthCfg.Token(ctx)
	if err != nil {
		return "", fmt.Errorf("bootstrap: client-credentials grant failed: %w", err)
	}
	return token.AccessToken, nil
}

// SeedToken assigns token to SAT.globals.oauth_token in rt.
func SeedToken(rt *jsruntime.Runtime, token string) error {
	script := fmt.Sprintf("SAT.globals.oauth_token = %q", token)
	if _, err := rt.Eval(script); err != nil {
		return fmt.Errorf("bootstrap: seeding SAT.globals.oauth_token: %w", err)
	}
	return nil
}

// Seed performs the client-credentials flow and assigns the resulting
// access token to SAT.globals.oauth_token in rt. It is a convenience
// wrapper over FetchToken+SeedToken for a single runtime; the suite
// orchestrator instead mints once via FetchToken and seeds each group's
// runtime separately via SeedToken.
func Seed(ctx context.Context, rt *jsruntime.Runtime, cfg OAuth2Config) error {
	if !cfg.Enabled() {
		return nil
	}
	token, err := FetchToken(ctx, cfg)
	if err != nil {
		return err
	}
	return SeedToken(rt, token)
}
