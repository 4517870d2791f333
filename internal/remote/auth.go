package remote

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"golang.org/x/oauth2"
)

// AuthConfig selects how requests to the time API are authenticated. A
// static Token wins; otherwise a token saved in TokenFile is used and
// refreshed against TokenURL, falling back to the device code flow when
// DeviceAuthURL is set.
type AuthConfig struct {
	Token         string
	ClientID      string
	TokenURL      string
	DeviceAuthURL string
	Scopes        []string
	TokenFile     string
}

// ErrNoCredentials is returned when no token source can be built.
var ErrNoCredentials = errors.New("no API credentials configured")

func (a AuthConfig) oauth2Config() *oauth2.Config {
	return &oauth2.Config{
		ClientID: a.ClientID,
		Scopes:   a.Scopes,
		Endpoint: oauth2.Endpoint{
			DeviceAuthURL: a.DeviceAuthURL,
			TokenURL:      a.TokenURL,
			AuthStyle:     oauth2.AuthStyleInParams,
		},
	}
}

// loadToken loads a previously saved token. A missing file yields nil.
func loadToken(path string) (*oauth2.Token, error) {
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("reading token file: %w", err)
	}
	var tok oauth2.Token
	if err := json.Unmarshal(data, &tok); err != nil {
		return nil, fmt.Errorf("corrupt token file (delete %s to re-authenticate): %w", path, err)
	}
	return &tok, nil
}

// saveToken persists a token atomically.
func saveToken(path string, tok *oauth2.Token) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return fmt.Errorf("creating auth directory: %w", err)
	}
	data, err := json.MarshalIndent(tok, "", "  ")
	if err != nil {
		return fmt.Errorf("marshalling token: %w", err)
	}
	tmpPath := path + ".tmp"
	if err := os.WriteFile(tmpPath, data, 0o600); err != nil {
		return fmt.Errorf("writing token file: %w", err)
	}
	if err := os.Rename(tmpPath, path); err != nil {
		_ = os.Remove(tmpPath)
		return fmt.Errorf("saving token file: %w", err)
	}
	return nil
}

// savingTokenSource persists every token it hands out.
type savingTokenSource struct {
	ts   oauth2.TokenSource
	path string
}

func (s *savingTokenSource) Token() (*oauth2.Token, error) {
	tok, err := s.ts.Token()
	if err != nil {
		return nil, err
	}
	// Best-effort save; ignore errors.
	_ = saveToken(s.path, tok)
	return tok, nil
}

// TokenSource builds the token source described by a. Device code prompts are
// written to prompt.
func TokenSource(ctx context.Context, a AuthConfig, prompt io.Writer) (oauth2.TokenSource, error) {
	if a.Token != "" {
		return oauth2.StaticTokenSource(&oauth2.Token{AccessToken: a.Token, TokenType: "Bearer"}), nil
	}
	if a.TokenURL == "" || a.TokenFile == "" {
		return nil, ErrNoCredentials
	}
	cfg := a.oauth2Config()

	tok, err := loadToken(a.TokenFile)
	if err != nil {
		// Corrupt token: warn and re-auth.
		fmt.Fprintf(prompt, "Warning: %v\n", err)
		tok = nil
	}

	if tok == nil {
		if a.DeviceAuthURL == "" {
			return nil, fmt.Errorf("%w: no saved token in %s", ErrNoCredentials, a.TokenFile)
		}
		tok, err = deviceLogin(ctx, cfg, prompt)
		if err != nil {
			return nil, err
		}
		if err := saveToken(a.TokenFile, tok); err != nil {
			fmt.Fprintf(prompt, "Warning: could not save token: %v\n", err)
		}
	}

	return oauth2.ReuseTokenSource(tok, &savingTokenSource{ts: cfg.TokenSource(ctx, tok), path: a.TokenFile}), nil
}

func deviceLogin(ctx context.Context, cfg *oauth2.Config, prompt io.Writer) (*oauth2.Token, error) {
	resp, err := cfg.DeviceAuth(ctx)
	if err != nil {
		return nil, fmt.Errorf("device auth request failed: %w", err)
	}

	fmt.Fprintln(prompt)
	fmt.Fprintln(prompt, "To sign in, use a web browser to open the page:")
	fmt.Fprintf(prompt, "  %s\n", resp.VerificationURI)
	fmt.Fprintf(prompt, "Enter the code: %s\n", resp.UserCode)
	fmt.Fprintln(prompt)

	tok, err := cfg.DeviceAccessToken(ctx, resp)
	if err != nil {
		return nil, fmt.Errorf("device authentication failed: %w", err)
	}
	return tok, nil
}
