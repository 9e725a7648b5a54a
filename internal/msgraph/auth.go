package msgraph

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"sync"

	"golang.org/x/oauth2"
)

var requiredScopes = []string{
	"https://graph.microsoft.com/Calendars.Read",
	"offline_access",
}

func msEndpoint(tenantID, path string) string {
	return "https://login.microsoftonline.com/" + tenantID + "/oauth2/v2.0/" + path
}

// DefaultTokenPath returns ~/.timebook/auth/msgraph_tokens.json.
func DefaultTokenPath() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("cannot determine home directory: %w", err)
	}
	return filepath.Join(home, ".timebook", "auth", "msgraph_tokens.json"), nil
}

// Authenticator obtains Microsoft Graph tokens with the OAuth2 device code
// flow and caches them on disk.
type Authenticator struct {
	TenantID  string
	ClientID  string
	TokenPath string
	// Out receives the sign-in instructions and warnings.
	Out io.Writer
}

// oauth2Config returns the oauth2.Config for Microsoft Graph using the
// authenticator's tenant and client IDs.
func (a *Authenticator) oauth2Config() *oauth2.Config {
	return &oauth2.Config{
		ClientID: a.ClientID,
		Scopes:   requiredScopes,
		Endpoint: oauth2.Endpoint{
			DeviceAuthURL: msEndpoint(a.TenantID, "devicecode"),
			TokenURL:      msEndpoint(a.TenantID, "token"),
			AuthStyle:     oauth2.AuthStyleInParams,
		},
	}
}

// loadToken loads a previously saved token. A missing file is not an error.
func (a *Authenticator) loadToken() (*oauth2.Token, error) {
	data, err := os.ReadFile(a.TokenPath)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("reading token file: %w", err)
	}
	var tok oauth2.Token
	if err := json.Unmarshal(data, &tok); err != nil {
		return nil, fmt.Errorf("corrupt token file (delete %s to re-authenticate): %w", a.TokenPath, err)
	}
	return &tok, nil
}

// saveToken writes the token atomically with owner-only permissions.
func (a *Authenticator) saveToken(tok *oauth2.Token) error {
	if err := os.MkdirAll(filepath.Dir(a.TokenPath), 0o700); err != nil {
		return fmt.Errorf("creating auth directory: %w", err)
	}
	data, err := json.MarshalIndent(tok, "", "  ")
	if err != nil {
		return fmt.Errorf("marshalling token: %w", err)
	}
	tmpPath := a.TokenPath + ".tmp"
	if err := os.WriteFile(tmpPath, data, 0o600); err != nil {
		return fmt.Errorf("writing token file: %w", err)
	}
	if err := os.Rename(tmpPath, a.TokenPath); err != nil {
		_ = os.Remove(tmpPath)
		return fmt.Errorf("saving token file: %w", err)
	}
	return nil
}

// Client returns an authenticated Graph client. It reuses a saved token,
// refreshes it if needed, or starts a new device code flow.
func (a *Authenticator) Client(ctx context.Context) (*Client, error) {
	if a.Out == nil {
		a.Out = io.Discard
	}
	cfg := a.oauth2Config()

	tok, err := a.loadToken()
	if err != nil {
		// Corrupt token: warn and re-auth.
		fmt.Fprintf(a.Out, "Warning: %v\n", err)
		tok = nil
	}

	switch {
	case tok != nil && tok.Valid():
	case tok != nil && tok.RefreshToken != "":
		refreshed, err := cfg.TokenSource(ctx, tok).Token()
		if err == nil {
			if err := a.saveToken(refreshed); err != nil {
				fmt.Fprintf(a.Out, "Warning: could not save refreshed token: %v\n", err)
			}
			tok = refreshed
			break
		}
		fmt.Fprintf(a.Out, "Token refresh failed (%v), re-authenticating...\n", err)
		fallthrough
	default:
		tok, err = a.deviceLogin(ctx, cfg)
		if err != nil {
			return nil, err
		}
	}

	src := &savingTokenSource{ts: cfg.TokenSource(ctx, tok), save: a.saveToken, last: tok.AccessToken}
	return NewClient(oauth2.NewClient(ctx, src)), nil
}

func (a *Authenticator) deviceLogin(ctx context.Context, cfg *oauth2.Config) (*oauth2.Token, error) {
	resp, err := cfg.DeviceAuth(ctx)
	if err != nil {
		return nil, fmt.Errorf("device auth request failed: %w", err)
	}

	fmt.Fprintln(a.Out)
	fmt.Fprintln(a.Out, "To sign in, use a web browser to open the page:")
	fmt.Fprintf(a.Out, "  %s\n", resp.VerificationURI)
	fmt.Fprintf(a.Out, "Enter the code: %s\n", resp.UserCode)
	fmt.Fprintln(a.Out)

	tok, err := cfg.DeviceAccessToken(ctx, resp)
	if err != nil {
		return nil, fmt.Errorf("device authentication failed: %w", err)
	}
	if err := a.saveToken(tok); err != nil {
		fmt.Fprintf(a.Out, "Warning: could not save token: %v\n", err)
	}
	return tok, nil
}

// savingTokenSource wraps a TokenSource and persists a token whenever its
// access token changes.
type savingTokenSource struct {
	ts   oauth2.TokenSource
	save func(*oauth2.Token) error

	mu   sync.Mutex
	last string
}

func (s *savingTokenSource) Token() (*oauth2.Token, error) {
	tok, err := s.ts.Token()
	if err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if tok.AccessToken != s.last {
		// Best-effort; a failed save is retried on the next call.
		if s.save(tok) == nil {
			s.last = tok.AccessToken
		}
	}
	return tok, nil
}
