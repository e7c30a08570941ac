// Package auth acquires Microsoft Graph bearer tokens through azidentity.
// Delegated sign-in uses the device code flow and persists the resulting
// authentication record so later runs reuse the same account.
package auth

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"sync"

	"github.com/Azure/azure-sdk-for-go/sdk/azcore"
	"github.com/Azure/azure-sdk-for-go/sdk/azcore/policy"
	"github.com/Azure/azure-sdk-for-go/sdk/azidentity"
)

// ErrConfiguration indicates a required credential is absent. It is fatal
// to a run.
var ErrConfiguration = errors.New("authentication not configured")

// Provider hands out bearer tokens for a fixed scope set.
type Provider struct {
	cred   azcore.TokenCredential
	scopes []string
	logger *slog.Logger
}

// New builds a Provider from cfg. Without a saved authentication record the
// device code sign-in runs immediately and its prompts are written to prompt.
func New(ctx context.Context, cfg *Config, prompt io.Writer, logger *slog.Logger) (*Provider, error) {
	logger = logger.With("system", "auth")

	if cfg.ClientID == "" {
		return nil, fmt.Errorf("%w: client_id required", ErrConfiguration)
	}

	if !cfg.Delegated() {
		if cfg.TenantID == "" {
			return nil, fmt.Errorf("%w: tenant_id required for client secret", ErrConfiguration)
		}
		cred, err := azidentity.NewClientSecretCredential(cfg.TenantID, cfg.ClientID, cfg.ClientSecret, nil)
		if err != nil {
			return nil, fmt.Errorf("%w: %w", ErrConfiguration, err)
		}
		logger.Info("using client secret credential", "tenant_id", cfg.TenantID)
		return NewFromCredential(cred, cfg.Scopes, logger), nil
	}

	record, err := LoadRecord(cfg.RecordFile)
	if err != nil {
		return nil, err
	}

	cred, err := azidentity.NewDeviceCodeCredential(&azidentity.DeviceCodeCredentialOptions{
		ClientID:             cfg.ClientID,
		TenantID:             cfg.TenantID,
		AuthenticationRecord: record,
		UserPrompt: func(ctx context.Context, msg azidentity.DeviceCodeMessage) error {
			_, err := fmt.Fprintln(prompt, msg.Message)
			return err
		},
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrConfiguration, err)
	}

	p := NewFromCredential(cred, cfg.Scopes, logger)

	if record == (azidentity.AuthenticationRecord{}) {
		logger.Info("no authentication record, starting device code sign-in")
		rec, err := cred.Authenticate(ctx, &policy.TokenRequestOptions{Scopes: cfg.Scopes})
		if err != nil {
			return nil, fmt.Errorf("device code sign-in: %w", err)
		}
		if err := SaveRecord(cfg.RecordFile, rec); err != nil {
			logger.Warn("authentication record not saved", "path", cfg.RecordFile, "error", err)
		} else {
			logger.Info("authentication record saved", "path", cfg.RecordFile, "username", rec.Username)
		}
	} else {
		logger.Info("using saved authentication record", "username", record.Username)
	}

	return p, nil
}

// NewFromCredential wraps an existing credential.
func NewFromCredential(cred azcore.TokenCredential, scopes []string, logger *slog.Logger) *Provider {
	return &Provider{
		cred:   cred,
		scopes: scopes,
		logger: logger,
	}
}

// Token returns a bearer token. azidentity caches and refreshes tokens
// for the life of the credential.
func (p *Provider) Token(ctx context.Context) (string, error) {
	tok, err := p.cred.GetToken(ctx, policy.TokenRequestOptions{Scopes: p.scopes})
	if err != nil {
		return "", fmt.Errorf("get token: %w", err)
	}
	return tok.Token, nil
}

// LoadRecord reads a persisted authentication record. A missing file
// yields the zero record.
func LoadRecord(path string) (azidentity.AuthenticationRecord, error) {
	var record azidentity.AuthenticationRecord

	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return record, nil
		}
		return record, fmt.Errorf("read authentication record: %w", err)
	}

	if err := json.Unmarshal(data, &record); err != nil {
		return record, fmt.Errorf("parse authentication record %s: %w", path, err)
	}
	return record, nil
}

// SaveRecord writes record to path atomically with owner-only permissions.
func SaveRecord(path string, record azidentity.AuthenticationRecord) error {
	data, err := json.MarshalIndent(record, "", "  ")
	if err != nil {
		return fmt.Errorf("encode authentication record: %w", err)
	}

	dir := filepath.Dir(path)
	tmp, err := os.CreateTemp(dir, ".auth-*")
	if err != nil {
		return fmt.Errorf("create temp record: %w", err)
	}
	defer os.Remove(tmp.Name())

	if err := tmp.Chmod(0o600); err != nil {
		tmp.Close()
		return fmt.Errorf("chmod temp record: %w", err)
	}
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("write temp record: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close temp record: %w", err)
	}
	return os.Rename(tmp.Name(), path)
}

// Lazy defers sign-in until the first token request, so commands that never
// reach a remote service never prompt.
type Lazy struct {
	cfg    *Config
	prompt io.Writer
	logger *slog.Logger

	mu       sync.Mutex
	provider *Provider
}

// NewLazy returns a Lazy provider for cfg.
func NewLazy(cfg *Config, prompt io.Writer, logger *slog.Logger) *Lazy {
	return &Lazy{cfg: cfg, prompt: prompt, logger: logger}
}

// Token signs in on first use and returns a bearer token. A failed sign-in
// is retried on the next call.
func (l *Lazy) Token(ctx context.Context) (string, error) {
	l.mu.Lock()
	if l.provider == nil {
		p, err := New(ctx, l.cfg, l.prompt, l.logger)
		if err != nil {
			l.mu.Unlock()
			return "", err
		}
		l.provider = p
	}
	p := l.provider
	l.mu.Unlock()

	return p.Token(ctx)
}
