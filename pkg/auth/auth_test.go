package auth_test

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"slices"
	"testing"
	"time"

	"github.com/Azure/azure-sdk-for-go/sdk/azcore"
	"github.com/Azure/azure-sdk-for-go/sdk/azcore/policy"
	"github.com/Azure/azure-sdk-for-go/sdk/azidentity"

	"github.com/JaimeStill/docket/pkg/auth"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

type staticCredential struct {
	token  string
	err    error
	scopes []string
}

func (c *staticCredential) GetToken(_ context.Context, opts policy.TokenRequestOptions) (azcore.AccessToken, error) {
	c.scopes = opts.Scopes
	if c.err != nil {
		return azcore.AccessToken{}, c.err
	}
	return azcore.AccessToken{Token: c.token, ExpiresOn: time.Now().Add(time.Hour)}, nil
}

func TestProviderToken(t *testing.T) {
	cred := &staticCredential{token: "abc"}
	p := auth.NewFromCredential(cred, []string{"Mail.Read"}, discardLogger())

	tok, err := p.Token(context.Background())
	if err != nil {
		t.Fatalf("Token: %v", err)
	}
	if tok != "abc" {
		t.Errorf("token = %q, want abc", tok)
	}
	if !slices.Equal(cred.scopes, []string{"Mail.Read"}) {
		t.Errorf("scopes = %v", cred.scopes)
	}
}

func TestProviderTokenError(t *testing.T) {
	boom := errors.New("interaction required")
	p := auth.NewFromCredential(&staticCredential{err: boom}, nil, discardLogger())

	if _, err := p.Token(context.Background()); !errors.Is(err, boom) {
		t.Errorf("err = %v, want wrapped credential error", err)
	}
}

func TestNewRequiresClientID(t *testing.T) {
	cfg := &auth.Config{}
	if err := cfg.Finalize(nil); err != nil {
		t.Fatal(err)
	}

	_, err := auth.New(context.Background(), cfg, io.Discard, discardLogger())
	if !errors.Is(err, auth.ErrConfiguration) {
		t.Errorf("err = %v, want ErrConfiguration", err)
	}
}

func TestNewClientSecretRequiresTenant(t *testing.T) {
	cfg := &auth.Config{ClientID: "app", ClientSecret: "s3cret"}
	if err := cfg.Finalize(nil); err != nil {
		t.Fatal(err)
	}

	_, err := auth.New(context.Background(), cfg, io.Discard, discardLogger())
	if !errors.Is(err, auth.ErrConfiguration) {
		t.Errorf("err = %v, want ErrConfiguration", err)
	}
}

func TestConfigDefaults(t *testing.T) {
	delegated := &auth.Config{ClientID: "app"}
	if err := delegated.Finalize(nil); err != nil {
		t.Fatal(err)
	}
	if delegated.TenantID != "consumers" {
		t.Errorf("TenantID = %q, want consumers", delegated.TenantID)
	}
	if !slices.Contains(delegated.Scopes, "Mail.Read") {
		t.Errorf("Scopes = %v, want Mail.Read", delegated.Scopes)
	}

	app := &auth.Config{ClientID: "app", ClientSecret: "s", TenantID: "t"}
	if err := app.Finalize(nil); err != nil {
		t.Fatal(err)
	}
	if !slices.Equal(app.Scopes, []string{"https://graph.microsoft.com/.default"}) {
		t.Errorf("Scopes = %v", app.Scopes)
	}
}

func TestConfigEnv(t *testing.T) {
	t.Setenv("TEST_AUTH_CLIENT_ID", "from-env")
	t.Setenv("TEST_AUTH_SCOPES", "Mail.Read, Files.ReadWrite ,")

	cfg := &auth.Config{ClientID: "from-file"}
	err := cfg.Finalize(&auth.Env{ClientID: "TEST_AUTH_CLIENT_ID", Scopes: "TEST_AUTH_SCOPES"})
	if err != nil {
		t.Fatal(err)
	}
	if cfg.ClientID != "from-env" {
		t.Errorf("ClientID = %q", cfg.ClientID)
	}
	if !slices.Equal(cfg.Scopes, []string{"Mail.Read", "Files.ReadWrite"}) {
		t.Errorf("Scopes = %v", cfg.Scopes)
	}
}

func TestRecordFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "record.json")

	missing, err := auth.LoadRecord(path)
	if err != nil {
		t.Fatalf("LoadRecord missing: %v", err)
	}
	if missing != (azidentity.AuthenticationRecord{}) {
		t.Errorf("missing record = %+v, want zero", missing)
	}

	rec := azidentity.AuthenticationRecord{
		Authority:     "login.microsoftonline.com",
		ClientID:      "app",
		HomeAccountID: "uid.utid",
		TenantID:      "consumers",
		Username:      "user@example.com",
		Version:       "1.0",
	}
	if err := auth.SaveRecord(path, rec); err != nil {
		t.Fatalf("SaveRecord: %v", err)
	}

	info, err := os.Stat(path)
	if err != nil {
		t.Fatal(err)
	}
	if perm := info.Mode().Perm(); perm != 0o600 {
		t.Errorf("perm = %o, want 600", perm)
	}

	got, err := auth.LoadRecord(path)
	if err != nil {
		t.Fatalf("LoadRecord: %v", err)
	}
	if got != rec {
		t.Errorf("record = %+v, want %+v", got, rec)
	}
}

func TestLazyDefersSignIn(t *testing.T) {
	cfg := &auth.Config{}
	if err := cfg.Finalize(nil); err != nil {
		t.Fatal(err)
	}

	lazy := auth.NewLazy(cfg, io.Discard, discardLogger())
	for range 2 {
		if _, err := lazy.Token(context.Background()); !errors.Is(err, auth.ErrConfiguration) {
			t.Fatalf("err = %v, want ErrConfiguration", err)
		}
	}
}
