package auth

import (
	"os"
	"strings"
)

// Config holds Microsoft identity platform parameters. A non-empty
// ClientSecret selects the app-only client credential flow; otherwise the
// interactive device code flow is used.
type Config struct {
	ClientID     string   `toml:"client_id"`
	TenantID     string   `toml:"tenant_id"`
	ClientSecret string   `toml:"client_secret"`
	Scopes       []string `toml:"scopes"`
	RecordFile   string   `toml:"record_file"`
}

// Env maps config fields to environment variable names for override injection.
type Env struct {
	ClientID     string
	TenantID     string
	ClientSecret string
	Scopes       string
	RecordFile   string
}

// Delegated reports whether tokens are acquired on behalf of a signed-in user.
func (c *Config) Delegated() bool {
	return c.ClientSecret == ""
}

// Finalize applies defaults and environment variable overrides.
// Missing credentials are reported by New, not here, so configurations
// that never touch a remote service stay valid.
func (c *Config) Finalize(env *Env) error {
	if env != nil {
		c.loadEnv(env)
	}
	c.loadDefaults()
	return nil
}

// Merge overwrites non-zero fields from overlay.
func (c *Config) Merge(overlay *Config) {
	if overlay.ClientID != "" {
		c.ClientID = overlay.ClientID
	}
	if overlay.TenantID != "" {
		c.TenantID = overlay.TenantID
	}
	if overlay.ClientSecret != "" {
		c.ClientSecret = overlay.ClientSecret
	}
	if len(overlay.Scopes) > 0 {
		c.Scopes = overlay.Scopes
	}
	if overlay.RecordFile != "" {
		c.RecordFile = overlay.RecordFile
	}
}

func (c *Config) loadDefaults() {
	if c.TenantID == "" {
		if c.Delegated() {
			c.TenantID = "consumers"
		}
	}
	if len(c.Scopes) == 0 {
		if c.Delegated() {
			c.Scopes = []string{"User.Read", "Mail.Read", "Files.ReadWrite"}
		} else {
			c.Scopes = []string{"https://graph.microsoft.com/.default"}
		}
	}
	if c.RecordFile == "" {
		c.RecordFile = "auth_record.json"
	}
}

func (c *Config) loadEnv(env *Env) {
	if env.ClientID != "" {
		if v := os.Getenv(env.ClientID); v != "" {
			c.ClientID = v
		}
	}
	if env.TenantID != "" {
		if v := os.Getenv(env.TenantID); v != "" {
			c.TenantID = v
		}
	}
	if env.ClientSecret != "" {
		if v := os.Getenv(env.ClientSecret); v != "" {
			c.ClientSecret = v
		}
	}
	if env.Scopes != "" {
		if v := os.Getenv(env.Scopes); v != "" {
			var scopes []string
			for s := range strings.SplitSeq(v, ",") {
				if s = strings.TrimSpace(s); s != "" {
					scopes = append(scopes, s)
				}
			}
			c.Scopes = scopes
		}
	}
	if env.RecordFile != "" {
		if v := os.Getenv(env.RecordFile); v != "" {
			c.RecordFile = v
		}
	}
}
