package database

import (
	"cmp"
	"fmt"
	"net"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"
)

// Config holds PostgreSQL connection parameters for the archive ledger and
// the processed-marks table.
type Config struct {
	Host            string `toml:"host"`
	Port            int    `toml:"port"`
	Name            string `toml:"name"`
	User            string `toml:"user"`
	Password        string `toml:"password"`
	SSLMode         string `toml:"ssl_mode"`
	MaxOpenConns    int    `toml:"max_open_conns"`
	MaxIdleConns    int    `toml:"max_idle_conns"`
	ConnMaxLifetime string `toml:"conn_max_lifetime"`
	ConnTimeout     string `toml:"conn_timeout"`
}

// Env names the environment variables that override each field. Empty
// names are skipped.
type Env struct {
	Host            string
	Port            string
	Name            string
	User            string
	Password        string
	SSLMode         string
	MaxOpenConns    string
	MaxIdleConns    string
	ConnMaxLifetime string
	ConnTimeout     string
}

var defaults = Config{
	Host:            "localhost",
	Port:            5432,
	Name:            "docket",
	User:            "docket",
	SSLMode:         "disable",
	MaxOpenConns:    25,
	MaxIdleConns:    5,
	ConnMaxLifetime: "15m",
	ConnTimeout:     "5s",
}

func (c *Config) ConnMaxLifetimeDuration() time.Duration {
	d, _ := time.ParseDuration(c.ConnMaxLifetime)
	return d
}

func (c *Config) ConnTimeoutDuration() time.Duration {
	d, _ := time.ParseDuration(c.ConnTimeout)
	return d
}

// Dsn renders the keyword/value form accepted by the pgx stdlib driver.
func (c *Config) Dsn() string {
	pairs := [][2]string{
		{"host", c.Host},
		{"port", strconv.Itoa(c.Port)},
		{"dbname", c.Name},
		{"user", c.User},
		{"password", c.Password},
		{"sslmode", c.SSLMode},
	}
	parts := make([]string, 0, len(pairs))
	for _, p := range pairs {
		parts = append(parts, p[0]+"="+p[1])
	}
	return strings.Join(parts, " ")
}

// URL renders the postgres:// form used by golang-migrate.
func (c *Config) URL() string {
	user := url.User(c.User)
	if c.Password != "" {
		user = url.UserPassword(c.User, c.Password)
	}
	return (&url.URL{
		Scheme:   "postgres",
		User:     user,
		Host:     net.JoinHostPort(c.Host, strconv.Itoa(c.Port)),
		Path:     "/" + c.Name,
		RawQuery: "sslmode=" + url.QueryEscape(c.SSLMode),
	}).String()
}

// Finalize fills unset fields from defaults, applies env overrides, and
// validates the result.
func (c *Config) Finalize(env *Env) error {
	c.Merge(c.withDefaults())
	if env != nil {
		if err := c.loadEnv(env); err != nil {
			return err
		}
	}
	return c.validate()
}

// Merge copies every non-zero field of overlay onto c.
func (c *Config) Merge(overlay *Config) {
	c.Host = cmp.Or(overlay.Host, c.Host)
	c.Port = cmp.Or(overlay.Port, c.Port)
	c.Name = cmp.Or(overlay.Name, c.Name)
	c.User = cmp.Or(overlay.User, c.User)
	c.Password = cmp.Or(overlay.Password, c.Password)
	c.SSLMode = cmp.Or(overlay.SSLMode, c.SSLMode)
	c.MaxOpenConns = cmp.Or(overlay.MaxOpenConns, c.MaxOpenConns)
	c.MaxIdleConns = cmp.Or(overlay.MaxIdleConns, c.MaxIdleConns)
	c.ConnMaxLifetime = cmp.Or(overlay.ConnMaxLifetime, c.ConnMaxLifetime)
	c.ConnTimeout = cmp.Or(overlay.ConnTimeout, c.ConnTimeout)
}

// withDefaults returns defaults overlaid with the fields already set on c.
func (c *Config) withDefaults() *Config {
	filled := defaults
	filled.Merge(c)
	return &filled
}

func (c *Config) loadEnv(env *Env) error {
	strs := map[string]*string{
		env.Host:            &c.Host,
		env.Name:            &c.Name,
		env.User:            &c.User,
		env.Password:        &c.Password,
		env.SSLMode:         &c.SSLMode,
		env.ConnMaxLifetime: &c.ConnMaxLifetime,
		env.ConnTimeout:     &c.ConnTimeout,
	}
	for name, dst := range strs {
		if v := lookup(name); v != "" {
			*dst = v
		}
	}

	ints := map[string]*int{
		env.Port:         &c.Port,
		env.MaxOpenConns: &c.MaxOpenConns,
		env.MaxIdleConns: &c.MaxIdleConns,
	}
	for name, dst := range ints {
		v := lookup(name)
		if v == "" {
			continue
		}
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("invalid %s: %w", name, err)
		}
		*dst = n
	}
	return nil
}

func lookup(name string) string {
	if name == "" {
		return ""
	}
	return os.Getenv(name)
}

func (c *Config) validate() error {
	switch {
	case c.Port < 1 || c.Port > 65535:
		return fmt.Errorf("invalid port: %d", c.Port)
	case c.MaxIdleConns > c.MaxOpenConns:
		return fmt.Errorf("max_idle_conns (%d) exceeds max_open_conns (%d)", c.MaxIdleConns, c.MaxOpenConns)
	}
	for name, v := range map[string]string{
		"conn_max_lifetime": c.ConnMaxLifetime,
		"conn_timeout":      c.ConnTimeout,
	} {
		if _, err := time.ParseDuration(v); err != nil {
			return fmt.Errorf("invalid %s: %w", name, err)
		}
	}
	return nil
}
