package database

import (
	"errors"
	"fmt"
	"net"
	"net/url"
	"os"
	"slices"
	"strconv"
	"time"
)

const minPoolConns = 2

var sslModes = []string{"disable", "allow", "prefer", "require", "verify-ca", "verify-full"}

// Config holds PostgreSQL connection parameters. URL, when set, replaces
// the host, port, name, user, password, and ssl_mode fields.
type Config struct {
	URL             string `toml:"url"`
	Host            string `toml:"host"`
	Port            int    `toml:"port"`
	Name            string `toml:"name"`
	User            string `toml:"user"`
	Password        string `toml:"password"`
	SSLMode         string `toml:"ssl_mode"`
	ApplicationName string `toml:"application_name"`
	MaxConns        int    `toml:"max_conns"`
	MinConns        int    `toml:"min_conns"`
	ConnMaxLifetime string `toml:"conn_max_lifetime"`
	ConnMaxIdleTime string `toml:"conn_max_idle_time"`
	ConnTimeout     string `toml:"conn_timeout"`
	// StatementTimeout is sent as the session statement_timeout.
	// "0s" disables it.
	StatementTimeout string `toml:"statement_timeout"`
}

// Env maps config fields to environment variable names for override injection.
type Env struct {
	URL              string
	Host             string
	Port             string
	Name             string
	User             string
	Password         string
	SSLMode          string
	ApplicationName  string
	MaxConns         string
	MinConns         string
	ConnMaxLifetime  string
	ConnMaxIdleTime  string
	ConnTimeout      string
	StatementTimeout string
}

func (c *Config) ConnMaxLifetimeDuration() time.Duration {
	return parseDuration(c.ConnMaxLifetime)
}

func (c *Config) ConnMaxIdleTimeDuration() time.Duration {
	return parseDuration(c.ConnMaxIdleTime)
}

func (c *Config) ConnTimeoutDuration() time.Duration {
	return parseDuration(c.ConnTimeout)
}

func (c *Config) StatementTimeoutDuration() time.Duration {
	return parseDuration(c.StatementTimeout)
}

// Dsn returns the connection URL: URL verbatim when set, otherwise one
// built from the individual fields.
func (c *Config) Dsn() string {
	if c.URL != "" {
		return c.URL
	}

	q := url.Values{"sslmode": {c.SSLMode}}
	if c.ApplicationName != "" {
		q.Set("application_name", c.ApplicationName)
	}

	u := url.URL{
		Scheme:   "postgres",
		User:     url.UserPassword(c.User, c.Password),
		Host:     net.JoinHostPort(c.Host, strconv.Itoa(c.Port)),
		Path:     "/" + c.Name,
		RawQuery: q.Encode(),
	}
	return u.String()
}

// Finalize applies defaults, environment variable overrides, and validation.
func (c *Config) Finalize(env *Env) error {
	c.loadDefaults()
	if env != nil {
		if err := c.loadEnv(env); err != nil {
			return err
		}
	}
	return c.validate()
}

// Merge overwrites non-zero fields from overlay.
func (c *Config) Merge(overlay *Config) {
	for _, f := range []struct{ dst, src *string }{
		{&c.URL, &overlay.URL},
		{&c.Host, &overlay.Host},
		{&c.Name, &overlay.Name},
		{&c.User, &overlay.User},
		{&c.Password, &overlay.Password},
		{&c.SSLMode, &overlay.SSLMode},
		{&c.ApplicationName, &overlay.ApplicationName},
		{&c.ConnMaxLifetime, &overlay.ConnMaxLifetime},
		{&c.ConnMaxIdleTime, &overlay.ConnMaxIdleTime},
		{&c.ConnTimeout, &overlay.ConnTimeout},
		{&c.StatementTimeout, &overlay.StatementTimeout},
	} {
		if *f.src != "" {
			*f.dst = *f.src
		}
	}
	for _, f := range []struct{ dst, src *int }{
		{&c.Port, &overlay.Port},
		{&c.MaxConns, &overlay.MaxConns},
		{&c.MinConns, &overlay.MinConns},
	} {
		if *f.src != 0 {
			*f.dst = *f.src
		}
	}
}

func (c *Config) loadDefaults() {
	defaults := []struct {
		dst *string
		val string
	}{
		{&c.Host, "localhost"},
		{&c.SSLMode, "disable"},
		{&c.ApplicationName, "regwatch"},
		{&c.ConnMaxLifetime, "15m"},
		{&c.ConnMaxIdleTime, "5m"},
		{&c.ConnTimeout, "5s"},
		{&c.StatementTimeout, "30s"},
	}
	for _, d := range defaults {
		if *d.dst == "" {
			*d.dst = d.val
		}
	}

	if c.Port == 0 {
		c.Port = 5432
	}
	if c.MaxConns == 0 {
		c.MaxConns = 20
	}
	if c.MinConns == 0 {
		c.MinConns = 2
	}
}

func (c *Config) loadEnv(env *Env) error {
	strs := []struct {
		name string
		dst  *string
	}{
		{env.URL, &c.URL},
		{env.Host, &c.Host},
		{env.Name, &c.Name},
		{env.User, &c.User},
		{env.Password, &c.Password},
		{env.SSLMode, &c.SSLMode},
		{env.ApplicationName, &c.ApplicationName},
		{env.ConnMaxLifetime, &c.ConnMaxLifetime},
		{env.ConnMaxIdleTime, &c.ConnMaxIdleTime},
		{env.ConnTimeout, &c.ConnTimeout},
		{env.StatementTimeout, &c.StatementTimeout},
	}
	for _, s := range strs {
		if v := getenv(s.name); v != "" {
			*s.dst = v
		}
	}

	ints := []struct {
		name string
		dst  *int
	}{
		{env.Port, &c.Port},
		{env.MaxConns, &c.MaxConns},
		{env.MinConns, &c.MinConns},
	}
	for _, i := range ints {
		v := getenv(i.name)
		if v == "" {
			continue
		}
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("%s: %w", i.name, err)
		}
		*i.dst = n
	}
	return nil
}

func (c *Config) validate() error {
	if c.URL != "" {
		u, err := url.Parse(c.URL)
		if err != nil || (u.Scheme != "postgres" && u.Scheme != "postgresql") {
			return errors.New("url must be a postgres:// connection URL")
		}
	} else {
		if c.Name == "" {
			return errors.New("name required")
		}
		if c.User == "" {
			return errors.New("user required")
		}
		if c.Port < 1 || c.Port > 65535 {
			return fmt.Errorf("invalid port %d", c.Port)
		}
		if !slices.Contains(sslModes, c.SSLMode) {
			return fmt.Errorf("invalid ssl_mode %q", c.SSLMode)
		}
	}

	// An upload holds a transaction while the vector index takes a second
	// connection from the same pool.
	if c.MaxConns < minPoolConns {
		return fmt.Errorf("max_conns must be at least %d, got %d", minPoolConns, c.MaxConns)
	}
	if c.MinConns < 0 || c.MinConns > c.MaxConns {
		return fmt.Errorf("min_conns (%d) must be between 0 and max_conns (%d)", c.MinConns, c.MaxConns)
	}

	for _, d := range []struct {
		name, value string
		zeroOK      bool
	}{
		{"conn_max_lifetime", c.ConnMaxLifetime, false},
		{"conn_max_idle_time", c.ConnMaxIdleTime, false},
		{"conn_timeout", c.ConnTimeout, false},
		{"statement_timeout", c.StatementTimeout, true},
	} {
		v, err := time.ParseDuration(d.value)
		if err != nil {
			return fmt.Errorf("invalid %s: %w", d.name, err)
		}
		if v < 0 || (v == 0 && !d.zeroOK) {
			return fmt.Errorf("%s must be positive", d.name)
		}
	}
	return nil
}

func getenv(name string) string {
	if name == "" {
		return ""
	}
	return os.Getenv(name)
}

func parseDuration(s string) time.Duration {
	d, _ := time.ParseDuration(s)
	return d
}
