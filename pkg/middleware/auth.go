package middleware

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"strconv"
	"strings"

	"github.com/coreos/go-oidc/v3/oidc"

	"github.com/JaimeStill/regwatch/pkg/handlers"
)

// AuthConfig holds OIDC bearer token validation settings.
type AuthConfig struct {
	Enabled     bool     `toml:"enabled"`
	Issuer      string   `toml:"issuer"`
	Audience    string   `toml:"audience"`
	ExemptPaths []string `toml:"exempt_paths"`
}

// AuthEnv maps auth config fields to environment variable names.
type AuthEnv struct {
	Enabled  string
	Issuer   string
	Audience string
}

// Finalize applies environment overrides and validates that an enabled
// config names both an issuer and an audience.
func (c *AuthConfig) Finalize(env *AuthEnv) error {
	if env != nil {
		c.loadEnv(env)
	}
	if !c.Enabled {
		return nil
	}
	if c.Issuer == "" {
		return fmt.Errorf("issuer required when auth is enabled")
	}
	if c.Audience == "" {
		return fmt.Errorf("audience required when auth is enabled")
	}
	return nil
}

// Merge overwrites fields from overlay. Enabled always applies.
func (c *AuthConfig) Merge(overlay *AuthConfig) {
	c.Enabled = overlay.Enabled
	if overlay.Issuer != "" {
		c.Issuer = overlay.Issuer
	}
	if overlay.Audience != "" {
		c.Audience = overlay.Audience
	}
	if overlay.ExemptPaths != nil {
		c.ExemptPaths = overlay.ExemptPaths
	}
}

func (c *AuthConfig) loadEnv(env *AuthEnv) {
	if env.Enabled != "" {
		if v := os.Getenv(env.Enabled); v != "" {
			if enabled, err := strconv.ParseBool(v); err == nil {
				c.Enabled = enabled
			}
		}
	}
	if env.Issuer != "" {
		if v := os.Getenv(env.Issuer); v != "" {
			c.Issuer = v
		}
	}
	if env.Audience != "" {
		if v := os.Getenv(env.Audience); v != "" {
			c.Audience = v
		}
	}
}

// TokenVerifier validates a raw bearer token. *oidc.IDTokenVerifier satisfies it.
type TokenVerifier interface {
	Verify(ctx context.Context, rawToken string) (*oidc.IDToken, error)
}

// NewVerifier discovers the issuer's OIDC configuration and returns a verifier
// bound to the configured audience.
func NewVerifier(ctx context.Context, cfg *AuthConfig) (TokenVerifier, error) {
	provider, err := oidc.NewProvider(ctx, cfg.Issuer)
	if err != nil {
		return nil, fmt.Errorf("discover oidc provider %s: %w", cfg.Issuer, err)
	}
	return provider.Verifier(&oidc.Config{ClientID: cfg.Audience}), nil
}

type tokenKey struct{}

// TokenFromContext returns the verified token attached by Auth.
func TokenFromContext(ctx context.Context) (*oidc.IDToken, bool) {
	tok, ok := ctx.Value(tokenKey{}).(*oidc.IDToken)
	return tok, ok
}

var errMissingBearer = errors.New("missing bearer token")

// Auth returns middleware that rejects requests without a valid bearer token.
// Paths with a prefix listed in exempt and CORS preflight requests pass through.
func Auth(verifier TokenVerifier, exempt []string, logger *slog.Logger) Func {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.Method == http.MethodOptions || isExempt(r.URL.Path, exempt) {
				next.ServeHTTP(w, r)
				return
			}

			raw, err := bearerToken(r)
			if err == nil {
				var tok *oidc.IDToken
				if tok, err = verifier.Verify(r.Context(), raw); err == nil {
					next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), tokenKey{}, tok)))
					return
				}
			}

			logger.Warn(
				"unauthorized request",
				"uri", r.URL.RequestURI(),
				"request_id", RequestIDFromContext(r.Context()),
				"error", err,
			)
			w.Header().Set("WWW-Authenticate", `Bearer realm="regwatch"`)
			handlers.RespondJSON(w, http.StatusUnauthorized, map[string]string{"error": http.StatusText(http.StatusUnauthorized)})
		})
	}
}

func bearerToken(r *http.Request) (string, error) {
	header := r.Header.Get("Authorization")
	scheme, token, ok := strings.Cut(header, " ")
	if !ok || !strings.EqualFold(scheme, "Bearer") || strings.TrimSpace(token) == "" {
		return "", errMissingBearer
	}
	return strings.TrimSpace(token), nil
}

func isExempt(path string, exempt []string) bool {
	for _, prefix := range exempt {
		if strings.HasPrefix(path, prefix) {
			return true
		}
	}
	return false
}
