// Package auth authenticates API requests with OIDC bearer tokens and
// exposes the resolved operator identity through the request context.
package auth

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"

	"github.com/coreos/go-oidc/v3/oidc"

	"github.com/JaimeStill/patentbot/pkg/handlers"
)

// Anonymous is the operator recorded when authentication is disabled.
const Anonymous = "anonymous"

var (
	// ErrMissingToken indicates the request carried no bearer token.
	ErrMissingToken = errors.New("missing bearer token")
	// ErrInvalidToken indicates the bearer token failed verification.
	ErrInvalidToken = errors.New("invalid bearer token")
)

type operatorKey struct{}

// WithOperator returns a context carrying the operator identity.
func WithOperator(ctx context.Context, operator string) context.Context {
	return context.WithValue(ctx, operatorKey{}, operator)
}

// Operator returns the authenticated operator, or Anonymous when none is set.
func Operator(ctx context.Context) string {
	if op, ok := ctx.Value(operatorKey{}).(string); ok && op != "" {
		return op
	}
	return Anonymous
}

// Authenticator verifies bearer tokens against an OIDC issuer.
// A nil verifier means authentication is disabled.
type Authenticator struct {
	verifier *oidc.IDTokenVerifier
	claim    string
	logger   *slog.Logger
}

// New discovers the issuer's signing keys when authentication is enabled.
func New(ctx context.Context, cfg *Config, logger *slog.Logger) (*Authenticator, error) {
	logger = logger.With("system", "auth")
	if !cfg.Enabled {
		logger.Info("authentication disabled")
		return &Authenticator{claim: cfg.OperatorClaim, logger: logger}, nil
	}

	provider, err := oidc.NewProvider(ctx, cfg.IssuerURL)
	if err != nil {
		return nil, fmt.Errorf("discover oidc issuer %s: %w", cfg.IssuerURL, err)
	}

	logger.Info("authentication enabled", "issuer", cfg.IssuerURL)
	return NewWithVerifier(provider.Verifier(&oidc.Config{ClientID: cfg.ClientID}), cfg.OperatorClaim, logger), nil
}

// NewWithVerifier builds an Authenticator around an existing verifier.
func NewWithVerifier(verifier *oidc.IDTokenVerifier, claim string, logger *slog.Logger) *Authenticator {
	if claim == "" {
		claim = "sub"
	}
	return &Authenticator{verifier: verifier, claim: claim, logger: logger}
}

// Middleware rejects requests without a valid bearer token and stores the
// operator claim in the request context.
func (a *Authenticator) Middleware() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if a.verifier == nil {
				next.ServeHTTP(w, r.WithContext(WithOperator(r.Context(), Anonymous)))
				return
			}

			operator, err := a.authenticate(r)
			if err != nil {
				w.Header().Set("WWW-Authenticate", `Bearer realm="patentbot"`)
				handlers.RespondError(w, a.logger, http.StatusUnauthorized, err)
				return
			}

			next.ServeHTTP(w, r.WithContext(WithOperator(r.Context(), operator)))
		})
	}
}

func (a *Authenticator) authenticate(r *http.Request) (string, error) {
	raw, ok := strings.CutPrefix(r.Header.Get("Authorization"), "Bearer ")
	if !ok || strings.TrimSpace(raw) == "" {
		return "", ErrMissingToken
	}

	token, err := a.verifier.Verify(r.Context(), strings.TrimSpace(raw))
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}

	if a.claim == "sub" {
		return token.Subject, nil
	}

	var claims map[string]any
	if err := token.Claims(&claims); err != nil {
		return "", fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}
	operator, _ := claims[a.claim].(string)
	if operator == "" {
		return "", fmt.Errorf("%w: claim %q missing", ErrInvalidToken, a.claim)
	}
	return operator, nil
}
