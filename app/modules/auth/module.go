package auth

import (
	"fmt"
	"log/slog"
	"net/http"
	"time"

	authdomain "github.com/d2avids/rso-sub000/app/modules/auth/domain"
	authhandlers "github.com/d2avids/rso-sub000/app/modules/auth/infrastructure/handlers"
	authjwt "github.com/d2avids/rso-sub000/app/modules/auth/infrastructure/jwt"
	"github.com/d2avids/rso-sub000/config"
)

// Module holds the token provider shared by the HTTP surfaces. Tokens are
// issued by the member portal; IssueToken exists for operators and tests.
type Module struct {
	provider authjwt.Provider
	logger   *slog.Logger
}

// NewModule creates the auth module from the JWT configuration.
func NewModule(cfg *config.Config, logger *slog.Logger) (*Module, error) {
	if cfg.JWT.Secret == "" {
		return nil, fmt.Errorf("jwt secret is required")
	}
	return &Module{provider: authjwt.NewProvider(cfg.JWT.Secret), logger: logger}, nil
}

func (m *Module) Provider() authjwt.Provider { return m.provider }

// Middleware authenticates bearer tokens.
func (m *Module) Middleware() func(http.Handler) http.Handler {
	return authhandlers.BearerAuthMiddleware(m.provider, m.logger)
}

// IssueToken signs a token for userID with the given role and memberships.
func (m *Module) IssueToken(userID string, role authdomain.Role, detachments []int64, ttl time.Duration) (string, error) {
	if !role.IsValid() {
		return "", fmt.Errorf("unknown role %q", role)
	}
	return m.provider.GenerateToken(&authdomain.Claims{
		UserID:      userID,
		Role:        role,
		Detachments: detachments,
	}, ttl)
}
