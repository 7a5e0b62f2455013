package session

import (
	"context"
	"sync"

	"skillmatch/internal/common/auth"
	"skillmatch/internal/common/errors"
	"skillmatch/internal/common/logger"
	"skillmatch/internal/models"
)

// KeycloakAuthenticator signs a company user in against Keycloak and
// publishes the resulting identity on a Context.
type KeycloakAuthenticator struct {
	client  *auth.KeycloakClient
	session *Context
	logger  logger.Logger

	mu           sync.Mutex
	refreshToken string
}

func NewKeycloakAuthenticator(client *auth.KeycloakClient, session *Context, log logger.Logger) *KeycloakAuthenticator {
	return &KeycloakAuthenticator{
		client:  client,
		session: session,
		logger:  log.WithFields(map[string]interface{}{"component": "keycloak-authenticator"}),
	}
}

func (a *KeycloakAuthenticator) Login(ctx context.Context, username, password string) (models.Identity, error) {
	if username == "" || password == "" {
		return models.Identity{}, errors.NewValidationError("credentials", "Email and password are required")
	}

	tokens, err := a.client.PasswordLogin(ctx, username, password)
	if err != nil {
		return models.Identity{}, err
	}
	info, err := a.client.UserInfo(ctx, tokens.AccessToken)
	if err != nil {
		return models.Identity{}, err
	}

	identity := models.Identity{
		UID:         info.Sub,
		Email:       info.Email,
		DisplayName: info.Name,
	}
	if identity.DisplayName == "" {
		identity.DisplayName = info.PreferredUsername
	}

	a.mu.Lock()
	a.refreshToken = tokens.RefreshToken
	a.mu.Unlock()

	a.session.SignIn(identity)
	a.logger.Info("signed in", map[string]interface{}{"email": identity.Email})
	return identity, nil
}

// Logout signs the session out locally first, then revokes the refresh
// token. A revocation failure is logged and returned but the local session
// stays signed out.
func (a *KeycloakAuthenticator) Logout(ctx context.Context) error {
	a.session.SignOut()

	a.mu.Lock()
	token := a.refreshToken
	a.refreshToken = ""
	a.mu.Unlock()

	if token == "" {
		return nil
	}
	if err := a.client.Logout(ctx, token); err != nil {
		a.logger.Warn("token revocation failed", map[string]interface{}{"error": err})
		return err
	}
	return nil
}
