// internal/common/auth/keycloak.go
package auth

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"skillmatch/internal/common/errors"
	commonhttp "skillmatch/internal/common/http"
)

const serviceName = "keycloak"

// KeycloakClient signs company users in against a Keycloak realm using the
// resource-owner password grant and resolves their OpenID profile.
type KeycloakClient struct {
	baseURL      string
	realm        string
	clientID     string
	clientSecret string
	httpClient   *commonhttp.Client

	tokenMu     sync.Mutex
	adminToken  string
	tokenExpiry time.Time
}

// User is the admin API representation of a realm user.
type User struct {
	ID            string       `json:"id,omitempty"`
	Email         string       `json:"email"`
	FirstName     string       `json:"firstName,omitempty"`
	LastName      string       `json:"lastName,omitempty"`
	Username      string       `json:"username"`
	Enabled       bool         `json:"enabled"`
	EmailVerified bool         `json:"emailVerified"`
	Credentials   []Credential `json:"credentials,omitempty"`
}

type Credential struct {
	Type      string `json:"type"`
	Value     string `json:"value"`
	Temporary bool   `json:"temporary"`
}

// TokenResponse holds the response from Keycloak's token endpoint.
type TokenResponse struct {
	AccessToken      string `json:"access_token"`
	ExpiresIn        int    `json:"expires_in"`
	RefreshExpiresIn int    `json:"refresh_expires_in"`
	TokenType        string `json:"token_type"`
	RefreshToken     string `json:"refresh_token"`
	Scope            string `json:"scope"`
}

// UserInfo is the subset of the OpenID userinfo document the dashboard uses.
type UserInfo struct {
	Sub               string `json:"sub"`
	Email             string `json:"email"`
	Name              string `json:"name"`
	PreferredUsername string `json:"preferred_username"`
}

func NewKeycloakClient(baseURL, realm, clientID, clientSecret string) *KeycloakClient {
	return &KeycloakClient{
		baseURL:      strings.TrimSuffix(baseURL, "/"),
		realm:        realm,
		clientID:     clientID,
		clientSecret: clientSecret,
		httpClient:   commonhttp.NewClient(30 * time.Second),
	}
}

func (k *KeycloakClient) realmURL(path string) string {
	return fmt.Sprintf("%s/realms/%s/protocol/openid-connect/%s", k.baseURL, k.realm, path)
}

// PasswordLogin exchanges user credentials for tokens.
func (k *KeycloakClient) PasswordLogin(ctx context.Context, username, password string) (*TokenResponse, error) {
	data := url.Values{}
	data.Set("grant_type", "password")
	data.Set("client_id", k.clientID)
	if k.clientSecret != "" {
		data.Set("client_secret", k.clientSecret)
	}
	data.Set("username", username)
	data.Set("password", password)
	data.Set("scope", "openid email profile")

	var tokens TokenResponse
	if err := k.postForm(ctx, k.realmURL("token"), data, &tokens); err != nil {
		return nil, err
	}
	if tokens.AccessToken == "" {
		return nil, errors.NewMalformedResponseError(serviceName, fmt.Errorf("token response has no access_token"))
	}
	return &tokens, nil
}

// UserInfo resolves the profile behind an access token.
func (k *KeycloakClient) UserInfo(ctx context.Context, accessToken string) (*UserInfo, error) {
	req, err := http.NewRequest(http.MethodGet, k.realmURL("userinfo"), nil)
	if err != nil {
		return nil, errors.NewNetworkFailureError(serviceName, err)
	}
	req.Header.Set("Authorization", "Bearer "+accessToken)

	var info UserInfo
	if err := k.do(ctx, req, &info); err != nil {
		return nil, err
	}
	if info.Email == "" {
		return nil, errors.NewMalformedResponseError(serviceName, fmt.Errorf("userinfo has no email"))
	}
	return &info, nil
}

// Logout revokes a refresh token.
func (k *KeycloakClient) Logout(ctx context.Context, refreshToken string) error {
	data := url.Values{}
	data.Set("client_id", k.clientID)
	if k.clientSecret != "" {
		data.Set("client_secret", k.clientSecret)
	}
	data.Set("refresh_token", refreshToken)
	return k.postForm(ctx, k.realmURL("logout"), data, nil)
}

// CreateUser registers user in the realm with a permanent password and
// returns the new user ID. An existing account is a validation error.
func (k *KeycloakClient) CreateUser(ctx context.Context, user User, password string) (string, error) {
	token, err := k.serviceToken(ctx)
	if err != nil {
		return "", err
	}

	if user.Username == "" {
		user.Username = user.Email
	}
	user.Credentials = []Credential{{Type: "password", Value: password}}

	body, err := json.Marshal(user)
	if err != nil {
		return "", fmt.Errorf("encode user: %w", err)
	}
	endpoint := fmt.Sprintf("%s/admin/realms/%s/users", k.baseURL, k.realm)
	req, err := http.NewRequest(http.MethodPost, endpoint, strings.NewReader(string(body)))
	if err != nil {
		return "", errors.NewNetworkFailureError(serviceName, err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+token)

	resp, err := k.httpClient.DoWithContext(ctx, req)
	if err != nil {
		return "", errors.NewNetworkFailureError(serviceName, err)
	}
	defer resp.Body.Close()
	raw, _ := io.ReadAll(resp.Body)

	switch {
	case resp.StatusCode == http.StatusConflict:
		return "", errors.NewValidationError("email", "An account with this email already exists")
	case resp.StatusCode != http.StatusCreated:
		return "", errors.NewServerError(serviceName, resp.StatusCode, adminErrorMessage(raw))
	}

	// The new ID is the last segment of the Location header.
	location := resp.Header.Get("Location")
	if location == "" {
		return "", errors.NewMalformedResponseError(serviceName, fmt.Errorf("user created without a Location header"))
	}
	return location[strings.LastIndex(location, "/")+1:], nil
}

// serviceToken returns a client-credentials token for the admin API, reusing
// it until shortly before expiry.
func (k *KeycloakClient) serviceToken(ctx context.Context) (string, error) {
	k.tokenMu.Lock()
	defer k.tokenMu.Unlock()

	if k.adminToken != "" && time.Now().Before(k.tokenExpiry) {
		return k.adminToken, nil
	}

	data := url.Values{}
	data.Set("grant_type", "client_credentials")
	data.Set("client_id", k.clientID)
	data.Set("client_secret", k.clientSecret)

	var tokens TokenResponse
	if err := k.postForm(ctx, k.realmURL("token"), data, &tokens); err != nil {
		if errors.IsCode(err, errors.ErrCodeValidation) {
			return "", errors.NewServerError(serviceName, http.StatusUnauthorized, "registration is not available")
		}
		return "", err
	}
	if tokens.AccessToken == "" {
		return "", errors.NewMalformedResponseError(serviceName, fmt.Errorf("token response has no access_token"))
	}

	k.adminToken = tokens.AccessToken
	k.tokenExpiry = time.Now().Add(time.Duration(tokens.ExpiresIn)*time.Second - 10*time.Second)
	return k.adminToken, nil
}

func adminErrorMessage(body []byte) string {
	var payload struct {
		ErrorMessage string `json:"errorMessage"`
	}
	if json.Unmarshal(body, &payload) == nil && payload.ErrorMessage != "" {
		return payload.ErrorMessage
	}
	return keycloakErrorMessage(body)
}

func (k *KeycloakClient) postForm(ctx context.Context, endpoint string, data url.Values, out interface{}) error {
	req, err := http.NewRequest(http.MethodPost, endpoint, strings.NewReader(data.Encode()))
	if err != nil {
		return errors.NewNetworkFailureError(serviceName, err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	return k.do(ctx, req, out)
}

func (k *KeycloakClient) do(ctx context.Context, req *http.Request, out interface{}) error {
	resp, err := k.httpClient.DoWithContext(ctx, req)
	if err != nil {
		return errors.NewNetworkFailureError(serviceName, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return errors.NewNetworkFailureError(serviceName, err)
	}

	switch {
	case resp.StatusCode == http.StatusUnauthorized:
		return errors.NewValidationError("credentials", "Invalid email or password")
	case resp.StatusCode < 200 || resp.StatusCode >= 300:
		return errors.NewServerError(serviceName, resp.StatusCode, keycloakErrorMessage(body))
	}

	if out == nil || len(body) == 0 {
		return nil
	}
	if err := json.Unmarshal(body, out); err != nil {
		return errors.NewMalformedResponseError(serviceName, err)
	}
	return nil
}

// keycloakErrorMessage extracts error_description from an OAuth error body.
func keycloakErrorMessage(body []byte) string {
	var payload struct {
		Error            string `json:"error"`
		ErrorDescription string `json:"error_description"`
	}
	if json.Unmarshal(body, &payload) != nil {
		return ""
	}
	if payload.ErrorDescription != "" {
		return payload.ErrorDescription
	}
	return payload.Error
}
