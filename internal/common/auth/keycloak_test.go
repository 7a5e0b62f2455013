package auth

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"skillmatch/internal/common/errors"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newKeycloakServer(t *testing.T) *httptest.Server {
	t.Helper()
	mux := http.NewServeMux()
	mux.HandleFunc("/realms/dash/protocol/openid-connect/token", func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, r.ParseForm())
		assert.Equal(t, "password", r.Form.Get("grant_type"))
		if r.Form.Get("password") != "secret" {
			w.WriteHeader(http.StatusUnauthorized)
			_, _ = w.Write([]byte(`{"error":"invalid_grant","error_description":"Invalid user credentials"}`))
			return
		}
		_ = json.NewEncoder(w).Encode(TokenResponse{AccessToken: "access-1", RefreshToken: "refresh-1", ExpiresIn: 300})
	})
	mux.HandleFunc("/realms/dash/protocol/openid-connect/userinfo", func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") != "Bearer access-1" {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		_ = json.NewEncoder(w).Encode(UserInfo{Sub: "u-1", Email: "hr@acme.io", Name: "Acme HR"})
	})
	mux.HandleFunc("/realms/dash/protocol/openid-connect/logout", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	})
	return httptest.NewServer(mux)
}

func TestKeycloakClient_PasswordLoginAndUserInfo(t *testing.T) {
	server := newKeycloakServer(t)
	defer server.Close()

	client := NewKeycloakClient(server.URL+"/", "dash", "dashboard", "")
	tokens, err := client.PasswordLogin(context.Background(), "hr@acme.io", "secret")
	require.NoError(t, err)
	assert.Equal(t, "access-1", tokens.AccessToken)

	info, err := client.UserInfo(context.Background(), tokens.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, "hr@acme.io", info.Email)
	assert.Equal(t, "Acme HR", info.Name)

	assert.NoError(t, client.Logout(context.Background(), tokens.RefreshToken))
}

func TestKeycloakClient_BadCredentials(t *testing.T) {
	server := newKeycloakServer(t)
	defer server.Close()

	client := NewKeycloakClient(server.URL, "dash", "dashboard", "")
	_, err := client.PasswordLogin(context.Background(), "hr@acme.io", "wrong")
	require.Error(t, err)
	assert.True(t, errors.IsCode(err, errors.ErrCodeValidation))
	assert.Equal(t, "Invalid email or password", errors.UserMessage(err))
}

func TestKeycloakClient_ServerError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
		_, _ = w.Write([]byte(`{"error":"temporarily_unavailable","error_description":"Realm is starting"}`))
	}))
	defer server.Close()

	client := NewKeycloakClient(server.URL, "dash", "dashboard", "")
	_, err := client.PasswordLogin(context.Background(), "hr@acme.io", "secret")
	require.Error(t, err)
	assert.True(t, errors.IsCode(err, errors.ErrCodeServerError))
	assert.Equal(t, "Realm is starting", errors.UserMessage(err))
}

func TestKeycloakClient_Unreachable(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	url := server.URL
	server.Close()

	client := NewKeycloakClient(url, "dash", "dashboard", "")
	_, err := client.PasswordLogin(context.Background(), "hr@acme.io", "secret")
	require.Error(t, err)
	assert.True(t, errors.IsCode(err, errors.ErrCodeNetworkFailure))
}

// ==========================
// Admin API
// ==========================

func newAdminServer(t *testing.T, tokenCalls *int) *httptest.Server {
	t.Helper()
	mux := http.NewServeMux()
	mux.HandleFunc("/realms/dash/protocol/openid-connect/token", func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, r.ParseForm())
		assert.Equal(t, "client_credentials", r.Form.Get("grant_type"))
		*tokenCalls++
		_ = json.NewEncoder(w).Encode(TokenResponse{AccessToken: "admin-1", ExpiresIn: 300})
	})
	mux.HandleFunc("/admin/realms/dash/users", func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "Bearer admin-1", r.Header.Get("Authorization"))

		var user User
		require.NoError(t, json.NewDecoder(r.Body).Decode(&user))
		if user.Email == "taken@acme.io" {
			w.WriteHeader(http.StatusConflict)
			_, _ = w.Write([]byte(`{"errorMessage":"User exists with same email"}`))
			return
		}
		assert.Equal(t, user.Email, user.Username)
		assert.True(t, user.Enabled)
		require.Len(t, user.Credentials, 1)
		assert.Equal(t, "password", user.Credentials[0].Type)
		assert.Equal(t, "s3cret!", user.Credentials[0].Value)
		assert.False(t, user.Credentials[0].Temporary)

		w.Header().Set("Location", "http://"+r.Host+"/admin/realms/dash/users/kc-42")
		w.WriteHeader(http.StatusCreated)
	})
	return httptest.NewServer(mux)
}

func TestKeycloakClient_CreateUser(t *testing.T) {
	tokenCalls := 0
	server := newAdminServer(t, &tokenCalls)
	defer server.Close()

	client := NewKeycloakClient(server.URL, "dash", "dashboard", "client-secret")

	id, err := client.CreateUser(context.Background(), User{Email: "hr@acme.io", FirstName: "Acme", Enabled: true}, "s3cret!")
	require.NoError(t, err)
	assert.Equal(t, "kc-42", id)

	_, err = client.CreateUser(context.Background(), User{Email: "ada@x.io", Enabled: true}, "s3cret!")
	require.NoError(t, err)
	assert.Equal(t, 1, tokenCalls, "service token is reused")
}

func TestKeycloakClient_CreateUser_Conflict(t *testing.T) {
	tokenCalls := 0
	server := newAdminServer(t, &tokenCalls)
	defer server.Close()

	client := NewKeycloakClient(server.URL, "dash", "dashboard", "client-secret")
	_, err := client.CreateUser(context.Background(), User{Email: "taken@acme.io", Enabled: true}, "s3cret!")
	require.Error(t, err)
	assert.True(t, errors.IsCode(err, errors.ErrCodeValidation))
	assert.Equal(t, "An account with this email already exists", errors.UserMessage(err))
}
