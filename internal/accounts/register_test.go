package accounts

import (
	"context"
	"fmt"
	"testing"
	"time"

	"skillmatch/internal/common/auth"
	"skillmatch/internal/common/errors"
	"skillmatch/internal/common/logger"
	"skillmatch/internal/documents"
	"skillmatch/internal/models"
	"skillmatch/internal/profile"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

// ==========================
// Test Helpers
// ==========================

type MockIdentity struct {
	mock.Mock
}

func (m *MockIdentity) CreateUser(ctx context.Context, user auth.User, password string) (string, error) {
	args := m.Called(ctx, user, password)
	return args.String(0), args.Error(1)
}

type readOnlyStore struct {
	*documents.MemoryStore
}

func (s readOnlyStore) Set(ctx context.Context, collection, key string, doc documents.Document) error {
	return errors.NewNetworkFailureError("document store", fmt.Errorf("read-only replica"))
}

var fixedNow = time.Date(2026, 5, 4, 9, 30, 0, 0, time.UTC)

func setup(t *testing.T) (*Registrar, *MockIdentity, *documents.MemoryStore) {
	t.Helper()
	identity := &MockIdentity{}
	docs := documents.NewMemoryStore()
	r := NewRegistrar(identity, docs, logger.NewTestLogger(t))
	r.now = func() time.Time { return fixedNow }
	return r, identity, docs
}

// ==========================
// Register
// ==========================

func TestRegistrar_Register_Company(t *testing.T) {
	r, identity, docs := setup(t)
	identity.On("CreateUser", mock.Anything, auth.User{Email: "hr@acme.io", FirstName: "Acme", Enabled: true}, "s3cret!").
		Return("kc-1", nil).Once()

	account, err := r.Register(context.Background(), Request{
		Name:     "  Acme ",
		Email:    " HR@Acme.io ",
		Password: "s3cret!",
		UserType: "company",
	})
	require.NoError(t, err)
	assert.Equal(t, &Account{
		UID:       "kc-1",
		Name:      "Acme",
		Email:     "hr@acme.io",
		UserType:  models.UserTypeCompany,
		CreatedAt: fixedNow,
	}, account)

	doc, err := docs.Get(context.Background(), documents.CollectionUsers, "hr@acme.io")
	require.NoError(t, err)
	var user models.UserDocument
	require.NoError(t, documents.Decode(doc, &user))
	assert.Equal(t, models.UserDocument{
		Name:      "Acme",
		Email:     "hr@acme.io",
		UserType:  "company",
		CreatedAt: "2026-05-04T09:30:00Z",
	}, user)
	identity.AssertExpectations(t)
}

func TestRegistrar_Register_CompanyResolvesForDashboard(t *testing.T) {
	r, identity, docs := setup(t)
	identity.On("CreateUser", mock.Anything, mock.Anything, mock.Anything).Return("kc-2", nil)

	_, err := r.Register(context.Background(), Request{Name: "Globex", Email: "jobs@globex.io", Password: "hunter22", UserType: "company"})
	require.NoError(t, err)

	resolved, err := profile.NewResolver(docs, logger.NewNoOpLogger()).
		Resolve(context.Background(), models.Identity{UID: "kc-2", Email: "jobs@globex.io"})
	require.NoError(t, err)
	assert.Equal(t, "Globex", resolved.Name)
}

func TestRegistrar_Register_DefaultsToCandidate(t *testing.T) {
	r, identity, _ := setup(t)
	identity.On("CreateUser", mock.Anything, mock.Anything, mock.Anything).Return("kc-3", nil)

	account, err := r.Register(context.Background(), Request{Name: "Ada Lovelace", Email: "ada@x.io", Password: "analytical"})
	require.NoError(t, err)
	assert.Equal(t, models.UserTypeCandidate, account.UserType)
}

func TestRegistrar_Register_Validation(t *testing.T) {
	tests := []struct {
		name      string
		req       Request
		wantField string
		wantMsg   string
	}{
		{
			name:      "blank company name",
			req:       Request{Email: "hr@acme.io", Password: "s3cret!", UserType: "company"},
			wantField: "name",
			wantMsg:   "Enter the company name",
		},
		{
			name:      "blank candidate name",
			req:       Request{Email: "ada@x.io", Password: "s3cret!"},
			wantField: "name",
			wantMsg:   "Enter your full name",
		},
		{
			name:      "bad email",
			req:       Request{Name: "Acme", Email: "not-an-email", Password: "s3cret!"},
			wantField: "email",
			wantMsg:   "Enter a valid email address",
		},
		{
			name:      "short password",
			req:       Request{Name: "Acme", Email: "hr@acme.io", Password: "12345"},
			wantField: "password",
			wantMsg:   "Password must be at least 6 characters",
		},
		{
			name:      "unknown account type",
			req:       Request{Name: "Acme", Email: "hr@acme.io", Password: "s3cret!", UserType: "admin"},
			wantField: "userType",
			wantMsg:   "Account type must be user or company",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r, identity, _ := setup(t)

			_, err := r.Register(context.Background(), tt.req)
			require.Error(t, err)
			assert.True(t, errors.IsCode(err, errors.ErrCodeValidation))
			assert.Equal(t, tt.wantMsg, errors.UserMessage(err))
			stdErr, _ := errors.AsStandard(err)
			assert.Equal(t, tt.wantField, stdErr.Metadata["field"])
			identity.AssertNotCalled(t, "CreateUser", mock.Anything, mock.Anything, mock.Anything)
		})
	}
}

func TestRegistrar_Register_ExistingRecordRejected(t *testing.T) {
	r, identity, docs := setup(t)
	require.NoError(t, docs.Set(context.Background(), documents.CollectionUsers, "hr@acme.io", documents.Document{"name": "Acme"}))

	_, err := r.Register(context.Background(), Request{Name: "Acme", Email: "hr@acme.io", Password: "s3cret!", UserType: "company"})
	require.Error(t, err)
	assert.Equal(t, "An account with this email already exists", errors.UserMessage(err))
	identity.AssertNotCalled(t, "CreateUser", mock.Anything, mock.Anything, mock.Anything)
}

func TestRegistrar_Register_IdentityFailureWritesNothing(t *testing.T) {
	r, identity, docs := setup(t)
	identity.On("CreateUser", mock.Anything, mock.Anything, mock.Anything).
		Return("", errors.NewServerError("keycloak", 503, "Realm is starting"))

	_, err := r.Register(context.Background(), Request{Name: "Acme", Email: "hr@acme.io", Password: "s3cret!", UserType: "company"})
	require.Error(t, err)
	assert.True(t, errors.IsCode(err, errors.ErrCodeServerError))

	_, err = docs.Get(context.Background(), documents.CollectionUsers, "hr@acme.io")
	assert.ErrorIs(t, err, documents.ErrNotFound)
}

func TestRegistrar_Register_RecordWriteFailure(t *testing.T) {
	identity := &MockIdentity{}
	identity.On("CreateUser", mock.Anything, mock.Anything, mock.Anything).Return("kc-4", nil)
	r := NewRegistrar(identity, readOnlyStore{documents.NewMemoryStore()}, logger.NewTestLogger(t))

	_, err := r.Register(context.Background(), Request{Name: "Acme", Email: "hr@acme.io", Password: "s3cret!", UserType: "company"})
	require.Error(t, err)
	assert.True(t, errors.IsCode(err, errors.ErrCodeNetworkFailure))
}
