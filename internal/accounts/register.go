// Package accounts creates dashboard accounts: the identity-provider user and
// the users/{email} record the profile resolver and résumé upload read.
package accounts

import (
	"context"
	stderrors "errors"
	"time"

	"skillmatch/internal/common/auth"
	"skillmatch/internal/common/errors"
	"skillmatch/internal/common/logger"
	"skillmatch/internal/documents"
	"skillmatch/internal/models"
)

type IdentityCreator interface {
	CreateUser(ctx context.Context, user auth.User, password string) (string, error)
}

// Request is a registration form.
type Request struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"`
	UserType string `json:"userType"`
}

// Account is the registered user, without credentials.
type Account struct {
	UID       string    `json:"uid"`
	Name      string    `json:"name"`
	Email     string    `json:"email"`
	UserType  string    `json:"userType"`
	CreatedAt time.Time `json:"createdAt"`
}

type Registrar struct {
	identity IdentityCreator
	docs     documents.Store
	logger   logger.Logger
	now      func() time.Time
}

func NewRegistrar(identity IdentityCreator, docs documents.Store, log logger.Logger) *Registrar {
	return &Registrar{
		identity: identity,
		docs:     docs,
		logger:   log.WithFields(map[string]interface{}{"component": "account-registration"}),
		now:      time.Now,
	}
}

// Register validates req, creates the identity-provider user and writes
// users/{email}. An email that already has a user record is rejected before
// the identity provider is contacted.
func (r *Registrar) Register(ctx context.Context, req Request) (*Account, error) {
	req = req.normalize()
	if err := req.validate(); err != nil {
		return nil, err
	}

	_, err := r.docs.Get(ctx, documents.CollectionUsers, req.Email)
	switch {
	case err == nil:
		return nil, errors.NewValidationError("email", "An account with this email already exists")
	case !stderrors.Is(err, documents.ErrNotFound):
		return nil, err
	}

	uid, err := r.identity.CreateUser(ctx, auth.User{
		Email:     req.Email,
		FirstName: req.Name,
		Enabled:   true,
	}, req.Password)
	if err != nil {
		r.logger.Warn("identity provider rejected registration", map[string]interface{}{
			"email":     req.Email,
			"errorCode": string(errors.CodeOf(err)),
		})
		return nil, err
	}

	createdAt := r.now().UTC()
	doc, err := documents.Encode(models.UserDocument{
		Name:      req.Name,
		Email:     req.Email,
		UserType:  req.UserType,
		CreatedAt: createdAt.Format(time.RFC3339Nano),
	})
	if err != nil {
		return nil, err
	}
	if err := r.docs.Set(ctx, documents.CollectionUsers, req.Email, doc); err != nil {
		// The identity exists without a profile; the account cannot sign in
		// to a dashboard until the record is written.
		r.logger.Error("user record write failed after identity was created", map[string]interface{}{
			"email": req.Email,
			"uid":   uid,
			"error": err,
		})
		return nil, err
	}

	r.logger.Info("account registered", map[string]interface{}{
		"uid":      uid,
		"email":    req.Email,
		"userType": req.UserType,
	})
	return &Account{
		UID:       uid,
		Name:      req.Name,
		Email:     req.Email,
		UserType:  req.UserType,
		CreatedAt: createdAt,
	}, nil
}
