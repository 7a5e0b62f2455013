// Package profile maps an authenticated identity to its company profile.
package profile

import (
	"context"
	stderrors "errors"
	"fmt"
	"strings"

	"skillmatch/internal/common/errors"
	"skillmatch/internal/common/logger"
	"skillmatch/internal/documents"
	"skillmatch/internal/models"

	"golang.org/x/sync/singleflight"
)

// Resolver reads users/{email}. Concurrent lookups for the same email share
// one document read.
type Resolver struct {
	store  documents.Store
	logger logger.Logger
	group  singleflight.Group
}

func NewResolver(store documents.Store, log logger.Logger) *Resolver {
	return &Resolver{
		store:  store,
		logger: log.WithFields(map[string]interface{}{"component": "profile-resolver"}),
	}
}

func (r *Resolver) Resolve(ctx context.Context, identity models.Identity) (*models.CompanyProfile, error) {
	email := strings.TrimSpace(identity.Email)
	if email == "" {
		return nil, errors.NewAuthNotReadyError()
	}

	// The shared lookup outlives any single caller; each caller stops
	// waiting on its own context.
	loadCtx := context.WithoutCancel(ctx)
	ch := r.group.DoChan(email, func() (interface{}, error) {
		return r.load(loadCtx, email, identity.DisplayName)
	})

	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case res := <-ch:
		if res.Err != nil {
			return nil, res.Err
		}
		if res.Shared {
			r.logger.Debug("profile lookup coalesced", map[string]interface{}{"email": email})
		}
		profile := *res.Val.(*models.CompanyProfile)
		return &profile, nil
	}
}

func (r *Resolver) load(ctx context.Context, email, displayName string) (*models.CompanyProfile, error) {
	doc, err := r.store.Get(ctx, documents.CollectionUsers, email)
	if stderrors.Is(err, documents.ErrNotFound) {
		return nil, errors.NewProfileNotFoundError(email, "no user record for this account")
	}
	if err != nil {
		return nil, err
	}

	var user models.UserDocument
	if err := documents.Decode(doc, &user); err != nil {
		return nil, err
	}

	if user.UserType != "" && user.UserType != models.UserTypeCompany {
		return nil, errors.NewProfileNotFoundError(email, fmt.Sprintf("account type is %q, not company", user.UserType))
	}

	name := firstNonBlank(user.Name, user.CompanyName, displayName)
	if name == "" {
		return nil, errors.NewProfileNotFoundError(email, "company record has no name")
	}

	profileEmail := user.Email
	if profileEmail == "" {
		profileEmail = email
	}
	return &models.CompanyProfile{Name: name, Email: profileEmail}, nil
}

func firstNonBlank(values ...string) string {
	for _, v := range values {
		if v = strings.TrimSpace(v); v != "" {
			return v
		}
	}
	return ""
}
