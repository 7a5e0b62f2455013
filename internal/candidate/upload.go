// internal/candidate/upload.go
package candidate

import (
	"bufio"
	"context"
	stderrors "errors"
	"io"
	"net/http"
	"path/filepath"
	"strings"
	"time"

	"skillmatch/internal/backend"
	"skillmatch/internal/common/errors"
	"skillmatch/internal/common/logger"
	"skillmatch/internal/documents"
	"skillmatch/internal/models"
)

const pdfContentType = "application/pdf"

type Uploader interface {
	UploadResume(ctx context.Context, upload backend.UploadRequest) (*backend.UploadResponse, error)
}

// UploadResult is what was recorded on the candidate's user document.
type UploadResult struct {
	ResumeURL   string    `json:"resumeUrl"`
	ResumeID    string    `json:"resumeId"`
	LastUpdated time.Time `json:"lastUpdated"`
}

// Service manages a candidate's résumé.
type Service struct {
	uploader Uploader
	docs     documents.Store
	logger   logger.Logger
	now      func() time.Time
}

func NewService(uploader Uploader, docs documents.Store, log logger.Logger) *Service {
	return &Service{
		uploader: uploader,
		docs:     docs,
		logger:   log.WithFields(map[string]interface{}{"component": "resume-upload"}),
		now:      time.Now,
	}
}

// Profile returns the users/{email} record of identity.
func (s *Service) Profile(ctx context.Context, identity models.Identity) (*models.UserDocument, error) {
	if identity.Email == "" {
		return nil, errors.NewAuthNotReadyError()
	}
	doc, err := s.docs.Get(ctx, documents.CollectionUsers, identity.Email)
	if stderrors.Is(err, documents.ErrNotFound) {
		return nil, errors.NewProfileNotFoundError(identity.Email, "no user record for this account")
	}
	if err != nil {
		return nil, err
	}
	var user models.UserDocument
	if err := documents.Decode(doc, &user); err != nil {
		return nil, err
	}
	return &user, nil
}

// Upload sends a PDF résumé to the matching backend for parsing and records
// the stored location on users/{email}.
func (s *Service) Upload(ctx context.Context, identity models.Identity, filename string, file io.Reader) (*UploadResult, error) {
	if identity.Email == "" {
		return nil, errors.NewAuthNotReadyError()
	}
	if !strings.EqualFold(filepath.Ext(filename), ".pdf") {
		return nil, errors.NewValidationError("file", "Please upload a PDF file")
	}

	br := bufio.NewReader(file)
	head, err := br.Peek(512)
	if err != nil && err != io.EOF && err != bufio.ErrBufferFull {
		return nil, errors.NewValidationError("file", "Could not read the selected file")
	}
	if len(head) == 0 || http.DetectContentType(head) != pdfContentType {
		return nil, errors.NewValidationError("file", "Please upload a PDF file")
	}

	resp, err := s.uploader.UploadResume(ctx, backend.UploadRequest{
		Filename:  filepath.Base(filename),
		File:      br,
		UserID:    identity.UID,
		UserEmail: identity.Email,
	})
	if err != nil {
		return nil, err
	}

	result := &UploadResult{
		ResumeURL:   resp.PDFURL,
		ResumeID:    resp.DocumentID,
		LastUpdated: s.now().UTC(),
	}
	err = s.docs.Update(ctx, documents.CollectionUsers, identity.Email, map[string]interface{}{
		"resumeUrl":   result.ResumeURL,
		"resumeId":    result.ResumeID,
		"lastUpdated": result.LastUpdated.Format(time.RFC3339Nano),
	})
	if stderrors.Is(err, documents.ErrNotFound) {
		return nil, errors.NewProfileNotFoundError(identity.Email, "no user record to attach the résumé to")
	}
	if err != nil {
		return nil, err
	}

	s.logger.Info("resume uploaded", map[string]interface{}{
		"email":    identity.Email,
		"resumeId": result.ResumeID,
	})
	return result, nil
}
