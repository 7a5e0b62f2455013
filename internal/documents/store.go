// Package documents is the key/value document persistence the dashboard
// reads company profiles and postings from.
package documents

import (
	"context"
	"encoding/json"
	stderrors "errors"
	"fmt"

	"skillmatch/internal/common/errors"
)

const (
	CollectionUsers     = "users"
	CollectionCompanies = "companies"

	serviceName = "document store"
)

// ErrNotFound is returned by Get and Update when no document exists.
var ErrNotFound = stderrors.New("document not found")

type Document map[string]interface{}

type Store interface {
	Get(ctx context.Context, collection, key string) (Document, error)
	Set(ctx context.Context, collection, key string, doc Document) error
	// Update merges fields into an existing document.
	Update(ctx context.Context, collection, key string, fields map[string]interface{}) error
}

// Decode converts doc into v through its JSON form.
func Decode(doc Document, v interface{}) error {
	raw, err := json.Marshal(doc)
	if err != nil {
		return errors.NewMalformedResponseError(serviceName, err)
	}
	if err := json.Unmarshal(raw, v); err != nil {
		return errors.NewMalformedResponseError(serviceName, fmt.Errorf("decode %T: %w", v, err))
	}
	return nil
}

// Encode converts a JSON-tagged value into a Document.
func Encode(v interface{}) (Document, error) {
	raw, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("encode %T: %w", v, err)
	}
	var doc Document
	if err := json.Unmarshal(raw, &doc); err != nil {
		return nil, fmt.Errorf("encode %T: %w", v, err)
	}
	return doc, nil
}

func storeFailure(op string, err error) error {
	return errors.NewNetworkFailureError(serviceName, fmt.Errorf("%s: %w", op, err))
}
