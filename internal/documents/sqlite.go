package documents

import (
	"context"
	stderrors "errors"
	"fmt"
	"time"

	"skillmatch/internal/common/database"

	"gorm.io/datatypes"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type documentRecord struct {
	Collection string            `gorm:"primaryKey;column:collection"`
	DocKey     string            `gorm:"primaryKey;column:doc_key"`
	Data       datatypes.JSONMap `gorm:"column:data"`
	UpdatedAt  time.Time         `gorm:"column:updated_at"`
}

func (documentRecord) TableName() string { return "documents" }

// SQLiteStore is the embedded document store used for local runs.
type SQLiteStore struct {
	db *gorm.DB
}

// NewSQLiteStore migrates the documents table and returns the store.
func NewSQLiteStore(client *database.SQLiteClient) (*SQLiteStore, error) {
	if err := client.DB.AutoMigrate(&documentRecord{}); err != nil {
		return nil, fmt.Errorf("auto migrate documents: %w", err)
	}
	return &SQLiteStore{db: client.DB}, nil
}

func (s *SQLiteStore) Get(ctx context.Context, collection, key string) (Document, error) {
	var rec documentRecord
	err := s.db.WithContext(ctx).
		Where("collection = ? AND doc_key = ?", collection, key).
		First(&rec).Error
	if stderrors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, storeFailure("get", err)
	}
	return Document(rec.Data), nil
}

func (s *SQLiteStore) Set(ctx context.Context, collection, key string, doc Document) error {
	rec := documentRecord{
		Collection: collection,
		DocKey:     key,
		Data:       datatypes.JSONMap(doc),
		UpdatedAt:  time.Now().UTC(),
	}
	err := s.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "collection"}, {Name: "doc_key"}},
		DoUpdates: clause.AssignmentColumns([]string{"data", "updated_at"}),
	}).Create(&rec).Error
	if err != nil {
		return storeFailure("set", err)
	}
	return nil
}

func (s *SQLiteStore) Update(ctx context.Context, collection, key string, fields map[string]interface{}) error {
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var rec documentRecord
		err := tx.Where("collection = ? AND doc_key = ?", collection, key).First(&rec).Error
		if err != nil {
			return err
		}
		if rec.Data == nil {
			rec.Data = datatypes.JSONMap{}
		}
		for k, v := range fields {
			rec.Data[k] = v
		}
		return tx.Model(&documentRecord{}).
			Where("collection = ? AND doc_key = ?", collection, key).
			Updates(map[string]interface{}{"data": rec.Data, "updated_at": time.Now().UTC()}).Error
	})
	if stderrors.Is(err, gorm.ErrRecordNotFound) {
		return ErrNotFound
	}
	if err != nil {
		return storeFailure("update", err)
	}
	return nil
}
