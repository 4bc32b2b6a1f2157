package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"gorm.io/driver/mysql"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"digitalsight/config"
	"digitalsight/model"
)

// documentRow is the single table backing the document store. Payloads are
// stored as JSON so the schema never changes when entities grow fields.
type documentRow struct {
	Path       string `gorm:"primaryKey;size:191"`
	Collection string `gorm:"index;size:64"`
	Data       []byte `gorm:"type:json"`
	UpdatedAt  time.Time
}

func (documentRow) TableName() string {
	return "documents"
}

// GormStore is the MySQL-backed document store.
type GormStore struct {
	db *gorm.DB
}

// ConnectGorm opens the MySQL connection and configures the pool.
func ConnectGorm(cfg *config.Config) (*gorm.DB, error) {
	dsn := fmt.Sprintf("%s:%s@tcp(%s:%s)/%s?charset=utf8mb4&parseTime=True&loc=Local",
		cfg.DBUser, cfg.DBPassword, cfg.DBHost, cfg.DBPort, cfg.DBName)

	db, err := gorm.Open(mysql.Open(dsn), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Warn),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect database: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get underlying sql.DB: %w", err)
	}
	sqlDB.SetMaxIdleConns(10)
	sqlDB.SetMaxOpenConns(100)
	sqlDB.SetConnMaxLifetime(time.Hour)

	return db, nil
}

// NewGormStore wraps an open connection as a DocumentStore.
func NewGormStore(db *gorm.DB) *GormStore {
	return &GormStore{db: db}
}

// AutoMigrate creates the documents table if needed.
func (s *GormStore) AutoMigrate() error {
	return s.db.AutoMigrate(&documentRow{})
}

// Get loads the document at path into out.
func (s *GormStore) Get(ctx context.Context, path string, out interface{}) error {
	var row documentRow
	err := s.db.WithContext(ctx).First(&row, "path = ?", path).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return model.NewNotFoundError(path)
		}
		return err
	}
	return json.Unmarshal(row.Data, out)
}

// Set stores value at path, replacing any existing document.
func (s *GormStore) Set(ctx context.Context, path string, value interface{}) error {
	data, err := json.Marshal(value)
	if err != nil {
		return err
	}
	row := documentRow{
		Path:       path,
		Collection: CollectionOf(path),
		Data:       data,
		UpdatedAt:  time.Now(),
	}
	return s.db.WithContext(ctx).Save(&row).Error
}

// Update merges fields into the stored document. Fails with NotFoundError if
// the document does not exist.
func (s *GormStore) Update(ctx context.Context, path string, fields map[string]interface{}) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var row documentRow
		err := tx.First(&row, "path = ?", path).Error
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return model.NewNotFoundError(path)
			}
			return err
		}

		var current map[string]interface{}
		if err := json.Unmarshal(row.Data, &current); err != nil {
			return err
		}
		for k, v := range fields {
			current[k] = v
		}

		merged, err := json.Marshal(current)
		if err != nil {
			return err
		}
		row.Data = merged
		row.UpdatedAt = time.Now()
		return tx.Save(&row).Error
	})
}

// Remove deletes the document at path.
func (s *GormStore) Remove(ctx context.Context, path string) error {
	res := s.db.WithContext(ctx).Delete(&documentRow{}, "path = ?", path)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return model.NewNotFoundError(path)
	}
	return nil
}

// List returns every document in a collection.
func (s *GormStore) List(ctx context.Context, collection string) ([]Document, error) {
	var rows []documentRow
	if err := s.db.WithContext(ctx).Where("collection = ?", collection).Find(&rows).Error; err != nil {
		return nil, err
	}
	docs := make([]Document, 0, len(rows))
	for _, row := range rows {
		docs = append(docs, Document{Path: row.Path, Data: json.RawMessage(row.Data)})
	}
	return docs, nil
}
