package models

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
	gormlogger "gorm.io/gorm/logger"
)

var identityColumns = []clause.Column{{Name: "metadata"}, {Name: "metadata_id"}}

// Database is the gorm backed Store
type Database struct {
	db *gorm.DB
}

// NewDatabase opens (and migrates) a sqlite database at the given DSN
func NewDatabase(dsn string) (*Database, error) {
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: gormlogger.Discard,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get database handle: %w", err)
	}
	// sqlite allows a single writer
	sqlDB.SetMaxOpenConns(1)

	if err := db.AutoMigrate(&MediaRecord{}); err != nil {
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}

	return &Database{db: db}, nil
}

// Close closes the database connection
func (d *Database) Close() error {
	sqlDB, err := d.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

// FindByIdentity retrieves a media record by its metadata identity
func (d *Database) FindByIdentity(ctx context.Context, provider MetadataProvider, metadataID string) (*MediaRecord, error) {
	var media MediaRecord
	err := d.db.WithContext(ctx).
		Where("metadata = ? AND metadata_id = ?", provider, metadataID).
		First(&media).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to find media by identity: %w", err)
	}
	return &media, nil
}

// Insert creates a new media record unless its identity is already taken
func (d *Database) Insert(ctx context.Context, media *MediaRecord) error {
	res := d.db.WithContext(ctx).
		Clauses(clause.OnConflict{Columns: identityColumns, DoNothing: true}).
		Create(media)
	if res.Error != nil {
		return fmt.Errorf("failed to insert media: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return ErrDuplicateIdentity
	}
	return nil
}

// InsertOrRequeue creates a new media record or requeues the one holding its identity
func (d *Database) InsertOrRequeue(ctx context.Context, media *MediaRecord) (*MediaRecord, bool, error) {
	err := d.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns: identityColumns,
			DoUpdates: clause.Assignments(map[string]interface{}{
				"status":     StatusQueued,
				"updated_at": time.Now(),
			}),
		}).
		Create(media).Error
	if err != nil {
		return nil, false, fmt.Errorf("failed to upsert media: %w", err)
	}

	stored, err := d.FindByIdentity(ctx, media.MetadataProvider, media.MetadataID)
	if err != nil {
		return nil, false, err
	}
	return stored, stored.ID == media.ID, nil
}

// UpdateStatus overwrites the status of a media record
func (d *Database) UpdateStatus(ctx context.Context, id string, status Status) error {
	res := d.db.WithContext(ctx).
		Model(&MediaRecord{}).
		Where("id = ?", id).
		Update("status", status)
	if res.Error != nil {
		return fmt.Errorf("failed to update media status: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// GetByID retrieves a media record by ID
func (d *Database) GetByID(ctx context.Context, id string) (*MediaRecord, error) {
	var media MediaRecord
	err := d.db.WithContext(ctx).First(&media, "id = ?", id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to get media: %w", err)
	}
	return &media, nil
}

// List retrieves all media records
func (d *Database) List(ctx context.Context) ([]*MediaRecord, error) {
	var medias []*MediaRecord
	if err := d.db.WithContext(ctx).Order("created_at DESC").Find(&medias).Error; err != nil {
		return nil, fmt.Errorf("failed to list media: %w", err)
	}
	return medias, nil
}

// ListStaleQueued retrieves queued media records not updated since before
func (d *Database) ListStaleQueued(ctx context.Context, before time.Time) ([]*MediaRecord, error) {
	var medias []*MediaRecord
	err := d.db.WithContext(ctx).
		Where("status = ? AND updated_at < ?", StatusQueued, before).
		Order("updated_at ASC").
		Find(&medias).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list stale media: %w", err)
	}
	return medias, nil
}
