package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/amaumene/tritonevents/internal/models"
)

const mediaColumns = `id, media_name, creator, creator_id, type, source, source_uri, metadata, metadata_id, status, created_at, updated_at`

// MediaRepository is the postgres implementation of models.Store.
type MediaRepository struct {
	pool *pgxpool.Pool
}

// NewMediaRepository constructs a repository.
func NewMediaRepository(pool *pgxpool.Pool) *MediaRepository {
	return &MediaRepository{pool: pool}
}

// Close releases the pool.
func (r *MediaRepository) Close() error {
	r.pool.Close()
	return nil
}

// FindByIdentity returns the record holding a metadata identity.
func (r *MediaRepository) FindByIdentity(ctx context.Context, provider models.MetadataProvider, metadataID string) (*models.MediaRecord, error) {
	row := r.pool.QueryRow(ctx, `
		SELECT `+mediaColumns+`
		FROM media WHERE metadata=$1 AND metadata_id=$2
	`, int16(provider), metadataID)
	return scanOne(row)
}

// Insert stores a new record unless its identity is taken.
func (r *MediaRepository) Insert(ctx context.Context, media *models.MediaRecord) error {
	stamp(media)
	tag, err := r.pool.Exec(ctx, `
		INSERT INTO media (`+mediaColumns+`)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12)
		ON CONFLICT (metadata, metadata_id) DO NOTHING
	`, insertArgs(media)...)
	if err != nil {
		return fmt.Errorf("insert media: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return models.ErrDuplicateIdentity
	}
	return nil
}

// InsertOrRequeue stores a new record or resets the existing one to queued.
func (r *MediaRepository) InsertOrRequeue(ctx context.Context, media *models.MediaRecord) (*models.MediaRecord, bool, error) {
	stamp(media)
	row := r.pool.QueryRow(ctx, `
		INSERT INTO media (`+mediaColumns+`)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12)
		ON CONFLICT (metadata, metadata_id)
		DO UPDATE SET status=$13, updated_at=EXCLUDED.updated_at
		RETURNING `+mediaColumns,
		append(insertArgs(media), int16(models.StatusQueued))...)
	stored, err := scanOne(row)
	if err != nil {
		return nil, false, fmt.Errorf("upsert media: %w", err)
	}
	return stored, stored.ID == media.ID, nil
}

// UpdateStatus overwrites the status of a record.
func (r *MediaRepository) UpdateStatus(ctx context.Context, id string, status models.Status) error {
	tag, err := r.pool.Exec(ctx, `
		UPDATE media SET status=$1, updated_at=$2 WHERE id=$3
	`, int16(status), time.Now().UTC(), id)
	if err != nil {
		return fmt.Errorf("update media: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return models.ErrNotFound
	}
	return nil
}

// GetByID returns a record by id.
func (r *MediaRepository) GetByID(ctx context.Context, id string) (*models.MediaRecord, error) {
	row := r.pool.QueryRow(ctx, `SELECT `+mediaColumns+` FROM media WHERE id=$1`, id)
	return scanOne(row)
}

// List returns every record, newest first.
func (r *MediaRepository) List(ctx context.Context) ([]*models.MediaRecord, error) {
	rows, err := r.pool.Query(ctx, `SELECT `+mediaColumns+` FROM media ORDER BY created_at DESC`)
	if err != nil {
		return nil, fmt.Errorf("list media: %w", err)
	}
	return scanAll(rows)
}

// ListStaleQueued returns queued records untouched since before.
func (r *MediaRepository) ListStaleQueued(ctx context.Context, before time.Time) ([]*models.MediaRecord, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT `+mediaColumns+`
		FROM media WHERE status=$1 AND updated_at < $2
		ORDER BY updated_at ASC
	`, int16(models.StatusQueued), before)
	if err != nil {
		return nil, fmt.Errorf("list stale media: %w", err)
	}
	return scanAll(rows)
}

func stamp(media *models.MediaRecord) {
	now := time.Now().UTC()
	if media.CreatedAt.IsZero() {
		media.CreatedAt = now
	}
	media.UpdatedAt = now
}

func insertArgs(m *models.MediaRecord) []any {
	return []any{
		m.ID, m.Name, int16(m.Creator), m.CreatorRef, int16(m.MediaType),
		int16(m.SourceProtocol), m.SourceLocator, int16(m.MetadataProvider), m.MetadataID,
		int16(m.Status), m.CreatedAt, m.UpdatedAt,
	}
}

func scan(row pgx.Row) (*models.MediaRecord, error) {
	var (
		m                                        models.MediaRecord
		creator, mediaType, source, meta, status int16
	)
	if err := row.Scan(&m.ID, &m.Name, &creator, &m.CreatorRef, &mediaType, &source,
		&m.SourceLocator, &meta, &m.MetadataID, &status, &m.CreatedAt, &m.UpdatedAt); err != nil {
		return nil, err
	}
	m.Creator = models.Creator(creator)
	m.MediaType = models.MediaType(mediaType)
	m.SourceProtocol = models.SourceProtocol(source)
	m.MetadataProvider = models.MetadataProvider(meta)
	m.Status = models.Status(status)
	return &m, nil
}

func scanOne(row pgx.Row) (*models.MediaRecord, error) {
	m, err := scan(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, models.ErrNotFound
		}
		return nil, fmt.Errorf("select media: %w", err)
	}
	return m, nil
}

func scanAll(rows pgx.Rows) ([]*models.MediaRecord, error) {
	defer rows.Close()
	var out []*models.MediaRecord
	for rows.Next() {
		m, err := scan(rows)
		if err != nil {
			return nil, fmt.Errorf("scan media: %w", err)
		}
		out = append(out, m)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate media: %w", err)
	}
	return out, nil
}
