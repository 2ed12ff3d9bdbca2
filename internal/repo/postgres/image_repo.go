package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	mediasvc "github.com/chronon/photochron/internal/services/media"
)

// ImageRepo persists media asset metadata. The blob itself lives in the
// external store; the two are linked only by the blob-assigned id.
type ImageRepo struct {
	pool *pgxpool.Pool
}

func NewImageRepo(pool *pgxpool.Pool) *ImageRepo {
	return &ImageRepo{pool: pool}
}

func (r *ImageRepo) Insert(ctx context.Context, rec mediasvc.AssetRecord) error {
	if r.pool == nil {
		return fmt.Errorf("postgres pool is nil")
	}

	_, err := r.pool.Exec(ctx, `
INSERT INTO images (id, username, name, caption, captured, uploaded)
VALUES ($1, $2, $3, NULLIF($4, ''), $5, $6)
`, rec.ID, rec.Username, rec.Name, rec.Caption, rec.Captured, rec.Uploaded)
	if err != nil {
		return fmt.Errorf("insert image metadata: %w", err)
	}

	return nil
}

func (r *ImageRepo) GetByIDForTenant(ctx context.Context, id, username string) (mediasvc.AssetRecord, error) {
	if r.pool == nil {
		return mediasvc.AssetRecord{}, fmt.Errorf("postgres pool is nil")
	}

	row := r.pool.QueryRow(ctx, `
SELECT id, username, name, COALESCE(caption, ''), captured, uploaded
FROM images
WHERE id = $1 AND username = $2
`, id, username)

	return scanAssetRecord(row)
}

func (r *ImageRepo) GetByID(ctx context.Context, id string) (mediasvc.AssetRecord, error) {
	if r.pool == nil {
		return mediasvc.AssetRecord{}, fmt.Errorf("postgres pool is nil")
	}

	row := r.pool.QueryRow(ctx, `
SELECT id, username, name, COALESCE(caption, ''), captured, uploaded
FROM images
WHERE id = $1
`, id)

	return scanAssetRecord(row)
}

func (r *ImageRepo) GetByName(ctx context.Context, username, name string) (mediasvc.AssetRecord, error) {
	if r.pool == nil {
		return mediasvc.AssetRecord{}, fmt.Errorf("postgres pool is nil")
	}

	row := r.pool.QueryRow(ctx, `
SELECT id, username, name, COALESCE(caption, ''), captured, uploaded
FROM images
WHERE username = $1 AND name = $2
ORDER BY uploaded DESC
LIMIT 1
`, username, name)

	return scanAssetRecord(row)
}

func (r *ImageRepo) Delete(ctx context.Context, id, username string) (int64, error) {
	if r.pool == nil {
		return 0, fmt.Errorf("postgres pool is nil")
	}

	tag, err := r.pool.Exec(ctx, `
DELETE FROM images
WHERE id = $1 AND username = $2
`, id, username)
	if err != nil {
		return 0, fmt.Errorf("delete image metadata: %w", err)
	}

	return tag.RowsAffected(), nil
}

func (r *ImageRepo) ListPage(ctx context.Context, username string, limit, offset int) ([]mediasvc.AssetRecord, error) {
	if r.pool == nil {
		return nil, fmt.Errorf("postgres pool is nil")
	}

	rows, err := r.pool.Query(ctx, `
SELECT id, username, name, COALESCE(caption, ''), captured, uploaded
FROM images
WHERE username = $1
ORDER BY captured DESC
LIMIT $2 OFFSET $3
`, username, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("list images: %w", err)
	}
	defer rows.Close()

	records := make([]mediasvc.AssetRecord, 0, limit)
	for rows.Next() {
		var rec mediasvc.AssetRecord
		if err := rows.Scan(&rec.ID, &rec.Username, &rec.Name, &rec.Caption, &rec.Captured, &rec.Uploaded); err != nil {
			return nil, fmt.Errorf("scan image row: %w", err)
		}
		records = append(records, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate image rows: %w", err)
	}

	return records, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanAssetRecord(row rowScanner) (mediasvc.AssetRecord, error) {
	var rec mediasvc.AssetRecord
	err := row.Scan(&rec.ID, &rec.Username, &rec.Name, &rec.Caption, &rec.Captured, &rec.Uploaded)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return mediasvc.AssetRecord{}, mediasvc.ErrNotFound
		}
		return mediasvc.AssetRecord{}, fmt.Errorf("scan image record: %w", err)
	}
	return rec, nil
}
