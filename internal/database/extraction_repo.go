package database

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/padvis/ocr-serve/internal/models"
)

var ErrExtractionNotFound = errors.New("extraction not found")

const extractionColumns = `id, original_filename, content_type, file_size_bytes, status,
       extracted_text, error_message, processing_time, tokens_generated, device,
       original_width, original_height, processed_width, processed_height,
       s3_bucket, s3_key, expires_at, created_at`

func scanExtraction(row pgx.Row) (*models.Extraction, error) {
	e := &models.Extraction{}
	err := row.Scan(
		&e.ID, &e.OriginalFilename, &e.ContentType, &e.FileSizeBytes, &e.Status,
		&e.ExtractedText, &e.ErrorMessage, &e.ProcessingTime, &e.TokensGenerated, &e.Device,
		&e.OriginalWidth, &e.OriginalHeight, &e.ProcessedWidth, &e.ProcessedHeight,
		&e.S3Bucket, &e.S3Key, &e.ExpiresAt, &e.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	return e, nil
}

// CreateExtraction records one processed upload
func (db *DB) CreateExtraction(ctx context.Context, req *models.CreateExtractionRequest) (*models.Extraction, error) {
	expiresAt := time.Now().Add(req.TTL)

	row := db.Pool.QueryRow(ctx, `
		INSERT INTO extractions (original_filename, content_type, file_size_bytes, status,
		        extracted_text, error_message, processing_time, tokens_generated, device,
		        original_width, original_height, processed_width, processed_height,
		        s3_bucket, s3_key, expires_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16)
		RETURNING `+extractionColumns,
		req.OriginalFilename, req.ContentType, req.FileSizeBytes, req.Status,
		req.ExtractedText, req.ErrorMessage, req.ProcessingTime, req.TokensGenerated, req.Device,
		req.OriginalWidth, req.OriginalHeight, req.ProcessedWidth, req.ProcessedHeight,
		req.S3Bucket, req.S3Key, expiresAt,
	)

	return scanExtraction(row)
}

// GetExtractionByID retrieves a single history record
func (db *DB) GetExtractionByID(ctx context.Context, id int64) (*models.Extraction, error) {
	row := db.Pool.QueryRow(ctx,
		`SELECT `+extractionColumns+` FROM extractions WHERE id = $1`, id)

	e, err := scanExtraction(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrExtractionNotFound
		}
		return nil, err
	}
	return e, nil
}

// ListExtractions returns a page of history records, newest first
func (db *DB) ListExtractions(ctx context.Context, params *models.ExtractionListParams) ([]models.Extraction, int, error) {
	var total int
	var err error
	if params.Status != nil {
		err = db.Pool.QueryRow(ctx,
			"SELECT COUNT(*) FROM extractions WHERE status = $1", *params.Status).Scan(&total)
	} else {
		err = db.Pool.QueryRow(ctx, "SELECT COUNT(*) FROM extractions").Scan(&total)
	}
	if err != nil {
		return nil, 0, err
	}

	var rows pgx.Rows
	if params.Status != nil {
		rows, err = db.Pool.Query(ctx, `
			SELECT `+extractionColumns+`
			FROM extractions
			WHERE status = $1
			ORDER BY created_at DESC, id DESC
			LIMIT $2 OFFSET $3`, *params.Status, params.Limit, params.Offset)
	} else {
		rows, err = db.Pool.Query(ctx, `
			SELECT `+extractionColumns+`
			FROM extractions
			ORDER BY created_at DESC, id DESC
			LIMIT $1 OFFSET $2`, params.Limit, params.Offset)
	}
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	extractions := []models.Extraction{}
	for rows.Next() {
		e, err := scanExtraction(rows)
		if err != nil {
			return nil, 0, err
		}
		extractions = append(extractions, *e)
	}

	return extractions, total, rows.Err()
}

// DeleteExtraction removes a history record
func (db *DB) DeleteExtraction(ctx context.Context, id int64) error {
	tag, err := db.Pool.Exec(ctx, "DELETE FROM extractions WHERE id = $1", id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrExtractionNotFound
	}
	return nil
}

// CleanupExpiredExtractions deletes expired records and returns the archive
// keys of any that were archived, so the caller can remove the objects too.
func (db *DB) CleanupExpiredExtractions(ctx context.Context) ([]string, error) {
	rows, err := db.Pool.Query(ctx, `
		DELETE FROM extractions
		WHERE expires_at < NOW()
		RETURNING s3_key`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var keys []string
	for rows.Next() {
		var key *string
		if err := rows.Scan(&key); err != nil {
			return nil, err
		}
		if key != nil {
			keys = append(keys, *key)
		}
	}

	return keys, rows.Err()
}
