package store

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"templatecheck/internal/model"
)

const (
	DefaultListLimit = 50
	MaxListLimit     = 500
)

// InsertUpload 保存上传记录; an empty ID is filled with a new UUID.
func (s *Store) InsertUpload(ctx context.Context, rec *model.UploadRecord) error {
	if rec.ID == "" {
		rec.ID = uuid.NewString()
	}
	if rec.CreatedAt.IsZero() {
		rec.CreatedAt = time.Now().UTC()
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO uploads (
			id, filename, file_size, mime_type,
			template_type, template_name, validation_confidence, upload_mode,
			is_valid, error_count, warning_count, created_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, rec.ID, rec.FileName, rec.SizeBytes, rec.MIMEType,
		string(rec.TemplateType), rec.TemplateName, string(rec.ValidationConfidence), string(rec.UploadMode),
		rec.IsValid, rec.ErrorCount, rec.WarningCount, rec.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to insert upload: %w", err)
	}
	return nil
}

// ListUploads 最近的上传记录, newest first
func (s *Store) ListUploads(ctx context.Context, limit int) ([]*model.UploadRecord, error) {
	if limit <= 0 {
		limit = DefaultListLimit
	}
	if limit > MaxListLimit {
		limit = MaxListLimit
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT id, filename, file_size, mime_type,
			template_type, template_name, validation_confidence, upload_mode,
			is_valid, error_count, warning_count, created_at
		FROM uploads
		ORDER BY created_at DESC, id
		LIMIT ?
	`, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query uploads: %w", err)
	}
	defer rows.Close()

	out := []*model.UploadRecord{}
	for rows.Next() {
		var (
			rec        model.UploadRecord
			tplType    string
			confidence string
			mode       string
		)
		if err := rows.Scan(&rec.ID, &rec.FileName, &rec.SizeBytes, &rec.MIMEType,
			&tplType, &rec.TemplateName, &confidence, &mode,
			&rec.IsValid, &rec.ErrorCount, &rec.WarningCount, &rec.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan upload: %w", err)
		}
		rec.TemplateType = model.TemplateID(tplType)
		rec.ValidationConfidence = model.ConfidenceTier(confidence)
		rec.UploadMode = model.UploadMode(mode)
		out = append(out, &rec)
	}
	return out, rows.Err()
}

// CountUploadsByTemplate 按模板类型统计上传次数
func (s *Store) CountUploadsByTemplate(ctx context.Context) (map[model.TemplateID]int, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT template_type, COUNT(*) FROM uploads GROUP BY template_type
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to count uploads: %w", err)
	}
	defer rows.Close()

	counts := make(map[model.TemplateID]int)
	for rows.Next() {
		var (
			id string
			n  int
		)
		if err := rows.Scan(&id, &n); err != nil {
			return nil, err
		}
		counts[model.TemplateID(id)] = n
	}
	return counts, rows.Err()
}
