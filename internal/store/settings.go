package store

import (
	"context"
	"fmt"
	"strings"

	"github.com/cubelog/cubelog/internal/model"
)

// GetSettings returns the stored WCA binding or ErrNotFound when none is set.
func (s *Store) GetSettings(ctx context.Context) (model.UserSettings, error) {
	var settings model.UserSettings
	var updatedAt string
	err := s.db.QueryRowContext(ctx,
		`SELECT wca_id, wca_name, updated_at FROM user_settings WHERE id = 1`).
		Scan(&settings.WCAID, &settings.WCAName, &updatedAt)
	if err != nil {
		return model.UserSettings{}, notFound("get settings", "settings", 1, err)
	}
	parsed, err := parseTime(updatedAt)
	if err != nil {
		return model.UserSettings{}, storageErr("get settings", err)
	}
	settings.UpdatedAt = parsed
	return settings, nil
}

// SaveSettings upserts the single settings row.
func (s *Store) SaveSettings(ctx context.Context, settings model.UserSettings) (model.UserSettings, error) {
	settings.WCAID = strings.ToUpper(strings.TrimSpace(settings.WCAID))
	if settings.WCAID == "" {
		return model.UserSettings{}, fmt.Errorf("%w: WCA ID is required", model.ErrInvalidInput)
	}
	settings.UpdatedAt = s.now().UTC()
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO user_settings (id, wca_id, wca_name, updated_at) VALUES (1, ?, ?, ?)
		 ON CONFLICT(id) DO UPDATE SET wca_id = excluded.wca_id, wca_name = excluded.wca_name, updated_at = excluded.updated_at`,
		settings.WCAID, settings.WCAName, formatTime(settings.UpdatedAt))
	if err != nil {
		return model.UserSettings{}, storageErr("save settings", err)
	}
	return settings, nil
}

// ClearSettings removes the WCA binding. Clearing twice is not an error.
func (s *Store) ClearSettings(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, `DELETE FROM user_settings WHERE id = 1`); err != nil {
		return storageErr("clear settings", err)
	}
	return nil
}
