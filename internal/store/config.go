package store

import (
	"database/sql"
	"errors"
	"fmt"
	"time"
)

// ErrSettingNotFound 键不存在
var ErrSettingNotFound = errors.New("setting not found")

// SettingLastReload time of the last reference template reload
const SettingLastReload = "templates.last_reload_at"

// GetSetting 获取键值
func (s *Store) GetSetting(key string) (string, error) {
	var value string
	err := s.db.QueryRow("SELECT value FROM settings WHERE key = ?", key).Scan(&value)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return "", fmt.Errorf("%s: %w", key, ErrSettingNotFound)
		}
		return "", err
	}
	return value, nil
}

// SetSetting 设置键值
func (s *Store) SetSetting(key, value string) error {
	_, err := s.db.Exec(`
		INSERT INTO settings (key, value) VALUES (?, ?)
		ON CONFLICT(key) DO UPDATE SET value = ?, updated_at = CURRENT_TIMESTAMP
	`, key, value, value)
	return err
}

// GetSettingTime 获取时间类型键值
func (s *Store) GetSettingTime(key string) (time.Time, error) {
	value, err := s.GetSetting(key)
	if err != nil {
		return time.Time{}, err
	}
	return time.Parse(time.RFC3339Nano, value)
}

// SetSettingTime 设置时间类型键值
func (s *Store) SetSettingTime(key string, t time.Time) error {
	return s.SetSetting(key, t.UTC().Format(time.RFC3339Nano))
}
