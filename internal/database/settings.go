package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"
)

const (
	settingDefaultPrimary  = "default_primary_folder"
	settingDefaultOriginal = "default_original_folder"
)

// GetSetting retrieves a setting value by key. Missing keys return
// ErrNotFound.
func (d *Database) GetSetting(ctx context.Context, key string) (value string, err error) {
	start := time.Now()
	defer func() {
		if errors.Is(err, ErrNotFound) {
			recordQuery("get_settings", start, nil)
			return
		}
		recordQuery("get_settings", start, err)
	}()

	d.mu.RLock()
	defer d.mu.RUnlock()

	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	err = d.db.QueryRowContext(ctx, "SELECT value FROM settings WHERE key = ?", key).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return "", fmt.Errorf("%w: setting %s", ErrNotFound, key)
	}
	return value, err
}

// SetSetting stores a setting.
func (d *Database) SetSetting(ctx context.Context, key, value string) (err error) {
	start := time.Now()
	defer func() { recordQuery("save_settings", start, err) }()

	if key == "" {
		return fmt.Errorf("%w: setting key is required", ErrInvalidInput)
	}

	d.mu.Lock()
	defer d.mu.Unlock()

	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	_, err = d.db.ExecContext(ctx, `
		INSERT INTO settings (key, value) VALUES (?, ?)
		ON CONFLICT(key) DO UPDATE SET value = excluded.value
	`, key, value)
	return err
}

// GetDefaultFolders returns the saved default folder pair. Folders never
// saved come back empty.
func (d *Database) GetDefaultFolders(ctx context.Context) (Folders, error) {
	var f Folders
	var err error

	if f.PrimaryFolder, err = d.GetSetting(ctx, settingDefaultPrimary); err != nil && !errors.Is(err, ErrNotFound) {
		return Folders{}, err
	}
	if f.OriginalFolder, err = d.GetSetting(ctx, settingDefaultOriginal); err != nil && !errors.Is(err, ErrNotFound) {
		return Folders{}, err
	}
	return f, nil
}

// SaveDefaultFolders stores f as the default folder pair. Both values are
// written in one transaction.
func (d *Database) SaveDefaultFolders(ctx context.Context, f Folders) (err error) {
	start := time.Now()
	defer func() { recordQuery("save_settings", start, err) }()

	d.mu.Lock()
	defer d.mu.Unlock()

	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	tx, err := d.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}

	const upsert = `
		INSERT INTO settings (key, value) VALUES (?, ?)
		ON CONFLICT(key) DO UPDATE SET value = excluded.value
	`
	for key, value := range map[string]string{
		settingDefaultPrimary:  f.PrimaryFolder,
		settingDefaultOriginal: f.OriginalFolder,
	} {
		if _, err = tx.ExecContext(ctx, upsert, key, value); err != nil {
			if rbErr := tx.Rollback(); rbErr != nil {
				return errors.Join(err, fmt.Errorf("rollback also failed: %w", rbErr))
			}
			return err
		}
	}
	return tx.Commit()
}
