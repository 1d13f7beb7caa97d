package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"
)

// GetHistory returns the saved position for primaryFolder.
func (d *Database) GetHistory(ctx context.Context, primaryFolder string) (entry HistoryEntry, err error) {
	start := time.Now()
	defer func() {
		if errors.Is(err, ErrNotFound) {
			recordQuery("get_history", start, nil)
			return
		}
		recordQuery("get_history", start, err)
	}()

	if strings.TrimSpace(primaryFolder) == "" {
		return HistoryEntry{}, fmt.Errorf("%w: primary folder is required", ErrInvalidInput)
	}

	d.mu.RLock()
	defer d.mu.RUnlock()

	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	var updatedAt int64
	err = d.db.QueryRowContext(ctx, `
		SELECT primary_folder, original_folder, last_index, sort_order, updated_at
		FROM history WHERE primary_folder = ?
	`, primaryFolder).Scan(
		&entry.PrimaryFolder, &entry.OriginalFolder, &entry.LastIndex, &entry.SortOrder, &updatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return HistoryEntry{}, fmt.Errorf("%w: no history for %s", ErrNotFound, primaryFolder)
	}
	if err != nil {
		return HistoryEntry{}, err
	}

	entry.UpdatedAt = time.Unix(updatedAt, 0)
	return entry, nil
}

// SaveHistory inserts or replaces the position for entry.PrimaryFolder.
// An empty SortOrder is stored as name_asc.
func (d *Database) SaveHistory(ctx context.Context, entry HistoryEntry) (err error) {
	start := time.Now()
	defer func() { recordQuery("save_history", start, err) }()

	if strings.TrimSpace(entry.PrimaryFolder) == "" {
		return fmt.Errorf("%w: primary folder is required", ErrInvalidInput)
	}
	if entry.LastIndex < 0 {
		return fmt.Errorf("%w: negative index %d", ErrInvalidInput, entry.LastIndex)
	}
	if entry.SortOrder == "" {
		entry.SortOrder = "name_asc"
	}

	d.mu.Lock()
	defer d.mu.Unlock()

	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	_, err = d.db.ExecContext(ctx, `
		INSERT INTO history (primary_folder, original_folder, last_index, sort_order, updated_at)
		VALUES (?, ?, ?, ?, strftime('%s', 'now'))
		ON CONFLICT(primary_folder) DO UPDATE SET
			original_folder = excluded.original_folder,
			last_index = excluded.last_index,
			sort_order = excluded.sort_order,
			updated_at = excluded.updated_at
	`, entry.PrimaryFolder, entry.OriginalFolder, entry.LastIndex, entry.SortOrder)
	return err
}
