package database

import "time"

// HistoryEntry records where the user left off in a primary folder.
type HistoryEntry struct {
	PrimaryFolder  string    `json:"primary_folder"`
	OriginalFolder string    `json:"original_folder"`
	LastIndex      int       `json:"last_index"`
	SortOrder      string    `json:"sort_order"`
	UpdatedAt      time.Time `json:"updated_at"`
}

// Folders is the saved default folder pair.
type Folders struct {
	PrimaryFolder  string `json:"primary_folder"`
	OriginalFolder string `json:"original_folder"`
}
