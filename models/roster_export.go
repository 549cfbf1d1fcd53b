package models

import "time"

// RosterExport describes one generated roster workbook.
type RosterExport struct {
	FileName    string    `json:"file_name"`
	Format      string    `json:"format"` // xlsx
	Students    int       `json:"students"`
	Rooms       int       `json:"rooms"`
	URL         *string   `json:"url,omitempty"`
	GeneratedAt time.Time `json:"generated_at"`
}
