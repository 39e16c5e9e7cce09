package models

import "time"

// DataSourceVersion records one successful download of a dataset.
type DataSourceVersion struct {
	ID                 int64     `db:"id" json:"id"`
	SourceName         string    `db:"source_name" json:"source_name"` // e.g. "donations_state"
	SourceFileURL      string    `db:"source_file_url" json:"source_file_url"`
	Rows               int       `db:"row_count" json:"rows"`
	LastDataDate       time.Time `db:"last_data_date" json:"last_data_date"`
	DownloadedAt       time.Time `db:"downloaded_at" json:"downloaded_at"`
	DataHash           string    `db:"data_hash" json:"data_hash,omitempty"` // sha256 of the raw file
	PublishedUpdatedAt *time.Time `db:"published_updated_at" json:"published_updated_at,omitempty"`
}
