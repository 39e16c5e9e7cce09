package database

import (
	"context"
	"database/sql"
	"fmt"
)

const tableDataSourceVersions = "data_source_versions"

const createDataSourceVersions = `
CREATE TABLE IF NOT EXISTS data_source_versions (
	id                   BIGINT AUTO_INCREMENT PRIMARY KEY,
	source_name          VARCHAR(64)  NOT NULL UNIQUE,
	source_file_url      VARCHAR(512) NOT NULL,
	row_count            INT          NOT NULL DEFAULT 0,
	last_data_date       DATE         NULL,
	downloaded_at        DATETIME     NOT NULL,
	data_hash            CHAR(64)     NULL,
	published_updated_at DATETIME     NULL,
	created_at           TIMESTAMP    NOT NULL DEFAULT CURRENT_TIMESTAMP,
	updated_at           TIMESTAMP    NOT NULL DEFAULT CURRENT_TIMESTAMP ON UPDATE CURRENT_TIMESTAMP
)`

// EnsureSchema creates the tables the bot writes to when they are missing.
func EnsureSchema(ctx context.Context, db *sql.DB) error {
	if _, err := db.ExecContext(ctx, createDataSourceVersions); err != nil {
		return fmt.Errorf("failed to create %s: %w", tableDataSourceVersions, err)
	}
	return nil
}
