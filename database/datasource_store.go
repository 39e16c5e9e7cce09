package database

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	sq "github.com/Masterminds/squirrel"

	"github.com/mydarah/bot/logger"
	"github.com/mydarah/bot/models"
)

var dataSourceVersionColumns = []string{
	"id", "source_name", "source_file_url", "row_count", "last_data_date",
	"downloaded_at", "data_hash", "published_updated_at",
}

func builder() sq.StatementBuilderType {
	return sq.StatementBuilder.PlaceholderFormat(sq.Question)
}

// SourceVersionStore is the data_source_versions audit log: one row per dataset,
// overwritten on every successful download.
type SourceVersionStore struct {
	db *sql.DB
}

func NewSourceVersionStore(db *sql.DB) *SourceVersionStore {
	return &SourceVersionStore{db: db}
}

// UpsertVersion inserts or replaces the row for v.SourceName.
// A nil PublishedUpdatedAt keeps the previously stored published date.
func (s *SourceVersionStore) UpsertVersion(ctx context.Context, v models.DataSourceVersion) error {
	var lastDataDate sql.NullTime
	if !v.LastDataDate.IsZero() {
		lastDataDate = sql.NullTime{Time: v.LastDataDate, Valid: true}
	}
	var published sql.NullTime
	if v.PublishedUpdatedAt != nil {
		published = sql.NullTime{Time: *v.PublishedUpdatedAt, Valid: true}
	}
	dataHash := sql.NullString{String: v.DataHash, Valid: v.DataHash != ""}

	query, args, err := builder().Insert(tableDataSourceVersions).
		Columns("source_name", "source_file_url", "row_count", "last_data_date", "downloaded_at", "data_hash", "published_updated_at").
		Values(v.SourceName, v.SourceFileURL, v.Rows, lastDataDate, v.DownloadedAt, dataHash, published).
		Suffix(`ON DUPLICATE KEY UPDATE
			source_file_url = VALUES(source_file_url),
			row_count = VALUES(row_count),
			last_data_date = VALUES(last_data_date),
			downloaded_at = VALUES(downloaded_at),
			data_hash = VALUES(data_hash),
			published_updated_at = COALESCE(VALUES(published_updated_at), published_updated_at)`).
		ToSql()
	if err != nil {
		return fmt.Errorf("failed to build upsert for %s: %w", v.SourceName, err)
	}

	if _, err := s.db.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("failed to log data source version for %s: %w", v.SourceName, err)
	}

	logger.Debugf(ctx, "Database: logged %s version, %d rows, data up to %s",
		v.SourceName, v.Rows, v.LastDataDate.Format("2006-01-02"))
	return nil
}

// LatestPublishedAt returns the newest catalogue date recorded, or nil if none is.
func (s *SourceVersionStore) LatestPublishedAt(ctx context.Context) (*time.Time, error) {
	query, args, err := builder().Select("MAX(published_updated_at)").From(tableDataSourceVersions).ToSql()
	if err != nil {
		return nil, err
	}

	var latest sql.NullTime
	if err := s.db.QueryRowContext(ctx, query, args...).Scan(&latest); err != nil {
		return nil, fmt.Errorf("failed to query latest published date: %w", err)
	}
	if !latest.Valid {
		return nil, nil
	}
	return &latest.Time, nil
}

// ListVersions returns every logged dataset ordered by name.
func (s *SourceVersionStore) ListVersions(ctx context.Context) ([]models.DataSourceVersion, error) {
	query, args, err := builder().Select(dataSourceVersionColumns...).
		From(tableDataSourceVersions).
		OrderBy("source_name").
		ToSql()
	if err != nil {
		return nil, err
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query %s: %w", tableDataSourceVersions, err)
	}
	defer rows.Close()

	var versions []models.DataSourceVersion
	for rows.Next() {
		var v models.DataSourceVersion
		var lastDataDate, published sql.NullTime
		var dataHash sql.NullString

		err := rows.Scan(&v.ID, &v.SourceName, &v.SourceFileURL, &v.Rows, &lastDataDate,
			&v.DownloadedAt, &dataHash, &published)
		if err != nil {
			return nil, fmt.Errorf("failed to scan %s row: %w", tableDataSourceVersions, err)
		}
		if lastDataDate.Valid {
			v.LastDataDate = lastDataDate.Time
		}
		if dataHash.Valid {
			v.DataHash = dataHash.String
		}
		if published.Valid {
			v.PublishedUpdatedAt = &published.Time
		}
		versions = append(versions, v)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating %s rows: %w", tableDataSourceVersions, err)
	}
	return versions, nil
}
