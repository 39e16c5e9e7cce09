package scraper

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"strconv"
	"time"

	"github.com/parquet-go/parquet-go"
	"github.com/parquet-go/parquet-go/deprecated"

	"github.com/mydarah/bot/constants"
	"github.com/mydarah/bot/models"
)

// julianUnixEpoch is the Julian day number of 1970-01-01, used by INT96 timestamps.
const julianUnixEpoch = 2440588

type cellFormat func(parquet.Value) string

// eventColumn binds one parquet leaf column to a DonationEventRow field.
type eventColumn struct {
	name    string
	numeric bool // a bare number is a valid value (a year, an integer id)
	assign  func(*models.DonationEventRow, string)
}

var eventColumns = []eventColumn{
	{name: "donor_id", numeric: true, assign: func(r *models.DonationEventRow, v string) { r.DonorID = v }},
	{name: "visit_date", assign: func(r *models.DonationEventRow, v string) { r.VisitDate = v }},
	{name: "birth_date", numeric: true, assign: func(r *models.DonationEventRow, v string) { r.BirthDate = v }},
}

type boundColumn struct {
	eventColumn
	format cellFormat
}

// ParseDonationEventsParquet decodes the granular per-visit parquet file.
// Columns may be text, DATE, TIMESTAMP or INT96; birth_date and donor_id may also be
// plain numbers. Every value is rendered as text for the normalizer. A missing column
// or an unsupported physical type is a schema mismatch.
func ParseDonationEventsParquet(data []byte) (rows []models.DonationEventRow, err error) {
	if len(data) == 0 {
		return nil, fmt.Errorf("%s: empty file: %w", models.DatasetDonationEvents, constants.ErrSourceUnavailable)
	}

	file, err := parquet.OpenFile(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return nil, fmt.Errorf("%s: failed to open parquet: %w: %w", models.DatasetDonationEvents, constants.ErrSourceUnavailable, err)
	}

	columns := make(map[int]boundColumn, len(eventColumns))
	for _, c := range eventColumns {
		leaf, ok := file.Schema().Lookup(c.name)
		if !ok {
			return nil, fmt.Errorf("%s: missing column %q: %w", models.DatasetDonationEvents, c.name, constants.ErrSchemaMismatch)
		}
		format, err := formatterFor(leaf.Node.Type(), c.numeric)
		if err != nil {
			return nil, fmt.Errorf("%s: column %q: %v: %w", models.DatasetDonationEvents, c.name, err, constants.ErrSchemaMismatch)
		}
		columns[leaf.ColumnIndex] = boundColumn{eventColumn: c, format: format}
	}

	// parquet-go panics on some malformed pages instead of returning an error.
	defer func() {
		if r := recover(); r != nil {
			rows = nil
			err = fmt.Errorf("%s: failed to decode parquet: %v: %w", models.DatasetDonationEvents, r, constants.ErrSchemaMismatch)
		}
	}()

	rows = make([]models.DonationEventRow, 0, file.NumRows())
	buf := make([]parquet.Row, 256)
	for _, group := range file.RowGroups() {
		if err := readEvents(group.Rows(), buf, columns, &rows); err != nil {
			return nil, fmt.Errorf("%s: failed to read parquet rows: %w: %w", models.DatasetDonationEvents, constants.ErrSourceUnavailable, err)
		}
	}
	return rows, nil
}

func readEvents(source parquet.Rows, buf []parquet.Row, columns map[int]boundColumn, out *[]models.DonationEventRow) error {
	defer source.Close()
	for {
		n, err := source.ReadRows(buf)
		for _, row := range buf[:n] {
			var event models.DonationEventRow
			for _, v := range row {
				c, ok := columns[v.Column()]
				if !ok || v.IsNull() {
					continue
				}
				c.assign(&event, c.format(v))
			}
			*out = append(*out, event)
		}
		if errors.Is(err, io.EOF) {
			return nil
		}
		if err != nil {
			return err
		}
	}
}

// formatterFor picks how a column's values are rendered from its logical and physical type.
func formatterFor(t parquet.Type, numeric bool) (cellFormat, error) {
	if lt := t.LogicalType(); lt != nil {
		switch {
		case lt.Date != nil:
			return formatDate, nil
		case lt.Timestamp != nil:
			switch {
			case lt.Timestamp.Unit.Millis != nil:
				return formatTimestamp(time.UnixMilli), nil
			case lt.Timestamp.Unit.Micros != nil:
				return formatTimestamp(time.UnixMicro), nil
			default:
				return formatTimestamp(func(n int64) time.Time { return time.Unix(0, n) }), nil
			}
		}
	}
	if ct := t.ConvertedType(); ct != nil {
		switch *ct {
		case deprecated.Date:
			return formatDate, nil
		case deprecated.TimestampMillis:
			return formatTimestamp(time.UnixMilli), nil
		case deprecated.TimestampMicros:
			return formatTimestamp(time.UnixMicro), nil
		}
	}

	switch t.Kind() {
	case parquet.ByteArray, parquet.FixedLenByteArray:
		return func(v parquet.Value) string { return string(v.ByteArray()) }, nil
	case parquet.Int96:
		return formatInt96, nil
	case parquet.Int32:
		if numeric {
			return func(v parquet.Value) string { return strconv.FormatInt(int64(v.Int32()), 10) }, nil
		}
	case parquet.Int64:
		if numeric {
			return func(v parquet.Value) string { return strconv.FormatInt(v.Int64(), 10) }, nil
		}
	case parquet.Float:
		if numeric {
			return func(v parquet.Value) string { return strconv.FormatFloat(float64(v.Float()), 'f', -1, 32) }, nil
		}
	case parquet.Double:
		// pandas stores an integer column with gaps as float64.
		if numeric {
			return func(v parquet.Value) string { return strconv.FormatFloat(v.Double(), 'f', -1, 64) }, nil
		}
	}
	return nil, fmt.Errorf("unsupported type %s", t)
}

func formatDate(v parquet.Value) string {
	return time.Unix(int64(v.Int32())*86400, 0).UTC().Format("2006-01-02")
}

func formatTimestamp(fromUnix func(int64) time.Time) cellFormat {
	return func(v parquet.Value) string {
		return fromUnix(v.Int64()).UTC().Format(time.RFC3339)
	}
}

// formatInt96 decodes the legacy Impala timestamp: nanoseconds of day, then Julian day.
func formatInt96(v parquet.Value) string {
	i := v.Int96()
	days := int64(i[2]) - julianUnixEpoch
	return time.Unix(days*86400, i.Int64()).UTC().Format(time.RFC3339)
}
