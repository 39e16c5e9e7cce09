package services

import (
	"context"
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/mydarah/bot/constants"
	"github.com/mydarah/bot/logger"
	"github.com/mydarah/bot/models"
	"github.com/mydarah/bot/utils"
)

const (
	PolicyReject = "reject"
	PolicyDrop   = "drop"
)

var dateLayouts = []string{"2006-01-02", "2006-01-02 15:04:05", time.RFC3339}

// RawDatasets is everything the loader decoded, before normalization.
type RawDatasets struct {
	FacilityDonations []models.FacilityDonationRow
	StateDonations    []models.StateDonationRow
	FacilityNewDonors []models.FacilityNewDonorsRow
	StateNewDonors    []models.StateNewDonorsRow
	DonationEvents    []models.DonationEventRow
}

// Normalizer turns decoded rows into a snapshot.
// Policy decides what a malformed row does: reject fails the dataset, drop skips the row.
type Normalizer struct {
	Policy  string
	Lookups *models.Lookups
	Strict  bool // unmapped hospitals fail the load
}

// rowError names the column that could not be normalized.
type rowError struct {
	column string
	err    error
}

func (n *Normalizer) Normalize(ctx context.Context, raw RawDatasets) (*models.Snapshot, error) {
	snap := &models.Snapshot{
		LoadedAt:    time.Now().UTC(),
		LastUpdated: make(map[string]time.Time, 5),
	}
	var err error

	snap.FacilityDonations, err = normalizeRows(ctx, n.Policy, models.DatasetDonationsFacility, raw.FacilityDonations,
		func(r models.FacilityDonationRow) (models.FacilityDonation, *rowError) {
			hospital := utils.NormalizeName(r.Hospital)
			if hospital == "" {
				return models.FacilityDonation{}, &rowError{column: "hospital", err: fmt.Errorf("empty name")}
			}
			date, err := parseDate(r.Date)
			if err != nil {
				return models.FacilityDonation{}, &rowError{column: "date", err: err}
			}
			daily, err := parseCount(r.Daily)
			if err != nil {
				return models.FacilityDonation{}, &rowError{column: "daily", err: err}
			}
			return models.FacilityDonation{Hospital: hospital, Date: date, Year: date.Year(), Daily: daily}, nil
		})
	if err != nil {
		return nil, err
	}

	snap.StateDonations, err = normalizeRows(ctx, n.Policy, models.DatasetDonationsState, raw.StateDonations,
		func(r models.StateDonationRow) (models.StateDonation, *rowError) {
			state := utils.NormalizeName(r.State)
			if state == "" {
				return models.StateDonation{}, &rowError{column: "state", err: fmt.Errorf("empty name")}
			}
			date, err := parseDate(r.Date)
			if err != nil {
				return models.StateDonation{}, &rowError{column: "date", err: err}
			}
			daily, err := parseCount(r.Daily)
			if err != nil {
				return models.StateDonation{}, &rowError{column: "daily", err: err}
			}
			return models.StateDonation{State: state, Date: date, Year: date.Year(), Daily: daily}, nil
		})
	if err != nil {
		return nil, err
	}

	snap.FacilityNewDonors, err = normalizeRows(ctx, n.Policy, models.DatasetNewDonorsFacility, raw.FacilityNewDonors,
		func(r models.FacilityNewDonorsRow) (models.FacilityNewDonors, *rowError) {
			hospital := utils.NormalizeName(r.Hospital)
			if hospital == "" {
				return models.FacilityNewDonors{}, &rowError{column: "hospital", err: fmt.Errorf("empty name")}
			}
			date, err := parseDate(r.Date)
			if err != nil {
				return models.FacilityNewDonors{}, &rowError{column: "date", err: err}
			}
			counts, rerr := parseBracketCounts(r.AgeBracketCells)
			if rerr != nil {
				return models.FacilityNewDonors{}, rerr
			}
			return models.FacilityNewDonors{Hospital: hospital, Date: date, Year: date.Year(), Counts: counts}, nil
		})
	if err != nil {
		return nil, err
	}

	snap.StateNewDonors, err = normalizeRows(ctx, n.Policy, models.DatasetNewDonorsState, raw.StateNewDonors,
		func(r models.StateNewDonorsRow) (models.StateNewDonors, *rowError) {
			state := utils.NormalizeName(r.State)
			if state == "" {
				return models.StateNewDonors{}, &rowError{column: "state", err: fmt.Errorf("empty name")}
			}
			date, err := parseDate(r.Date)
			if err != nil {
				return models.StateNewDonors{}, &rowError{column: "date", err: err}
			}
			counts, rerr := parseBracketCounts(r.AgeBracketCells)
			if rerr != nil {
				return models.StateNewDonors{}, rerr
			}
			return models.StateNewDonors{State: state, Date: date, Year: date.Year(), Counts: counts}, nil
		})
	if err != nil {
		return nil, err
	}

	snap.DonationEvents, err = normalizeRows(ctx, n.Policy, models.DatasetDonationEvents, raw.DonationEvents,
		func(r models.DonationEventRow) (models.DonationEvent, *rowError) {
			donor := strings.TrimSpace(r.DonorID)
			if donor == "" {
				return models.DonationEvent{}, &rowError{column: "donor_id", err: fmt.Errorf("empty id")}
			}
			visit, err := parseDate(r.VisitDate)
			if err != nil {
				return models.DonationEvent{}, &rowError{column: "visit_date", err: err}
			}
			birthYear, err := parseBirthYear(r.BirthDate)
			if err != nil {
				return models.DonationEvent{}, &rowError{column: "birth_date", err: err}
			}
			return models.DonationEvent{DonorID: donor, VisitDate: visit, Year: visit.Year(), BirthYear: birthYear}, nil
		})
	if err != nil {
		return nil, err
	}

	for _, r := range snap.FacilityDonations {
		bumpLatest(snap.LastUpdated, models.DatasetDonationsFacility, r.Date)
	}
	for _, r := range snap.StateDonations {
		bumpLatest(snap.LastUpdated, models.DatasetDonationsState, r.Date)
	}
	for _, r := range snap.FacilityNewDonors {
		bumpLatest(snap.LastUpdated, models.DatasetNewDonorsFacility, r.Date)
	}
	for _, r := range snap.StateNewDonors {
		bumpLatest(snap.LastUpdated, models.DatasetNewDonorsState, r.Date)
	}
	for _, r := range snap.DonationEvents {
		bumpLatest(snap.LastUpdated, models.DatasetDonationEvents, r.VisitDate)
	}

	if err := n.ValidateHospitals(ctx, snap); err != nil {
		return nil, err
	}
	return snap, nil
}

// ValidateHospitals checks every facility in the snapshot has a state mapping.
// In strict mode a gap fails the load; otherwise it is only logged and the
// per-hospital report fails when requested.
func (n *Normalizer) ValidateHospitals(ctx context.Context, snap *models.Snapshot) error {
	hospitals := make([]string, 0, len(snap.FacilityDonations))
	for _, r := range snap.FacilityDonations {
		hospitals = append(hospitals, r.Hospital)
	}
	missing := n.Lookups.Unmapped(hospitals)
	if len(missing) == 0 {
		return nil
	}
	if n.Strict {
		return fmt.Errorf("%s: hospitals without a state mapping: %s: %w",
			models.DatasetDonationsFacility, strings.Join(missing, ", "), constants.ErrUnmappedEntity)
	}
	logger.Warnf(ctx, "Service: %d hospitals have no state mapping, the hospital report will fail: %s",
		len(missing), strings.Join(missing, ", "))
	return nil
}

func normalizeRows[R, N any](ctx context.Context, policy, dataset string, rows []R, convert func(R) (N, *rowError)) ([]N, error) {
	out := make([]N, 0, len(rows))
	dropped := 0
	for i, row := range rows {
		record, rerr := convert(row)
		if rerr != nil {
			if policy == PolicyDrop {
				dropped++
				continue
			}
			return nil, fmt.Errorf("%s: row %d column %q: %v: %w", dataset, i+1, rerr.column, rerr.err, constants.ErrSchemaMismatch)
		}
		out = append(out, record)
	}
	if dropped > 0 {
		logger.Warnf(ctx, "Service: dropped %d malformed rows from %s", dropped, dataset)
	}
	return out, nil
}

func bumpLatest(latest map[string]time.Time, dataset string, t time.Time) {
	if t.After(latest[dataset]) {
		latest[dataset] = t
	}
}

func parseDate(value string) (time.Time, error) {
	value = strings.TrimSpace(value)
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, value); err == nil {
			return t.UTC(), nil
		}
	}
	return time.Time{}, fmt.Errorf("unparseable date %q", value)
}

// parseCount reads a non-negative count. A blank cell counts as zero, and
// float renderings of whole numbers ("12.0") are accepted.
func parseCount(value string) (int64, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		return 0, nil
	}
	n, err := strconv.ParseInt(value, 10, 64)
	if err != nil {
		f, ferr := strconv.ParseFloat(value, 64)
		if ferr != nil || f != math.Trunc(f) || math.IsInf(f, 0) {
			return 0, fmt.Errorf("unparseable count %q", value)
		}
		n = int64(f)
	}
	if n < 0 {
		return 0, fmt.Errorf("negative count %d", n)
	}
	return n, nil
}

func parseBracketCounts(cells models.AgeBracketCells) (models.AgeBracketCounts, *rowError) {
	var counts models.AgeBracketCounts
	slots := counts.Slots()
	for i, cell := range cells.Cells() {
		n, err := parseCount(cell)
		if err != nil {
			return models.AgeBracketCounts{}, &rowError{column: models.AgeBrackets[i], err: err}
		}
		*slots[i] = n
	}
	return counts, nil
}

// parseBirthYear accepts a full date or a bare four-digit year.
func parseBirthYear(value string) (int, error) {
	value = strings.TrimSpace(value)
	if len(value) == 4 {
		year, err := strconv.Atoi(value)
		if err != nil {
			return 0, fmt.Errorf("unparseable birth year %q", value)
		}
		return year, nil
	}
	t, err := parseDate(value)
	if err != nil {
		return 0, err
	}
	return t.Year(), nil
}
