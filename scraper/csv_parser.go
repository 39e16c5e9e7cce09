package scraper

import (
	"bytes"
	"encoding/csv"
	"errors"
	"fmt"
	"io"

	"github.com/jszwec/csvutil"

	"github.com/mydarah/bot/constants"
	"github.com/mydarah/bot/models"
)

// ParseDonationsFacilityCsv decodes donations_facility.csv.
func ParseDonationsFacilityCsv(data []byte) ([]models.FacilityDonationRow, error) {
	return decodeCsv[models.FacilityDonationRow](models.DatasetDonationsFacility, data, []string{"date", "hospital", "daily"})
}

// ParseDonationsStateCsv decodes donations_state.csv.
func ParseDonationsStateCsv(data []byte) ([]models.StateDonationRow, error) {
	return decodeCsv[models.StateDonationRow](models.DatasetDonationsState, data, []string{"date", "state", "daily"})
}

// ParseNewDonorsFacilityCsv decodes newdonors_facility.csv.
func ParseNewDonorsFacilityCsv(data []byte) ([]models.FacilityNewDonorsRow, error) {
	required := append([]string{"date", "hospital"}, models.AgeBrackets...)
	return decodeCsv[models.FacilityNewDonorsRow](models.DatasetNewDonorsFacility, data, required)
}

// ParseNewDonorsStateCsv decodes newdonors_state.csv.
func ParseNewDonorsStateCsv(data []byte) ([]models.StateNewDonorsRow, error) {
	required := append([]string{"date", "state"}, models.AgeBrackets...)
	return decodeCsv[models.StateNewDonorsRow](models.DatasetNewDonorsState, data, required)
}

// decodeCsv maps CSV records onto T by header name.
// Extra columns are ignored; a missing required column is a schema mismatch.
func decodeCsv[T any](dataset string, data []byte, required []string) ([]T, error) {
	reader := csv.NewReader(bytes.NewReader(data))
	reader.TrimLeadingSpace = true

	decoder, err := csvutil.NewDecoder(reader)
	if err != nil {
		if errors.Is(err, io.EOF) {
			return nil, fmt.Errorf("%s: no header row: %w", dataset, constants.ErrSourceUnavailable)
		}
		return nil, fmt.Errorf("%s: failed to create CSV decoder: %w: %w", dataset, constants.ErrSourceUnavailable, err)
	}

	present := make(map[string]struct{}, len(decoder.Header()))
	for _, column := range decoder.Header() {
		present[column] = struct{}{}
	}
	for _, column := range required {
		if _, ok := present[column]; !ok {
			return nil, fmt.Errorf("%s: missing column %q: %w", dataset, column, constants.ErrSchemaMismatch)
		}
	}

	var rows []T
	if err := decoder.Decode(&rows); err != nil {
		return nil, fmt.Errorf("%s: failed to decode CSV data: %w: %w", dataset, constants.ErrSourceUnavailable, err)
	}
	return rows, nil
}
