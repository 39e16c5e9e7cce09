package services

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/mydarah/bot/config"
	"github.com/mydarah/bot/constants"
	"github.com/mydarah/bot/models"
)

func testLookups(t *testing.T) *models.Lookups {
	t.Helper()
	lookups, err := config.LoadLookups("")
	if err != nil {
		t.Fatalf("load lookups: %v", err)
	}
	return lookups
}

func TestNormalizeDerivesYearsAndFreshness(t *testing.T) {
	n := &Normalizer{Policy: PolicyReject, Lookups: testLookups(t), Strict: true}
	raw := RawDatasets{
		FacilityDonations: []models.FacilityDonationRow{
			{Date: "2023-12-31", Hospital: " Hospital  Melaka", Daily: "5"},
		},
		StateDonations: []models.StateDonationRow{
			{Date: "2020-01-01", State: "Malaysia", Daily: "10"},
			{Date: "2024-03-01 00:00:00", State: "Johor", Daily: "3"},
		},
		StateNewDonors: []models.StateNewDonorsRow{
			{Date: "2021-06-01T00:00:00Z", State: "Malaysia", AgeBracketCells: models.AgeBracketCells{Age17To24: "7", Other: "2.0"}},
		},
		DonationEvents: []models.DonationEventRow{
			{DonorID: "A", VisitDate: "2019-05-05", BirthDate: "1990-02-03"},
			{DonorID: "B", VisitDate: "2019-05-06", BirthDate: "1985"},
		},
	}

	snap, err := n.Normalize(context.Background(), raw)
	if err != nil {
		t.Fatalf("normalize: %v", err)
	}
	if got := snap.FacilityDonations[0]; got.Hospital != "Hospital Melaka" || got.Year != 2023 {
		t.Fatalf("unexpected facility row %+v", got)
	}
	if snap.StateDonations[1].Year != 2024 || snap.StateNewDonors[0].Year != 2021 {
		t.Fatalf("years not derived: %+v %+v", snap.StateDonations[1], snap.StateNewDonors[0])
	}
	if c := snap.StateNewDonors[0].Counts; c.Age17To24 != 7 || c.Other != 2 || c.Age25To29 != 0 {
		t.Fatalf("bracket counts not parsed: %+v", c)
	}
	if snap.StateDonations[0].Daily != 10 {
		t.Fatalf("expected daily 10, got %d", snap.StateDonations[0].Daily)
	}
	if snap.DonationEvents[0].BirthYear != 1990 || snap.DonationEvents[1].BirthYear != 1985 {
		t.Fatalf("birth years not derived: %+v", snap.DonationEvents)
	}
	want := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)
	if !snap.LastUpdated[models.DatasetDonationsState].Equal(want) {
		t.Fatalf("expected state freshness %s, got %s", want, snap.LastUpdated[models.DatasetDonationsState])
	}
	if !snap.Latest().Equal(want) {
		t.Fatalf("expected latest %s, got %s", want, snap.Latest())
	}
}

func TestNormalizeRejectPolicyNamesRowAndColumn(t *testing.T) {
	n := &Normalizer{Policy: PolicyReject, Lookups: testLookups(t), Strict: true}
	raw := RawDatasets{
		StateDonations: []models.StateDonationRow{
			{Date: "2020-01-01", State: "Johor", Daily: "1"},
			{Date: "yesterday", State: "Johor", Daily: "1"},
		},
	}

	_, err := n.Normalize(context.Background(), raw)
	if !errors.Is(err, constants.ErrSchemaMismatch) {
		t.Fatalf("expected ErrSchemaMismatch, got %v", err)
	}
	for _, part := range []string{models.DatasetDonationsState, "row 2", `"date"`} {
		if !strings.Contains(err.Error(), part) {
			t.Fatalf("expected %q in %q", part, err.Error())
		}
	}
}

func TestNormalizeDropPolicySkipsBadRows(t *testing.T) {
	n := &Normalizer{Policy: PolicyDrop, Lookups: testLookups(t), Strict: true}
	raw := RawDatasets{
		DonationEvents: []models.DonationEventRow{
			{DonorID: "A", VisitDate: "2019-05-05", BirthDate: "1990"},
			{DonorID: "B", VisitDate: "2019-05-05", BirthDate: "unknown"},
			{DonorID: "", VisitDate: "2019-05-05", BirthDate: "1990"},
		},
	}

	snap, err := n.Normalize(context.Background(), raw)
	if err != nil {
		t.Fatalf("normalize: %v", err)
	}
	if len(snap.DonationEvents) != 1 || snap.DonationEvents[0].DonorID != "A" {
		t.Fatalf("expected only donor A to survive, got %+v", snap.DonationEvents)
	}
}

func TestNormalizeCountCells(t *testing.T) {
	raw := RawDatasets{
		StateDonations: []models.StateDonationRow{
			{Date: "2020-01-01", State: "Johor", Daily: "4"},
			{Date: "2020-01-02", State: "Johor", Daily: "many"},
			{Date: "2020-01-03", State: "Johor", Daily: "-2"},
		},
		StateNewDonors: []models.StateNewDonorsRow{
			{Date: "2020-01-01", State: "Johor", AgeBracketCells: models.AgeBracketCells{Age40To44: "1.5"}},
		},
	}

	reject := &Normalizer{Policy: PolicyReject, Lookups: testLookups(t), Strict: true}
	_, err := reject.Normalize(context.Background(), raw)
	if !errors.Is(err, constants.ErrSchemaMismatch) {
		t.Fatalf("expected ErrSchemaMismatch, got %v", err)
	}
	if !strings.Contains(err.Error(), "row 2") || !strings.Contains(err.Error(), `"daily"`) {
		t.Fatalf("expected row 2 daily in %q", err.Error())
	}

	drop := &Normalizer{Policy: PolicyDrop, Lookups: testLookups(t), Strict: true}
	snap, err := drop.Normalize(context.Background(), raw)
	if err != nil {
		t.Fatalf("normalize: %v", err)
	}
	if len(snap.StateDonations) != 1 || snap.StateDonations[0].Daily != 4 {
		t.Fatalf("expected only the valid count to survive, got %+v", snap.StateDonations)
	}
	if len(snap.StateNewDonors) != 0 {
		t.Fatalf("expected fractional bracket row to be dropped, got %+v", snap.StateNewDonors)
	}
}

func TestNormalizeUnmappedHospital(t *testing.T) {
	raw := RawDatasets{
		FacilityDonations: []models.FacilityDonationRow{
			{Date: "2020-01-01", Hospital: "Hospital Baru", Daily: "1"},
		},
	}

	strict := &Normalizer{Policy: PolicyReject, Lookups: testLookups(t), Strict: true}
	_, err := strict.Normalize(context.Background(), raw)
	if !errors.Is(err, constants.ErrUnmappedEntity) {
		t.Fatalf("expected ErrUnmappedEntity, got %v", err)
	}
	if !strings.Contains(err.Error(), "Hospital Baru") {
		t.Fatalf("expected hospital name in %q", err.Error())
	}

	lenient := &Normalizer{Policy: PolicyReject, Lookups: testLookups(t), Strict: false}
	if _, err := lenient.Normalize(context.Background(), raw); err != nil {
		t.Fatalf("lenient normalize: %v", err)
	}
}
