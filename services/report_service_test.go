package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/mydarah/bot/config"
	"github.com/mydarah/bot/constants"
	"github.com/mydarah/bot/models"
)

type staticSnapshot struct {
	snap *models.Snapshot
}

func (s staticSnapshot) Snapshot() (*models.Snapshot, error) {
	if s.snap == nil {
		return nil, constants.ErrSnapshotNotLoaded
	}
	return s.snap, nil
}

func TestReportServiceGenerate(t *testing.T) {
	cfg := config.DefaultConfig()
	snap := &models.Snapshot{
		StateDonations: []models.StateDonation{
			{State: "Malaysia", Year: 2020, Daily: 100, Date: time.Date(2020, 1, 1, 0, 0, 0, 0, time.UTC)},
			{State: "Johor", Year: 2020, Daily: 100, Date: time.Date(2020, 1, 1, 0, 0, 0, 0, time.UTC)},
		},
		LastUpdated: map[string]time.Time{models.DatasetDonationsState: time.Date(2020, 1, 1, 0, 0, 0, 0, time.UTC)},
	}
	svc := NewReportService(staticSnapshot{snap: snap}, &cfg, testLookups(t))

	report, err := svc.Generate(context.Background(), "state")
	if err != nil {
		t.Fatalf("generate: %v", err)
	}
	if report.Freshness != "State trend data updated at: 2020-01-01" {
		t.Fatalf("unexpected freshness %q", report.Freshness)
	}

	if _, err := svc.Generate(context.Background(), "regular"); !errors.Is(err, constants.ErrEmptyResult) {
		t.Fatalf("expected ErrEmptyResult, got %v", err)
	}
	if _, err := svc.Generate(context.Background(), "nope"); !errors.Is(err, constants.ErrUnknownReport) {
		t.Fatalf("expected ErrUnknownReport, got %v", err)
	}

	notLoaded := NewReportService(staticSnapshot{}, &cfg, testLookups(t))
	if _, err := notLoaded.Generate(context.Background(), "state"); !errors.Is(err, constants.ErrSnapshotNotLoaded) {
		t.Fatalf("expected ErrSnapshotNotLoaded, got %v", err)
	}
	if len(svc.Specs()) != 5 {
		t.Fatalf("expected five reports")
	}
}
