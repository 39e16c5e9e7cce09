package services

import (
	"context"
	"time"

	"github.com/mydarah/bot/config"
	"github.com/mydarah/bot/logger"
	"github.com/mydarah/bot/models"
	"github.com/mydarah/bot/reports"
)

// SnapshotSource hands out the current snapshot.
type SnapshotSource interface {
	Snapshot() (*models.Snapshot, error)
}

// ReportService renders reports against whatever snapshot is current when called.
type ReportService struct {
	data SnapshotSource
	opts reports.Options
}

func NewReportService(data SnapshotSource, cfg *config.Config, lookups *models.Lookups) *ReportService {
	return &ReportService{
		data: data,
		opts: reports.Options{
			RegularThreshold: cfg.Reports.RegularDonorThreshold,
			Lookups:          lookups,
			OutputDir:        cfg.Reports.OutputDir,
		},
	}
}

// Specs lists the available reports in menu order.
func (s *ReportService) Specs() []*reports.Spec {
	return reports.Registry()
}

// Generate renders the named report. The snapshot is read once, so a refresh
// in the middle of rendering cannot mix two datasets.
func (s *ReportService) Generate(ctx context.Context, name string) (*reports.Report, error) {
	spec, err := reports.Lookup(name)
	if err != nil {
		return nil, err
	}
	snap, err := s.data.Snapshot()
	if err != nil {
		return nil, err
	}

	start := time.Now()
	report, err := spec.Generate(ctx, snap, s.opts)
	if err != nil {
		logger.Warnf(ctx, "Service: %s report failed: %v", name, err)
		return nil, err
	}
	logger.Infof(ctx, "Service: %s report rendered in %s (%d bytes)", name, time.Since(start).Round(time.Millisecond), len(report.Image))
	return report, nil
}
