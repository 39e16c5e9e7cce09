package services

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"net/http"
	"sync"
	"sync/atomic"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/mydarah/bot/config"
	"github.com/mydarah/bot/constants"
	"github.com/mydarah/bot/logger"
	"github.com/mydarah/bot/models"
	"github.com/mydarah/bot/scraper"
)

// VersionStore is the optional audit log of dataset downloads.
type VersionStore interface {
	UpsertVersion(ctx context.Context, v models.DataSourceVersion) error
	LatestPublishedAt(ctx context.Context) (*time.Time, error)
}

// source binds one configured URL to the parser that fills its slice of RawDatasets.
type source struct {
	name  string
	url   string
	parse func(data []byte, raw *RawDatasets) (int, error)
}

// download is what one fetch produced, kept for the version log.
type download struct {
	rows int
	hash string
	at   time.Time
}

// DataService owns the current snapshot and everything that replaces it.
type DataService struct {
	cfg        *config.Config
	client     *http.Client
	normalizer *Normalizer
	versions   VersionStore

	snapshot atomic.Pointer[models.Snapshot]

	refreshMu     sync.Mutex // one load in flight
	lastPublished time.Time  // guarded by refreshMu
}

// NewDataService wires the loader. versions may be nil when the database is disabled.
func NewDataService(cfg *config.Config, lookups *models.Lookups, versions VersionStore) *DataService {
	return &DataService{
		cfg:    cfg,
		client: scraper.NewHTTPClient(cfg.Datasets.FetchTimeout),
		normalizer: &Normalizer{
			Policy:  cfg.Normalization.Policy,
			Lookups: lookups,
			Strict:  cfg.Lookups.Strict,
		},
		versions: versions,
	}
}

// InitLastKnownPublished seeds the published date from the version log so a restart
// does not count as an update.
func (s *DataService) InitLastKnownPublished(ctx context.Context) {
	if s.versions == nil {
		return
	}
	published, err := s.versions.LatestPublishedAt(ctx)
	if err != nil {
		logger.Errorf(ctx, "Service: failed to read last published date from DB: %v", err)
		return
	}
	if published == nil {
		logger.Info(ctx, "Service: no published date recorded yet")
		return
	}
	s.refreshMu.Lock()
	s.lastPublished = *published
	s.refreshMu.Unlock()
	logger.Infof(ctx, "Service: last known published date %s", published.Format("2006-01-02"))
}

// Snapshot returns the current snapshot, or ErrSnapshotNotLoaded before the first load.
func (s *DataService) Snapshot() (*models.Snapshot, error) {
	snap := s.snapshot.Load()
	if snap == nil {
		return nil, constants.ErrSnapshotNotLoaded
	}
	return snap, nil
}

// Load downloads and normalizes all five datasets. Any failure fails the whole load.
// The snapshot is returned, not installed; Refresh does both.
func (s *DataService) Load(ctx context.Context) (*models.Snapshot, error) {
	return s.load(ctx, time.Time{})
}

func (s *DataService) load(ctx context.Context, published time.Time) (*models.Snapshot, error) {
	start := time.Now()
	sources := s.sources()
	downloads := make([]download, len(sources))
	raws := make([]RawDatasets, len(sources))

	g, gctx := errgroup.WithContext(ctx)
	for i, src := range sources {
		i, src := i, src
		g.Go(func() error {
			data, err := scraper.FetchSource(gctx, s.client, src.url, s.cfg.Datasets.MaxRetries)
			if err != nil {
				return fmt.Errorf("%s: %w", src.name, err)
			}
			rows, err := src.parse(data, &raws[i])
			if err != nil {
				return err
			}
			sum := sha256.Sum256(data)
			downloads[i] = download{rows: rows, hash: hex.EncodeToString(sum[:]), at: time.Now().UTC()}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	// Each goroutine filled a different field of its own RawDatasets.
	var raw RawDatasets
	for _, r := range raws {
		raw.FacilityDonations = append(raw.FacilityDonations, r.FacilityDonations...)
		raw.StateDonations = append(raw.StateDonations, r.StateDonations...)
		raw.FacilityNewDonors = append(raw.FacilityNewDonors, r.FacilityNewDonors...)
		raw.StateNewDonors = append(raw.StateNewDonors, r.StateNewDonors...)
		raw.DonationEvents = append(raw.DonationEvents, r.DonationEvents...)
	}

	snap, err := s.normalizer.Normalize(ctx, raw)
	if err != nil {
		return nil, err
	}

	for _, info := range snap.Datasets() {
		logger.Infof(ctx, "Service: %s loaded, %d rows, latest %s", info.Name, info.Rows, info.LastUpdated.Format("2006-01-02"))
	}
	logger.Infof(ctx, "Service: all datasets loaded in %s", time.Since(start).Round(time.Millisecond))

	s.recordVersions(ctx, sources, downloads, snap, published)
	return snap, nil
}

// Refresh reloads everything and swaps the snapshot. On failure the old snapshot stays.
func (s *DataService) Refresh(ctx context.Context) error {
	s.refreshMu.Lock()
	defer s.refreshMu.Unlock()
	return s.refreshLocked(ctx, s.lastPublished)
}

func (s *DataService) refreshLocked(ctx context.Context, published time.Time) error {
	logger.Info(ctx, "Service: refreshing datasets...")
	snap, err := s.load(ctx, published)
	if err != nil {
		logger.Errorf(ctx, "Service: refresh failed, keeping the previous snapshot: %v", err)
		return err
	}
	s.snapshot.Store(snap)
	logger.Infof(ctx, "Service: snapshot replaced, data up to %s", snap.Latest().Format("2006-01-02"))
	return nil
}

// UpdateIfNeeded reloads when the data catalogue reports a newer publication date.
// Without a catalogue page configured every call reloads.
func (s *DataService) UpdateIfNeeded(ctx context.Context) (bool, error) {
	s.refreshMu.Lock()
	defer s.refreshMu.Unlock()

	freshness := s.cfg.DataFreshness
	if freshness.CataloguePageURL == "" {
		if err := s.refreshLocked(ctx, s.lastPublished); err != nil {
			return false, err
		}
		return true, nil
	}

	published, err := scraper.ScrapePublishedDate(ctx, s.client, freshness.CataloguePageURL, freshness.LastUpdatedSelector)
	if err != nil {
		return false, fmt.Errorf("failed to check published date: %w", err)
	}
	logger.Infof(ctx, "Service: catalogue published date %s, last known %s",
		published.Format("2006-01-02"), s.lastPublished.Format("2006-01-02"))

	if s.snapshot.Load() != nil && !published.After(s.lastPublished) {
		logger.Info(ctx, "Service: no update needed")
		return false, nil
	}

	if err := s.refreshLocked(ctx, published); err != nil {
		return false, err
	}
	s.lastPublished = published
	return true, nil
}

// StartRefresher calls UpdateIfNeeded every refresh interval until ctx is done.
func (s *DataService) StartRefresher(ctx context.Context) {
	interval := s.cfg.DataFreshness.RefreshInterval
	if interval <= 0 {
		logger.Info(ctx, "Service: background refresh disabled")
		return
	}

	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		logger.Infof(ctx, "Service: background refresh every %s", interval)
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				if _, err := s.UpdateIfNeeded(ctx); err != nil {
					logger.Errorf(ctx, "Service: scheduled update failed: %v", err)
				}
			}
		}
	}()
}

func (s *DataService) sources() []source {
	urls := s.cfg.Datasets
	return []source{
		{name: models.DatasetDonationsFacility, url: urls.DonationsFacilityCSV, parse: func(data []byte, raw *RawDatasets) (int, error) {
			rows, err := scraper.ParseDonationsFacilityCsv(data)
			raw.FacilityDonations = rows
			return len(rows), err
		}},
		{name: models.DatasetDonationsState, url: urls.DonationsStateCSV, parse: func(data []byte, raw *RawDatasets) (int, error) {
			rows, err := scraper.ParseDonationsStateCsv(data)
			raw.StateDonations = rows
			return len(rows), err
		}},
		{name: models.DatasetNewDonorsFacility, url: urls.NewDonorsFacilityCSV, parse: func(data []byte, raw *RawDatasets) (int, error) {
			rows, err := scraper.ParseNewDonorsFacilityCsv(data)
			raw.FacilityNewDonors = rows
			return len(rows), err
		}},
		{name: models.DatasetNewDonorsState, url: urls.NewDonorsStateCSV, parse: func(data []byte, raw *RawDatasets) (int, error) {
			rows, err := scraper.ParseNewDonorsStateCsv(data)
			raw.StateNewDonors = rows
			return len(rows), err
		}},
		{name: models.DatasetDonationEvents, url: urls.GranularParquet, parse: func(data []byte, raw *RawDatasets) (int, error) {
			rows, err := scraper.ParseDonationEventsParquet(data)
			raw.DonationEvents = rows
			return len(rows), err
		}},
	}
}

// recordVersions writes the audit log. Failures are logged, never fatal.
func (s *DataService) recordVersions(ctx context.Context, sources []source, downloads []download, snap *models.Snapshot, published time.Time) {
	if s.versions == nil {
		return
	}
	for i, src := range sources {
		v := models.DataSourceVersion{
			SourceName:    src.name,
			SourceFileURL: src.url,
			Rows:          downloads[i].rows,
			LastDataDate:  snap.LastUpdated[src.name],
			DownloadedAt:  downloads[i].at,
			DataHash:      downloads[i].hash,
		}
		if !published.IsZero() {
			v.PublishedUpdatedAt = &published
		}
		if err := s.versions.UpsertVersion(ctx, v); err != nil {
			logger.Errorf(ctx, "Service: failed to log source version for %s: %v", src.name, err)
		}
	}
}
