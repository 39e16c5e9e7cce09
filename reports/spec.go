package reports

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"

	"github.com/mydarah/bot/charts"
	"github.com/mydarah/bot/constants"
	"github.com/mydarah/bot/logger"
	"github.com/mydarah/bot/models"
)

// Options carries the settings a report may depend on.
type Options struct {
	RegularThreshold int
	Lookups          *models.Lookups
	OutputDir        string // when set, every rendered image is also written here
}

// Spec describes one report: what it reads, how it aggregates and how it is captioned.
// Specs are stateless; the same Spec may generate concurrently.
type Spec struct {
	Name        string // also the chat command
	Description string // shown in the chat command menu
	FileBase    string
	Dataset     string // freshness is taken from this dataset

	FreshnessCaption string // %s receives the freshness date
	explanation      func(Options) string
	build            func(*models.Snapshot, Options) (*charts.Figure, any, error)
}

// Report is one rendered chart plus the two captions that go with it.
type Report struct {
	Name        string
	Filename    string
	Image       []byte
	Freshness   string
	Explanation string
	Data        any
	GeneratedAt time.Time
}

// Generate aggregates snap, renders the chart in memory and fills in the captions.
func (s *Spec) Generate(ctx context.Context, snap *models.Snapshot, opts Options) (*Report, error) {
	if snap == nil {
		return nil, constants.ErrSnapshotNotLoaded
	}
	if opts.RegularThreshold < 1 {
		opts.RegularThreshold = DefaultRegularThreshold
	}

	fig, data, err := s.build(snap, opts)
	if err != nil {
		return nil, fmt.Errorf("%s report: %w", s.Name, err)
	}
	image, err := charts.Render(fig)
	if err != nil {
		return nil, fmt.Errorf("%s report: failed to render chart: %w", s.Name, err)
	}

	report := &Report{
		Name:        s.Name,
		Filename:    fmt.Sprintf("%s-%s.png", s.FileBase, uuid.NewString()),
		Image:       image,
		Freshness:   fmt.Sprintf(s.FreshnessCaption, snap.LastUpdated[s.Dataset].Format("2006-01-02")),
		Explanation: s.explanation(opts),
		Data:        data,
		GeneratedAt: time.Now().UTC(),
	}

	if opts.OutputDir != "" {
		path := filepath.Join(opts.OutputDir, report.Filename)
		if err := os.WriteFile(path, image, 0644); err != nil {
			// The image is still delivered from memory.
			logger.Errorf(ctx, "Reports: failed to write %s: %v", path, err)
		} else {
			logger.Debugf(ctx, "Reports: wrote %s", path)
		}
	}
	return report, nil
}

// Lookup returns the registered Spec for a report name.
func Lookup(name string) (*Spec, error) {
	for _, spec := range Registry() {
		if spec.Name == name {
			return spec, nil
		}
	}
	return nil, fmt.Errorf("%q: %w", name, constants.ErrUnknownReport)
}

func emptyResult(what string) error {
	return fmt.Errorf("no %s rows: %w", what, constants.ErrEmptyResult)
}
