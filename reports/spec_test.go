package reports

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"testing"
	"time"

	"github.com/mydarah/bot/charts"
	"github.com/mydarah/bot/constants"
	"github.com/mydarah/bot/models"
)

func testSnapshot() *models.Snapshot {
	snap := &models.Snapshot{
		StateDonations: []models.StateDonation{
			stateRow("Malaysia", day(2020, 1, 1), 100),
			stateRow("Malaysia", day(2021, 3, 9), 150),
			stateRow("Johor", day(2020, 1, 1), 60),
			stateRow("Melaka", day(2021, 3, 9), 40),
		},
		FacilityDonations: []models.FacilityDonation{
			{Hospital: "Hospital Melaka", Date: day(2021, 3, 8), Year: 2021, Daily: 40},
			{Hospital: "Hospital Sultanah Aminah", Date: day(2020, 1, 1), Year: 2020, Daily: 60},
		},
		StateNewDonors: []models.StateNewDonors{
			{State: "Malaysia", Date: day(2020, 1, 1), Year: 2020, Counts: models.AgeBracketCounts{Age17To24: 4, Age25To29: 2}},
			{State: "Malaysia", Date: day(2021, 3, 7), Year: 2021, Counts: models.AgeBracketCounts{Age17To24: 5, Age25To29: 1}},
		},
		DonationEvents: []models.DonationEvent{
			event("A", day(2020, 1, 1)),
			event("A", day(2020, 4, 1)),
			event("A", day(2020, 9, 1)),
			event("B", day(2020, 5, 1)),
			event("B", day(2021, 3, 6)),
		},
		LastUpdated: map[string]time.Time{},
	}
	snap.LastUpdated[models.DatasetDonationsState] = day(2021, 3, 9)
	snap.LastUpdated[models.DatasetDonationsFacility] = day(2021, 3, 8)
	snap.LastUpdated[models.DatasetNewDonorsState] = day(2021, 3, 7)
	snap.LastUpdated[models.DatasetDonationEvents] = day(2021, 3, 6)
	return snap
}

func testOptions() Options {
	return Options{
		RegularThreshold: DefaultRegularThreshold,
		Lookups: &models.Lookups{
			HospitalStates: map[string]string{"Hospital Melaka": "Melaka", "Hospital Sultanah Aminah": "Johor"},
			StateColors:    []models.StateColor{{State: "Melaka", Color: "orange"}, {State: "Johor", Color: "gray"}},
		},
	}
}

var pngSignature = []byte{0x89, 'P', 'N', 'G'}

func TestRegistryGeneratesEveryReport(t *testing.T) {
	wantFreshness := map[string]string{
		"malaysia":  "Malaysia trend data updated at: 2021-03-09",
		"regular":   "Regular donor trend data updated at: 2021-03-06",
		"state":     "State trend data updated at: 2021-03-09",
		"hospital":  "Hospital trend data updated at: 2021-03-08",
		"newdonors": "New donors age group data updated at: 2021-03-07",
	}

	snap := testSnapshot()
	specs := Registry()
	if len(specs) != len(wantFreshness) {
		t.Fatalf("expected %d reports, got %d", len(wantFreshness), len(specs))
	}
	for _, spec := range specs {
		report, err := spec.Generate(context.Background(), snap, testOptions())
		if err != nil {
			t.Fatalf("%s: generate: %v", spec.Name, err)
		}
		if !bytes.HasPrefix(report.Image, pngSignature) {
			t.Fatalf("%s: image is not a PNG", spec.Name)
		}
		if report.Freshness != wantFreshness[spec.Name] {
			t.Fatalf("%s: expected %q, got %q", spec.Name, wantFreshness[spec.Name], report.Freshness)
		}
		if report.Explanation == "" {
			t.Fatalf("%s: missing explanation", spec.Name)
		}
		if !strings.HasPrefix(report.Filename, spec.FileBase+"-") || !strings.HasSuffix(report.Filename, ".png") {
			t.Fatalf("%s: unexpected file name %q", spec.Name, report.Filename)
		}
	}
}

func TestGenerateIsIdempotent(t *testing.T) {
	snap := testSnapshot()
	for _, spec := range Registry() {
		first, err := spec.Generate(context.Background(), snap, testOptions())
		if err != nil {
			t.Fatalf("%s: %v", spec.Name, err)
		}
		second, err := spec.Generate(context.Background(), snap, testOptions())
		if err != nil {
			t.Fatalf("%s: %v", spec.Name, err)
		}
		if !reflect.DeepEqual(first.Data, second.Data) {
			t.Fatalf("%s: aggregate changed between runs", spec.Name)
		}
		if first.Filename == second.Filename {
			t.Fatalf("%s: file names must be unique per render", spec.Name)
		}
	}
}

func TestMalaysiaTrendlineScenario(t *testing.T) {
	report, err := malaysiaSpec.Generate(context.Background(), testSnapshot(), testOptions())
	if err != nil {
		t.Fatalf("generate: %v", err)
	}
	data := report.Data.(MalaysiaTrend)
	if data.Trend == nil || data.Trend.Slope <= 0 {
		t.Fatalf("expected a positive trend, got %+v", data.Trend)
	}

	snap := testSnapshot()
	snap.StateDonations = snap.StateDonations[:1]
	report, err = malaysiaSpec.Generate(context.Background(), snap, testOptions())
	if err != nil {
		t.Fatalf("generate single year: %v", err)
	}
	if report.Data.(MalaysiaTrend).Trend != nil {
		t.Fatalf("expected no trendline for a single year")
	}
}

func TestRegularExplanationUsesThreshold(t *testing.T) {
	opts := testOptions()
	opts.RegularThreshold = 4
	report, err := regularSpec.Generate(context.Background(), testSnapshot(), opts)
	if err != nil {
		t.Fatalf("generate: %v", err)
	}
	if !strings.Contains(report.Explanation, "Assuming that 4 or more") {
		t.Fatalf("threshold missing from %q", report.Explanation)
	}
}

func TestGenerateEmptyResult(t *testing.T) {
	empty := &models.Snapshot{LastUpdated: map[string]time.Time{}}
	for _, spec := range Registry() {
		_, err := spec.Generate(context.Background(), empty, testOptions())
		if !errors.Is(err, constants.ErrEmptyResult) {
			t.Fatalf("%s: expected ErrEmptyResult, got %v", spec.Name, err)
		}
	}
}

func TestHospitalReportUnmapped(t *testing.T) {
	snap := testSnapshot()
	snap.FacilityDonations = append(snap.FacilityDonations, models.FacilityDonation{Hospital: "Hospital Baru", Year: 2021, Daily: 1})

	_, err := hospitalSpec.Generate(context.Background(), snap, testOptions())
	if !errors.Is(err, constants.ErrUnmappedEntity) {
		t.Fatalf("expected ErrUnmappedEntity, got %v", err)
	}
}

func TestGenerateWritesOutputDir(t *testing.T) {
	opts := testOptions()
	opts.OutputDir = t.TempDir()

	report, err := stateSpec.Generate(context.Background(), testSnapshot(), opts)
	if err != nil {
		t.Fatalf("generate: %v", err)
	}
	written, err := os.ReadFile(filepath.Join(opts.OutputDir, report.Filename))
	if err != nil {
		t.Fatalf("read output: %v", err)
	}
	if !bytes.Equal(written, report.Image) {
		t.Fatalf("written image differs from the delivered one")
	}
}

func TestLookup(t *testing.T) {
	spec, err := Lookup("hospital")
	if err != nil || spec.Name != "hospital" {
		t.Fatalf("expected hospital spec, got %v (%v)", spec, err)
	}
	if _, err := Lookup("weather"); !errors.Is(err, constants.ErrUnknownReport) {
		t.Fatalf("expected ErrUnknownReport, got %v", err)
	}
}

func TestHospitalLegendListsEveryConfiguredState(t *testing.T) {
	opts := testOptions()
	opts.Lookups.StateColors = append(opts.Lookups.StateColors, models.StateColor{State: "Sabah", Color: "blue"})
	snap := &models.Snapshot{
		FacilityDonations: []models.FacilityDonation{
			{Hospital: "Hospital Melaka", Date: day(2021, 3, 8), Year: 2021, Daily: 40},
		},
	}

	fig, _, err := buildHospital(snap, opts)
	if err != nil {
		t.Fatalf("build: %v", err)
	}
	if len(fig.Legend) != len(opts.Lookups.StateColors) {
		t.Fatalf("expected %d legend entries, got %d", len(opts.Lookups.StateColors), len(fig.Legend))
	}
	for i, sc := range opts.Lookups.StateColors {
		want, err := charts.Named(sc.Color)
		if err != nil {
			t.Fatalf("colour %q: %v", sc.Color, err)
		}
		if fig.Legend[i].Label != sc.State || fig.Legend[i].Color != want {
			t.Fatalf("legend %d: expected %s/%v, got %s/%v", i, sc.State, want, fig.Legend[i].Label, fig.Legend[i].Color)
		}
	}

	if len(fig.Bars) != 1 {
		t.Fatalf("expected one bar, got %d", len(fig.Bars))
	}
	orange, _ := charts.Named("orange")
	if fig.Bars[0].Label != "Hospital Melaka" || fig.Bars[0].Color != orange {
		t.Fatalf("expected Hospital Melaka in its state colour, got %+v", fig.Bars[0])
	}
}
