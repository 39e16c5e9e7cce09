package reports

import (
	"fmt"
	"strconv"

	"gonum.org/v1/plot/vg"

	"github.com/mydarah/bot/charts"
	"github.com/mydarah/bot/models"
)

// Registry lists every report in chat menu order.
func Registry() []*Spec {
	return []*Spec{malaysiaSpec, regularSpec, stateSpec, hospitalSpec, newDonorsSpec}
}

var malaysiaSpec = &Spec{
	Name:             "malaysia",
	Description:      "Yearly blood donations in Malaysia with trendline",
	FileBase:         "mytrend",
	Dataset:          models.DatasetDonationsState,
	FreshnessCaption: "Malaysia trend data updated at: %s",
	explanation: func(Options) string {
		return "This graph shows the trend of blood donation number from 2006 until latest 2024 with added trendline to see increase in donation"
	},
	build: buildMalaysia,
}

var regularSpec = &Spec{
	Name:             "regular",
	Description:      "Share of regular donors per year",
	FileBase:         "regtrend",
	Dataset:          models.DatasetDonationEvents,
	FreshnessCaption: "Regular donor trend data updated at: %s",
	explanation: func(opts Options) string {
		return fmt.Sprintf("This graph is showing regular donors trend among registered donors from 2012 to latest 2024. "+
			"Assuming that %d or more is considered as regular donation", opts.RegularThreshold)
	},
	build: buildRegular,
}

var stateSpec = &Spec{
	Name:             "state",
	Description:      "Share of donations per state",
	FileBase:         "statetrend",
	Dataset:          models.DatasetDonationsState,
	FreshnessCaption: "State trend data updated at: %s",
	explanation: func(Options) string {
		return "This graphs represents the % of donation per state from 2006 until latest 2024 with highest donors on top"
	},
	build: buildState,
}

var hospitalSpec = &Spec{
	Name:             "hospital",
	Description:      "Share of donations per hospital",
	FileBase:         "hospitaltrend",
	Dataset:          models.DatasetDonationsFacility,
	FreshnessCaption: "Hospital trend data updated at: %s",
	explanation: func(Options) string {
		return "This graphs represents the % of donation per hospital from 2006 until latest 2024 with highest donors on top"
	},
	build: buildHospital,
}

var newDonorsSpec = &Spec{
	Name:             "newdonors",
	Description:      "New donors per age group",
	FileBase:         "newdonors",
	Dataset:          models.DatasetNewDonorsState,
	FreshnessCaption: "New donors age group data updated at: %s",
	explanation: func(Options) string {
		return "This graph represents the total donation of new donors in age group from 2006 until latest 2024"
	},
	build: buildNewDonors,
}

// MalaysiaTrend is the data behind the malaysia chart. Trend is nil with fewer than two years.
type MalaysiaTrend struct {
	Years []YearTotal `json:"years"`
	Trend *Fit        `json:"trend,omitempty"`
}

func buildMalaysia(snap *models.Snapshot, _ Options) (*charts.Figure, any, error) {
	totals := NationalYearlyTotals(snap.StateDonations)
	if len(totals) == 0 {
		return nil, nil, emptyResult("national donation")
	}

	fig := &charts.Figure{
		Title:  "Total Number of Blood Donations Per Year - Malaysia",
		XLabel: "Year",
		YLabel: "Total Donations",
		Kind:   charts.KindBar,
		Legend: []charts.LegendEntry{{Label: models.NationalState, Color: charts.DefaultBarColor}},
	}
	xs := make([]float64, len(totals))
	ys := make([]float64, len(totals))
	for i, t := range totals {
		fig.Bars = append(fig.Bars, charts.Bar{Label: strconv.Itoa(t.Year), Value: float64(t.Total)})
		xs[i] = float64(t.Year)
		ys[i] = float64(t.Total)
	}

	data := MalaysiaTrend{Years: totals}
	if fit, ok := LinearFit(xs, ys); ok {
		data.Trend = &fit
		trend := charts.Series{Name: "Trendline", Color: charts.TrendColor, Dashed: true}
		for i, x := range xs {
			trend.Points = append(trend.Points, charts.Point{X: float64(i), Y: fit.At(x)})
		}
		fig.Series = append(fig.Series, trend)
	}
	return fig, data, nil
}

func buildRegular(snap *models.Snapshot, opts Options) (*charts.Figure, any, error) {
	ratios := RegularDonorRatios(snap.DonationEvents, opts.RegularThreshold)
	if len(ratios) == 0 {
		return nil, nil, emptyResult("donation event")
	}

	series := charts.Series{Markers: true}
	for _, r := range ratios {
		series.Points = append(series.Points, charts.Point{
			X:          float64(r.Year),
			Y:          r.Percent.InexactFloat64(),
			Annotation: percentLabel(r.Percent),
		})
	}
	fig := &charts.Figure{
		Title:  fmt.Sprintf("Percentage of Regular Donors Over Total Donors (%d-%d)", ratios[0].Year, ratios[len(ratios)-1].Year),
		XLabel: "Year",
		YLabel: "Percentage of Regular Donors",
		Kind:   charts.KindLine,
		Series: []charts.Series{series},
	}
	return fig, ratios, nil
}

func buildState(snap *models.Snapshot, _ Options) (*charts.Figure, any, error) {
	shares := StateShares(snap.StateDonations)
	if len(shares) == 0 {
		return nil, nil, emptyResult("per-state donation")
	}

	first, last := yearSpan(snap.StateDonations)
	fig := &charts.Figure{
		Title:  fmt.Sprintf("%% Total Donations per State from %d to %d", first, last),
		XLabel: "Percentage",
		YLabel: "State",
		Kind:   charts.KindHorizontalBar,
	}
	colors := charts.Ranked(len(shares))
	for i, s := range shares {
		fig.Bars = append(fig.Bars, charts.Bar{
			Label:      s.Name,
			Value:      s.Percent.InexactFloat64(),
			Color:      colors[i],
			Annotation: percentLabel(s.Percent),
		})
	}
	return fig, shares, nil
}

func buildHospital(snap *models.Snapshot, opts Options) (*charts.Figure, any, error) {
	shares, err := HospitalShares(snap.FacilityDonations, opts.Lookups)
	if err != nil {
		return nil, nil, err
	}
	if len(shares) == 0 {
		return nil, nil, emptyResult("facility donation")
	}

	fig := &charts.Figure{
		Title:  "Donations per Hospital",
		XLabel: "Percentage",
		YLabel: "Hospital",
		Kind:   charts.KindHorizontalBar,
	}
	for _, s := range shares {
		bar := charts.Bar{Label: s.Name, Value: s.Percent.InexactFloat64(), Annotation: percentLabel(s.Percent)}
		if name, ok := opts.Lookups.ColorOf(s.State); ok {
			c, err := charts.Named(name)
			if err != nil {
				return nil, nil, fmt.Errorf("state %q: %w", s.State, err)
			}
			bar.Color = c
		}
		fig.Bars = append(fig.Bars, bar)
	}
	for _, sc := range opts.Lookups.StateColors {
		c, err := charts.Named(sc.Color)
		if err != nil {
			return nil, nil, fmt.Errorf("state %q: %w", sc.State, err)
		}
		fig.Legend = append(fig.Legend, charts.LegendEntry{Label: sc.State, Color: c})
	}
	return fig, shares, nil
}

func buildNewDonors(snap *models.Snapshot, _ Options) (*charts.Figure, any, error) {
	trend := AgeGroupTrend(snap.StateNewDonors)
	if len(trend) == 0 {
		return nil, nil, emptyResult("national new donor")
	}

	fig := &charts.Figure{
		Title:  "New Donors Trends by Age Group",
		XLabel: "Year",
		YLabel: "Number of Donations",
		Kind:   charts.KindLine,
		Width:  12 * vg.Inch,
	}
	if years := trend[0].Years; len(years) > 0 {
		fig.Title = fmt.Sprintf("New Donors Trends by Age Group (%d-%d)", years[0].Year, years[len(years)-1].Year)
	}
	for i, series := range trend {
		s := charts.Series{Name: series.Bracket, Color: charts.SeriesColor(i), Markers: true}
		for _, y := range series.Years {
			s.Points = append(s.Points, charts.Point{X: float64(y.Year), Y: float64(y.Total)})
		}
		fig.Series = append(fig.Series, s)
	}
	return fig, trend, nil
}

func yearSpan(rows []models.StateDonation) (int, int) {
	first, last := 0, 0
	for _, r := range rows {
		if first == 0 || r.Year < first {
			first = r.Year
		}
		if r.Year > last {
			last = r.Year
		}
	}
	return first, last
}
