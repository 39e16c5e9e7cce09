package reports

import (
	"fmt"
	"sort"

	"github.com/shopspring/decimal"

	"github.com/mydarah/bot/models"
)

// DefaultRegularThreshold is the number of visits in one year that makes a donor regular.
const DefaultRegularThreshold = 3

var hundred = decimal.NewFromInt(100)

type YearTotal struct {
	Year  int   `json:"year"`
	Total int64 `json:"total"`
}

// NationalYearlyTotals sums the "Malaysia" rows of the state dataset per year, oldest first.
func NationalYearlyTotals(states []models.StateDonation) []YearTotal {
	byYear := make(map[int]int64)
	for _, r := range states {
		if r.State != models.NationalState {
			continue
		}
		byYear[r.Year] += r.Daily
	}
	return sortedYearTotals(byYear)
}

type RegularRatio struct {
	Year    int             `json:"year"`
	Regular int             `json:"regular"`
	Total   int             `json:"total"`
	Percent decimal.Decimal `json:"percent"`
}

// RegularDonorRatios returns, per visit year, the share of distinct donors who visited at
// least threshold times in that same year.
func RegularDonorRatios(events []models.DonationEvent, threshold int) []RegularRatio {
	if threshold < 1 {
		threshold = DefaultRegularThreshold
	}

	visits := make(map[int]map[string]int)
	for _, e := range events {
		donors, ok := visits[e.Year]
		if !ok {
			donors = make(map[string]int)
			visits[e.Year] = donors
		}
		donors[e.DonorID]++
	}

	ratios := make([]RegularRatio, 0, len(visits))
	for year, donors := range visits {
		regular := 0
		for _, count := range donors {
			if count >= threshold {
				regular++
			}
		}
		ratios = append(ratios, RegularRatio{
			Year:    year,
			Regular: regular,
			Total:   len(donors),
			Percent: percentOf(int64(regular), int64(len(donors))),
		})
	}
	sort.Slice(ratios, func(i, j int) bool { return ratios[i].Year < ratios[j].Year })
	return ratios
}

// Share is one bar of a percentage-of-total chart.
type Share struct {
	Name    string          `json:"name"`
	State   string          `json:"state,omitempty"`
	Total   int64           `json:"total"`
	Percent decimal.Decimal `json:"percent"`
}

// StateShares sums donations per state over all years, leaves out the national row and
// returns each state's percentage of the remaining total, smallest first.
func StateShares(states []models.StateDonation) []Share {
	totals := make(map[string]int64)
	for _, r := range states {
		if r.State == models.NationalState {
			continue
		}
		totals[r.State] += r.Daily
	}

	shares := make([]Share, 0, len(totals))
	for state, total := range totals {
		shares = append(shares, Share{Name: state, State: state, Total: total})
	}
	return withPercentages(shares)
}

// HospitalShares sums donations per hospital over all years and returns each hospital's
// percentage of the grand total, smallest first. Every hospital must map to a state.
func HospitalShares(facilities []models.FacilityDonation, lookups *models.Lookups) ([]Share, error) {
	totals := make(map[string]int64)
	for _, r := range facilities {
		totals[r.Hospital] += r.Daily
	}

	shares := make([]Share, 0, len(totals))
	for hospital, total := range totals {
		state, err := lookups.StateOf(hospital)
		if err != nil {
			return nil, err
		}
		shares = append(shares, Share{Name: hospital, State: state, Total: total})
	}
	return withPercentages(shares), nil
}

type AgeGroupSeries struct {
	Bracket string      `json:"bracket"`
	Years   []YearTotal `json:"years"`
}

// AgeGroupTrend melts the national new-donor rows into one yearly series per age bracket,
// in models.AgeBrackets order.
func AgeGroupTrend(rows []models.StateNewDonors) []AgeGroupSeries {
	byBracket := make(map[string]map[int]int64, len(models.AgeBrackets))
	for _, r := range rows {
		if r.State != models.NationalState {
			continue
		}
		for _, bracket := range models.AgeBrackets {
			count, _ := r.Counts.ByBracket(bracket)
			years, ok := byBracket[bracket]
			if !ok {
				years = make(map[int]int64)
				byBracket[bracket] = years
			}
			years[r.Year] += count
		}
	}

	var series []AgeGroupSeries
	for _, bracket := range models.AgeBrackets {
		years, ok := byBracket[bracket]
		if !ok {
			continue
		}
		series = append(series, AgeGroupSeries{Bracket: bracket, Years: sortedYearTotals(years)})
	}
	return series
}

func sortedYearTotals(byYear map[int]int64) []YearTotal {
	totals := make([]YearTotal, 0, len(byYear))
	for year, total := range byYear {
		totals = append(totals, YearTotal{Year: year, Total: total})
	}
	sort.Slice(totals, func(i, j int) bool { return totals[i].Year < totals[j].Year })
	return totals
}

// withPercentages fills Percent against the sum of all shares and sorts ascending.
// An all-zero total yields no shares.
func withPercentages(shares []Share) []Share {
	var grand int64
	for _, s := range shares {
		grand += s.Total
	}
	if grand == 0 {
		return nil
	}
	for i := range shares {
		shares[i].Percent = percentOf(shares[i].Total, grand)
	}
	sort.Slice(shares, func(i, j int) bool {
		if c := shares[i].Percent.Cmp(shares[j].Percent); c != 0 {
			return c < 0
		}
		return shares[i].Name < shares[j].Name
	})
	return shares
}

func percentOf(part, whole int64) decimal.Decimal {
	if whole == 0 {
		return decimal.Zero
	}
	return decimal.NewFromInt(part).Mul(hundred).Div(decimal.NewFromInt(whole))
}

func percentLabel(p decimal.Decimal) string {
	return fmt.Sprintf("%s%%", p.StringFixed(2))
}
