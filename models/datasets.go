package models

import "time"

// NationalState is the synthetic state name the MoH datasets use for the national total.
const NationalState = "Malaysia"

// AgeBrackets is the closed set of new-donor age columns, in chart order.
var AgeBrackets = []string{"17-24", "25-29", "30-34", "35-39", "40-44", "45-49", "50-54", "55-59", "60-64", "other"}

// FacilityDonationRow is one line of donations_facility.csv.
// Only the columns the reports need are mapped; csvutil ignores the rest.
// Counts stay text until the normalizer parses them, so a bad cell is a row error.
type FacilityDonationRow struct {
	Date     string `csv:"date"`
	Hospital string `csv:"hospital"`
	Daily    string `csv:"daily"`
}

// StateDonationRow is one line of donations_state.csv.
type StateDonationRow struct {
	Date  string `csv:"date"`
	State string `csv:"state"`
	Daily string `csv:"daily"`
}

// AgeBracketCells holds the raw per-bracket columns shared by both new-donor CSVs.
type AgeBracketCells struct {
	Age17To24 string `csv:"17-24"`
	Age25To29 string `csv:"25-29"`
	Age30To34 string `csv:"30-34"`
	Age35To39 string `csv:"35-39"`
	Age40To44 string `csv:"40-44"`
	Age45To49 string `csv:"45-49"`
	Age50To54 string `csv:"50-54"`
	Age55To59 string `csv:"55-59"`
	Age60To64 string `csv:"60-64"`
	Other     string `csv:"other"`
}

// Cells returns the raw values in AgeBrackets order.
func (c AgeBracketCells) Cells() []string {
	return []string{c.Age17To24, c.Age25To29, c.Age30To34, c.Age35To39, c.Age40To44,
		c.Age45To49, c.Age50To54, c.Age55To59, c.Age60To64, c.Other}
}

// AgeBracketCounts is the parsed form of AgeBracketCells.
type AgeBracketCounts struct {
	Age17To24 int64
	Age25To29 int64
	Age30To34 int64
	Age35To39 int64
	Age40To44 int64
	Age45To49 int64
	Age50To54 int64
	Age55To59 int64
	Age60To64 int64
	Other     int64
}

// Slots returns pointers to the counts in AgeBrackets order.
func (c *AgeBracketCounts) Slots() []*int64 {
	return []*int64{&c.Age17To24, &c.Age25To29, &c.Age30To34, &c.Age35To39, &c.Age40To44,
		&c.Age45To49, &c.Age50To54, &c.Age55To59, &c.Age60To64, &c.Other}
}

// ByBracket returns the count for one of AgeBrackets. Unknown labels return 0, false.
func (c AgeBracketCounts) ByBracket(bracket string) (int64, bool) {
	switch bracket {
	case "17-24":
		return c.Age17To24, true
	case "25-29":
		return c.Age25To29, true
	case "30-34":
		return c.Age30To34, true
	case "35-39":
		return c.Age35To39, true
	case "40-44":
		return c.Age40To44, true
	case "45-49":
		return c.Age45To49, true
	case "50-54":
		return c.Age50To54, true
	case "55-59":
		return c.Age55To59, true
	case "60-64":
		return c.Age60To64, true
	case "other":
		return c.Other, true
	}
	return 0, false
}

// FacilityNewDonorsRow is one line of newdonors_facility.csv.
type FacilityNewDonorsRow struct {
	Date     string `csv:"date"`
	Hospital string `csv:"hospital"`
	AgeBracketCells
}

// StateNewDonorsRow is one line of newdonors_state.csv.
type StateNewDonorsRow struct {
	Date  string `csv:"date"`
	State string `csv:"state"`
	AgeBracketCells
}

// DonationEventRow is one visit from the granular parquet file.
// The parquet reader renders typed columns as text; the normalizer parses them.
type DonationEventRow struct {
	DonorID   string `parquet:"donor_id,optional"`
	VisitDate string `parquet:"visit_date,optional"`
	BirthDate string `parquet:"birth_date,optional"`
}

// Normalized records. Every one carries a parsed date and its calendar year.

type FacilityDonation struct {
	Hospital string
	Date     time.Time
	Year     int
	Daily    int64
}

type StateDonation struct {
	State string
	Date  time.Time
	Year  int
	Daily int64
}

type FacilityNewDonors struct {
	Hospital string
	Date     time.Time
	Year     int
	Counts   AgeBracketCounts
}

type StateNewDonors struct {
	State  string
	Date   time.Time
	Year   int
	Counts AgeBracketCounts
}

// DonationEvent keeps only the birth year; month and day are dropped on purpose.
type DonationEvent struct {
	DonorID   string
	VisitDate time.Time
	Year      int
	BirthYear int
}
