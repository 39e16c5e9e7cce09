package models

import "time"

// Dataset names, used as keys for freshness, logging and the source version log.
const (
	DatasetDonationsFacility = "donations_facility"
	DatasetDonationsState    = "donations_state"
	DatasetNewDonorsFacility = "newdonors_facility"
	DatasetNewDonorsState    = "newdonors_state"
	DatasetDonationEvents    = "donation_events"
)

// Snapshot is the immutable set of normalized datasets used for one report cycle.
// It is built once by the data service and only ever replaced as a whole.
type Snapshot struct {
	FacilityDonations []FacilityDonation
	StateDonations    []StateDonation
	FacilityNewDonors []FacilityNewDonors
	StateNewDonors    []StateNewDonors
	DonationEvents    []DonationEvent

	LoadedAt    time.Time
	LastUpdated map[string]time.Time
}

// DatasetInfo summarises one dataset of a snapshot for the admin API.
type DatasetInfo struct {
	Name        string    `json:"name"`
	Rows        int       `json:"rows"`
	LastUpdated time.Time `json:"last_updated"`
}

// Datasets lists row counts and freshness in a fixed order.
func (s *Snapshot) Datasets() []DatasetInfo {
	rows := map[string]int{
		DatasetDonationsFacility: len(s.FacilityDonations),
		DatasetDonationsState:    len(s.StateDonations),
		DatasetNewDonorsFacility: len(s.FacilityNewDonors),
		DatasetNewDonorsState:    len(s.StateNewDonors),
		DatasetDonationEvents:    len(s.DonationEvents),
	}
	names := []string{
		DatasetDonationsFacility,
		DatasetDonationsState,
		DatasetNewDonorsFacility,
		DatasetNewDonorsState,
		DatasetDonationEvents,
	}

	infos := make([]DatasetInfo, 0, len(names))
	for _, name := range names {
		infos = append(infos, DatasetInfo{Name: name, Rows: rows[name], LastUpdated: s.LastUpdated[name]})
	}
	return infos
}

// Latest returns the newest data date across all datasets.
func (s *Snapshot) Latest() time.Time {
	var latest time.Time
	for _, t := range s.LastUpdated {
		if t.After(latest) {
			latest = t
		}
	}
	return latest
}
