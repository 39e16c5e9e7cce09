package models

import "time"

// ErrorResponse is the JSON body of every failed admin API call.
type ErrorResponse struct {
	Message string `json:"message"`
	Code    int    `json:"code"`
}

type HealthResponse struct {
	Status   string    `json:"status"` // "ok" or "degraded"
	Snapshot bool      `json:"snapshot_loaded"`
	LoadedAt time.Time `json:"loaded_at,omitempty"`
	Database string    `json:"database,omitempty"` // "ok", "error" or empty when disabled
}

type DatasetsResponse struct {
	LoadedAt time.Time     `json:"loaded_at"`
	Datasets []DatasetInfo `json:"datasets"`
}

type RefreshResponse struct {
	Message  string    `json:"message"`
	Updated  bool      `json:"updated"`
	LoadedAt time.Time `json:"loaded_at,omitempty"`
}

// ReportResponse is the JSON form of a rendered report, without the image.
type ReportResponse struct {
	Name        string `json:"name"`
	Filename    string `json:"filename"`
	Freshness   string `json:"freshness"`
	Explanation string `json:"explanation"`
	Data        any    `json:"data"`
}
