// Package types contains common types used across the application
package types

import "github.com/loggers/logbook/internal/domain/model"

// PilotStats is the finalized per-pilot record for one mission.
type PilotStats struct {
	Identity string `json:"identity"`
	Mission  string `json:"mission"`
	Date     string `json:"date"`
	Platform string `json:"platform"`
	Aircraft string `json:"aircraft"`

	AirKills      int `json:"aa_kills"`
	GroundKills   int `json:"ag_kills"`
	FriendlyKills int `json:"frat_kills"`
	TotalKills    int `json:"total_kills"`
	RTB           int `json:"rtb"`
	Ejections     int `json:"ejections"`
	Deaths        int `json:"deaths"`
	KIA           int `json:"kia"`
	Sorties       int `json:"sorties"`

	FlightMinutes int    `json:"flight_minutes"`
	FlightHours   string `json:"flight_hours"` // H:MM
	KDRatio       string `json:"kd_ratio"`

	Aliases []string `json:"aliases"`
}

// Summary holds running career totals and per-mission averages.
type Summary struct {
	LogsFlown     int `json:"logs_flown"`
	AirKills      int `json:"aa_kills"`
	GroundKills   int `json:"ag_kills"`
	FriendlyKills int `json:"frat_kills"`
	TotalKills    int `json:"total_kills"`
	RTB           int `json:"rtb"`
	Ejections     int `json:"ejections"`
	Deaths        int `json:"deaths"`
	KIA           int `json:"kia"`

	AirAvg       float64 `json:"aa_avg"`
	GroundAvg    float64 `json:"ag_avg"`
	FriendlyAvg  float64 `json:"frat_avg"`
	RTBAvg       float64 `json:"rtb_avg"`
	EjectionsAvg float64 `json:"ejections_avg"`
	DeathsAvg    float64 `json:"deaths_avg"`
	KIAAvg       float64 `json:"kia_avg"`
}

// Profile is a pilot's career across processed missions.
type Profile struct {
	Callsign  string   `json:"callsign"`
	Nicknames []string `json:"nicknames"`

	// Minutes flown per platform, plus a "Total" key.
	PlatformMinutes map[string]int `json:"platform_hours"`
	// Minutes flown per aircraft.
	AircraftMinutes map[string]int `json:"aircraft_hours"`

	Summary  Summary      `json:"mission_summary"`
	Missions []PilotStats `json:"missions"`
}

// Entry represents a leaderboard entry
type Entry struct {
	Rank          int    `json:"rank"`
	Identity      string `json:"identity"`
	TotalKills    int    `json:"total_kills"`
	AirKills      int    `json:"aa_kills"`
	GroundKills   int    `json:"ag_kills"`
	LogsFlown     int    `json:"logs_flown"`
	FlightMinutes int    `json:"flight_minutes"`
}

// Result is the outcome of one pipeline invocation.
type Result struct {
	RunID       string                `json:"run_id"`
	File        string                `json:"file,omitempty"`
	Mission     model.MissionMeta     `json:"mission"`
	Fingerprint string                `json:"fingerprint"`
	Duplicate   bool                  `json:"duplicate"`
	Pilots      map[string]PilotStats `json:"pilots"`
	Skipped     int                   `json:"skipped_events"`
	Degraded    []string              `json:"degraded,omitempty"`
}
