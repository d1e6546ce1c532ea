// Package finalize turns interpreter accumulators into output records.
package finalize

import (
	"fmt"
	"math"

	"github.com/loggers/logbook/internal/domain/interpret"
	"github.com/loggers/logbook/internal/domain/model"
	"github.com/loggers/logbook/internal/domain/types"
)

// Kill/death ratio sentinels.
const (
	KDNotApplicable = "N/A" // no kills and no deaths
	KDInfinite      = "∞"   // kills without deaths
)

// sortiesPerMission is credited to every pilot appearing in a mission.
const sortiesPerMission = 1

// Finalize derives output records for every pilot in tally. flightSeconds
// holds estimated airborne time per identity; identities without an entry
// fall back to the mission duration. Pilots with no activity and no flight
// time are dropped.
func Finalize(meta model.MissionMeta, tally *interpret.Tally, flightSeconds map[string]float64) map[string]types.PilotStats {
	out := make(map[string]types.PilotStats)
	if tally == nil {
		return out
	}

	for _, id := range tally.Order {
		acc, ok := tally.Get(id)
		if !ok {
			continue
		}

		seconds, ok := flightSeconds[id]
		if !ok {
			seconds = float64(meta.DurationSeconds)
		}
		minutes := Minutes(seconds)

		if acc.Activity() <= 0 && minutes == 0 {
			continue
		}

		air, ground := nonNegative(acc.AirKills), nonNegative(acc.GroundKills)
		deaths := nonNegative(acc.Deaths)
		total := air + ground

		aircraft := acc.Aircraft
		if aircraft == "" {
			aircraft = model.UnknownLabel
		}

		out[id] = types.PilotStats{
			Identity:      id,
			Mission:       meta.Name,
			Date:          meta.Date,
			Platform:      meta.Platform,
			Aircraft:      aircraft,
			AirKills:      air,
			GroundKills:   ground,
			FriendlyKills: nonNegative(acc.FriendlyKills),
			TotalKills:    total,
			RTB:           nonNegative(acc.Landings),
			Ejections:     nonNegative(acc.Ejections),
			Deaths:        deaths,
			KIA:           nonNegative(acc.KIA),
			Sorties:       sortiesPerMission,
			FlightMinutes: minutes,
			FlightHours:   FormatHours(minutes),
			KDRatio:       KDRatio(total, deaths),
			Aliases:       append([]string{}, acc.Aliases...),
		}
	}
	return out
}

// KDRatio formats kills/deaths.
func KDRatio(kills, deaths int) string {
	if deaths <= 0 {
		if kills > 0 {
			return KDInfinite
		}
		return KDNotApplicable
	}
	return fmt.Sprintf("%.2f", float64(kills)/float64(deaths))
}

// Minutes converts seconds to whole minutes. Negative or non-finite input
// yields 0.
func Minutes(seconds float64) int {
	if math.IsNaN(seconds) || math.IsInf(seconds, 0) || seconds <= 0 {
		return 0
	}
	return int(seconds / 60)
}

// FormatHours renders minutes as H:MM.
func FormatHours(minutes int) string {
	minutes = nonNegative(minutes)
	return fmt.Sprintf("%d:%02d", minutes/60, minutes%60)
}

func nonNegative(v int) int {
	if v < 0 {
		return 0
	}
	return v
}
