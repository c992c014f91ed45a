// Package sla derives service-level-agreement state from a ticket's stored
// update timestamp. Computation is a pure function of (updated, now): no
// hidden state, and the fixed source timezone makes it independent of the
// server's locale.
package sla

import (
	"fmt"
	"time"
)

// TimestampLayout is the civil format the external feed emits and the API
// echoes for deadlines.
const TimestampLayout = "2006-01-02 15:04:05"

// Window is the fixed SLA budget measured from a ticket's update timestamp.
const Window = 2 * time.Hour

// CriticalThreshold is the remaining time under which an unbreached ticket
// is tiered Critical.
const CriticalThreshold = time.Hour

// SourceZone is the fixed offset the feed's civil timestamps are interpreted
// in (UTC+5:30).
var SourceZone = time.FixedZone("UTC+05:30", 5*3600+30*60)

// Tier is the derived severity classification.
type Tier string

const (
	TierNormal   Tier = "Normal"
	TierCritical Tier = "Critical"
	TierBreached Tier = "Breached"

	// TierUnknown marks tickets whose update timestamp did not parse. They
	// are excluded from tier tallies instead of failing the read.
	TierUnknown Tier = "Unknown"
)

// Snapshot is the per-read SLA state. It is derived, never persisted.
type Snapshot struct {
	Deadline     time.Time
	DeadlineText string
	Remaining    time.Duration
	Countdown    string
	Breached     bool
	Tier         Tier
}

// ParseSourceTime parses a feed timestamp string in the source zone.
func ParseSourceTime(s string) (time.Time, error) {
	return time.ParseInLocation(TimestampLayout, s, SourceZone)
}

// FormatSourceTime renders an instant as a feed-style civil timestamp.
func FormatSourceTime(t time.Time) string {
	return t.In(SourceZone).Format(TimestampLayout)
}

// Compute derives the SLA snapshot for a ticket updated at the given source
// timestamp, evaluated at now.
func Compute(updated string, now time.Time) Snapshot {
	parsed, err := ParseSourceTime(updated)
	if err != nil {
		return Snapshot{Countdown: "00:00:00", Tier: TierUnknown}
	}

	deadline := parsed.Add(Window)
	remaining := deadline.Sub(now)

	snap := Snapshot{
		Deadline:     deadline,
		DeadlineText: FormatSourceTime(deadline),
	}

	switch {
	case remaining <= 0:
		snap.Remaining = 0
		snap.Countdown = "00:00:00"
		snap.Breached = true
		snap.Tier = TierBreached
	case remaining < CriticalThreshold:
		snap.Remaining = remaining
		snap.Countdown = formatCountdown(remaining)
		snap.Tier = TierCritical
	default:
		snap.Remaining = remaining
		snap.Countdown = formatCountdown(remaining)
		snap.Tier = TierNormal
	}
	return snap
}

func formatCountdown(d time.Duration) string {
	total := int64(d / time.Second)
	return fmt.Sprintf("%02d:%02d:%02d", total/3600, (total%3600)/60, total%60)
}

// TierCounts aggregates snapshot tiers for response metrics.
type TierCounts struct {
	Normal   int
	Critical int
	Breached int
}

// TallyTiers counts snapshots per tier. Unknown snapshots are skipped.
func TallyTiers(snaps []Snapshot) TierCounts {
	var counts TierCounts
	for _, snap := range snaps {
		switch snap.Tier {
		case TierNormal:
			counts.Normal++
		case TierCritical:
			counts.Critical++
		case TierBreached:
			counts.Breached++
		}
	}
	return counts
}
