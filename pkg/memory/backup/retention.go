package backup

import (
	"time"

	"capsule-hq/capsule/pkg/memory"
)

// Age-tier boundaries. A snapshot falls into the first tier whose
// window covers its age.
const (
	hourlyWindow  = 24 * time.Hour
	dailyWindow   = 7 * 24 * time.Hour
	weeklyWindow  = 4 * 7 * 24 * time.Hour
	monthlyWindow = 12 * 30 * 24 * time.Hour
)

// Default per-tier retention counts.
const (
	DefaultHourlyKeep  = 24
	DefaultDailyKeep   = 7
	DefaultWeeklyKeep  = 4
	DefaultMonthlyKeep = 12
)

// RetentionPolicy bounds how many snapshots survive a sweep.
//
// In tiered mode, snapshots are bucketed by age (within 1 day, 7 days,
// 4 weeks, 12 months) and each tier keeps only its N newest members.
// Snapshots older than the monthly window are never purged by the
// sweep; long-term archival is deliberate.
//
// With Tiered disabled, the sweep keeps only the KeepTotal newest
// snapshots regardless of age (KeepTotal <= 0 keeps everything).
type RetentionPolicy struct {
	Tiered    bool
	Hourly    int
	Daily     int
	Weekly    int
	Monthly   int
	KeepTotal int
}

// DefaultRetentionPolicy returns the tiered defaults: 24/7/4/12.
func DefaultRetentionPolicy() RetentionPolicy {
	return RetentionPolicy{
		Tiered:  true,
		Hourly:  DefaultHourlyKeep,
		Daily:   DefaultDailyKeep,
		Weekly:  DefaultWeeklyKeep,
		Monthly: DefaultMonthlyKeep,
	}
}

func (p RetentionPolicy) withDefaults() RetentionPolicy {
	if !p.Tiered {
		return p
	}
	if p.Hourly <= 0 {
		p.Hourly = DefaultHourlyKeep
	}
	if p.Daily <= 0 {
		p.Daily = DefaultDailyKeep
	}
	if p.Weekly <= 0 {
		p.Weekly = DefaultWeeklyKeep
	}
	if p.Monthly <= 0 {
		p.Monthly = DefaultMonthlyKeep
	}
	return p
}

// excess returns the snapshots a sweep at time now should delete.
// The input must be sorted newest-first, as Manager.List returns it;
// each tier then trims oldest-first.
func (p RetentionPolicy) excess(snaps []memory.Snapshot, now time.Time) []memory.Snapshot {
	if !p.Tiered {
		if p.KeepTotal <= 0 || len(snaps) <= p.KeepTotal {
			return nil
		}
		return snaps[p.KeepTotal:]
	}

	var hourly, daily, weekly, monthly []memory.Snapshot
	for _, s := range snaps {
		age := now.Sub(s.ModTime)
		switch {
		case age < hourlyWindow:
			hourly = append(hourly, s)
		case age < dailyWindow:
			daily = append(daily, s)
		case age < weeklyWindow:
			weekly = append(weekly, s)
		case age < monthlyWindow:
			monthly = append(monthly, s)
		}
		// Older than the monthly window: left untouched.
	}

	var victims []memory.Snapshot
	victims = append(victims, trim(hourly, p.Hourly)...)
	victims = append(victims, trim(daily, p.Daily)...)
	victims = append(victims, trim(weekly, p.Weekly)...)
	victims = append(victims, trim(monthly, p.Monthly)...)
	return victims
}

func trim(tier []memory.Snapshot, keep int) []memory.Snapshot {
	if keep < 0 {
		keep = 0
	}
	if len(tier) <= keep {
		return nil
	}
	return tier[keep:]
}
