package common

import (
	"fmt"
	"strings"
	"time"

	"gamification-engine/pkg/domain"
)

// BucketTime returns the timestamp a value increment collapses into for the
// given variable group, computed in the user's zone.
//
//   - year:  Jan 1 00:00 of the current year
//   - month: first day 00:00 of the current month
//   - week:  Monday 00:00 of the current ISO week
//   - day:   today 00:00
//   - none:  the current instant (no collapsing)
//
// Period boundaries are computed in local time, not UTC-offset arithmetic,
// so DST transitions keep midnight at actual local midnight.
func BucketTime(now time.Time, loc *time.Location, group domain.VariableGroup) time.Time {
	local := now.In(loc)

	switch group {
	case domain.GroupYear:
		return time.Date(local.Year(), time.January, 1, 0, 0, 0, 0, loc)
	case domain.GroupMonth:
		return time.Date(local.Year(), local.Month(), 1, 0, 0, 0, 0, loc)
	case domain.GroupWeek:
		return startOfISOWeek(local, loc)
	case domain.GroupDay:
		return time.Date(local.Year(), local.Month(), local.Day(), 0, 0, 0, 0, loc)
	default:
		return local
	}
}

// PeriodStart returns the start of the current cadence period in the user's
// zone. The second return value is false for cadences that apply no window
// (immediately, end).
func PeriodStart(now time.Time, loc *time.Location, evaluation domain.Evaluation) (time.Time, bool) {
	switch evaluation {
	case domain.EvalDaily:
		return BucketTime(now, loc, domain.GroupDay), true
	case domain.EvalWeekly:
		return BucketTime(now, loc, domain.GroupWeek), true
	case domain.EvalMonthly:
		return BucketTime(now, loc, domain.GroupMonth), true
	case domain.EvalYearly:
		return BucketTime(now, loc, domain.GroupYear), true
	default:
		return time.Time{}, false
	}
}

func startOfISOWeek(local time.Time, loc *time.Location) time.Time {
	day := time.Date(local.Year(), local.Month(), local.Day(), 0, 0, 0, 0, loc)
	weekday := int(day.Weekday())
	if weekday == 0 {
		weekday = 7 // Sunday
	}
	return day.AddDate(0, 0, -(weekday - 1))
}

// UntilTomorrow returns the duration until the next local midnight.
// Used as the expiry for caches that are valid "for today" in the
// user's timezone, e.g. the per-user achievement listing.
func UntilTomorrow(now time.Time, loc *time.Location) time.Duration {
	local := now.In(loc)
	today := time.Date(local.Year(), local.Month(), local.Day(), 0, 0, 0, 0, loc)
	return today.AddDate(0, 0, 1).Sub(local)
}

// ToChar formats t using a subset of PostgreSQL to_char templates, which is
// what goal definitions use for group_by_dateformat. Supported fields:
//
//	YYYY  year              IYYY  ISO week-numbering year
//	MM    month (01-12)     IW    ISO week (01-53)
//	DD    day of month      ID    ISO day of week (1=Monday..7)
//	DDD   day of year       HH24  hour (00-23)
//	MI    minute            SS    second
//
// Unrecognized characters pass through as literals.
func ToChar(t time.Time, format string) string {
	var sb strings.Builder
	rest := format
	for len(rest) > 0 {
		matched := false
		for _, field := range toCharFields {
			if strings.HasPrefix(rest, field.token) {
				sb.WriteString(field.format(t))
				rest = rest[len(field.token):]
				matched = true
				break
			}
		}
		if !matched {
			sb.WriteByte(rest[0])
			rest = rest[1:]
		}
	}
	return sb.String()
}

// Ordered longest-token-first so IYYY wins over YYYY and HH24 over HH.
var toCharFields = []struct {
	token  string
	format func(time.Time) string
}{
	{"IYYY", func(t time.Time) string { y, _ := t.ISOWeek(); return fmt.Sprintf("%04d", y) }},
	{"YYYY", func(t time.Time) string { return fmt.Sprintf("%04d", t.Year()) }},
	{"HH24", func(t time.Time) string { return fmt.Sprintf("%02d", t.Hour()) }},
	{"DDD", func(t time.Time) string { return fmt.Sprintf("%03d", t.YearDay()) }},
	{"MM", func(t time.Time) string { return fmt.Sprintf("%02d", int(t.Month())) }},
	{"DD", func(t time.Time) string { return fmt.Sprintf("%02d", t.Day()) }},
	{"IW", func(t time.Time) string { _, w := t.ISOWeek(); return fmt.Sprintf("%02d", w) }},
	{"ID", func(t time.Time) string { return fmt.Sprintf("%d", isoWeekday(t)) }},
	{"MI", func(t time.Time) string { return fmt.Sprintf("%02d", t.Minute()) }},
	{"SS", func(t time.Time) string { return fmt.Sprintf("%02d", t.Second()) }},
}

func isoWeekday(t time.Time) int {
	wd := int(t.Weekday())
	if wd == 0 {
		return 7
	}
	return wd
}

// LoadLocation resolves an IANA timezone name, falling back to UTC when the
// name is empty or unknown. User rows may carry zones the host has never
// heard of; evaluation should degrade rather than fail.
func LoadLocation(name string) *time.Location {
	if name == "" {
		return time.UTC
	}
	loc, err := time.LoadLocation(name)
	if err != nil {
		return time.UTC
	}
	return loc
}
