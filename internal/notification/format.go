package notification

import (
	"fmt"
	"strings"
	"time"
)

// Dash stands in for absent values in rendered text.
const Dash = "-"

// Overdue is the remaining-time text for a deadline already passed.
const Overdue = "Overdue"

var monthNames = [...]string{
	"Januari", "Februari", "Maret", "April", "Mei", "Juni",
	"Juli", "Agustus", "September", "Oktober", "November", "Desember",
}

// FormatDate renders t as "15 Oktober 2026 14:30" in loc (UTC when nil).
func FormatDate(t time.Time, loc *time.Location) string {
	if loc == nil {
		loc = time.UTC
	}
	t = t.In(loc)
	return fmt.Sprintf("%d %s %d %02d:%02d", t.Day(), monthNames[t.Month()-1], t.Year(), t.Hour(), t.Minute())
}

// FormatDuration buckets a non-negative span into days/hours, hours/minutes
// or minutes. Partial units are truncated.
func FormatDuration(d time.Duration) string {
	if d < 0 {
		d = 0
	}
	totalMinutes := int64(d / time.Minute)
	days := totalMinutes / (24 * 60)
	hours := (totalMinutes / 60) % 24
	minutes := totalMinutes % 60

	switch {
	case days > 0:
		return fmt.Sprintf("%d hari %d jam", days, hours)
	case hours > 0:
		return fmt.Sprintf("%d jam %d menit", hours, minutes)
	default:
		return fmt.Sprintf("%d menit", minutes)
	}
}

// FormatRemaining renders the time left until due, or Overdue.
func FormatRemaining(due, now time.Time) string {
	delta := due.Sub(now)
	if delta < 0 {
		return Overdue
	}
	return FormatDuration(delta)
}

// Initials upper-cases the first letter of the first two words of name.
func Initials(name string) string {
	var b strings.Builder
	for i, word := range strings.Fields(name) {
		if i == 2 {
			break
		}
		for _, r := range word {
			b.WriteString(strings.ToUpper(string(r)))
			break
		}
	}
	if b.Len() == 0 {
		return Dash
	}
	return b.String()
}

func orDash(s string) string {
	if strings.TrimSpace(s) == "" {
		return Dash
	}
	return s
}

func optional(s *string) string {
	if s == nil {
		return Dash
	}
	return orDash(*s)
}
