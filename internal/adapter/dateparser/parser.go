// Package dateparser interprets the date text shown on article pages, which
// is either relative ("2 hours ago") or an absolute date.
package dateparser

import (
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/araddon/dateparse"
)

var relativePattern = regexp.MustCompile(`^(?:about\s+)?(\d+|an?|one)\s+(second|sec|minute|min|hour|hr|day|week|month|year)s?\s+ago$`)

// Parser implements repository.DateParser.
type Parser struct {
	loc *time.Location
	now func() time.Time
}

// New returns a parser resolving text in loc against the wall clock.
func New(loc *time.Location) *Parser {
	return NewWithClock(loc, time.Now)
}

// NewWithClock is New with an explicit clock for relative expressions.
func NewWithClock(loc *time.Location, now func() time.Time) *Parser {
	if loc == nil {
		loc = time.UTC
	}
	return &Parser{loc: loc, now: now}
}

// ParseApproximate returns the instant described by text.
func (p *Parser) ParseApproximate(text string) (time.Time, bool) {
	s := strings.ToLower(strings.Join(strings.Fields(text), " "))
	if s == "" {
		return time.Time{}, false
	}

	now := p.now().In(p.loc)
	switch s {
	case "now", "just now":
		return now, true
	case "today":
		return midnight(now), true
	case "yesterday":
		return midnight(now).AddDate(0, 0, -1), true
	}

	if m := relativePattern.FindStringSubmatch(s); m != nil {
		n := 1
		if v, err := strconv.Atoi(m[1]); err == nil {
			n = v
		}
		return shift(now, n, m[2]), true
	}

	t, err := dateparse.ParseIn(strings.TrimSpace(text), p.loc)
	if err != nil {
		return time.Time{}, false
	}
	return t, true
}

func shift(now time.Time, n int, unit string) time.Time {
	switch unit {
	case "second", "sec":
		return now.Add(-time.Duration(n) * time.Second)
	case "minute", "min":
		return now.Add(-time.Duration(n) * time.Minute)
	case "hour", "hr":
		return now.Add(-time.Duration(n) * time.Hour)
	case "day":
		return now.AddDate(0, 0, -n)
	case "week":
		return now.AddDate(0, 0, -7*n)
	case "month":
		return now.AddDate(0, -n, 0)
	default:
		return now.AddDate(-n, 0, 0)
	}
}

func midnight(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}
