package competitionservice

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/olebedev/when"
	"github.com/olebedev/when/rules/common"
	"github.com/olebedev/when/rules/en"
	"github.com/olebedev/when/rules/ru"
)

var ErrUnparsableDate = errors.New("could not recognise date")

var dateLayouts = []string{
	time.DateOnly,
	"02.01.2006",
	"2.1.2006",
}

// DateParser turns operator input such as "2026-10-15", "15.10.2026",
// "next friday" or "через 2 недели" into a calendar date.
type DateParser struct {
	w *when.Parser
}

func NewDateParser() *DateParser {
	w := when.New(nil)
	w.Add(en.All...)
	w.Add(ru.All...)
	w.Add(common.All...)
	return &DateParser{w: w}
}

// ParseDate resolves input relative to now in loc and returns the date at
// UTC midnight.
func (p *DateParser) ParseDate(input string, now time.Time, loc *time.Location) (time.Time, error) {
	input = strings.TrimSpace(input)
	if input == "" {
		return time.Time{}, ErrUnparsableDate
	}

	for _, layout := range dateLayouts {
		if t, err := time.ParseInLocation(layout, input, loc); err == nil {
			return dateOnly(t), nil
		}
	}

	r, err := p.w.Parse(strings.ToLower(input), now.In(loc))
	if err != nil {
		return time.Time{}, fmt.Errorf("%w %q: %v", ErrUnparsableDate, input, err)
	}
	if r == nil {
		return time.Time{}, fmt.Errorf("%w %q", ErrUnparsableDate, input)
	}
	return dateOnly(r.Time.In(loc)), nil
}

// dateOnly keeps the calendar date of t, as seen in t's own location.
func dateOnly(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
