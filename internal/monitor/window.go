package monitor

import (
	"fmt"
	"time"

	"github.com/cockroachdb/errors"

	"github.com/L1bertine/football-statbot/internal/config"
)

// Gate restricts polling to a daily time-of-day window in a fixed location.
// Both ends are inclusive at minute resolution. A start later than the end
// wraps past midnight.
type Gate struct {
	start int // minutes after midnight
	end   int
	loc   *time.Location
}

// NewGate parses "HH:MM" bounds and an IANA timezone name.
func NewGate(start, end, timezone string) (*Gate, error) {
	s, err := config.ParseClock(start)
	if err != nil {
		return nil, errors.Wrap(err, "window start")
	}
	e, err := config.ParseClock(end)
	if err != nil {
		return nil, errors.Wrap(err, "window end")
	}
	loc, err := time.LoadLocation(timezone)
	if err != nil {
		return nil, errors.Wrap(err, "window timezone")
	}
	return &Gate{start: s, end: e, loc: loc}, nil
}

// IsActive reports whether now falls inside the window.
func (g *Gate) IsActive(now time.Time) bool {
	local := now.In(g.loc)
	minute := local.Hour()*60 + local.Minute()
	if g.start <= g.end {
		return minute >= g.start && minute <= g.end
	}
	return minute >= g.start || minute <= g.end
}

func (g *Gate) String() string {
	return fmt.Sprintf("%02d:%02d-%02d:%02d %s", g.start/60, g.start%60, g.end/60, g.end%60, g.loc)
}
