package yield

import (
	"fmt"
	"time"
)

// Countdown is a non-negative time difference split into whole units.
type Countdown struct {
	Days    int64 `json:"days"`
	Hours   int64 `json:"hours"`
	Minutes int64 `json:"minutes"`
	Seconds int64 `json:"seconds"`
}

// TimeDifference splits future - past into days, hours, minutes and seconds.
// A past future clamps to zero.
func TimeDifference(future, past time.Time) Countdown {
	diff := future.Sub(past)
	if diff < 0 {
		return Countdown{}
	}
	day := 24 * time.Hour
	return Countdown{
		Days:    int64(diff / day),
		Hours:   int64(diff % day / time.Hour),
		Minutes: int64(diff % time.Hour / time.Minute),
		Seconds: int64(diff % time.Minute / time.Second),
	}
}

// DaysBetween is the number of whole days from past to future.
func DaysBetween(future, past time.Time) int64 {
	return TimeDifference(future, past).Days
}

func (c Countdown) String() string {
	return fmt.Sprintf("%dd %dh %dm %ds", c.Days, c.Hours, c.Minutes, c.Seconds)
}
