package simulator

import (
	"math"
	"time"
)

type OrderPattern struct {
	Type            string
	TimeMultipliers map[int]float64
}

var (
	DefaultOrderPatterns = []OrderPattern{
		{
			Type: "morning_rush",
			TimeMultipliers: map[int]float64{
				7:  1.5,
				8:  2.5,
				9:  2.0,
				10: 1.2,
			},
		},
		{
			Type: "afternoon_slump",
			TimeMultipliers: map[int]float64{
				14: 1.3,
				15: 1.6,
				16: 1.2,
			},
		},
	}

	WeekdayMultipliers = map[time.Weekday]float64{
		time.Monday:   1.1,
		time.Friday:   1.2,
		time.Saturday: 0.9,
		time.Sunday:   0.8,
	}
)

// hourWeight is how busy an opening hour is relative to a quiet one.
func hourWeight(hour int) float64 {
	w := 1.0
	for _, p := range DefaultOrderPatterns {
		if m, ok := p.TimeMultipliers[hour]; ok {
			w = math.Max(w, m)
		}
	}
	return w
}

func weekdayMultiplier(day time.Weekday) float64 {
	if m, ok := WeekdayMultipliers[day]; ok {
		return m
	}
	return 1.0
}

// seasonalFactor adds a gentle yearly swing, busier in the colder months.
func seasonalFactor(t time.Time) float64 {
	dayOfYear := float64(t.YearDay())
	return 1.0 + 0.1*math.Cos(2*math.Pi*dayOfYear/365.0)
}
