package simulator

import (
	"math"
	"time"
)

// generateNormalizedRating draws from a normal distribution and clamps to [min, max].
func (s *Simulator) generateNormalizedRating(mean, std, min, max float64) float64 {
	// Box-Muller transform for normal distribution
	u1 := s.Rng.Float64()
	u2 := s.Rng.Float64()
	z := math.Sqrt(-2*math.Log(u1)) * math.Cos(2*math.Pi*u2)

	rating := mean + z*std
	return math.Max(min, math.Min(max, rating))
}

// rating turns a continuous draw into a 1 to 5 star score.
func (s *Simulator) rating(mean float64) int {
	return int(math.Round(s.generateNormalizedRating(mean, 0.9, 1, 5)))
}

// ordersForDay is the day's expected order count with some noise.
func (s *Simulator) ordersForDay(day time.Time) int {
	expected := s.Config.OrdersPerDay * weekdayMultiplier(day.Weekday()) * seasonalFactor(day)
	n := s.generateNormalizedRating(expected, math.Sqrt(math.Max(expected, 1)), 0, expected*3)
	return int(math.Round(n))
}

// orderTime picks a minute within opening hours, weighted by hourWeight.
func (s *Simulator) orderTime(day time.Time) time.Time {
	openHour, closeHour := s.Config.OpeningHour, s.Config.ClosingHour
	total := 0.0
	for h := openHour; h < closeHour; h++ {
		total += hourWeight(h)
	}
	r := s.Rng.Float64() * total
	hour := closeHour - 1
	for h := openHour; h < closeHour; h++ {
		r -= hourWeight(h)
		if r < 0 {
			hour = h
			break
		}
	}
	return day.Add(time.Duration(hour)*time.Hour + time.Duration(s.Rng.Intn(3600))*time.Second)
}

// serviceMean lowers the expected service rating when the customer waited long.
func serviceMean(wait time.Duration) float64 {
	switch {
	case wait > 20*time.Minute:
		return 2.8
	case wait > 10*time.Minute:
		return 3.6
	}
	return 4.4
}
