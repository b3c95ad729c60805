package domain

import (
	"math"
	"sort"
	"time"
)

// Trust score bonus parameters.
const (
	// trustQuantityPerEntry is how many points each verified experience
	// contributes to the quantity bonus.
	trustQuantityPerEntry = 2

	// trustQuantityCap caps the quantity bonus.
	trustQuantityCap = 20
)

// TrustEntry is one past verification outcome drawn from a prior
// Verdict. The trust engine treats history as a read-only snapshot.
type TrustEntry struct {
	// Confidence is the verdict's overall confidence in [0, 1].
	Confidence float64 `json:"confidence"`

	// Verified reports whether the verdict verified the claim.
	Verified bool `json:"verified"`

	// OccurredAt is when the experience was verified.
	OccurredAt time.Time `json:"occurred_at"`
}

// TrustHistory is a user's ordered sequence of past verification
// outcomes. It is never mutated by the engine.
type TrustHistory []TrustEntry

// ComputeTrustScore derives a 0-100 trust score from a user's history of
// verified experiences. The score combines the mean confidence of
// verified entries, a quantity bonus, and a time-spread consistency
// bonus, clamped to 100 and rounded to the nearest integer. The function
// is pure: the same history always yields the same score.
func ComputeTrustScore(history TrustHistory) int {
	var sum float64
	var verified int
	for _, entry := range history {
		if entry.Verified {
			sum += entry.Confidence * 100
			verified++
		}
	}
	if verified == 0 {
		return 0
	}

	base := sum / float64(verified)

	quantityBonus := float64(verified * trustQuantityPerEntry)
	if quantityBonus > trustQuantityCap {
		quantityBonus = trustQuantityCap
	}

	score := base + quantityBonus + consistencyBonus(history)
	if score > 100 {
		score = 100
	}
	return int(math.Round(score))
}

// consistencyBonus rewards verified activity spread over longer periods.
// The span is measured in days between the first and last verified
// entries; fewer than two verified entries earn no bonus.
func consistencyBonus(history TrustHistory) float64 {
	times := make([]time.Time, 0, len(history))
	for _, entry := range history {
		if entry.Verified {
			times = append(times, entry.OccurredAt)
		}
	}
	if len(times) < 2 {
		return 0
	}

	sort.Slice(times, func(i, j int) bool { return times[i].Before(times[j]) })
	span := times[len(times)-1].Sub(times[0]).Hours() / 24

	switch {
	case span > 90:
		return 10
	case span > 30:
		return 7
	case span > 7:
		return 5
	case span > 0:
		return 2
	default:
		return 0
	}
}
