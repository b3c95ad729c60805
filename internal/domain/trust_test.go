package domain

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func entry(confidence float64, verified bool, occurredAt time.Time) TrustEntry {
	return TrustEntry{Confidence: confidence, Verified: verified, OccurredAt: occurredAt}
}

func TestComputeTrustScore(t *testing.T) {
	base := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	day := 24 * time.Hour

	tests := []struct {
		name    string
		history TrustHistory
		want    int
	}{
		{
			name:    "empty history",
			history: nil,
			want:    0,
		},
		{
			name: "no verified entries",
			history: TrustHistory{
				entry(0.9, false, base),
				entry(0.8, false, base.Add(day)),
			},
			want: 0,
		},
		{
			// base = mean(90, 80, 85) = 85, quantity = 6, span 100d = 10,
			// 101 clamps to 100.
			name: "three verified entries over a hundred days clamp at 100",
			history: TrustHistory{
				entry(0.9, true, base),
				entry(0.8, true, base.Add(40*day)),
				entry(0.85, true, base.Add(100*day)),
			},
			want: 100,
		},
		{
			// base = 90, quantity = 2, no consistency with one entry.
			name:    "single verified entry",
			history: TrustHistory{entry(0.9, true, base)},
			want:    92,
		},
		{
			// base = 85, quantity = 4, span 10d = 5.
			name: "two verified entries ten days apart",
			history: TrustHistory{
				entry(0.9, true, base),
				entry(0.8, true, base.Add(10*day)),
			},
			want: 94,
		},
		{
			// base = 85, quantity = 4, span 40d = 7.
			name: "two verified entries forty days apart",
			history: TrustHistory{
				entry(0.9, true, base),
				entry(0.8, true, base.Add(40*day)),
			},
			want: 96,
		},
		{
			// base = 85, quantity = 4, span 2d = 2.
			name: "two verified entries two days apart",
			history: TrustHistory{
				entry(0.9, true, base),
				entry(0.8, true, base.Add(2*day)),
			},
			want: 91,
		},
		{
			// Same timestamp: span 0 earns no consistency bonus.
			name: "two verified entries same day",
			history: TrustHistory{
				entry(0.9, true, base),
				entry(0.8, true, base),
			},
			want: 89,
		},
		{
			// Unverified entries contribute nothing to base or span.
			name: "unverified entries are ignored",
			history: TrustHistory{
				entry(0.2, false, base.Add(-400*day)),
				entry(0.9, true, base),
				entry(0.1, false, base.Add(200*day)),
			},
			want: 92,
		},
		{
			// Quantity bonus caps at 20 even with many entries.
			name: "quantity bonus caps",
			history: func() TrustHistory {
				var h TrustHistory
				for i := 0; i < 15; i++ {
					h = append(h, entry(0.75, true, base.Add(time.Duration(i)*day)))
				}
				return h
			}(),
			want: 100, // 75 + 20 + 5 = 100
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, ComputeTrustScore(tc.history))
		})
	}
}

func TestComputeTrustScoreIsPure(t *testing.T) {
	base := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	history := TrustHistory{
		entry(0.9, true, base.Add(48 * time.Hour)),
		entry(0.8, true, base),
	}

	first := ComputeTrustScore(history)
	second := ComputeTrustScore(history)
	assert.Equal(t, first, second)

	// History order must not matter, and the input must not be mutated.
	assert.Equal(t, base.Add(48*time.Hour), history[0].OccurredAt)
	reversed := TrustHistory{history[1], history[0]}
	assert.Equal(t, first, ComputeTrustScore(reversed))
}
