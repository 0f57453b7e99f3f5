package rating

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMiddleStarWithoutRatingsIsNil(t *testing.T) {
	var a Aggregate
	assert.Nil(t, a.MiddleStar())
	assert.Zero(t, a.RatingUser())
}

func TestMiddleStarIsArithmeticMean(t *testing.T) {
	tests := []struct {
		name     string
		stars    []int
		expected float64
	}{
		{name: "single", stars: []int{7}, expected: 7},
		{name: "two ratings", stars: []int{3, 5}, expected: 4},
		{name: "non integer mean", stars: []int{1, 2}, expected: 1.5},
		{name: "many", stars: []int{10, 9, 1, 4, 6, 2}, expected: 32.0 / 6.0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var a Aggregate
			for _, s := range tt.stars {
				a.Add(s, false)
			}
			got := a.MiddleStar()
			require.NotNil(t, got)
			assert.InDelta(t, tt.expected, *got, 1e-9)
		})
	}
}

func TestRatingUserCountsOwnRatings(t *testing.T) {
	var a Aggregate
	a.Add(3, true)
	a.Add(5, false)

	assert.Equal(t, int64(1), a.RatingUser())
	assert.Equal(t, int64(2), a.Count)
	assert.InDelta(t, 4.0, *a.MiddleStar(), 1e-9)
}
