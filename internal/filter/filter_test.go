package filter

import (
	"net/url"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func intPtr(v int) *int { return &v }

func TestParse(t *testing.T) {
	tests := []struct {
		name     string
		query    string
		expected MovieFilter
	}{
		{name: "empty", query: "", expected: MovieFilter{}},
		{name: "comma joined genres", query: "genres=Action,Drama", expected: MovieFilter{Genres: []string{"Action", "Drama"}}},
		{name: "repeated genres", query: "genres=Action&genres=Drama", expected: MovieFilter{Genres: []string{"Action", "Drama"}}},
		{name: "mixed and duplicated genres", query: "genres=Action,,Drama&genres=Action", expected: MovieFilter{Genres: []string{"Action", "Drama"}}},
		{name: "both year bounds", query: "year_min=1990&year_max=2000", expected: MovieFilter{YearMin: intPtr(1990), YearMax: intPtr(2000)}},
		{name: "only upper bound", query: "year_max=2000", expected: MovieFilter{YearMax: intPtr(2000)}},
		{name: "blank year ignored", query: "year_min=", expected: MovieFilter{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			q, err := url.ParseQuery(tt.query)
			require.NoError(t, err)

			f, err := Parse(q)
			require.NoError(t, err)
			assert.Equal(t, tt.expected, f)
		})
	}
}

func TestParseInvalidYear(t *testing.T) {
	for _, query := range []string{"year_min=abc", "year_max=20x0", "year_min=1999.5"} {
		q, err := url.ParseQuery(query)
		require.NoError(t, err)

		_, err = Parse(q)
		assert.ErrorIs(t, err, ErrInvalidYear, query)
	}
}

func TestMatch(t *testing.T) {
	f := MovieFilter{Genres: []string{"Action", "Drama"}, YearMin: intPtr(2000), YearMax: intPtr(2010)}

	assert.True(t, f.Match(2005, []string{"Comedy", "Drama"}))
	assert.True(t, f.Match(2000, []string{"Action"}), "lower bound is inclusive")
	assert.True(t, f.Match(2010, []string{"Action"}), "upper bound is inclusive")
	assert.False(t, f.Match(1999, []string{"Action"}))
	assert.False(t, f.Match(2005, []string{"Comedy"}))
	assert.False(t, f.Match(2005, nil))

	assert.True(t, MovieFilter{}.Match(1888, nil))
	assert.True(t, MovieFilter{}.IsZero())
	assert.False(t, f.IsZero())
}
