package clause

import (
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRangeInclusiveLower(t *testing.T) {

	domain := Bounds[float64]{0, 100}
	rng := Range[float64]{Lo: 20, Hi: 80, LoInclusive: true}

	exprs := FormatRange(rng, domain, Float)
	assert.Equal(t, []string{">=20", "<80"}, exprs)

	parsed, skipped := ParseRange(exprs, domain, Float)
	require.NotNil(t, parsed)
	assert.Empty(t, skipped)
	assert.Equal(t, rng, *parsed)
}

func TestRangeRoundTrip(t *testing.T) {

	domains := []Bounds[float64]{{0, 100}, {-50, 50}, {0.5, 1.75}, {-1e6, 1e6}}

	for _, domain := range domains {
		width := domain[1] - domain[0]
		for _, frac := range [][2]float64{{0.1, 0.9}, {0.25, 0.3}, {0.01, 0.99}, {0.5, 0.75}} {
			for _, inc := range [][2]bool{{true, true}, {true, false}, {false, true}, {false, false}} {
				rng := Range[float64]{
					Lo:          domain[0] + frac[0]*width,
					Hi:          domain[0] + frac[1]*width,
					LoInclusive: inc[0],
					HiInclusive: inc[1],
				}

				name := fmt.Sprintf("%v/%v/%v", domain, frac, inc)
				t.Run(name, func(t *testing.T) {
					parsed, skipped := ParseRange(FormatRange(rng, domain, Float), domain, Float)
					require.NotNil(t, parsed)
					assert.Empty(t, skipped)
					assert.Equal(t, rng, *parsed)
				})
			}
		}
	}
}

func TestRangeDomainEdgesOmitted(t *testing.T) {

	domain := Bounds[float64]{0, 100}

	assert.Nil(t, FormatRange(Range[float64]{Lo: 0, Hi: 100}, domain, Float))
	assert.Equal(t, []string{"<=40"}, FormatRange(Range[float64]{Lo: 0, Hi: 40, HiInclusive: true}, domain, Float))
	assert.Equal(t, []string{">60"}, FormatRange(Range[float64]{Lo: 60, Hi: 100}, domain, Float))

	parsed, _ := ParseRange([]string{">60"}, domain, Float)
	require.NotNil(t, parsed)
	assert.Equal(t, 60.0, parsed.Lo)
	assert.Equal(t, 100.0, parsed.Hi)
	assert.False(t, parsed.LoInclusive)
}

func TestParseRangeSkipsUnrecognized(t *testing.T) {

	domain := Bounds[float64]{0, 10}

	parsed, skipped := ParseRange([]string{"~3", ">2", "<abc", "in(1,2)", "<=8"}, domain, Float)
	require.NotNil(t, parsed)
	assert.Equal(t, []string{"~3", "<abc", "in(1,2)"}, skipped)
	assert.Equal(t, Range[float64]{Lo: 2, Hi: 8, HiInclusive: true}, *parsed)
}

func TestParseRangeEquals(t *testing.T) {

	parsed, _ := ParseRange([]string{"=7"}, Bounds[float64]{0, 10}, Int)
	require.NotNil(t, parsed)
	assert.Equal(t, Range[float64]{Lo: 7, Hi: 7, LoInclusive: true, HiInclusive: true}, *parsed)
	assert.True(t, parsed.Inclusive())

	assert.Equal(t, []string{"=7"}, FormatRange(*parsed, Bounds[float64]{0, 10}, Int))
	assert.Equal(t, []string{"=0"}, FormatRange(Range[float64]{LoInclusive: true, HiInclusive: true}, Bounds[float64]{0, 10}, Int))
	assert.Equal(t, []string{">=7", "<7.5"}, FormatRange(Range[float64]{Lo: 7, Hi: 7.5, LoInclusive: true}, Bounds[float64]{0, 10}, Float))
}

func TestParseRangeEmpty(t *testing.T) {

	parsed, skipped := ParseRange(nil, Bounds[float64]{0, 1}, Float)
	assert.Nil(t, parsed)
	assert.Nil(t, skipped)
}

func TestUnixRange(t *testing.T) {

	domain := Bounds[time.Time]{
		time.Date(2020, 1, 1, 0, 0, 0, 0, time.UTC),
		time.Date(2021, 1, 1, 0, 0, 0, 0, time.UTC),
	}
	rng := Range[time.Time]{
		Lo:          time.Date(2020, 3, 1, 0, 0, 0, 0, time.UTC),
		Hi:          domain[1],
		LoInclusive: true,
		HiInclusive: true,
	}

	exprs := FormatRange(rng, domain, Unix)
	assert.Equal(t, []string{">=1583020800"}, exprs)

	parsed, _ := ParseRange(exprs, domain, Unix)
	require.NotNil(t, parsed)
	assert.True(t, parsed.Lo.Equal(rng.Lo))
	assert.True(t, parsed.Hi.Equal(rng.Hi))

	parsed, _ = ParseRange([]string{"<2020-06-01"}, domain, Unix)
	require.NotNil(t, parsed)
	assert.Equal(t, int64(1590969600), parsed.Hi.Unix())
}

func TestIntAxisFloors(t *testing.T) {
	assert.Equal(t, "7", Int.Format(7.9))
	assert.True(t, Int.Equal(7.2, 7.8))
}
