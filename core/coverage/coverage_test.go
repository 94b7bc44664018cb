package coverage

import (
	"math"
	"math/rand"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func r(start, end int) Range { return Range{Start: start, End: end} }

func TestMergeRanges(t *testing.T) {
	tests := []struct {
		name   string
		ranges []Range
		want   []Range
	}{
		{name: "empty", ranges: nil, want: []Range{}},
		{name: "single", ranges: []Range{r(2010, 2012)}, want: []Range{r(2010, 2012)}},
		{
			name:   "chained overlaps",
			ranges: []Range{r(2010, 2012), r(2012, 2015), r(2014, 2016)},
			want:   []Range{r(2010, 2016)},
		},
		{
			name:   "disjoint",
			ranges: []Range{r(2010, 2012), r(2014, 2015), r(2017, 2018)},
			want:   []Range{r(2010, 2012), r(2014, 2015), r(2017, 2018)},
		},
		{
			name:   "gap then overlap",
			ranges: []Range{r(2010, 2012), r(2014, 2017), r(2016, 2018)},
			want:   []Range{r(2010, 2012), r(2014, 2018)},
		},
		{
			name:   "nested",
			ranges: []Range{r(2010, 2020), r(2013, 2017), r(2016, 2018)},
			want:   []Range{r(2010, 2020)},
		},
		{
			name:   "duplicates",
			ranges: []Range{r(2010, 2013), r(2010, 2013), r(2015, 2016), r(2015, 2017)},
			want:   []Range{r(2010, 2013), r(2015, 2017)},
		},
		{
			name:   "adjacent",
			ranges: []Range{r(2015, 2017), r(2018, 2019)},
			want:   []Range{r(2015, 2019)},
		},
		{
			name:   "unsorted",
			ranges: []Range{r(2016, 2018), r(2010, 2012), r(2014, 2017)},
			want:   []Range{r(2010, 2012), r(2014, 2018)},
		},
		{name: "single year", ranges: []Range{r(2015, 2015), r(2016, 2016)}, want: []Range{r(2015, 2016)}},
		{
			name:   "nested in a range ending at max int",
			ranges: []Range{r(0, math.MaxInt), r(5, 10)},
			want:   []Range{r(0, math.MaxInt)},
		},
		{
			name:   "adjacent to a range ending at max int",
			ranges: []Range{r(math.MaxInt-1, math.MaxInt), r(0, math.MaxInt-2)},
			want:   []Range{r(0, math.MaxInt)},
		},
		{
			name:   "starting at min int",
			ranges: []Range{r(0, 5), r(math.MinInt, -1), r(math.MinInt, math.MinInt)},
			want:   []Range{r(math.MinInt, 5)},
		},
		{
			name:   "disjoint at both bounds",
			ranges: []Range{r(math.MaxInt, math.MaxInt), r(math.MinInt, math.MinInt)},
			want:   []Range{r(math.MinInt, math.MinInt), r(math.MaxInt, math.MaxInt)},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := MergeRanges(tt.ranges)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestMergeRanges_doesNotMutateInput(t *testing.T) {
	in := []Range{r(2016, 2018), r(2010, 2012)}
	_, err := MergeRanges(in)
	require.NoError(t, err)
	assert.Equal(t, []Range{r(2016, 2018), r(2010, 2012)}, in)
}

func TestMergeRanges_invalidRange(t *testing.T) {
	_, err := MergeRanges([]Range{r(2010, 2012), r(2015, 2014)})
	require.Error(t, err)

	var rErr *RangeError
	require.ErrorAs(t, err, &rErr)
	assert.Equal(t, 1, rErr.Index)
	assert.Equal(t, r(2015, 2014), rErr.Range)
}

func randomRanges(rnd *rand.Rand) []Range {
	n := rnd.Intn(8)
	ranges := make([]Range, 0, n)
	for i := 0; i < n; i++ {
		start := 2000 + rnd.Intn(25)
		ranges = append(ranges, r(start, start+rnd.Intn(5)))
	}
	return ranges
}

func yearSet(ranges []Range) map[int]bool {
	set := make(map[int]bool)
	for _, rg := range ranges {
		for y := rg.Start; y <= rg.End; y++ {
			set[y] = true
		}
	}
	return set
}

func TestMergeRanges_properties(t *testing.T) {
	rnd := rand.New(rand.NewSource(42))
	for i := 0; i < 500; i++ {
		in := randomRanges(rnd)
		merged, err := MergeRanges(in)
		require.NoError(t, err)

		// coverage preservation
		assert.Equal(t, yearSet(in), yearSet(merged), "input: %v", in)

		// sorted, disjoint & non-adjacent
		for j := 1; j < len(merged); j++ {
			assert.Less(t, merged[j-1].End+1, merged[j].Start, "merged: %v", merged)
		}

		// idempotence
		again, err := MergeRanges(merged)
		require.NoError(t, err)
		assert.Equal(t, merged, again)
	}
}

func TestHasCoverageGap(t *testing.T) {
	span := YearSpan{Min: 2015, Max: 2019}
	tests := []struct {
		name   string
		span   YearSpan
		ranges []Range
		want   bool
	}{
		{name: "no agreements", span: span, want: true},
		{name: "exact coverage", span: span, ranges: []Range{r(2015, 2019)}},
		{name: "gap in the middle", span: span, ranges: []Range{r(2015, 2016), r(2018, 2019)}, want: true},
		{name: "adjacent ranges", span: span, ranges: []Range{r(2015, 2017), r(2018, 2019)}},
		{name: "wider coverage", span: span, ranges: []Range{r(2012, 2022)}},
		{name: "starts late", span: span, ranges: []Range{r(2016, 2019)}, want: true},
		{name: "ends early", span: span, ranges: []Range{r(2015, 2018)}, want: true},
		{name: "extra range outside span", span: span, ranges: []Range{r(2010, 2011), r(2015, 2019)}, want: true},
		{name: "single year span", span: YearSpan{Min: 2018, Max: 2018}, ranges: []Range{r(2018, 2018)}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := HasCoverageGap(tt.span, tt.ranges)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestHasCoverageGap_errors(t *testing.T) {
	_, err := HasCoverageGap(YearSpan{Min: 2019, Max: 2015}, nil)
	var sErr *SpanError
	assert.ErrorAs(t, err, &sErr)

	_, err = HasCoverageGap(YearSpan{Min: 2015, Max: 2019}, []Range{r(2019, 2015)})
	var rErr *RangeError
	assert.ErrorAs(t, err, &rErr)
}

func TestUncoveredYears(t *testing.T) {
	span := YearSpan{Min: 2015, Max: 2020}

	got, err := UncoveredYears(span, []Range{r(2016, 2016), r(2018, 2019)})
	require.NoError(t, err)
	assert.Equal(t, []int{2015, 2017, 2020}, got)

	got, err = UncoveredYears(span, []Range{r(2010, 2025)})
	require.NoError(t, err)
	assert.Empty(t, got)

	got, err = UncoveredYears(span, nil)
	require.NoError(t, err)
	assert.Equal(t, []int{2015, 2016, 2017, 2018, 2019, 2020}, got)
}

func TestUncoveredYears_integerBounds(t *testing.T) {
	tests := []struct {
		name   string
		span   YearSpan
		ranges []Range
		want   []int
	}{
		{name: "span ending at max int", span: YearSpan{Min: math.MaxInt - 1, Max: math.MaxInt}, want: []int{math.MaxInt - 1, math.MaxInt}},
		{name: "single year at max int", span: YearSpan{Min: math.MaxInt, Max: math.MaxInt}, want: []int{math.MaxInt}},
		{
			name:   "covered up to max int",
			span:   YearSpan{Min: math.MaxInt - 2, Max: math.MaxInt},
			ranges: []Range{r(math.MaxInt-1, math.MaxInt)},
			want:   []int{math.MaxInt - 2},
		},
		{name: "span starting at min int", span: YearSpan{Min: math.MinInt, Max: math.MinInt + 1}, want: []int{math.MinInt, math.MinInt + 1}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			done := make(chan []int, 1)
			go func() {
				got, err := UncoveredYears(tt.span, tt.ranges)
				assert.NoError(t, err)
				done <- got
			}()
			select {
			case got := <-done:
				assert.Equal(t, tt.want, got)
			case <-time.After(2 * time.Second):
				t.Fatal("UncoveredYears() did not return")
			}
		})
	}

	gap, err := HasCoverageGap(YearSpan{Min: 0, Max: math.MaxInt}, []Range{r(0, 10), r(5, math.MaxInt)})
	require.NoError(t, err)
	assert.False(t, gap)
}

func TestAnalyze(t *testing.T) {
	rep, err := Analyze(YearSpan{Min: 2015, Max: 2019}, []Range{r(2018, 2019), r(2015, 2016)})
	require.NoError(t, err)
	assert.Equal(t, []Range{r(2015, 2016), r(2018, 2019)}, rep.Merged)
	assert.Equal(t, []int{2017}, rep.UncoveredYears)
	assert.True(t, rep.HasGap)
}

func TestSpanOf(t *testing.T) {
	_, ok := SpanOf(nil)
	assert.False(t, ok)

	span, ok := SpanOf([]int{2019, 2015, 2017})
	assert.True(t, ok)
	assert.Equal(t, YearSpan{Min: 2015, Max: 2019}, span)
}

func TestRange(t *testing.T) {
	rg := r(2015, 2017)
	assert.True(t, rg.Contains(2015))
	assert.True(t, rg.Contains(2017))
	assert.False(t, rg.Contains(2018))
	assert.Equal(t, 3, rg.Len())
	assert.Equal(t, 0, r(2017, 2015).Len())
	assert.Equal(t, "2015-2017", rg.String())
}
