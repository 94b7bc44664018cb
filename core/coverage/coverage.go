// Package coverage merges academic-year ranges of validated agreements
// and detects the years of a partnership left uncovered by them.
package coverage

import (
	"fmt"
	"sort"
)

// Range is a closed interval of academic years: [Start, End].
type Range struct {
	Start int `json:"start" yaml:"start" validate:"academicyear"`
	End   int `json:"end" yaml:"end" validate:"academicyear"`
}

func (r Range) Contains(year int) bool {
	return r.Start <= year && year <= r.End
}

// Len is the number of academic years in r.
func (r Range) Len() int {
	if r.End < r.Start {
		return 0
	}
	return r.End - r.Start + 1
}

func (r Range) String() string {
	return fmt.Sprintf("%d-%d", r.Start, r.End)
}

// YearSpan is the min and max academic year a partnership declares years for.
type YearSpan struct {
	Min int `json:"min" yaml:"min" validate:"academicyear"`
	Max int `json:"max" yaml:"max" validate:"academicyear"`
}

func (s YearSpan) Range() Range {
	return Range{Start: s.Min, End: s.Max}
}

// SpanOf returns the span of the given declared years. ok is false when years is empty.
func SpanOf(years []int) (span YearSpan, ok bool) {
	for i, y := range years {
		if i == 0 || y < span.Min {
			span.Min = y
		}
		if i == 0 || y > span.Max {
			span.Max = y
		}
	}
	return span, len(years) > 0
}

// RangeError reports a malformed range (Start > End) in an input set.
type RangeError struct {
	Index int
	Range Range
}

func (err *RangeError) Error() string {
	return fmt.Sprintf("invalid academic year range #%d (%d-%d): start is after end", err.Index, err.Range.Start, err.Range.End)
}

// SpanError reports a malformed partnership year span (Min > Max).
type SpanError struct {
	Span YearSpan
}

func (err *SpanError) Error() string {
	return fmt.Sprintf("invalid partnership year span (%d-%d): min is after max", err.Span.Min, err.Span.Max)
}

func validate(ranges []Range) error {
	for i, r := range ranges {
		if r.Start > r.End {
			return &RangeError{Index: i, Range: r}
		}
	}
	return nil
}

// MergeRanges merges overlapping and adjacent ranges into a minimal set of disjoint ranges,
// sorted by Start. Two ranges touching exactly (2012-2014, 2015-2016) are merged.
// ranges is left untouched; the result is never nil.
func MergeRanges(ranges []Range) ([]Range, error) {
	if err := validate(ranges); err != nil {
		return nil, err
	}
	if len(ranges) == 0 {
		return []Range{}, nil
	}

	sorted := make([]Range, len(ranges))
	copy(sorted, ranges)
	sort.SliceStable(sorted, func(i, j int) bool { return sorted[i].Start < sorted[j].Start })

	merged := make([]Range, 0, len(sorted))
	open := sorted[0]
	for _, r := range sorted[1:] {
		switch {
		case !touches(open, r):
			merged = append(merged, open)
			open = r
		case open.End < r.End:
			open.End = r.End
		}
		// otherwise r is nested in the open range
	}
	return append(merged, open), nil
}

// touches reports whether r, starting at or after open.Start, overlaps or directly follows open.
// Written without open.End+1 so that ranges ending at math.MaxInt merge too.
func touches(open, r Range) bool {
	return r.Start <= open.End || r.Start-1 == open.End
}

// HasCoverageGap reports whether the validated ranges, once merged, fail to cover
// the whole span with a single unbroken range.
// No validated range at all over a declared span is a gap.
func HasCoverageGap(span YearSpan, ranges []Range) (bool, error) {
	if span.Min > span.Max {
		return false, &SpanError{Span: span}
	}
	merged, err := MergeRanges(ranges)
	if err != nil {
		return false, err
	}
	return hasGap(span, merged), nil
}

func hasGap(span YearSpan, merged []Range) bool {
	if len(merged) != 1 {
		return true
	}
	return merged[0].Start > span.Min || merged[0].End < span.Max
}

// UncoveredYears lists, in ascending order, the years of span covered by no range.
func UncoveredYears(span YearSpan, ranges []Range) ([]int, error) {
	if span.Min > span.Max {
		return nil, &SpanError{Span: span}
	}
	merged, err := MergeRanges(ranges)
	if err != nil {
		return nil, err
	}
	return uncovered(span, merged), nil
}

func uncovered(span YearSpan, merged []Range) []int {
	years := make([]int, 0)
	i := 0
	for y := span.Min; ; y++ {
		for i < len(merged) && merged[i].End < y {
			i++
		}
		if i == len(merged) || !merged[i].Contains(y) {
			years = append(years, y)
		}
		if y == span.Max { // y++ would wrap past math.MaxInt
			break
		}
	}
	return years
}

// Report is the full analysis of a partnership's validated agreement ranges.
type Report struct {
	Merged         []Range `json:"merged_ranges"`
	UncoveredYears []int   `json:"uncovered_years"`
	HasGap         bool    `json:"missing_valid_years"`
}

// Analyze merges ranges and checks them against span in one pass.
func Analyze(span YearSpan, ranges []Range) (Report, error) {
	if span.Min > span.Max {
		return Report{}, &SpanError{Span: span}
	}
	merged, err := MergeRanges(ranges)
	if err != nil {
		return Report{}, err
	}
	return Report{
		Merged:         merged,
		UncoveredYears: uncovered(span, merged),
		HasGap:         hasGap(span, merged),
	}, nil
}
