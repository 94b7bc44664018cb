package partnership

import (
	"context"

	"github.com/pkg/errors"

	"github.com/trezcool/partnerships/core/coverage"
)

// Coverage checks the declared years of a partnership against its validated agreements.
func (svc *Service) Coverage(ctx context.Context, partnershipID string) (Coverage, error) {
	p, err := svc.repo.GetPartnership(ctx, partnershipID)
	if err != nil {
		return Coverage{}, err
	}
	reports, err := svc.coverages(ctx, []Partnership{p})
	if err != nil {
		return Coverage{}, err
	}
	return reports[0], nil
}

// Gaps returns the coverage of every partnership missing valid years.
func (svc *Service) Gaps(ctx context.Context, filter PartnershipFilter) ([]Coverage, error) {
	filter.MissingValidYears = nil
	partnerships, err := svc.repo.QueryPartnerships(ctx, filter)
	if err != nil {
		return nil, errors.Wrap(err, "querying partnerships")
	}
	reports, err := svc.coverages(ctx, partnerships)
	if err != nil {
		return nil, err
	}
	gaps := make([]Coverage, 0)
	for _, rep := range reports {
		if rep.MissingValidYears {
			gaps = append(gaps, rep)
		}
	}
	return gaps, nil
}

// coverages computes the Coverage of each partnership, in the same order.
func (svc *Service) coverages(ctx context.Context, partnerships []Partnership) ([]Coverage, error) {
	if len(partnerships) == 0 {
		return []Coverage{}, nil
	}

	ids := make([]string, 0, len(partnerships))
	for _, p := range partnerships {
		ids = append(ids, p.ID)
	}
	agreements, err := svc.repo.QueryAgreements(ctx, AgreementFilter{PartnershipIDs: ids, Status: StatusValidated})
	if err != nil {
		return nil, errors.Wrap(err, "querying validated agreements")
	}
	ranges := make(map[string][]coverage.Range, len(partnerships))
	for _, a := range agreements {
		ranges[a.PartnershipID] = append(ranges[a.PartnershipID], a.Range())
	}

	reports := make([]Coverage, 0, len(partnerships))
	for _, p := range partnerships {
		rep, err := computeCoverage(p, ranges[p.ID])
		if err != nil {
			return nil, errors.Wrapf(err, "computing coverage of partnership %s", p.ID)
		}
		reports = append(reports, rep)
	}
	return reports, nil
}

// computeCoverage builds the Coverage of p. A partnership declaring no year has nothing to cover.
func computeCoverage(p Partnership, validated []coverage.Range) (Coverage, error) {
	if validated == nil {
		validated = []coverage.Range{}
	}
	rep := Coverage{PartnershipID: p.ID, ValidatedRanges: validated, UncoveredYears: []int{}}

	span, ok := p.Span()
	if !ok {
		merged, err := coverage.MergeRanges(validated)
		if err != nil {
			return Coverage{}, err
		}
		rep.MergedRanges = merged
		return rep, nil
	}

	analysis, err := coverage.Analyze(span, validated)
	if err != nil {
		return Coverage{}, err
	}
	rep.Span = &span
	rep.MergedRanges = analysis.Merged
	rep.UncoveredYears = analysis.UncoveredYears
	rep.MissingValidYears = analysis.HasGap
	return rep, nil
}
