package main

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"text/tabwriter"

	"github.com/pkg/errors"

	"github.com/trezcool/partnerships/core/coverage"
	"github.com/trezcool/partnerships/core/partnership"
)

func (cli *commandLine) coverage(id string) error {
	rep, err := cli.svc.Coverage(context.Background(), id)
	if err != nil {
		return errors.Wrapf(err, "checking coverage of %s", id)
	}
	return cli.printCoverages(rep)
}

func (cli *commandLine) gaps() error {
	reps, err := cli.svc.Gaps(context.Background(), partnership.PartnershipFilter{})
	if err != nil {
		return errors.Wrap(err, "listing coverage gaps")
	}
	if len(reps) == 0 && isTerminalFunc() {
		fmt.Fprintln(cli.out, "No coverage gaps.")
		return nil
	}
	return cli.printCoverages(reps...)
}

// printCoverages prints a table on a terminal and JSON otherwise.
func (cli *commandLine) printCoverages(reps ...partnership.Coverage) error {
	if !isTerminalFunc() {
		enc := json.NewEncoder(cli.out)
		enc.SetIndent("", "  ")
		if len(reps) == 1 {
			return enc.Encode(reps[0])
		}
		return enc.Encode(reps)
	}

	w := tabwriter.NewWriter(cli.out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "PARTNERSHIP\tSPAN\tVALIDATED\tUNCOVERED\tGAP")
	for _, rep := range reps {
		span := "-"
		if rep.Span != nil {
			span = rep.Span.Range().String()
		}
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%t\n",
			rep.PartnershipID, span, joinRanges(rep.MergedRanges), joinYears(rep.UncoveredYears), rep.MissingValidYears)
	}
	return w.Flush()
}

func joinRanges(ranges []coverage.Range) string {
	if len(ranges) == 0 {
		return "-"
	}
	strs := make([]string, 0, len(ranges))
	for _, r := range ranges {
		strs = append(strs, r.String())
	}
	return strings.Join(strs, ",")
}

func joinYears(years []int) string {
	if len(years) == 0 {
		return "-"
	}
	strs := make([]string, 0, len(years))
	for _, y := range years {
		strs = append(strs, fmt.Sprint(y))
	}
	return strings.Join(strs, ",")
}
