package main

import (
	"context"
	"fmt"
	"net/mail"

	"github.com/pkg/errors"

	"github.com/trezcool/partnerships/core"
	"github.com/trezcool/partnerships/core/partnership"
)

func (cli *commandLine) notifyGaps(to []string) error {
	recipients := make([]mail.Address, 0, len(to))
	for _, addr := range to {
		a, err := mail.ParseAddress(addr)
		if err != nil {
			return errors.Wrapf(err, "parsing recipient %q", addr)
		}
		recipients = append(recipients, *a)
	}

	gaps, err := cli.svc.Gaps(context.Background(), partnership.PartnershipFilter{})
	if err != nil {
		return errors.Wrap(err, "listing coverage gaps")
	}
	if len(gaps) == 0 {
		fmt.Fprintln(cli.out, "No coverage gaps, nothing to send.")
		return nil
	}

	cli.mailSvc.SendMessages(&core.EmailMessage{
		To:           recipients,
		Subject:      fmt.Sprintf("%d partnership(s) missing valid years", len(gaps)),
		TemplateName: "coverage_gaps",
		TemplateData: gaps,
	})
	if w, ok := cli.mailSvc.(interface{ Wait() }); ok {
		w.Wait()
	}
	fmt.Fprintf(cli.out, "Coverage gaps report (%d) sent to %d recipient(s).\n", len(gaps), len(recipients))
	return nil
}
