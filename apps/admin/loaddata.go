package main

import (
	"context"
	"fmt"
	"os"

	"github.com/go-playground/validator/v10"
	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"

	"github.com/trezcool/partnerships/core/partnership"
)

type (
	partnershipFixture struct {
		Entity     string                     `yaml:"entity"`
		Type       string                     `yaml:"type"`
		Comment    string                     `yaml:"comment"`
		Years      []int                      `yaml:"years"`
		Agreements []partnership.NewAgreement `yaml:"agreements"`
	}

	partnerFixture struct {
		partnership.NewPartner `yaml:",inline"`
		Partnerships           []partnershipFixture `yaml:"partnerships"`
	}

	fixtures struct {
		Partners []partnerFixture `yaml:"partners"`
	}
)

func (cli *commandLine) loadData(file string) error {
	raw, err := os.ReadFile(file)
	if err != nil {
		return errors.Wrap(err, "reading fixtures")
	}
	var fx fixtures
	if err = yaml.Unmarshal(raw, &fx); err != nil {
		return errors.Wrap(err, "decoding fixtures")
	}

	ctx := context.Background()
	var nPartnerships, nAgreements int
	for i, pf := range fx.Partners {
		np := pf.NewPartner
		if err = np.Validate(ctx, cli.validate, cli.svc); err != nil {
			return cli.fixtureError(err, "partners[%d]", i)
		}
		partner, err := cli.svc.CreatePartner(ctx, np)
		if err != nil {
			return errors.Wrapf(err, "creating partner %q", np.Name)
		}

		for j, psf := range pf.Partnerships {
			nps := partnership.NewPartnership{
				PartnerID: partner.ID,
				Entity:    psf.Entity,
				Type:      psf.Type,
				Comment:   psf.Comment,
				Years:     psf.Years,
			}
			if err = nps.Validate(cli.validate); err != nil {
				return cli.fixtureError(err, "partners[%d].partnerships[%d]", i, j)
			}
			p, err := cli.svc.CreatePartnership(ctx, nps)
			if err != nil {
				return errors.Wrapf(err, "creating partnership %s of %q", nps.Entity, np.Name)
			}
			nPartnerships++

			for k, na := range psf.Agreements {
				if err = na.Validate(cli.validate); err != nil {
					return cli.fixtureError(err, "partners[%d].partnerships[%d].agreements[%d]", i, j, k)
				}
				if _, err = cli.svc.CreateAgreement(ctx, p.ID, na); err != nil {
					return errors.Wrapf(err, "creating agreement %d-%d of partnership %s", na.StartYear, na.EndYear, p.ID)
				}
				nAgreements++
			}
		}
	}

	fmt.Fprintf(cli.out, "Loaded %d partner(s), %d partnership(s), %d agreement(s).\n",
		len(fx.Partners), nPartnerships, nAgreements)
	return nil
}

func (cli *commandLine) fixtureError(err error, path string, args ...interface{}) error {
	if verrs, ok := err.(validator.ValidationErrors); ok && cli.translator != nil {
		return errors.Errorf("invalid %s: %v", fmt.Sprintf(path, args...), verrs.Translate(cli.translator))
	}
	return errors.Wrapf(err, "invalid %s", fmt.Sprintf(path, args...))
}
