package partnership

import (
	"context"
	"fmt"
	"time"

	"github.com/pkg/errors"

	"github.com/trezcool/partnerships/core"
)

var (
	// errors
	ErrPartnerNotFound     = errors.New("partner not found")
	ErrPartnershipNotFound = errors.New("partnership not found")
	ErrAgreementNotFound   = errors.New("agreement not found")
	ErrPartnerCodeExists   = errors.New("a partner with this code already exists")
)

// Events
const (
	EventAgreementCreated       = "agreement.created"
	EventAgreementStatusChanged = "agreement.status_changed"
)

type (
	Repository interface {
		CreatePartner(ctx context.Context, p Partner) (Partner, error)
		GetPartner(ctx context.Context, id string) (Partner, error)
		// QueryPartners applies AND operation on available PartnerFilter fields.
		// PartnerFilter.Search does a case-insensitive match on one of Partner.Name or Partner.Code.
		QueryPartners(ctx context.Context, filter PartnerFilter, ordering ...core.DBOrdering) ([]Partner, error)
		UpdatePartner(ctx context.Context, p Partner) (Partner, error)
		DeletePartners(ctx context.Context, ids ...string) error

		CreatePartnership(ctx context.Context, p Partnership) (Partnership, error)
		GetPartnership(ctx context.Context, id string) (Partnership, error)
		// QueryPartnerships ignores PartnershipFilter.MissingValidYears, which is computed by the Service.
		QueryPartnerships(ctx context.Context, filter PartnershipFilter) ([]Partnership, error)
		SetPartnershipYears(ctx context.Context, id string, years []int, updatedAt time.Time) (Partnership, error)
		DeletePartnership(ctx context.Context, id string) error

		CreateAgreement(ctx context.Context, a Agreement) (Agreement, error)
		GetAgreement(ctx context.Context, id string) (Agreement, error)
		// QueryAgreements returns agreements ordered by StartYear then EndYear.
		QueryAgreements(ctx context.Context, filter AgreementFilter) ([]Agreement, error)
		UpdateAgreement(ctx context.Context, a Agreement) (Agreement, error)
		DeleteAgreement(ctx context.Context, id string) error
	}

	Service struct {
		repo   Repository
		events core.EventPublisher
		logger core.Logger
	}
)

func NewService(repo Repository, events core.EventPublisher, logger core.Logger) *Service {
	return &Service{repo: repo, events: events, logger: logger}
}

var nowFunc = func() time.Time { return time.Now().UTC() } // mockable

// checkPartnerUniqueness fails when code is taken or name is too similar to an existing name.
// empty values are not checked.
func (svc *Service) checkPartnerUniqueness(ctx context.Context, name, code string, exclPartners ...Partner) error {
	if name == "" && code == "" {
		return nil
	}
	partners, err := svc.repo.QueryPartners(ctx, PartnerFilter{})
	if err != nil {
		return errors.Wrap(err, "querying partners")
	}

	excluded := make(map[string]bool, len(exclPartners))
	for _, p := range exclPartners {
		excluded[p.ID] = true
	}
	for _, p := range partners {
		if excluded[p.ID] {
			continue
		}
		if code != "" && p.Code == code {
			return core.NewFieldError("code", ErrPartnerCodeExists)
		}
		if similarNames(name, p.Name) {
			return core.NewFieldError("name", errors.Errorf("a partner with a similar name already exists: %s", p.Name))
		}
	}
	return nil
}

// Partners

func (svc *Service) CreatePartner(ctx context.Context, np NewPartner) (Partner, error) {
	now := nowFunc()
	return svc.repo.CreatePartner(ctx, Partner{
		Name:      np.Name,
		Code:      np.Code,
		Type:      np.Type,
		Country:   np.Country,
		City:      np.City,
		Website:   np.Website,
		IsValid:   true,
		CreatedAt: now,
		UpdatedAt: now,
	})
}

func (svc *Service) GetPartner(ctx context.Context, id string) (Partner, error) {
	return svc.repo.GetPartner(ctx, id)
}

func (svc *Service) QueryPartners(ctx context.Context, filter PartnerFilter, ordering ...core.DBOrdering) ([]Partner, error) {
	return svc.repo.QueryPartners(ctx, filter, ordering...)
}

func (svc *Service) UpdatePartner(ctx context.Context, orig Partner, up UpdatePartner) (Partner, error) {
	p := up.apply(orig)
	p.UpdatedAt = nowFunc()
	return svc.repo.UpdatePartner(ctx, p)
}

func (svc *Service) DeletePartners(ctx context.Context, ids ...string) error {
	return svc.repo.DeletePartners(ctx, ids...)
}

// Partnerships

func (svc *Service) CreatePartnership(ctx context.Context, np NewPartnership) (Partnership, error) {
	if _, err := svc.repo.GetPartner(ctx, np.PartnerID); err != nil {
		if errors.Cause(err) == ErrPartnerNotFound {
			return Partnership{}, core.NewFieldError("partner_id", err)
		}
		return Partnership{}, errors.Wrap(err, "getting partner")
	}

	now := nowFunc()
	return svc.repo.CreatePartnership(ctx, Partnership{
		PartnerID: np.PartnerID,
		Entity:    np.Entity,
		Type:      np.Type,
		Comment:   np.Comment,
		Years:     cleanYears(np.Years),
		CreatedAt: now,
		UpdatedAt: now,
	})
}

func (svc *Service) GetPartnership(ctx context.Context, id string) (Partnership, error) {
	return svc.repo.GetPartnership(ctx, id)
}

func (svc *Service) QueryPartnerships(ctx context.Context, filter PartnershipFilter) ([]Partnership, error) {
	partnerships, err := svc.repo.QueryPartnerships(ctx, filter)
	if err != nil {
		return nil, errors.Wrap(err, "querying partnerships")
	}
	if filter.MissingValidYears == nil {
		return partnerships, nil
	}

	reports, err := svc.coverages(ctx, partnerships)
	if err != nil {
		return nil, err
	}
	filtered := make([]Partnership, 0, len(partnerships))
	for i, p := range partnerships {
		if reports[i].MissingValidYears == *filter.MissingValidYears {
			filtered = append(filtered, p)
		}
	}
	return filtered, nil
}

func (svc *Service) SetYears(ctx context.Context, id string, py PartnershipYears) (Partnership, error) {
	return svc.repo.SetPartnershipYears(ctx, id, cleanYears(py.Years), nowFunc())
}

func (svc *Service) DeletePartnership(ctx context.Context, id string) error {
	return svc.repo.DeletePartnership(ctx, id)
}

// Agreements

func (svc *Service) CreateAgreement(ctx context.Context, partnershipID string, na NewAgreement) (Agreement, error) {
	if _, err := svc.repo.GetPartnership(ctx, partnershipID); err != nil {
		return Agreement{}, err
	}

	status := na.Status
	if status == "" {
		status = StatusWaiting
	}
	now := nowFunc()
	agr, err := svc.repo.CreateAgreement(ctx, Agreement{
		PartnershipID: partnershipID,
		StartYear:     na.StartYear,
		EndYear:       na.EndYear,
		Status:        status,
		Note:          na.Note,
		CreatedAt:     now,
		UpdatedAt:     now,
	})
	if err != nil {
		return Agreement{}, err
	}
	svc.publish(ctx, EventAgreementCreated, agr.ID, agr)
	return agr, nil
}

func (svc *Service) GetAgreement(ctx context.Context, id string) (Agreement, error) {
	return svc.repo.GetAgreement(ctx, id)
}

// QueryAgreements returns the agreements of a partnership ordered by start year.
func (svc *Service) QueryAgreements(ctx context.Context, partnershipID string) ([]Agreement, error) {
	if _, err := svc.repo.GetPartnership(ctx, partnershipID); err != nil {
		return nil, err
	}
	return svc.repo.QueryAgreements(ctx, AgreementFilter{PartnershipIDs: []string{partnershipID}})
}

func (svc *Service) SetAgreementStatus(ctx context.Context, agr Agreement, su AgreementStatusUpdate) (Agreement, error) {
	if agr.Status == su.Status {
		return agr, nil
	}
	prevStatus := agr.Status
	agr.Status = su.Status
	agr.UpdatedAt = nowFunc()

	agr, err := svc.repo.UpdateAgreement(ctx, agr)
	if err != nil {
		return Agreement{}, err
	}
	svc.publish(ctx, EventAgreementStatusChanged, agr.ID, map[string]interface{}{
		"partnership_id": agr.PartnershipID,
		"from":           prevStatus,
		"to":             agr.Status,
	})
	return agr, nil
}

func (svc *Service) DeleteAgreement(ctx context.Context, id string) error {
	return svc.repo.DeleteAgreement(ctx, id)
}

func (svc *Service) publish(ctx context.Context, typ, objID string, data interface{}) {
	if svc.events == nil {
		return
	}
	evt := core.Event{Type: typ, ObjectID: objID, OccurredAt: nowFunc(), Data: data}
	if err := svc.events.Publish(ctx, evt); err != nil && svc.logger != nil {
		svc.logger.Error(fmt.Sprintf("publishing %s event: %v", typ, err), err)
	}
}
