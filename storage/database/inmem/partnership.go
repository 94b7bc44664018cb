package inmemdb

import (
	"context"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/trezcool/partnerships/core"
	"github.com/trezcool/partnerships/core/partnership"
)

type partnershipRepository struct {
	db *DB
}

var _ partnership.Repository = (*partnershipRepository)(nil) // interface compliance check

func NewPartnershipRepository(db *DB) partnership.Repository {
	return &partnershipRepository{db: db}
}

// Partners

func (repo *partnershipRepository) CreatePartner(_ context.Context, p partnership.Partner) (partnership.Partner, error) {
	repo.db.Lock()
	defer repo.db.Unlock()

	if p.Code != "" {
		for _, other := range repo.db.partners {
			if other.Code == p.Code {
				return partnership.Partner{}, partnership.ErrPartnerCodeExists
			}
		}
	}
	p.ID = uuid.New().String()
	repo.db.partners[p.ID] = &p
	return p, nil
}

func (repo *partnershipRepository) GetPartner(_ context.Context, id string) (partnership.Partner, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	if p, ok := repo.db.partners[id]; ok {
		return *p, nil
	}
	return partnership.Partner{}, partnership.ErrPartnerNotFound
}

func (repo *partnershipRepository) QueryPartners(
	_ context.Context,
	filter partnership.PartnerFilter,
	ordering ...core.DBOrdering,
) ([]partnership.Partner, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	search := strings.ToLower(filter.Search)
	partners := make([]partnership.Partner, 0, len(repo.db.partners))
	for _, p := range repo.db.partners {
		if search != "" &&
			!strings.Contains(strings.ToLower(p.Name), search) &&
			!strings.Contains(strings.ToLower(p.Code), search) {
			continue
		}
		if filter.Type != "" && p.Type != filter.Type {
			continue
		}
		if filter.Country != "" && p.Country != filter.Country {
			continue
		}
		if filter.IsValid != nil && p.IsValid != *filter.IsValid {
			continue
		}
		partners = append(partners, *p)
	}

	if len(ordering) == 0 {
		ordering = []core.DBOrdering{{Field: "name", Ascending: true}}
	}
	sort.SliceStable(partners, func(i, j int) bool {
		for _, ord := range ordering {
			c := comparePartners(partners[i], partners[j], ord.Field)
			if c == 0 {
				continue
			}
			if ord.Ascending {
				return c < 0
			}
			return c > 0
		}
		return partners[i].ID < partners[j].ID
	})
	return partners, nil
}

func comparePartners(a, b partnership.Partner, field string) int {
	switch field {
	case "name":
		return strings.Compare(strings.ToLower(a.Name), strings.ToLower(b.Name))
	case "code":
		return strings.Compare(a.Code, b.Code)
	case "country":
		return strings.Compare(a.Country, b.Country)
	case "type":
		return strings.Compare(a.Type, b.Type)
	case "created_at":
		return compareTimes(a.CreatedAt, b.CreatedAt)
	case "updated_at":
		return compareTimes(a.UpdatedAt, b.UpdatedAt)
	default:
		return 0
	}
}

func compareTimes(a, b time.Time) int {
	switch {
	case a.Before(b):
		return -1
	case a.After(b):
		return 1
	default:
		return 0
	}
}

func (repo *partnershipRepository) UpdatePartner(_ context.Context, p partnership.Partner) (partnership.Partner, error) {
	repo.db.Lock()
	defer repo.db.Unlock()

	if _, ok := repo.db.partners[p.ID]; !ok {
		return partnership.Partner{}, partnership.ErrPartnerNotFound
	}
	if p.Code != "" {
		for _, other := range repo.db.partners {
			if other.ID != p.ID && other.Code == p.Code {
				return partnership.Partner{}, partnership.ErrPartnerCodeExists
			}
		}
	}
	repo.db.partners[p.ID] = &p
	return p, nil
}

// DeletePartners deletes partners along with their partnerships & agreements.
func (repo *partnershipRepository) DeletePartners(_ context.Context, ids ...string) error {
	repo.db.Lock()
	defer repo.db.Unlock()

	for _, id := range ids {
		delete(repo.db.partners, id)
		for pid, p := range repo.db.partnerships {
			if p.PartnerID == id {
				repo.deletePartnership(pid)
			}
		}
	}
	return nil
}

// Partnerships

func (repo *partnershipRepository) CreatePartnership(_ context.Context, p partnership.Partnership) (partnership.Partnership, error) {
	repo.db.Lock()
	defer repo.db.Unlock()

	if _, ok := repo.db.partners[p.PartnerID]; !ok {
		return partnership.Partnership{}, partnership.ErrPartnerNotFound
	}
	p.ID = uuid.New().String()
	p.Years = append([]int{}, p.Years...)
	repo.db.partnerships[p.ID] = &p
	return copyPartnership(p), nil
}

func (repo *partnershipRepository) GetPartnership(_ context.Context, id string) (partnership.Partnership, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	if p, ok := repo.db.partnerships[id]; ok {
		return copyPartnership(*p), nil
	}
	return partnership.Partnership{}, partnership.ErrPartnershipNotFound
}

func (repo *partnershipRepository) QueryPartnerships(
	_ context.Context,
	filter partnership.PartnershipFilter,
) ([]partnership.Partnership, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	partnerships := make([]partnership.Partnership, 0, len(repo.db.partnerships))
	for _, p := range repo.db.partnerships {
		if filter.PartnerID != "" && p.PartnerID != filter.PartnerID {
			continue
		}
		if filter.Entity != "" && !strings.EqualFold(p.Entity, filter.Entity) {
			continue
		}
		if filter.Type != "" && p.Type != filter.Type {
			continue
		}
		if filter.Year != 0 && !p.HasYear(filter.Year) {
			continue
		}
		partnerships = append(partnerships, copyPartnership(*p))
	}
	sort.Slice(partnerships, func(i, j int) bool {
		if !partnerships[i].CreatedAt.Equal(partnerships[j].CreatedAt) {
			return partnerships[i].CreatedAt.After(partnerships[j].CreatedAt)
		}
		return partnerships[i].ID < partnerships[j].ID
	})
	return partnerships, nil
}

func (repo *partnershipRepository) SetPartnershipYears(
	_ context.Context,
	id string,
	years []int,
	updatedAt time.Time,
) (partnership.Partnership, error) {
	repo.db.Lock()
	defer repo.db.Unlock()

	p, ok := repo.db.partnerships[id]
	if !ok {
		return partnership.Partnership{}, partnership.ErrPartnershipNotFound
	}
	p.Years = append([]int{}, years...)
	p.UpdatedAt = updatedAt
	return copyPartnership(*p), nil
}

func (repo *partnershipRepository) DeletePartnership(_ context.Context, id string) error {
	repo.db.Lock()
	defer repo.db.Unlock()

	repo.deletePartnership(id)
	return nil
}

// deletePartnership must be called with the write lock held.
func (repo *partnershipRepository) deletePartnership(id string) {
	delete(repo.db.partnerships, id)
	for aid, a := range repo.db.agreements {
		if a.PartnershipID == id {
			delete(repo.db.agreements, aid)
		}
	}
}

func copyPartnership(p partnership.Partnership) partnership.Partnership {
	years := make([]int, len(p.Years))
	copy(years, p.Years)
	p.Years = years
	return p
}

// Agreements

func (repo *partnershipRepository) CreateAgreement(_ context.Context, a partnership.Agreement) (partnership.Agreement, error) {
	repo.db.Lock()
	defer repo.db.Unlock()

	if _, ok := repo.db.partnerships[a.PartnershipID]; !ok {
		return partnership.Agreement{}, partnership.ErrPartnershipNotFound
	}
	a.ID = uuid.New().String()
	repo.db.agreements[a.ID] = &a
	return a, nil
}

func (repo *partnershipRepository) GetAgreement(_ context.Context, id string) (partnership.Agreement, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	if a, ok := repo.db.agreements[id]; ok {
		return *a, nil
	}
	return partnership.Agreement{}, partnership.ErrAgreementNotFound
}

func (repo *partnershipRepository) QueryAgreements(
	_ context.Context,
	filter partnership.AgreementFilter,
) ([]partnership.Agreement, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	ids := make(map[string]bool, len(filter.PartnershipIDs))
	for _, id := range filter.PartnershipIDs {
		ids[id] = true
	}
	agreements := make([]partnership.Agreement, 0)
	for _, a := range repo.db.agreements {
		if len(ids) > 0 && !ids[a.PartnershipID] {
			continue
		}
		if filter.Status != "" && a.Status != filter.Status {
			continue
		}
		agreements = append(agreements, *a)
	}
	sort.Slice(agreements, func(i, j int) bool {
		ai, aj := agreements[i], agreements[j]
		if ai.StartYear != aj.StartYear {
			return ai.StartYear < aj.StartYear
		}
		if ai.EndYear != aj.EndYear {
			return ai.EndYear < aj.EndYear
		}
		return ai.ID < aj.ID
	})
	return agreements, nil
}

func (repo *partnershipRepository) UpdateAgreement(_ context.Context, a partnership.Agreement) (partnership.Agreement, error) {
	repo.db.Lock()
	defer repo.db.Unlock()

	if _, ok := repo.db.agreements[a.ID]; !ok {
		return partnership.Agreement{}, partnership.ErrAgreementNotFound
	}
	repo.db.agreements[a.ID] = &a
	return a, nil
}

func (repo *partnershipRepository) DeleteAgreement(_ context.Context, id string) error {
	repo.db.Lock()
	defer repo.db.Unlock()

	delete(repo.db.agreements, id)
	return nil
}
