package sqlxrepos

import (
	"time"

	"github.com/volatiletech/null/v8"

	"github.com/trezcool/partnerships/core/partnership"
)

type partnerRow struct {
	ID        string      `db:"id"`
	Name      string      `db:"name"`
	Code      null.String `db:"code"`
	Type      string      `db:"type"`
	Country   string      `db:"country"`
	City      null.String `db:"city"`
	Website   null.String `db:"website"`
	IsValid   bool        `db:"is_valid"`
	CreatedAt time.Time   `db:"created_at"`
	UpdatedAt time.Time   `db:"updated_at"`
}

func boilPartner(p partnership.Partner) partnerRow {
	return partnerRow{
		ID:        p.ID,
		Name:      p.Name,
		Code:      null.NewString(p.Code, p.Code != ""),
		Type:      p.Type,
		Country:   p.Country,
		City:      null.NewString(p.City, p.City != ""),
		Website:   null.NewString(p.Website, p.Website != ""),
		IsValid:   p.IsValid,
		CreatedAt: p.CreatedAt.UTC(),
		UpdatedAt: p.UpdatedAt.UTC(),
	}
}

func (row partnerRow) unboil() partnership.Partner {
	return partnership.Partner{
		ID:        row.ID,
		Name:      row.Name,
		Code:      row.Code.String,
		Type:      row.Type,
		Country:   row.Country,
		City:      row.City.String,
		Website:   row.Website.String,
		IsValid:   row.IsValid,
		CreatedAt: row.CreatedAt.UTC(),
		UpdatedAt: row.UpdatedAt.UTC(),
	}
}

type partnershipRow struct {
	ID        string      `db:"id"`
	PartnerID string      `db:"partner_id"`
	Entity    string      `db:"entity"`
	Type      string      `db:"type"`
	Comment   null.String `db:"comment"`
	CreatedAt time.Time   `db:"created_at"`
	UpdatedAt time.Time   `db:"updated_at"`
}

func boilPartnership(p partnership.Partnership) partnershipRow {
	return partnershipRow{
		ID:        p.ID,
		PartnerID: p.PartnerID,
		Entity:    p.Entity,
		Type:      p.Type,
		Comment:   null.NewString(p.Comment, p.Comment != ""),
		CreatedAt: p.CreatedAt.UTC(),
		UpdatedAt: p.UpdatedAt.UTC(),
	}
}

func (row partnershipRow) unboil(years []int) partnership.Partnership {
	if years == nil {
		years = []int{}
	}
	return partnership.Partnership{
		ID:        row.ID,
		PartnerID: row.PartnerID,
		Entity:    row.Entity,
		Type:      row.Type,
		Comment:   row.Comment.String,
		Years:     years,
		CreatedAt: row.CreatedAt.UTC(),
		UpdatedAt: row.UpdatedAt.UTC(),
	}
}

type yearRow struct {
	PartnershipID string `db:"partnership_id"`
	AcademicYear  int    `db:"academic_year"`
}

type agreementRow struct {
	ID            string      `db:"id"`
	PartnershipID string      `db:"partnership_id"`
	StartYear     int         `db:"start_year"`
	EndYear       int         `db:"end_year"`
	Status        string      `db:"status"`
	Note          null.String `db:"note"`
	CreatedAt     time.Time   `db:"created_at"`
	UpdatedAt     time.Time   `db:"updated_at"`
}

func boilAgreement(a partnership.Agreement) agreementRow {
	return agreementRow{
		ID:            a.ID,
		PartnershipID: a.PartnershipID,
		StartYear:     a.StartYear,
		EndYear:       a.EndYear,
		Status:        a.Status,
		Note:          null.NewString(a.Note, a.Note != ""),
		CreatedAt:     a.CreatedAt.UTC(),
		UpdatedAt:     a.UpdatedAt.UTC(),
	}
}

func (row agreementRow) unboil() partnership.Agreement {
	return partnership.Agreement{
		ID:            row.ID,
		PartnershipID: row.PartnershipID,
		StartYear:     row.StartYear,
		EndYear:       row.EndYear,
		Status:        row.Status,
		Note:          row.Note.String,
		CreatedAt:     row.CreatedAt.UTC(),
		UpdatedAt:     row.UpdatedAt.UTC(),
	}
}
