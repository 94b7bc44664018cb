package partnership

import (
	"context"
	"sort"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/trezcool/partnerships/core"
	"github.com/trezcool/partnerships/core/coverage"
)

// Partner types
const (
	PartnerTypeUniversity     = "university"
	PartnerTypeSchool         = "school"
	PartnerTypeResearchCenter = "research_center"
	PartnerTypeCompany        = "company"
	PartnerTypeOther          = "other"
)

// Partnership types
const (
	TypeMobility  = "mobility"
	TypeCourse    = "course"
	TypeDoctorate = "doctorate"
	TypeProject   = "project"
	TypeGeneral   = "general"
)

// Agreement statuses
const (
	StatusWaiting   = "waiting"
	StatusValidated = "validated"
	StatusRefused   = "refused"
)

// academic years accepted on input
const (
	MinAcademicYear = 1900
	MaxAcademicYear = 2100
)

var (
	PartnerTypes = []string{PartnerTypeUniversity, PartnerTypeSchool, PartnerTypeResearchCenter, PartnerTypeCompany, PartnerTypeOther}
	Types        = []string{TypeMobility, TypeCourse, TypeDoctorate, TypeProject, TypeGeneral}
	Statuses     = []string{StatusWaiting, StatusValidated, StatusRefused}
)

type Partner struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Code      string    `json:"code"` // e.g. ERASMUS code
	Type      string    `json:"type"`
	Country   string    `json:"country"` // ISO 3166-1 alpha-2
	City      string    `json:"city"`
	Website   string    `json:"website"`
	IsValid   bool      `json:"is_valid"`
	CreatedAt time.Time `json:"created_at"` // UTC
	UpdatedAt time.Time `json:"updated_at"` // UTC
}

type Partnership struct {
	ID        string    `json:"id"`
	PartnerID string    `json:"partner_id"`
	Entity    string    `json:"entity"` // acronym of the management entity (faculty, school...)
	Type      string    `json:"type"`
	Comment   string    `json:"comment"`
	Years     []int     `json:"years"`      // declared academic years, sorted
	CreatedAt time.Time `json:"created_at"` // UTC
	UpdatedAt time.Time `json:"updated_at"` // UTC
}

// Span returns the declared year span. ok is false when no year is declared.
func (p Partnership) Span() (coverage.YearSpan, bool) {
	return coverage.SpanOf(p.Years)
}

func (p Partnership) HasYear(year int) bool {
	i := sort.SearchInts(p.Years, year)
	return i < len(p.Years) && p.Years[i] == year
}

type Agreement struct {
	ID            string    `json:"id"`
	PartnershipID string    `json:"partnership_id"`
	StartYear     int       `json:"start_year"`
	EndYear       int       `json:"end_year"`
	Status        string    `json:"status"`
	Note          string    `json:"note"`
	CreatedAt     time.Time `json:"created_at"` // UTC
	UpdatedAt     time.Time `json:"updated_at"` // UTC
}

func (a Agreement) Range() coverage.Range {
	return coverage.Range{Start: a.StartYear, End: a.EndYear}
}

func (a Agreement) IsValidated() bool {
	return a.Status == StatusValidated
}

// Coverage reports how a partnership's declared years are covered by its validated agreements.
type Coverage struct {
	PartnershipID     string             `json:"partnership_id"`
	Span              *coverage.YearSpan `json:"span"` // nil when no year is declared
	ValidatedRanges   []coverage.Range   `json:"validated_ranges"`
	MergedRanges      []coverage.Range   `json:"merged_ranges"`
	UncoveredYears    []int              `json:"uncovered_years"`
	MissingValidYears bool               `json:"missing_valid_years"`
}

// NewPartner contains information needed to create a new Partner.
type NewPartner struct {
	Name    string `json:"name" yaml:"name" validate:"notblank,max=255"`
	Code    string `json:"code" yaml:"code" validate:"omitempty,max=64"`
	Type    string `json:"type" yaml:"type" validate:"required,partnertype"`
	Country string `json:"country" yaml:"country" validate:"required,len=2,alpha"`
	City    string `json:"city" yaml:"city" validate:"omitempty,max=255"`
	Website string `json:"website" yaml:"website" validate:"omitempty,url"`
}

func (np *NewPartner) Validate(ctx context.Context, validate *validator.Validate, svc *Service) error {
	np.Name = core.CleanString(np.Name)
	np.Code = core.CleanString(np.Code)
	np.Type = core.CleanString(np.Type, true /* lower */)
	np.Country = strings.ToUpper(core.CleanString(np.Country))
	np.City = core.CleanString(np.City)
	np.Website = core.CleanString(np.Website)

	if err := validate.Struct(np); err != nil {
		return err
	}
	return svc.checkPartnerUniqueness(ctx, np.Name, np.Code)
}

// UpdatePartner defines what information may be provided to modify an existing Partner.
type UpdatePartner struct {
	Name    string `json:"name" validate:"omitempty,max=255"`
	Code    string `json:"code" validate:"omitempty,max=64"`
	Type    string `json:"type" validate:"omitempty,partnertype"`
	Country string `json:"country" validate:"omitempty,len=2,alpha"`
	City    string `json:"city" validate:"omitempty,max=255"`
	Website string `json:"website" validate:"omitempty,url"`
	IsValid *bool  `json:"is_valid"`
}

func (up *UpdatePartner) Validate(ctx context.Context, orig Partner, validate *validator.Validate, svc *Service) error {
	up.Name = core.CleanString(up.Name)
	up.Code = core.CleanString(up.Code)
	up.Type = core.CleanString(up.Type, true /* lower */)
	up.Country = strings.ToUpper(core.CleanString(up.Country))
	up.City = core.CleanString(up.City)
	up.Website = core.CleanString(up.Website)

	if err := validate.Struct(up); err != nil {
		return err
	}
	return svc.checkPartnerUniqueness(ctx, up.Name, up.Code, orig)
}

// apply returns orig with the provided fields set.
func (up UpdatePartner) apply(orig Partner) Partner {
	if up.Name != "" {
		orig.Name = up.Name
	}
	if up.Code != "" {
		orig.Code = up.Code
	}
	if up.Type != "" {
		orig.Type = up.Type
	}
	if up.Country != "" {
		orig.Country = up.Country
	}
	if up.City != "" {
		orig.City = up.City
	}
	if up.Website != "" {
		orig.Website = up.Website
	}
	if up.IsValid != nil {
		orig.IsValid = *up.IsValid
	}
	return orig
}

// NewPartnership contains information needed to create a new Partnership.
type NewPartnership struct {
	PartnerID string `json:"partner_id" yaml:"partner_id" validate:"required,uuid"`
	Entity    string `json:"entity" yaml:"entity" validate:"notblank,max=32"`
	Type      string `json:"type" yaml:"type" validate:"required,partnershiptype"`
	Comment   string `json:"comment" yaml:"comment"`
	Years     []int  `json:"years" yaml:"years" validate:"omitempty,dive,academicyear"`
}

func (np *NewPartnership) Validate(validate *validator.Validate) error {
	np.Entity = core.CleanString(np.Entity)
	np.Type = core.CleanString(np.Type, true /* lower */)
	np.Comment = core.CleanString(np.Comment)
	return validate.Struct(np)
}

// PartnershipYears replaces the declared years of a Partnership.
type PartnershipYears struct {
	Years []int `json:"years" validate:"omitempty,dive,academicyear"`
}

func (py *PartnershipYears) Validate(validate *validator.Validate) error {
	return validate.Struct(py)
}

// NewAgreement contains information needed to create a new Agreement.
type NewAgreement struct {
	StartYear int    `json:"start_year" yaml:"start_year" validate:"academicyear"`
	EndYear   int    `json:"end_year" yaml:"end_year" validate:"academicyear,gtefield=StartYear"`
	Status    string `json:"status" yaml:"status" validate:"omitempty,agreementstatus"`
	Note      string `json:"note" yaml:"note"`
}

func (na *NewAgreement) Validate(validate *validator.Validate) error {
	na.Status = core.CleanString(na.Status, true /* lower */)
	na.Note = core.CleanString(na.Note)
	return validate.Struct(na)
}

type AgreementStatusUpdate struct {
	Status string `json:"status" validate:"required,agreementstatus"`
}

func (su *AgreementStatusUpdate) Validate(validate *validator.Validate) error {
	su.Status = core.CleanString(su.Status, true /* lower */)
	return validate.Struct(su)
}

type PartnerFilter struct {
	Search  string `query:"search"`
	Type    string `query:"type"`
	Country string `query:"country"`
	IsValid *bool  `query:"is_valid"`
}

func (pf *PartnerFilter) Clean() {
	pf.Search = core.CleanString(pf.Search)
	pf.Type = core.CleanString(pf.Type, true /* lower */)
	pf.Country = strings.ToUpper(core.CleanString(pf.Country))
}

type PartnershipFilter struct {
	PartnerID         string `query:"partner"`
	Entity            string `query:"entity"`
	Type              string `query:"type"`
	Year              int    `query:"year"`
	MissingValidYears *bool  `query:"missing_valid_years"`
}

func (pf *PartnershipFilter) Clean() {
	pf.PartnerID = core.CleanString(pf.PartnerID)
	pf.Entity = core.CleanString(pf.Entity)
	pf.Type = core.CleanString(pf.Type, true /* lower */)
}

type AgreementFilter struct {
	PartnershipIDs []string
	Status         string
}

// cleanYears sorts years and drops duplicates.
func cleanYears(years []int) []int {
	cleaned := make([]int, 0, len(years))
	sorted := append([]int(nil), years...)
	sort.Ints(sorted)
	for i, y := range sorted {
		if i == 0 || y != sorted[i-1] {
			cleaned = append(cleaned, y)
		}
	}
	return cleaned
}
