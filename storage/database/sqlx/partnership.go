package sqlxrepos

import (
	"context"
	"database/sql"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
	"github.com/pkg/errors"

	"github.com/trezcool/partnerships/core"
	"github.com/trezcool/partnerships/core/partnership"
)

const (
	uniqueViolation = "23505"

	partnerColumns     = "id, name, code, type, country, city, website, is_valid, created_at, updated_at"
	partnershipColumns = "id, partner_id, entity, type, comment, created_at, updated_at"
	agreementColumns   = "id, partnership_id, start_year, end_year, status, note, created_at, updated_at"
)

// partnerOrderings maps the orderable fields to their columns.
var partnerOrderings = map[string]string{
	"name":       "LOWER(name)",
	"code":       "code",
	"country":    "country",
	"type":       "type",
	"created_at": "created_at",
	"updated_at": "updated_at",
}

type partnershipRepository struct {
	db *sqlx.DB
}

var _ partnership.Repository = (*partnershipRepository)(nil) // interface compliance check

func NewPartnershipRepository(db *sqlx.DB) partnership.Repository {
	return &partnershipRepository{db: db}
}

func isUniqueViolation(err error) bool {
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		return pqErr.Code == uniqueViolation
	}
	return false
}

// validID filters out ids postgres would refuse to cast to UUID.
func validID(id string) bool {
	_, err := uuid.Parse(id)
	return err == nil
}

// whereClause accumulates AND-ed conditions with positional args.
type whereClause struct {
	conds []string
	args  []interface{}
}

func (w *whereClause) add(cond string, arg interface{}) {
	w.args = append(w.args, arg)
	w.conds = append(w.conds, strings.ReplaceAll(cond, "?", "$"+strconv.Itoa(len(w.args))))
}

func (w *whereClause) String() string {
	if len(w.conds) == 0 {
		return ""
	}
	return " WHERE " + strings.Join(w.conds, " AND ")
}

// Partners

func (repo *partnershipRepository) CreatePartner(ctx context.Context, p partnership.Partner) (partnership.Partner, error) {
	p.ID = uuid.New().String()
	q := "INSERT INTO partners (" + partnerColumns + ") " +
		"VALUES (:id, :name, :code, :type, :country, :city, :website, :is_valid, :created_at, :updated_at)"
	if _, err := repo.db.NamedExecContext(ctx, q, boilPartner(p)); err != nil {
		if isUniqueViolation(err) {
			return partnership.Partner{}, partnership.ErrPartnerCodeExists
		}
		return partnership.Partner{}, errors.Wrap(err, "inserting partner")
	}
	return p, nil
}

func (repo *partnershipRepository) GetPartner(ctx context.Context, id string) (partnership.Partner, error) {
	if !validID(id) {
		return partnership.Partner{}, partnership.ErrPartnerNotFound
	}
	var row partnerRow
	if err := repo.db.GetContext(ctx, &row, "SELECT "+partnerColumns+" FROM partners WHERE id = $1", id); err != nil {
		if err == sql.ErrNoRows {
			return partnership.Partner{}, partnership.ErrPartnerNotFound
		}
		return partnership.Partner{}, errors.Wrap(err, "selecting partner")
	}
	return row.unboil(), nil
}

func (repo *partnershipRepository) QueryPartners(
	ctx context.Context,
	filter partnership.PartnerFilter,
	ordering ...core.DBOrdering,
) ([]partnership.Partner, error) {
	var where whereClause
	if filter.Search != "" {
		where.add("(name ILIKE ? OR code ILIKE ?)", "%"+filter.Search+"%")
	}
	if filter.Type != "" {
		where.add("type = ?", filter.Type)
	}
	if filter.Country != "" {
		where.add("country = ?", filter.Country)
	}
	if filter.IsValid != nil {
		where.add("is_valid = ?", *filter.IsValid)
	}

	orderBy := make([]string, 0, len(ordering)+1)
	for _, ord := range ordering {
		if col, ok := partnerOrderings[ord.Field]; ok {
			orderBy = append(orderBy, core.DBOrdering{Field: col, Ascending: ord.Ascending}.String())
		}
	}
	if len(orderBy) == 0 {
		orderBy = append(orderBy, "LOWER(name) ASC")
	}
	orderBy = append(orderBy, "id ASC")

	q := "SELECT " + partnerColumns + " FROM partners" + where.String() + " ORDER BY " + strings.Join(orderBy, ", ")
	var rows []partnerRow
	if err := repo.db.SelectContext(ctx, &rows, q, where.args...); err != nil {
		return nil, errors.Wrap(err, "selecting partners")
	}
	partners := make([]partnership.Partner, 0, len(rows))
	for _, row := range rows {
		partners = append(partners, row.unboil())
	}
	return partners, nil
}

func (repo *partnershipRepository) UpdatePartner(ctx context.Context, p partnership.Partner) (partnership.Partner, error) {
	if !validID(p.ID) {
		return partnership.Partner{}, partnership.ErrPartnerNotFound
	}
	q := "UPDATE partners SET name = :name, code = :code, type = :type, country = :country, city = :city, " +
		"website = :website, is_valid = :is_valid, updated_at = :updated_at WHERE id = :id"
	res, err := repo.db.NamedExecContext(ctx, q, boilPartner(p))
	if err != nil {
		if isUniqueViolation(err) {
			return partnership.Partner{}, partnership.ErrPartnerCodeExists
		}
		return partnership.Partner{}, errors.Wrap(err, "updating partner")
	}
	if n, err := res.RowsAffected(); err != nil {
		return partnership.Partner{}, errors.Wrap(err, "updating partner")
	} else if n == 0 {
		return partnership.Partner{}, partnership.ErrPartnerNotFound
	}
	return p, nil
}

// DeletePartners deletes partners; partnerships & agreements are deleted in cascade.
func (repo *partnershipRepository) DeletePartners(ctx context.Context, ids ...string) error {
	valid := make([]string, 0, len(ids))
	for _, id := range ids {
		if validID(id) {
			valid = append(valid, id)
		}
	}
	if len(valid) == 0 {
		return nil
	}
	q, args, err := sqlx.In("DELETE FROM partners WHERE id IN (?)", valid)
	if err != nil {
		return errors.Wrap(err, "building delete query")
	}
	if _, err = repo.db.ExecContext(ctx, repo.db.Rebind(q), args...); err != nil {
		return errors.Wrap(err, "deleting partners")
	}
	return nil
}

// Partnerships

func insertYears(ctx context.Context, tx *sqlx.Tx, id string, years []int) error {
	if len(years) == 0 {
		return nil
	}
	rows := make([]yearRow, 0, len(years))
	for _, y := range years {
		rows = append(rows, yearRow{PartnershipID: id, AcademicYear: y})
	}
	q := "INSERT INTO partnership_years (partnership_id, academic_year) VALUES (:partnership_id, :academic_year)"
	for _, row := range rows {
		if _, err := tx.NamedExecContext(ctx, q, row); err != nil {
			return errors.Wrap(err, "inserting partnership year")
		}
	}
	return nil
}

// inTx runs fn in a transaction, rolled back if fn fails.
func (repo *partnershipRepository) inTx(ctx context.Context, fn func(tx *sqlx.Tx) error) error {
	tx, err := repo.db.BeginTxx(ctx, nil)
	if err != nil {
		return errors.Wrap(err, "beginning transaction")
	}
	if err = fn(tx); err != nil {
		_ = tx.Rollback()
		return err
	}
	return errors.Wrap(tx.Commit(), "committing transaction")
}

func (repo *partnershipRepository) CreatePartnership(ctx context.Context, p partnership.Partnership) (partnership.Partnership, error) {
	if !validID(p.PartnerID) {
		return partnership.Partnership{}, partnership.ErrPartnerNotFound
	}
	p.ID = uuid.New().String()
	err := repo.inTx(ctx, func(tx *sqlx.Tx) error {
		q := "INSERT INTO partnerships (" + partnershipColumns + ") " +
			"VALUES (:id, :partner_id, :entity, :type, :comment, :created_at, :updated_at)"
		if _, err := tx.NamedExecContext(ctx, q, boilPartnership(p)); err != nil {
			return errors.Wrap(err, "inserting partnership")
		}
		return insertYears(ctx, tx, p.ID, p.Years)
	})
	if err != nil {
		return partnership.Partnership{}, err
	}
	if p.Years == nil {
		p.Years = []int{}
	}
	return p, nil
}

func (repo *partnershipRepository) GetPartnership(ctx context.Context, id string) (partnership.Partnership, error) {
	if !validID(id) {
		return partnership.Partnership{}, partnership.ErrPartnershipNotFound
	}
	var row partnershipRow
	if err := repo.db.GetContext(ctx, &row, "SELECT "+partnershipColumns+" FROM partnerships WHERE id = $1", id); err != nil {
		if err == sql.ErrNoRows {
			return partnership.Partnership{}, partnership.ErrPartnershipNotFound
		}
		return partnership.Partnership{}, errors.Wrap(err, "selecting partnership")
	}
	years, err := repo.queryYears(ctx, id)
	if err != nil {
		return partnership.Partnership{}, err
	}
	return row.unboil(years[id]), nil
}

// queryYears returns the sorted declared years of each partnership.
func (repo *partnershipRepository) queryYears(ctx context.Context, ids ...string) (map[string][]int, error) {
	var rows []yearRow
	q := "SELECT partnership_id, academic_year FROM partnership_years " +
		"WHERE partnership_id = ANY($1) ORDER BY academic_year"
	if err := repo.db.SelectContext(ctx, &rows, q, pq.Array(ids)); err != nil {
		return nil, errors.Wrap(err, "selecting partnership years")
	}
	years := make(map[string][]int, len(ids))
	for _, row := range rows {
		years[row.PartnershipID] = append(years[row.PartnershipID], row.AcademicYear)
	}
	return years, nil
}

func (repo *partnershipRepository) QueryPartnerships(
	ctx context.Context,
	filter partnership.PartnershipFilter,
) ([]partnership.Partnership, error) {
	var where whereClause
	if filter.PartnerID != "" {
		if !validID(filter.PartnerID) {
			return []partnership.Partnership{}, nil
		}
		where.add("partner_id = ?", filter.PartnerID)
	}
	if filter.Entity != "" {
		where.add("LOWER(entity) = LOWER(?)", filter.Entity)
	}
	if filter.Type != "" {
		where.add("type = ?", filter.Type)
	}
	if filter.Year != 0 {
		where.add("EXISTS (SELECT 1 FROM partnership_years py WHERE py.partnership_id = partnerships.id AND py.academic_year = ?)", filter.Year)
	}

	q := "SELECT " + partnershipColumns + " FROM partnerships" + where.String() + " ORDER BY created_at DESC, id ASC"
	var rows []partnershipRow
	if err := repo.db.SelectContext(ctx, &rows, q, where.args...); err != nil {
		return nil, errors.Wrap(err, "selecting partnerships")
	}
	if len(rows) == 0 {
		return []partnership.Partnership{}, nil
	}

	ids := make([]string, 0, len(rows))
	for _, row := range rows {
		ids = append(ids, row.ID)
	}
	years, err := repo.queryYears(ctx, ids...)
	if err != nil {
		return nil, err
	}
	partnerships := make([]partnership.Partnership, 0, len(rows))
	for _, row := range rows {
		partnerships = append(partnerships, row.unboil(years[row.ID]))
	}
	return partnerships, nil
}

func (repo *partnershipRepository) SetPartnershipYears(
	ctx context.Context,
	id string,
	years []int,
	updatedAt time.Time,
) (partnership.Partnership, error) {
	if !validID(id) {
		return partnership.Partnership{}, partnership.ErrPartnershipNotFound
	}
	err := repo.inTx(ctx, func(tx *sqlx.Tx) error {
		res, err := tx.ExecContext(ctx, "UPDATE partnerships SET updated_at = $1 WHERE id = $2", updatedAt.UTC(), id)
		if err != nil {
			return errors.Wrap(err, "updating partnership")
		}
		if n, err := res.RowsAffected(); err != nil {
			return errors.Wrap(err, "updating partnership")
		} else if n == 0 {
			return partnership.ErrPartnershipNotFound
		}
		if _, err = tx.ExecContext(ctx, "DELETE FROM partnership_years WHERE partnership_id = $1", id); err != nil {
			return errors.Wrap(err, "deleting partnership years")
		}
		return insertYears(ctx, tx, id, years)
	})
	if err != nil {
		return partnership.Partnership{}, err
	}
	return repo.GetPartnership(ctx, id)
}

// DeletePartnership deletes a partnership; years & agreements are deleted in cascade.
func (repo *partnershipRepository) DeletePartnership(ctx context.Context, id string) error {
	if !validID(id) {
		return nil
	}
	if _, err := repo.db.ExecContext(ctx, "DELETE FROM partnerships WHERE id = $1", id); err != nil {
		return errors.Wrap(err, "deleting partnership")
	}
	return nil
}

// Agreements

func (repo *partnershipRepository) CreateAgreement(ctx context.Context, a partnership.Agreement) (partnership.Agreement, error) {
	if !validID(a.PartnershipID) {
		return partnership.Agreement{}, partnership.ErrPartnershipNotFound
	}
	a.ID = uuid.New().String()
	q := "INSERT INTO agreements (" + agreementColumns + ") " +
		"VALUES (:id, :partnership_id, :start_year, :end_year, :status, :note, :created_at, :updated_at)"
	if _, err := repo.db.NamedExecContext(ctx, q, boilAgreement(a)); err != nil {
		return partnership.Agreement{}, errors.Wrap(err, "inserting agreement")
	}
	return a, nil
}

func (repo *partnershipRepository) GetAgreement(ctx context.Context, id string) (partnership.Agreement, error) {
	if !validID(id) {
		return partnership.Agreement{}, partnership.ErrAgreementNotFound
	}
	var row agreementRow
	if err := repo.db.GetContext(ctx, &row, "SELECT "+agreementColumns+" FROM agreements WHERE id = $1", id); err != nil {
		if err == sql.ErrNoRows {
			return partnership.Agreement{}, partnership.ErrAgreementNotFound
		}
		return partnership.Agreement{}, errors.Wrap(err, "selecting agreement")
	}
	return row.unboil(), nil
}

func (repo *partnershipRepository) QueryAgreements(
	ctx context.Context,
	filter partnership.AgreementFilter,
) ([]partnership.Agreement, error) {
	var where whereClause
	if len(filter.PartnershipIDs) > 0 {
		where.add("partnership_id = ANY(?)", pq.Array(filter.PartnershipIDs))
	}
	if filter.Status != "" {
		where.add("status = ?", filter.Status)
	}

	q := "SELECT " + agreementColumns + " FROM agreements" + where.String() + " ORDER BY start_year, end_year, id"
	var rows []agreementRow
	if err := repo.db.SelectContext(ctx, &rows, q, where.args...); err != nil {
		return nil, errors.Wrap(err, "selecting agreements")
	}
	agreements := make([]partnership.Agreement, 0, len(rows))
	for _, row := range rows {
		agreements = append(agreements, row.unboil())
	}
	return agreements, nil
}

func (repo *partnershipRepository) UpdateAgreement(ctx context.Context, a partnership.Agreement) (partnership.Agreement, error) {
	if !validID(a.ID) {
		return partnership.Agreement{}, partnership.ErrAgreementNotFound
	}
	q := "UPDATE agreements SET start_year = :start_year, end_year = :end_year, status = :status, " +
		"note = :note, updated_at = :updated_at WHERE id = :id"
	res, err := repo.db.NamedExecContext(ctx, q, boilAgreement(a))
	if err != nil {
		return partnership.Agreement{}, errors.Wrap(err, "updating agreement")
	}
	if n, err := res.RowsAffected(); err != nil {
		return partnership.Agreement{}, errors.Wrap(err, "updating agreement")
	} else if n == 0 {
		return partnership.Agreement{}, partnership.ErrAgreementNotFound
	}
	return a, nil
}

func (repo *partnershipRepository) DeleteAgreement(ctx context.Context, id string) error {
	if !validID(id) {
		return nil
	}
	if _, err := repo.db.ExecContext(ctx, "DELETE FROM agreements WHERE id = $1", id); err != nil {
		return errors.Wrap(err, "deleting agreement")
	}
	return nil
}
