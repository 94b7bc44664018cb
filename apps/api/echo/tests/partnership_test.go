package tests

import (
	"encoding/json"
	"net/http"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	. "github.com/trezcool/partnerships/apps/api/echo"
	"github.com/trezcool/partnerships/core/coverage"
	"github.com/trezcool/partnerships/core/partnership"
	"github.com/trezcool/partnerships/tests"
)

func Test_partnershipApi_createPartnership(t *testing.T) {
	app := setup(t)
	gfToken := app.token(t, RoleGF)
	lyon := testutil.CreatePartner(t, app.repo, "Université de Lyon", "F LYON01", "FR", true)

	tests := []httpTest{
		{
			name: "Editor required", method: http.MethodPost, path: "/v1/partnerships", token: app.token(t, RoleViewer),
			body: marshalObj(t, partnership.NewPartnership{PartnerID: lyon.ID, Entity: "FIAL", Type: "mobility"}), wantCode: http.StatusForbidden,
		},
		{
			name: "unknown partner", method: http.MethodPost, path: "/v1/partnerships", token: gfToken,
			body:     marshalObj(t, partnership.NewPartnership{PartnerID: uuid.New().String(), Entity: "FIAL", Type: "mobility"}),
			wantCode: http.StatusBadRequest, wantData: marshalObj(t, map[string]string{"partner_id": "partner not found"}),
		},
		{
			name: "invalid year", method: http.MethodPost, path: "/v1/partnerships", token: gfToken,
			body:     marshalObj(t, partnership.NewPartnership{PartnerID: lyon.ID, Entity: "FIAL", Type: "mobility", Years: []int{2015, 20}}),
			wantCode: http.StatusBadRequest, wantData: marshalObj(t, map[string]string{"years[1]": "academic year must be between 1900 and 2100"}),
		},
	}
	runHTTPTests(t, app, tests)

	t.Run("created", func(t *testing.T) {
		rec := app.do(httpTest{
			method: http.MethodPost, path: "/v1/partnerships", token: gfToken,
			body: marshalObj(t, partnership.NewPartnership{PartnerID: lyon.ID, Entity: " FIAL ", Type: "Course", Years: []int{2017, 2015, 2016, 2015}}),
		})
		require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

		var p partnership.Partnership
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &p))
		assert.NotEmpty(t, p.ID)
		assert.Equal(t, lyon.ID, p.PartnerID)
		assert.Equal(t, "FIAL", p.Entity)
		assert.Equal(t, partnership.TypeCourse, p.Type)
		assert.Equal(t, []int{2015, 2016, 2017}, p.Years)
	})
}

func Test_partnershipApi_partnershipDetail(t *testing.T) {
	app := setup(t)
	viewerToken := app.token(t, RoleViewer)
	gfToken := app.token(t, RoleGF)

	lyon := testutil.CreatePartner(t, app.repo, "Université de Lyon", "F LYON01", "FR", true)
	p := testutil.CreatePartnership(t, app.repo, lyon.ID, "FIAL", []int{2015, 2016})
	unknown := "/v1/partnerships/" + uuid.New().String()

	tests := []httpTest{
		{name: "Auth required", path: "/v1/partnerships/" + p.ID, wantCode: http.StatusUnauthorized},
		{name: "retrieve (unknown)", path: unknown, token: viewerToken, wantCode: http.StatusNotFound},
		{name: "retrieve", path: "/v1/partnerships/" + p.ID, token: viewerToken, wantCode: http.StatusOK, wantData: marshalObj(t, p)},
		{
			name: "set years (viewer)", method: http.MethodPut, path: "/v1/partnerships/" + p.ID + "/years", token: viewerToken,
			body: []byte(`{"years": [2015]}`), wantCode: http.StatusForbidden,
		},
		{
			name: "set years (invalid)", method: http.MethodPut, path: "/v1/partnerships/" + p.ID + "/years", token: gfToken,
			body:     []byte(`{"years": [3000]}`),
			wantCode: http.StatusBadRequest, wantData: marshalObj(t, map[string]string{"years[0]": "academic year must be between 1900 and 2100"}),
		},
	}
	runHTTPTests(t, app, tests)

	t.Run("set years", func(t *testing.T) {
		rec := app.do(httpTest{
			method: http.MethodPut, path: "/v1/partnerships/" + p.ID + "/years", token: gfToken,
			body: []byte(`{"years": [2020, 2018, 2019, 2018]}`),
		})
		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

		var got partnership.Partnership
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
		assert.Equal(t, []int{2018, 2019, 2020}, got.Years)
	})

	t.Run("delete", func(t *testing.T) {
		rec := app.do(httpTest{method: http.MethodDelete, path: "/v1/partnerships/" + p.ID, token: gfToken})
		assert.Equal(t, http.StatusNoContent, rec.Code)

		rec = app.do(httpTest{path: "/v1/partnerships/" + p.ID, token: viewerToken})
		assert.Equal(t, http.StatusNotFound, rec.Code)
	})
}

func Test_partnershipApi_coverage(t *testing.T) {
	app := setup(t)
	token := app.token(t, RoleViewer)

	lyon := testutil.CreatePartner(t, app.repo, "Université de Lyon", "F LYON01", "FR", true)
	now := time.Now()

	// 2017 only has a waiting agreement
	gapped := testutil.CreatePartnership(t, app.repo, lyon.ID, "FIAL", testutil.YearsBetween(2015, 2020), now)
	testutil.CreateAgreement(t, app.repo, gapped.ID, 2018, 2020, partnership.StatusValidated)
	testutil.CreateAgreement(t, app.repo, gapped.ID, 2015, 2016, partnership.StatusValidated)
	testutil.CreateAgreement(t, app.repo, gapped.ID, 2017, 2017, partnership.StatusWaiting)

	covered := testutil.CreatePartnership(t, app.repo, lyon.ID, "EPL", testutil.YearsBetween(2015, 2020), now.Add(time.Hour))
	testutil.CreateAgreement(t, app.repo, covered.ID, 2015, 2017, partnership.StatusValidated)
	testutil.CreateAgreement(t, app.repo, covered.ID, 2018, 2020, partnership.StatusValidated)

	bare := testutil.CreatePartnership(t, app.repo, lyon.ID, "DRT", []int{2019, 2020}, now.Add(2*time.Hour))
	undeclared := testutil.CreatePartnership(t, app.repo, lyon.ID, "LSM", nil, now.Add(3*time.Hour))

	span := func(min, max int) *coverage.YearSpan { return &coverage.YearSpan{Min: min, Max: max} }
	gappedCov := partnership.Coverage{
		PartnershipID:     gapped.ID,
		Span:              span(2015, 2020),
		ValidatedRanges:   []coverage.Range{{Start: 2015, End: 2016}, {Start: 2018, End: 2020}},
		MergedRanges:      []coverage.Range{{Start: 2015, End: 2016}, {Start: 2018, End: 2020}},
		UncoveredYears:    []int{2017},
		MissingValidYears: true,
	}
	coveredCov := partnership.Coverage{
		PartnershipID:   covered.ID,
		Span:            span(2015, 2020),
		ValidatedRanges: []coverage.Range{{Start: 2015, End: 2017}, {Start: 2018, End: 2020}},
		MergedRanges:    []coverage.Range{{Start: 2015, End: 2020}},
		UncoveredYears:  []int{},
	}
	bareCov := partnership.Coverage{
		PartnershipID:     bare.ID,
		Span:              span(2019, 2020),
		ValidatedRanges:   []coverage.Range{},
		MergedRanges:      []coverage.Range{},
		UncoveredYears:    []int{2019, 2020},
		MissingValidYears: true,
	}
	undeclaredCov := partnership.Coverage{
		PartnershipID:   undeclared.ID,
		ValidatedRanges: []coverage.Range{},
		MergedRanges:    []coverage.Range{},
		UncoveredYears:  []int{},
	}

	tests := []httpTest{
		{name: "gap in the middle", path: "/v1/partnerships/" + gapped.ID + "/coverage", token: token, wantCode: http.StatusOK, wantData: marshalObj(t, gappedCov)},
		{name: "fully covered", path: "/v1/partnerships/" + covered.ID + "/coverage", token: token, wantCode: http.StatusOK, wantData: marshalObj(t, coveredCov)},
		{name: "no agreement", path: "/v1/partnerships/" + bare.ID + "/coverage", token: token, wantCode: http.StatusOK, wantData: marshalObj(t, bareCov)},
		{name: "no declared year", path: "/v1/partnerships/" + undeclared.ID + "/coverage", token: token, wantCode: http.StatusOK, wantData: marshalObj(t, undeclaredCov)},
		{name: "unknown", path: "/v1/partnerships/" + uuid.New().String() + "/coverage", token: token, wantCode: http.StatusNotFound},
		{name: "gaps", path: "/v1/partnerships/gaps", token: token, wantCode: http.StatusOK, wantData: marshalList(t, bareCov, gappedCov)},
		{name: "gaps (entity filter)", path: "/v1/partnerships/gaps?entity=fial", token: token, wantCode: http.StatusOK, wantData: marshalList(t, gappedCov)},
		{
			name: "missing_valid_years=true", path: "/v1/partnerships?missing_valid_years=true", token: token,
			wantCode: http.StatusOK, wantData: marshalList(t, bare, gapped),
		},
		{
			name: "missing_valid_years=false", path: "/v1/partnerships?missing_valid_years=false", token: token,
			wantCode: http.StatusOK, wantData: marshalList(t, undeclared, covered),
		},
		{name: "year=2019", path: "/v1/partnerships?year=2019", token: token, wantCode: http.StatusOK, wantData: marshalList(t, bare, covered, gapped)},
	}
	runHTTPTests(t, app, tests)
}
