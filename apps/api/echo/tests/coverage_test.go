package tests

import (
	"net/http"
	"testing"

	. "github.com/trezcool/partnerships/apps/api/echo"
	"github.com/trezcool/partnerships/core/coverage"
)

func Test_coverageApi_merge(t *testing.T) {
	app := setup(t)
	token := app.token(t, RoleViewer)

	tests := []httpTest{
		{
			name: "Auth required", method: http.MethodPost, path: "/v1/coverage/merge",
			wantCode: http.StatusUnauthorized, wantData: marshalObj(t, errMissingToken),
		},
		{
			name: "empty", method: http.MethodPost, path: "/v1/coverage/merge", token: token,
			body: []byte(`{"ranges": []}`), wantCode: http.StatusOK, wantData: marshalList(t),
		},
		{
			name: "overlapping & adjacent", method: http.MethodPost, path: "/v1/coverage/merge", token: token,
			body: marshalObj(t, MergeRequest{Ranges: []coverage.Range{
				{Start: 2019, End: 2020}, {Start: 2015, End: 2017}, {Start: 2016, End: 2018}, {Start: 2022, End: 2022},
			}}),
			wantCode: http.StatusOK,
			wantData: marshalObj(t, []coverage.Range{{Start: 2015, End: 2020}, {Start: 2022, End: 2022}}),
		},
		{
			name: "malformed range", method: http.MethodPost, path: "/v1/coverage/merge", token: token,
			body:     []byte(`{"ranges": [{"start": 2015, "end": 2016}, {"start": 2018, "end": 2017}]}`),
			wantCode: http.StatusBadRequest,
			wantData: marshalObj(t, httpErr{Error: "invalid academic year range #1 (2018-2017): start is after end"}),
		},
		{
			name: "year out of bounds", method: http.MethodPost, path: "/v1/coverage/merge", token: token,
			body:     []byte(`{"ranges": [{"start": 2015, "end": 9223372036854775807}, {"start": 5, "end": 10}]}`),
			wantCode: http.StatusBadRequest,
			wantData: marshalObj(t, map[string]string{"end": "academic year must be between 1900 and 2100", "start": "academic year must be between 1900 and 2100"}),
		},
		{
			name: "invalid json", method: http.MethodPost, path: "/v1/coverage/merge", token: token,
			body: []byte(`{"ranges": `), wantCode: http.StatusBadRequest,
		},
	}
	runHTTPTests(t, app, tests)
}

func Test_coverageApi_check(t *testing.T) {
	app := setup(t)
	token := app.token(t, RoleViewer)

	tests := []httpTest{
		{
			name: "span required", method: http.MethodPost, path: "/v1/coverage/check", token: token,
			body:     []byte(`{"ranges": []}`),
			wantCode: http.StatusBadRequest, wantData: marshalObj(t, map[string]string{"span": "this field is required"}),
		},
		{
			name: "covered", method: http.MethodPost, path: "/v1/coverage/check", token: token,
			body:     []byte(`{"span": {"min": 2015, "max": 2020}, "ranges": [{"start": 2015, "end": 2017}, {"start": 2018, "end": 2020}]}`),
			wantCode: http.StatusOK,
			wantData: marshalObj(t, coverage.Report{
				Merged:         []coverage.Range{{Start: 2015, End: 2020}},
				UncoveredYears: []int{},
				HasGap:         false,
			}),
		},
		{
			name: "gap in the middle", method: http.MethodPost, path: "/v1/coverage/check", token: token,
			body:     []byte(`{"span": {"min": 2015, "max": 2020}, "ranges": [{"start": 2015, "end": 2016}, {"start": 2018, "end": 2020}]}`),
			wantCode: http.StatusOK,
			wantData: marshalObj(t, coverage.Report{
				Merged:         []coverage.Range{{Start: 2015, End: 2016}, {Start: 2018, End: 2020}},
				UncoveredYears: []int{2017},
				HasGap:         true,
			}),
		},
		{
			name: "no agreement", method: http.MethodPost, path: "/v1/coverage/check", token: token,
			body:     []byte(`{"span": {"min": 2015, "max": 2016}}`),
			wantCode: http.StatusOK,
			wantData: marshalObj(t, coverage.Report{
				Merged:         []coverage.Range{},
				UncoveredYears: []int{2015, 2016},
				HasGap:         true,
			}),
		},
		{
			name: "malformed span", method: http.MethodPost, path: "/v1/coverage/check", token: token,
			body:     []byte(`{"span": {"min": 2020, "max": 2015}}`),
			wantCode: http.StatusBadRequest,
			wantData: marshalObj(t, httpErr{Error: "invalid partnership year span (2020-2015): min is after max"}),
		},
		{
			name: "span out of bounds", method: http.MethodPost, path: "/v1/coverage/check", token: token,
			body:     []byte(`{"span": {"min": 9223372036854775806, "max": 9223372036854775807}}`),
			wantCode: http.StatusBadRequest,
			wantData: marshalObj(t, map[string]string{"min": "academic year must be between 1900 and 2100", "max": "academic year must be between 1900 and 2100"}),
		},
		{
			name: "range out of bounds", method: http.MethodPost, path: "/v1/coverage/check", token: token,
			body:     []byte(`{"span": {"min": 2015, "max": 2016}, "ranges": [{"start": -5, "end": 2016}]}`),
			wantCode: http.StatusBadRequest,
			wantData: marshalObj(t, map[string]string{"start": "academic year must be between 1900 and 2100"}),
		},
	}
	runHTTPTests(t, app, tests)
}
