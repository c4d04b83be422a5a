package http

import (
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	"usdataexplorer/internal/election"
	apierrors "usdataexplorer/internal/errors"
	"usdataexplorer/internal/services"
	"usdataexplorer/internal/shared/testutil"
	api "usdataexplorer/pkg/contracts/api/v1"
)

func newElectionRouter(t *testing.T, svc *MockExplorerService) http.Handler {
	t.Helper()
	logger, _ := testutil.NewTestLogger(t)
	h := NewElectionHandler(svc, logger, newTestErrorHandler(t))
	r := chi.NewRouter()
	r.Mount("/api/elections", h.Routes())
	return r
}

func TestElectionHandler_GetYears(t *testing.T) {
	tests := []struct {
		name       string
		office     string
		years      []int
		err        error
		wantStatus int
	}{
		{name: "president", office: "president", years: []int{2016, 2020}, wantStatus: http.StatusOK},
		{name: "unknown office", office: "mayor", err: fmt.Errorf("%w: mayor", services.ErrUnknownOffice), wantStatus: http.StatusNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := new(MockExplorerService)
			if tt.err != nil {
				svc.On("ElectionYears", mock.Anything, tt.office).Return(nil, tt.err)
			} else {
				svc.On("ElectionYears", mock.Anything, tt.office).Return(tt.years, nil)
			}

			rec := httptest.NewRecorder()
			newElectionRouter(t, svc).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/elections/"+tt.office+"/years", nil))

			assert.Equal(t, tt.wantStatus, rec.Code)
			body := decodeBody(t, rec)
			if tt.err == nil {
				assert.Equal(t, "success", body["status"])
				assert.Equal(t, float64(len(tt.years)), body["count"])
			} else {
				assert.Equal(t, apierrors.TypeNotFound, body["type"])
			}
			svc.AssertExpectations(t)
		})
	}
}

func TestElectionHandler_GetMap(t *testing.T) {
	svc := new(MockExplorerService)
	svc.On("ElectionMap", mock.Anything, "president", 2020).Return(&services.MapView{
		Office:       election.President,
		Year:         2020,
		WinningParty: "DEMOCRAT",
		States: map[string]*election.StateResult{
			"VT": {State: "VERMONT", StateCode: "VT", TotalVotes: 367428},
		},
	}, nil)
	svc.On("ElectionMap", mock.Anything, "president", 2018).Return(nil, services.ErrNoResults)

	router := newElectionRouter(t, svc)

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/elections/president/2020/map", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	data := decodeBody(t, rec)["data"].(map[string]interface{})
	assert.Equal(t, "DEMOCRAT", data["winningParty"])
	assert.Contains(t, data["states"], "VT")

	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/elections/president/2018/map", nil))
	assert.Equal(t, http.StatusNotFound, rec.Code)

	// Non-numeric years never reach the service
	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/elections/president/abc/map", nil))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	details := decodeBody(t, rec)["details"].(map[string]interface{})
	assert.Equal(t, "year", details["field"])

	svc.AssertExpectations(t)
}

func TestElectionHandler_GetTable(t *testing.T) {
	svc := new(MockExplorerService)
	q := api.ResultsTableQuery{Sort: "totalVotes", Direction: "desc"}
	svc.On("ResultsTable", mock.Anything, "senate", 2018, q).Return([]election.TableRow{
		{State: "OHIO", TotalVotes: 4429582},
		{State: "VERMONT", TotalVotes: 274161},
	}, nil)

	rec := httptest.NewRecorder()
	newElectionRouter(t, svc).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/elections/senate/2018/table?sort=totalVotes&dir=desc", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, float64(2), decodeBody(t, rec)["count"])
	svc.AssertExpectations(t)
}

func TestElectionHandler_ValidationPassesThrough(t *testing.T) {
	svc := new(MockExplorerService)
	svc.On("ResultsTable", mock.Anything, "president", 2020, api.ResultsTableQuery{Sort: "margin"}).
		Return(nil, apierrors.NewAppValidationError("sort must be one of state winner totalVotes"))

	rec := httptest.NewRecorder()
	newElectionRouter(t, svc).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/elections/president/2020/table?sort=margin", nil))

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, apierrors.TypeValidation, decodeBody(t, rec)["type"])
}

func TestElectionHandler_ChartsAndDistricts(t *testing.T) {
	svc := new(MockExplorerService)
	svc.On("ElectionCharts", mock.Anything, "president", 2020, "VT").Return(&services.ChartsView{
		Office: election.President,
		Year:   2020,
		State:  "VT",
		Rows:   []election.ChartRow{{}},
	}, nil)
	svc.On("Districts", mock.Anything, "house", 2022, "OH").Return([]string{"1", "2", "10"}, nil)
	svc.On("Districts", mock.Anything, "house", 2022, "TX").Return(nil, services.ErrNoResults)

	router := newElectionRouter(t, svc)

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/elections/president/2020/charts?state=VT", nil))
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/elections/house/2022/districts?state=OH", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	body := decodeBody(t, rec)
	assert.Equal(t, []interface{}{"1", "2", "10"}, body["data"])

	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/elections/house/2022/districts?state=TX", nil))
	assert.Equal(t, http.StatusNotFound, rec.Code)

	svc.AssertExpectations(t)
}

func TestElectionHandler_GetTrends(t *testing.T) {
	svc := new(MockExplorerService)
	svc.On("ElectionTrends", mock.Anything, "president", "", "OH").Return(&services.TrendsView{
		Office: election.President,
		Years:  []int{2016, 2020},
		Entity: "OH",
	}, nil)

	rec := httptest.NewRecorder()
	newElectionRouter(t, svc).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/elections/president/trends?state=OH", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	data := decodeBody(t, rec)["data"].(map[string]interface{})
	assert.Equal(t, "OH", data["entity"])
	svc.AssertExpectations(t)
}
