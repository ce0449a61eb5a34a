package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
	"go.uber.org/zap"

	"neowatch/internal/export"
	"neowatch/internal/filters"
	"neowatch/internal/models"
	"neowatch/internal/neodb"
	"neowatch/internal/service"
	"neowatch/internal/utils"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func testService(t *testing.T) service.NEOService {
	t.Helper()
	newNEO := func(des, name, diameter, pha string) *models.NearEarthObject {
		n, err := models.NewNearEarthObject(models.NEORecord{Designation: des, Name: name, Diameter: diameter, Hazardous: pha})
		require.NoError(t, err)
		return n
	}
	newApproach := func(des, when, dist, vel string) *models.CloseApproach {
		ca, err := models.NewCloseApproach(models.ApproachRecord{Designation: des, Time: when, Distance: dist, Velocity: vel}, utils.ParseCADTime)
		require.NoError(t, err)
		return ca
	}

	db := neodb.New(
		[]*models.NearEarthObject{
			newNEO("433", "Eros", "16.84", "N"),
			newNEO("99942", "Apophis", "0.37", "Y"),
			newNEO("2000 AB", "", "", ""),
		},
		[]*models.CloseApproach{
			newApproach("433", "1900-Dec-27 01:30", "0.31", "5.58"),
			newApproach("99942", "2029-Apr-13 21:46", "0.00", "7.42"),
			newApproach("2000 AB", "2020-Jan-01 00:00", "0.05", "10.0"),
		},
	)
	return service.NewNEOService(db, service.Options{})
}

func newTestRouter(t *testing.T, svc service.NEOService) *gin.Engine {
	t.Helper()
	return NewRouter(svc, zap.NewNop(), RouterOptions{})
}

func do(t *testing.T, r http.Handler, target string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, target, http.NoBody)
	rr := httptest.NewRecorder()
	r.ServeHTTP(rr, req)
	return rr
}

func decode(t *testing.T, rr *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var body map[string]any
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &body))
	return body
}

func TestGetNEO(t *testing.T) {
	r := newTestRouter(t, testService(t))

	rr := do(t, r, "/api/v1/neos/433")
	require.Equal(t, http.StatusOK, rr.Code)
	body := decode(t, rr)
	neo := body["neo"].(map[string]any)
	assert.Equal(t, "Eros", neo["name"])
	assert.Len(t, body["approaches"], 1)

	rr = do(t, r, "/api/v1/neos/2000%20AB")
	require.Equal(t, http.StatusOK, rr.Code)
	neo = decode(t, rr)["neo"].(map[string]any)
	assert.Nil(t, neo["name"])
	assert.Nil(t, neo["diameter_km"])

	rr = do(t, r, "/api/v1/neos/nope")
	assert.Equal(t, http.StatusNotFound, rr.Code)
}

func TestFindNEO(t *testing.T) {
	r := newTestRouter(t, testService(t))

	rr := do(t, r, "/api/v1/neos?name=Apophis")
	require.Equal(t, http.StatusOK, rr.Code)
	neo := decode(t, rr)["neo"].(map[string]any)
	assert.Equal(t, "99942", neo["designation"])
	assert.Equal(t, true, neo["potentially_hazardous"])

	assert.Equal(t, http.StatusNotFound, do(t, r, "/api/v1/neos?name=apophis").Code)
	assert.Equal(t, http.StatusBadRequest, do(t, r, "/api/v1/neos").Code)
}

func TestGetApproaches(t *testing.T) {
	r := newTestRouter(t, testService(t))

	tests := []struct {
		name  string
		query string
		count int
	}{
		{"all", "", 3},
		{"limited", "?limit=2", 2},
		{"zero limit is unlimited", "?limit=0", 3},
		{"hazardous", "?hazardous=true", 1},
		{"zero distance bound", "?distance_max=0", 1},
		{"date range", "?start_date=2000-01-01&end_date=2030-01-01", 2},
		{"diameter excludes unknown", "?diameter_min=0", 2},
		{"empty value ignored", "?distance_min=", 3},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rr := do(t, r, "/api/v1/approaches"+tt.query)
			require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())
			body := decode(t, rr)
			assert.Equal(t, float64(tt.count), body["count"])
			assert.Len(t, body["approaches"], tt.count)
		})
	}
}

func TestGetApproaches_BadRequest(t *testing.T) {
	r := newTestRouter(t, testService(t))

	for _, q := range []string{
		"?date=yesterday",
		"?distance_min=far",
		"?hazardous=maybe",
		"?velocity_min=10&velocity_max=5",
		"?start_date=2030-01-01&end_date=2020-01-01",
		"?limit=-1",
		"?limit=ten",
	} {
		rr := do(t, r, "/api/v1/approaches"+q)
		assert.Equal(t, http.StatusBadRequest, rr.Code, q)
		assert.Equal(t, "invalid criteria", decode(t, rr)["error"], q)
	}
}

func TestExportApproaches(t *testing.T) {
	r := newTestRouter(t, testService(t))

	rr := do(t, r, "/api/v1/approaches/export?limit=1")
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, "text/csv", rr.Header().Get("Content-Type"))
	assert.Contains(t, rr.Header().Get("Content-Disposition"), "approaches.csv")
	lines := strings.Split(strings.TrimSpace(rr.Body.String()), "\n")
	assert.Len(t, lines, 2)

	rr = do(t, r, "/api/v1/approaches/export?format=json&hazardous=false")
	require.Equal(t, http.StatusOK, rr.Code)
	var rows []map[string]any
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &rows))
	assert.Len(t, rows, 2)

	rr = do(t, r, "/api/v1/approaches/export?format=excel")
	require.Equal(t, http.StatusOK, rr.Code)
	wb, err := excelize.OpenReader(rr.Body)
	require.NoError(t, err)
	defer wb.Close()
	assert.Equal(t, []string{"Approaches", "Info"}, wb.GetSheetList())

	assert.Equal(t, http.StatusBadRequest, do(t, r, "/api/v1/approaches/export?format=xml").Code)
	assert.Equal(t, http.StatusBadRequest, do(t, r, "/api/v1/approaches/export?diameter_max=-1").Code)
}

type brokenService struct {
	service.NEOService
}

func (brokenService) QueryApproaches(context.Context, filters.Criteria, int) (*service.QueryResult, error) {
	return nil, errors.New("boom")
}

func (brokenService) ExportApproaches(context.Context, io.Writer, export.Format, filters.Criteria, int) (int, error) {
	return 0, errors.New("boom")
}

func (brokenService) Stats(context.Context) (*service.SystemStats, error) {
	return nil, errors.New("boom")
}

func TestInternalErrors(t *testing.T) {
	r := newTestRouter(t, brokenService{})

	assert.Equal(t, http.StatusInternalServerError, do(t, r, "/api/v1/approaches").Code)
	assert.Equal(t, http.StatusInternalServerError, do(t, r, "/api/v1/approaches/export").Code)
	assert.Equal(t, http.StatusInternalServerError, do(t, r, "/api/v1/system/stats").Code)
}

func TestHealthAndStats(t *testing.T) {
	svc := testService(t)
	r := NewRouter(svc, zap.NewNop(), RouterOptions{DBEnabled: true})

	rr := do(t, r, "/api/v1/health")
	require.Equal(t, http.StatusOK, rr.Code)
	body := decode(t, rr)
	assert.Equal(t, "ok", body["status"])
	services := body["services"].(map[string]any)
	assert.Equal(t, "connected", services["database"])
	assert.Equal(t, "disabled", services["redis"])

	rr = do(t, r, "/api/v1/system/stats")
	require.Equal(t, http.StatusOK, rr.Code)
	dataset := decode(t, rr)["dataset"].(map[string]any)
	assert.Equal(t, float64(3), dataset["neos"])
	assert.Equal(t, float64(3), dataset["linked_approaches"])
}

func TestMetricsEndpoint(t *testing.T) {
	r := newTestRouter(t, testService(t))
	do(t, r, "/api/v1/approaches")

	rr := do(t, r, "/metrics")
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Contains(t, rr.Body.String(), "neowatch_http_requests_total")
	assert.Contains(t, rr.Body.String(), "neowatch_approach_queries_total")
}

func TestRateLimitedRouter(t *testing.T) {
	r := NewRouter(testService(t), zap.NewNop(), RouterOptions{RequestsPerSecond: 1, Burst: 1})

	assert.Equal(t, http.StatusOK, do(t, r, "/api/v1/approaches").Code)
	assert.Equal(t, http.StatusTooManyRequests, do(t, r, "/api/v1/approaches").Code)
	assert.Equal(t, http.StatusOK, do(t, r, "/api/v1/health").Code)
}
