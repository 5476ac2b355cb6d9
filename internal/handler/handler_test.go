package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	"relgraph/internal/domain"
	"relgraph/internal/repository/sqlite"
	"relgraph/internal/service"
	"relgraph/internal/store"
)

type testAPI struct {
	t       *testing.T
	handler http.Handler
	graph   *service.RelationshipGraph
}

func newTestAPI(t *testing.T) *testAPI {
	t.Helper()
	ctx := context.Background()

	s, err := store.Open(ctx, store.MemoryPath, nil)
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })

	graph := service.NewRelationshipGraph(sqlite.New(s, nil), service.NewEventBus(), nil)
	require.NoError(t, graph.Start(ctx))

	mux := http.NewServeMux()
	NewGraphHandler(graph, nil).Register(mux)

	return &testAPI{t: t, handler: mux, graph: graph}
}

func (a *testAPI) do(method, path string, body interface{}) *httptest.ResponseRecorder {
	a.t.Helper()
	var buf bytes.Buffer
	switch v := body.(type) {
	case nil:
	case string:
		buf.WriteString(v)
	default:
		require.NoError(a.t, json.NewEncoder(&buf).Encode(v))
	}
	req := httptest.NewRequest(method, path, &buf)
	rec := httptest.NewRecorder()
	a.handler.ServeHTTP(rec, req)
	return rec
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &v), rec.Body.String())
	return v
}

func TestSnapshotEndpoint(t *testing.T) {
	api := newTestAPI(t)

	rec := api.do(http.MethodGet, "/api/snapshot", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	snap := decode[domain.Snapshot](t, rec)
	assert.Equal(t, domain.SnapshotIdle, snap.State)
	assert.NotNil(t, snap.Businesses)
	assert.Empty(t, snap.Businesses)
}

func TestAcmeFinanceJaneOverHTTP(t *testing.T) {
	api := newTestAPI(t)

	rec := api.do(http.MethodPost, "/api/businesses", map[string]string{"name": "Acme"})
	require.Equal(t, http.StatusCreated, rec.Code)
	acme := decode[domain.Business](t, rec)

	rec = api.do(http.MethodPost, "/api/departments", CreateDepartmentRequest{Name: "Finance"})
	require.Equal(t, http.StatusCreated, rec.Code)
	finance := decode[domain.Department](t, rec)

	for i := 0; i < 2; i++ {
		rec = api.do(http.MethodPut, "/api/businesses/"+acme.ID+"/departments/"+finance.ID, nil)
		require.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, map[string]bool{"added": i == 0}, decode[map[string]bool](t, rec))
	}

	rec = api.do(http.MethodPost, "/api/employees", map[string]interface{}{
		"name": "Jane", "age": 30, "business_id": acme.ID, "department_id": finance.ID,
	})
	require.Equal(t, http.StatusCreated, rec.Code)
	jane := decode[domain.Employee](t, rec)

	rec = api.do(http.MethodGet, "/api/businesses/"+acme.ID+"/employees", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	employees := decode[[]domain.Employee](t, rec)
	require.Len(t, employees, 1)
	assert.Equal(t, jane.ID, employees[0].ID)

	rec = api.do(http.MethodDelete, "/api/departments/"+finance.ID, nil)
	require.Equal(t, http.StatusNoContent, rec.Code)

	snap := decode[domain.Snapshot](t, api.do(http.MethodGet, "/api/snapshot", nil))
	require.Len(t, snap.Employees, 1)
	assert.Equal(t, acme.ID, snap.Employees[0].BusinessID)
	assert.Empty(t, snap.Employees[0].DepartmentID)
	assert.Empty(t, snap.Departments)
	assert.Empty(t, snap.Businesses[0].DepartmentIDs)
}

func TestUpdateEmployeeEndpoint(t *testing.T) {
	api := newTestAPI(t)
	ctx := context.Background()

	b1, err := api.graph.AddBusiness(ctx, "Acme")
	require.NoError(t, err)
	b2, err := api.graph.AddBusiness(ctx, "Globex")
	require.NoError(t, err)
	e, err := api.graph.AddEmployee(ctx, domain.EmployeeInput{Name: "Jane", Age: 30, BusinessID: b1.ID})
	require.NoError(t, err)

	rec := api.do(http.MethodPut, "/api/employees/"+e.ID, map[string]interface{}{"business_id": b2.ID, "age": 31})
	require.Equal(t, http.StatusOK, rec.Code)
	updated := decode[domain.Employee](t, rec)
	assert.Equal(t, b2.ID, updated.BusinessID)
	assert.Equal(t, 31, updated.Age)

	rec = api.do(http.MethodPut, "/api/employees/"+e.ID, map[string]interface{}{})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestErrorMapping(t *testing.T) {
	api := newTestAPI(t)

	tests := []struct {
		name   string
		method string
		path   string
		body   interface{}
		status int
	}{
		{"delete missing department", http.MethodDelete, "/api/departments/ghost", nil, http.StatusNotFound},
		{"delete missing business", http.MethodDelete, "/api/businesses/ghost", nil, http.StatusNotFound},
		{"delete missing employee", http.MethodDelete, "/api/employees/ghost", nil, http.StatusNotFound},
		{"link missing records", http.MethodPut, "/api/businesses/ghost/departments/ghost", nil, http.StatusNotFound},
		{"employees of missing business", http.MethodGet, "/api/businesses/ghost/employees", nil, http.StatusNotFound},
		{"blank business name", http.MethodPost, "/api/businesses", map[string]string{"name": " "}, http.StatusBadRequest},
		{"negative age", http.MethodPost, "/api/employees", map[string]interface{}{"name": "Jane", "age": -1}, http.StatusBadRequest},
		{"malformed body", http.MethodPost, "/api/businesses", "{", http.StatusBadRequest},
		{"unknown export format", http.MethodGet, "/api/export/xml", nil, http.StatusBadRequest},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := api.do(tt.method, tt.path, tt.body)
			assert.Equal(t, tt.status, rec.Code, rec.Body.String())

			resp := decode[ErrorResponse](t, rec)
			assert.NotEmpty(t, resp.Error)
		})
	}
}

func TestImportThenExport(t *testing.T) {
	api := newTestAPI(t)

	fixture := `
businesses:
  - name: Apple
  - name: Facebook
departments:
  - name: Finance
    businesses: [Apple, Facebook]
employees:
  - name: John
    age: 21
    date_joined: 2022-07-07T00:00:00Z
    business: Facebook
    department: Finance
`
	rec := api.do(http.MethodPost, "/api/import/yaml", fixture)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	result := decode[service.ImportResult](t, rec)
	assert.Equal(t, 2, result.LinksCreated)

	rec = api.do(http.MethodGet, "/api/export/json", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))

	exported := decode[domain.Fixture](t, rec)
	snap := api.graph.Snapshot()
	apple, facebook := snap.BusinessByName("Apple"), snap.BusinessByName("Facebook")
	require.NotNil(t, apple)
	require.NotNil(t, facebook)
	assert.Equal(t, []domain.FixtureBusiness{{Ref: apple.ID, Name: "Apple"}, {Ref: facebook.ID, Name: "Facebook"}}, exported.Businesses)
	assert.Equal(t, []string{apple.ID, facebook.ID}, exported.Departments[0].Businesses)
	assert.Equal(t, facebook.ID, exported.Employees[0].Business)

	rec = api.do(http.MethodGet, "/api/export/yaml", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "name: John")
}

func TestImportRejectsDanglingNames(t *testing.T) {
	api := newTestAPI(t)

	rec := api.do(http.MethodPost, "/api/import/yaml", "employees:\n  - name: Jane\n    age: 30\n    business: Nowhere\n")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.True(t, api.graph.Snapshot().IsEmpty())
}

func TestChainOrderAndRecover(t *testing.T) {
	core, logs := observer.New(zap.InfoLevel)
	logger := zap.New(core)

	var order []string
	mark := func(name string) Middleware {
		return func(next http.Handler) http.Handler {
			return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				order = append(order, name)
				next.ServeHTTP(w, r)
			})
		}
	}

	panicky := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		panic("boom")
	})

	h := Chain(panicky, mark("first"), Logger(logger), Recover(logger), mark("last"))
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/snapshot", nil))

	assert.Equal(t, []string{"first", "last"}, order)
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Equal(t, 1, logs.FilterMessage("Handler panicked").Len())

	requests := logs.FilterMessage("Request").All()
	require.Len(t, requests, 1)
	assert.Equal(t, int64(http.StatusInternalServerError), requests[0].ContextMap()["status"])
}

func TestCORS(t *testing.T) {
	h := Chain(http.NotFoundHandler(), CORS(""))

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodOptions, "/api/businesses", nil))
	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Equal(t, "*", rec.Header().Get("Access-Control-Allow-Origin"))

	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/missing", nil))
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.True(t, strings.Contains(rec.Header().Get("Access-Control-Allow-Methods"), "DELETE"))
}

func TestStatusRecorderFlushes(t *testing.T) {
	rec := httptest.NewRecorder()
	sr := &statusRecorder{ResponseWriter: rec, status: http.StatusOK}

	var w http.ResponseWriter = sr
	flusher, ok := w.(http.Flusher)
	require.True(t, ok)
	flusher.Flush()
	assert.True(t, rec.Flushed)
}
