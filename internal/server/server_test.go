package server

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/enriquecapellan/ai-qualifier-be/internal/analyst"
	"github.com/enriquecapellan/ai-qualifier-be/internal/auth"
	"github.com/enriquecapellan/ai-qualifier-be/internal/company"
	"github.com/enriquecapellan/ai-qualifier-be/internal/icp"
	"github.com/enriquecapellan/ai-qualifier-be/internal/model"
	"github.com/enriquecapellan/ai-qualifier-be/internal/progress"
	"github.com/enriquecapellan/ai-qualifier-be/internal/prospect"
	"github.com/enriquecapellan/ai-qualifier-be/internal/scrape"
	"github.com/enriquecapellan/ai-qualifier-be/internal/store"
)

type mockAnalyst struct {
	mock.Mock
}

func (m *mockAnalyst) ExtractProfile(ctx context.Context, domain string, scraped *scrape.Fields) (analyst.Profile, error) {
	args := m.Called(ctx, domain, scraped)
	return args.Get(0).(analyst.Profile), args.Error(1)
}

func (m *mockAnalyst) GenerateICP(ctx context.Context, name, summary *string) (*model.ICPDocument, error) {
	args := m.Called(ctx, name, summary)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.ICPDocument), args.Error(1)
}

func (m *mockAnalyst) QualifyProspect(ctx context.Context, domain string, scraped *scrape.Fields, companySummary string, icp *model.ICP) (*analyst.Qualification, error) {
	args := m.Called(ctx, domain, scraped, companySummary, icp)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*analyst.Qualification), args.Error(1)
}

type nilFetcher struct{}

func (nilFetcher) Fetch(ctx context.Context, domain string) *scrape.Fields { return nil }

type testApp struct {
	router  http.Handler
	analyst *mockAnalyst
	hub     *progress.Hub
	token   string
	userID  string
}

func newTestApp(t *testing.T) *testApp {
	t.Helper()
	ctx := context.Background()

	st, err := store.NewSQLite(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { st.Close() }) //nolint:errcheck
	require.NoError(t, st.Migrate(ctx))

	an := new(mockAnalyst)
	hub := progress.NewHub()
	authSvc := auth.NewService(st, "test-secret", 15*time.Minute, 7*24*time.Hour)
	icps := icp.NewService(st, an)
	companies := company.NewService(st, nilFetcher{}, an, icps, hub)
	prospects := prospect.NewService(st, nilFetcher{}, an, 1)

	srv := New(authSvc, companies, icps, prospects, hub, nil)

	session, err := authSvc.Signup(ctx, "owner@example.com", "s3cret")
	require.NoError(t, err)

	return &testApp{
		router:  srv.Router(),
		analyst: an,
		hub:     hub,
		token:   session.AccessToken,
		userID:  session.User.ID,
	}
}

func (a *testApp) do(t *testing.T, method, path string, body any, authed bool) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if authed {
		req.Header.Set("Authorization", "Bearer "+a.token)
	}
	rec := httptest.NewRecorder()
	a.router.ServeHTTP(rec, req)
	return rec
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &v))
	return v
}

func strPtr(s string) *string { return &s }

func testDoc() *model.ICPDocument {
	return &model.ICPDocument{
		Title:      "Mid-Market Manufacturers",
		Personas:   []model.Persona{{Role: "Buyer", Title: "Head of Procurement"}},
		Industries: []string{"Manufacturing"},
	}
}

func (a *testApp) stubHappyPipeline() {
	a.analyst.On("ExtractProfile", mock.Anything, mock.Anything, mock.Anything).
		Return(analyst.Profile{Name: strPtr("Acme Corp"), Summary: strPtr("Anvils.")}, nil)
	a.analyst.On("GenerateICP", mock.Anything, mock.Anything, mock.Anything).
		Return(testDoc(), nil)
}

func TestHealth(t *testing.T) {
	app := newTestApp(t)
	rec := app.do(t, http.MethodGet, "/health", nil, false)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestAuthEndpoints(t *testing.T) {
	app := newTestApp(t)

	rec := app.do(t, http.MethodPost, "/api/auth/signup",
		map[string]string{"email": "alice@example.com", "password": "s3cret"}, false)
	require.Equal(t, http.StatusCreated, rec.Code)
	session := decode[auth.Session](t, rec)
	assert.NotEmpty(t, session.AccessToken)

	rec = app.do(t, http.MethodPost, "/api/auth/login",
		map[string]string{"email": "alice@example.com", "password": "s3cret"}, false)
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = app.do(t, http.MethodPost, "/api/auth/login",
		map[string]string{"email": "alice@example.com", "password": "wrong"}, false)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = app.do(t, http.MethodPost, "/api/auth/signup",
		map[string]string{"email": "alice@example.com", "password": "again"}, false)
	assert.Equal(t, http.StatusConflict, rec.Code)
}

func TestMe(t *testing.T) {
	app := newTestApp(t)

	rec := app.do(t, http.MethodGet, "/api/auth/me", nil, true)
	require.Equal(t, http.StatusOK, rec.Code)
	user := decode[model.User](t, rec)
	assert.Equal(t, "owner@example.com", user.Email)
	// The password hash must never serialize.
	assert.NotContains(t, rec.Body.String(), "password")

	rec = app.do(t, http.MethodGet, "/api/auth/me", nil, false)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestCreateCompany(t *testing.T) {
	app := newTestApp(t)
	app.stubHappyPipeline()

	rec := app.do(t, http.MethodPost, "/api/companies", map[string]string{"domain": "acme.com"}, true)
	require.Equal(t, http.StatusCreated, rec.Code)
	created := decode[model.Company](t, rec)
	assert.Equal(t, "acme.com", created.Domain)
	assert.Equal(t, app.userID, created.OwnerID)

	// Get it back.
	rec = app.do(t, http.MethodGet, "/api/companies/"+created.ID, nil, true)
	assert.Equal(t, http.StatusOK, rec.Code)

	// Duplicate domain conflicts.
	rec = app.do(t, http.MethodPost, "/api/companies", map[string]string{"domain": "acme.com"}, true)
	assert.Equal(t, http.StatusConflict, rec.Code)

	// Listing my companies includes it.
	rec = app.do(t, http.MethodGet, "/api/companies/me", nil, true)
	require.Equal(t, http.StatusOK, rec.Code)
	companies := decode[[]model.Company](t, rec)
	require.Len(t, companies, 1)
}

func TestCreateCompanyValidation(t *testing.T) {
	app := newTestApp(t)

	rec := app.do(t, http.MethodPost, "/api/companies", map[string]string{}, true)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = app.do(t, http.MethodPost, "/api/companies", map[string]string{"domain": "acme.com"}, false)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestCompanyNotFound(t *testing.T) {
	app := newTestApp(t)
	rec := app.do(t, http.MethodGet, "/api/companies/no-such-id", nil, true)
	assert.Equal(t, http.StatusNotFound, rec.Code)
	var body map[string]string
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Contains(t, body["error"], "not found")
}

func TestICPEndpoints(t *testing.T) {
	app := newTestApp(t)
	app.stubHappyPipeline()

	rec := app.do(t, http.MethodPost, "/api/companies", map[string]string{"domain": "acme.com"}, true)
	require.Equal(t, http.StatusCreated, rec.Code)
	created := decode[model.Company](t, rec)

	// The pipeline already generated the ICP; fetching works, regenerating
	// conflicts.
	rec = app.do(t, http.MethodGet, "/api/companies/"+created.ID+"/icp", nil, true)
	require.Equal(t, http.StatusOK, rec.Code)
	got := decode[model.ICP](t, rec)
	assert.Equal(t, created.ID, got.CompanyID)

	rec = app.do(t, http.MethodPost, "/api/companies/"+created.ID+"/icp", nil, true)
	assert.Equal(t, http.StatusConflict, rec.Code)

	rec = app.do(t, http.MethodGet, "/api/companies/no-such-id/icp", nil, true)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestQualifyProspects(t *testing.T) {
	app := newTestApp(t)
	app.stubHappyPipeline()
	app.analyst.On("QualifyProspect", mock.Anything, "forge.example", mock.Anything, mock.Anything, mock.Anything).
		Return(&analyst.Qualification{
			Score:       85.5,
			Explanation: "Strong fit",
			Status:      model.StatusQualified,
			Enriched:    &model.EnrichedData{Industry: "Manufacturing"},
		}, nil)

	rec := app.do(t, http.MethodPost, "/api/companies", map[string]string{"domain": "acme.com"}, true)
	require.Equal(t, http.StatusCreated, rec.Code)
	created := decode[model.Company](t, rec)

	rec = app.do(t, http.MethodPost, "/api/companies/"+created.ID+"/prospects/qualify",
		map[string]string{"domains": "forge.example"}, true)
	require.Equal(t, http.StatusOK, rec.Code)
	result := decode[model.QualificationResult](t, rec)
	require.Len(t, result.Prospects, 1)
	assert.Equal(t, model.StatusQualified, result.Prospects[0].Status)
	assert.Equal(t, 85.5, result.Summary.AverageScore)

	rec = app.do(t, http.MethodGet, "/api/companies/"+created.ID+"/prospects", nil, true)
	require.Equal(t, http.StatusOK, rec.Code)
	prospects := decode[[]model.Prospect](t, rec)
	assert.Len(t, prospects, 1)

	// Empty domain list is a 400.
	rec = app.do(t, http.MethodPost, "/api/companies/"+created.ID+"/prospects/qualify",
		map[string]string{"domains": " , "}, true)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestQualifyWithoutICP(t *testing.T) {
	app := newTestApp(t)
	app.analyst.On("ExtractProfile", mock.Anything, mock.Anything, mock.Anything).
		Return(analyst.Profile{}, nil)
	app.analyst.On("GenerateICP", mock.Anything, mock.Anything, mock.Anything).
		Return(nil, fmt.Errorf("model overloaded"))

	rec := app.do(t, http.MethodPost, "/api/companies", map[string]string{"domain": "acme.com"}, true)
	require.Equal(t, http.StatusCreated, rec.Code)
	created := decode[model.Company](t, rec)

	rec = app.do(t, http.MethodPost, "/api/companies/"+created.ID+"/prospects/qualify",
		map[string]string{"domains": "forge.example"}, true)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestEventsStream(t *testing.T) {
	app := newTestApp(t)

	ts := httptest.NewServer(app.router)
	defer ts.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, ts.URL+"/api/events?token="+app.token, nil)
	require.NoError(t, err)

	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.Equal(t, "text/event-stream", resp.Header.Get("Content-Type"))

	// The subscription is registered asynchronously; keep publishing until
	// the stream delivers.
	done := make(chan struct{})
	defer close(done)
	go func() {
		ticker := time.NewTicker(50 * time.Millisecond)
		defer ticker.Stop()
		for {
			select {
			case <-done:
				return
			case <-ticker.C:
				app.hub.Publish(progress.Event{
					UserID:   app.userID,
					Step:     progress.StepScraping,
					Message:  "Scraping website...",
					Progress: 20,
				})
			}
		}
	}()

	scanner := bufio.NewScanner(resp.Body)
	var data string
	for scanner.Scan() {
		line := scanner.Text()
		if strings.HasPrefix(line, "data: ") {
			data = strings.TrimPrefix(line, "data: ")
			break
		}
	}
	require.NotEmpty(t, data)

	var ev progress.Event
	require.NoError(t, json.Unmarshal([]byte(data), &ev))
	assert.Equal(t, progress.StepScraping, ev.Step)
	assert.Equal(t, 20, ev.Progress)
	assert.Equal(t, app.userID, ev.UserID)
}
