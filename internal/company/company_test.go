package company

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/enriquecapellan/ai-qualifier-be/internal/analyst"
	"github.com/enriquecapellan/ai-qualifier-be/internal/apperr"
	"github.com/enriquecapellan/ai-qualifier-be/internal/icp"
	"github.com/enriquecapellan/ai-qualifier-be/internal/model"
	"github.com/enriquecapellan/ai-qualifier-be/internal/progress"
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

type stubFetcher struct {
	fields *scrape.Fields
}

func (f stubFetcher) Fetch(ctx context.Context, domain string) *scrape.Fields {
	return f.fields
}

// eventRecorder collects published events in order.
type eventRecorder struct {
	events []progress.Event
}

func (r *eventRecorder) Publish(ev progress.Event) {
	r.events = append(r.events, ev)
}

func (r *eventRecorder) steps() []string {
	out := make([]string, len(r.events))
	for i, ev := range r.events {
		out[i] = ev.Step
	}
	return out
}

func strPtr(s string) *string { return &s }

func testICPDoc() *model.ICPDocument {
	return &model.ICPDocument{
		Title:       "Mid-Market Manufacturers",
		Description: "Manufacturers that buy anvils",
		Personas:    []model.Persona{{Role: "Buyer", Title: "Head of Procurement"}},
		Industries:  []string{"Manufacturing"},
	}
}

type fixture struct {
	svc      *Service
	store    store.Store
	analyst  *mockAnalyst
	recorder *eventRecorder
	owner    *model.User
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	st, err := store.NewSQLite(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { st.Close() }) //nolint:errcheck
	require.NoError(t, st.Migrate(context.Background()))

	owner, err := st.CreateUser(context.Background(), "owner@example.com", "hash", "user")
	require.NoError(t, err)

	an := new(mockAnalyst)
	recorder := &eventRecorder{}
	icps := icp.NewService(st, an)
	fetcher := stubFetcher{fields: &scrape.Fields{Title: "Acme | Anvils"}}

	return &fixture{
		svc:      NewService(st, fetcher, an, icps, recorder),
		store:    st,
		analyst:  an,
		recorder: recorder,
		owner:    owner,
	}
}

func TestCreate(t *testing.T) {
	f := newFixture(t)
	f.analyst.On("ExtractProfile", mock.Anything, "acme.com", mock.Anything).
		Return(analyst.Profile{Name: strPtr("Acme Corp"), Summary: strPtr("Acme sells anvils.")}, nil)
	f.analyst.On("GenerateICP", mock.Anything, mock.Anything, mock.Anything).
		Return(testICPDoc(), nil)

	c, err := f.svc.Create(context.Background(), f.owner.ID, "acme.com")
	require.NoError(t, err)
	require.NotNil(t, c.Name)
	assert.Equal(t, "Acme Corp", *c.Name)
	assert.Equal(t, f.owner.ID, c.OwnerID)

	assert.Equal(t, []string{
		progress.StepValidating,
		progress.StepScraping,
		progress.StepAnalyzing,
		progress.StepCreating,
		progress.StepGeneratingICP,
		progress.StepComplete,
	}, f.recorder.steps())

	final := f.recorder.events[len(f.recorder.events)-1]
	assert.True(t, final.Completed)
	assert.Equal(t, 100, final.Progress)
	assert.Equal(t, c.ID, final.CompanyID)
	assert.Equal(t, "Company and ICP created successfully!", final.Message)

	// The ICP was persisted too.
	stored, err := f.store.GetICPByCompany(context.Background(), c.ID)
	require.NoError(t, err)
	require.NotNil(t, stored)
	require.NotNil(t, stored.Title)
	assert.Equal(t, "Acme Corp", *stored.Title)
}

func TestCreateDuplicateDomain(t *testing.T) {
	f := newFixture(t)
	f.analyst.On("ExtractProfile", mock.Anything, mock.Anything, mock.Anything).
		Return(analyst.Profile{}, nil)
	f.analyst.On("GenerateICP", mock.Anything, mock.Anything, mock.Anything).
		Return(testICPDoc(), nil)

	_, err := f.svc.Create(context.Background(), f.owner.ID, "acme.com")
	require.NoError(t, err)

	f.recorder.events = nil
	_, err = f.svc.Create(context.Background(), f.owner.ID, "acme.com")
	require.Error(t, err)
	assert.Equal(t, apperr.KindConflict, apperr.KindOf(err))

	// The pipeline stops after validation.
	assert.Equal(t, []string{progress.StepValidating}, f.recorder.steps())
}

func TestCreateProfileExtractionFailure(t *testing.T) {
	f := newFixture(t)
	f.analyst.On("ExtractProfile", mock.Anything, mock.Anything, mock.Anything).
		Return(analyst.Profile{}, errors.New("model unavailable"))
	f.analyst.On("GenerateICP", mock.Anything, mock.Anything, mock.Anything).
		Return(testICPDoc(), nil)

	c, err := f.svc.Create(context.Background(), f.owner.ID, "dark.example")
	require.NoError(t, err)
	assert.Nil(t, c.Name)
	assert.Nil(t, c.Summary)
}

func TestCreateICPFailureStillCreatesCompany(t *testing.T) {
	f := newFixture(t)
	f.analyst.On("ExtractProfile", mock.Anything, mock.Anything, mock.Anything).
		Return(analyst.Profile{Name: strPtr("Acme Corp"), Summary: strPtr("Anvils.")}, nil)
	f.analyst.On("GenerateICP", mock.Anything, mock.Anything, mock.Anything).
		Return(nil, errors.New("model overloaded"))

	c, err := f.svc.Create(context.Background(), f.owner.ID, "acme.com")
	require.NoError(t, err)
	require.NotNil(t, c)

	assert.Equal(t, []string{
		progress.StepValidating,
		progress.StepScraping,
		progress.StepAnalyzing,
		progress.StepCreating,
		progress.StepGeneratingICP,
		progress.StepError,
		progress.StepComplete,
	}, f.recorder.steps())

	errEvent := f.recorder.events[5]
	assert.Equal(t, 90, errEvent.Progress)
	assert.Contains(t, errEvent.Error, "model overloaded")
	assert.False(t, errEvent.Completed)

	final := f.recorder.events[6]
	assert.True(t, final.Completed)
	assert.Equal(t, "Company created. ICP generation failed.", final.Message)
}

func TestGet(t *testing.T) {
	f := newFixture(t)
	f.analyst.On("ExtractProfile", mock.Anything, mock.Anything, mock.Anything).
		Return(analyst.Profile{}, nil)
	f.analyst.On("GenerateICP", mock.Anything, mock.Anything, mock.Anything).
		Return(testICPDoc(), nil)

	created, err := f.svc.Create(context.Background(), f.owner.ID, "acme.com")
	require.NoError(t, err)

	got, err := f.svc.Get(context.Background(), created.ID)
	require.NoError(t, err)
	assert.Equal(t, created.ID, got.ID)

	_, err = f.svc.Get(context.Background(), "no-such-id")
	require.Error(t, err)
	assert.Equal(t, apperr.KindNotFound, apperr.KindOf(err))
}

func TestListByOwner(t *testing.T) {
	f := newFixture(t)
	f.analyst.On("ExtractProfile", mock.Anything, mock.Anything, mock.Anything).
		Return(analyst.Profile{}, nil)
	f.analyst.On("GenerateICP", mock.Anything, mock.Anything, mock.Anything).
		Return(testICPDoc(), nil)

	_, err := f.svc.Create(context.Background(), f.owner.ID, "one.example")
	require.NoError(t, err)
	_, err = f.svc.Create(context.Background(), f.owner.ID, "two.example")
	require.NoError(t, err)

	companies, err := f.svc.ListByOwner(context.Background(), f.owner.ID)
	require.NoError(t, err)
	assert.Len(t, companies, 2)
}
