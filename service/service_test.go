package service

import (
	"context"
	"path/filepath"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jonwraymond/sitetokens/config"
	"github.com/jonwraymond/sitetokens/content"
	"github.com/jonwraymond/sitetokens/events"
	"github.com/jonwraymond/sitetokens/health"
	"github.com/jonwraymond/sitetokens/observe"
)

const (
	pageTemplateID = "{2B3E0A6F-4C1D-4E8A-9F70-5D6C7B8A9E01}"
	tenant1Home    = "/sitecore/content/Tenant1/Site1/Home"
	tenant1Query   = "/sitecore/templates/Tenant1//*[@@id='{111}']"
	globalQuery    = "/sitecore/templates//*[@@templatename='Template']"
)

func testConfig() config.Config {
	cfg := config.Default()
	cfg.Fixture = filepath.Join("..", "testdata", "multisite.yaml")
	cfg.Templates.PageTemplateID = pageTemplateID
	cfg.Cache.Shards = 4
	return cfg
}

func newService(t *testing.T, opts ...Option) *Service {
	t.Helper()
	opts = append([]Option{WithObserver(observe.NopObserver())}, opts...)
	svc, err := New(context.Background(), testConfig(), opts...)
	require.NoError(t, err)
	t.Cleanup(func() { _ = svc.Close(context.Background()) })
	return svc
}

func TestService_Tenant1Scenario(t *testing.T) {
	svc := newService(t)
	ctx := context.Background()

	got, err := svc.ResolvePath(ctx, "$templates", tenant1Home, false)
	require.NoError(t, err)
	assert.Equal(t, tenant1Query, got)

	_, err = svc.Store().Create(ctx, content.Node{
		ID:            "{333}",
		Path:          content.ParsePath("/sitecore/templates/Tenant1/T3"),
		TemplateName:  "Template",
		BaseTemplates: []content.ID{"{111}"},
	})
	require.NoError(t, err)
	assert.Equal(t, int64(1), svc.Stats().Evictions)

	got, err = svc.ResolvePath(ctx, "$templates", tenant1Home, false)
	require.NoError(t, err)
	assert.Equal(t, "/sitecore/templates/Tenant1//*[@@id='{111}' or @@id='{333}']", got)

	require.NoError(t, svc.Store().Delete(ctx, content.ParsePath("/sitecore/templates/Tenant1/T3")))
	got, err = svc.TemplatesQuery(ctx, tenant1Home)
	require.NoError(t, err)
	assert.Equal(t, tenant1Query, got)
}

func TestService_LookupDuringDelete(t *testing.T) {
	svc := newService(t)
	ctx := context.Background()

	// Runs after the listener's pre-removal eviction, while T1 still exists.
	var during string
	svc.Bus().Subscribe(func(ctx context.Context, _ events.Event) {
		q, err := svc.ResolvePath(ctx, "$templates", tenant1Home, false)
		assert.NoError(t, err)
		during = q
	}, events.TypeNodeDeleting)

	require.NoError(t, svc.Store().Delete(ctx, content.ParsePath("/sitecore/templates/Tenant1/T1")))
	assert.Equal(t, tenant1Query, during)

	got, err := svc.ResolvePath(ctx, "$templates", tenant1Home, false)
	require.NoError(t, err)
	assert.Equal(t, "/sitecore/templates/Tenant1//*[@@templatename='Template']", got)
	assert.Equal(t, int64(2), svc.Stats().Loads)
}

func TestService_ResolveAllTokens(t *testing.T) {
	svc := newService(t)

	got, err := svc.ResolvePath(context.Background(),
		"$tenant|$siteMedia|$site|$home|$templates",
		"/sitecore/content/Tenant1/Site1/Home/About Us", false)
	require.NoError(t, err)
	assert.Equal(t, "/sitecore/content/Tenant1|"+
		"/sitecore/content/Tenant1/Site1/Media|"+
		"/sitecore/content/Tenant1/Site1|"+
		"/sitecore/content/Tenant1/Site1/Home|"+
		tenant1Query, got)
}

func TestService_FallbackAndEscape(t *testing.T) {
	svc := newService(t)
	ctx := context.Background()

	got, err := svc.ResolvePath(ctx, "$templates", "/sitecore/content/Tenant2/Site2/Home", false)
	require.NoError(t, err)
	assert.Equal(t, globalQuery, got)

	got, err = svc.ResolvePath(ctx, "$site/*", "/sitecore/content/Tenant3/Site-3/Home", true)
	require.NoError(t, err)
	assert.Equal(t, "/sitecore/content/Tenant3/#Site-3#/*", got)
}

func TestService_UnknownPath(t *testing.T) {
	svc := newService(t)
	_, err := svc.ResolvePath(context.Background(), "$site", "/sitecore/content/Nope", false)
	assert.ErrorIs(t, err, ErrNodeNotFound)
}

func TestService_SharedCache(t *testing.T) {
	svc := newService(t)
	ctx := context.Background()

	var wg sync.WaitGroup
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			got, err := svc.TemplatesQuery(ctx, tenant1Home)
			assert.NoError(t, err)
			assert.Equal(t, tenant1Query, got)
		}()
	}
	wg.Wait()

	st := svc.Stats()
	assert.Equal(t, int64(1), st.Loads)
	assert.Equal(t, 1, st.Entries)
}

func TestService_WithStore(t *testing.T) {
	store := content.NewMemoryStore("web")
	ctx := context.Background()
	_, err := store.Create(ctx, content.Node{Path: content.ParsePath("/sitecore")})
	require.NoError(t, err)

	svc := newService(t, WithStore(store))
	assert.Same(t, store, svc.Store())
	assert.Equal(t, []string{StageMultisite}, svc.Stages())

	_, err = store.Create(ctx, content.Node{Path: content.ParsePath("/sitecore/templates")})
	require.NoError(t, err)
	assert.Equal(t, 2, svc.Bus().Len())
}

func TestService_Health(t *testing.T) {
	svc := newService(t)
	results := svc.Health().CheckAll(context.Background())
	require.Len(t, results, 2)
	assert.Equal(t, health.StatusHealthy, results["fragment_cache"].Status)
	assert.Equal(t, health.StatusHealthy, results["content_store"].Status)
	assert.Equal(t, health.StatusHealthy, health.OverallStatus(results))
}

func TestService_Close(t *testing.T) {
	svc, err := New(context.Background(), testConfig())
	require.NoError(t, err)
	require.Equal(t, 2, svc.Bus().Len())

	require.NoError(t, svc.Close(context.Background()))
	require.NoError(t, svc.Close(context.Background()))
	assert.Equal(t, 0, svc.Bus().Len())

	_, err = svc.ResolvePath(context.Background(), "$site", tenant1Home, false)
	assert.ErrorIs(t, err, ErrClosed)
}

func TestNew_BadFixture(t *testing.T) {
	cfg := testConfig()
	cfg.Fixture = filepath.Join(t.TempDir(), "missing.yaml")
	_, err := New(context.Background(), cfg, WithObserver(observe.NopObserver()))
	assert.Error(t, err)
}

func TestNew_InvalidObserveConfig(t *testing.T) {
	cfg := testConfig()
	cfg.Observe.ServiceName = ""
	_, err := New(context.Background(), cfg)
	assert.ErrorIs(t, err, observe.ErrMissingServiceName)
}
