package fragment

import (
	"bytes"
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jonwraymond/sitetokens/cache"
	"github.com/jonwraymond/sitetokens/content"
	"github.com/jonwraymond/sitetokens/observe"
)

const (
	fixturePath  = "../testdata/multisite.yaml"
	tenant1Root  = "/sitecore/templates/Tenant1"
	tenant1Query = "/sitecore/templates/Tenant1//*[@@id='{111}']"
	globalQuery  = "/sitecore/templates//*[@@templatename='Template']"
)

// countingStore counts Descendants calls and can be told to fail or block.
type countingStore struct {
	content.Store
	scans atomic.Int64
	fail  atomic.Bool

	mu      sync.Mutex
	started chan struct{}
	release chan struct{}
}

func (s *countingStore) Descendants(ctx context.Context, n *content.Node) ([]*content.Node, error) {
	s.scans.Add(1)
	if s.fail.Load() {
		return nil, errors.New("store unavailable")
	}
	s.mu.Lock()
	started, release := s.started, s.release
	s.started, s.release = nil, nil
	s.mu.Unlock()
	if started != nil {
		close(started)
		<-release
	}
	return s.Store.Descendants(ctx, n)
}

// blockNext makes the next scan wait on the returned release channel.
func (s *countingStore) blockNext() (started <-chan struct{}, release chan<- struct{}) {
	st, rel := make(chan struct{}), make(chan struct{})
	s.mu.Lock()
	s.started, s.release = st, rel
	s.mu.Unlock()
	return st, rel
}

type harness struct {
	mem     *content.MemoryStore
	store   *countingStore
	loader  *cache.Loader
	builder *Builder
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	mem, err := content.LoadFixtureFile(context.Background(), fixturePath)
	require.NoError(t, err)
	store := &countingStore{Store: mem}
	loader, err := cache.NewLoader(cache.NewShardedCache(4))
	require.NoError(t, err)
	b, err := NewBuilder(Deps{
		Store:    store,
		Resolver: content.NewAncestorResolver(mem, content.AncestorResolverConfig{}),
		Ancestry: mem,
		Loader:   loader,
	})
	require.NoError(t, err)
	return &harness{mem: mem, store: store, loader: loader, builder: b}
}

func (h *harness) node(t *testing.T, path string) *content.Node {
	t.Helper()
	n, err := h.mem.ItemByPath(context.Background(), "master", content.ParsePath(path))
	require.NoError(t, err)
	return n
}

func TestNewBuilder_RequiresDeps(t *testing.T) {
	_, err := NewBuilder(Deps{})
	assert.ErrorIs(t, err, ErrNilDependency)
}

func TestBuilder_Tenant1Scenario(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	home := h.node(t, "/sitecore/content/Tenant1/Site1/Home")

	assert.Equal(t, tenant1Query, h.builder.TemplatesQuery(ctx, home))
	assert.Equal(t, int64(1), h.store.scans.Load())

	// T3 inherits from T1 and therefore from Page.
	_, err := h.mem.Create(ctx, content.Node{
		ID:            "{333}",
		Path:          content.ParsePath(tenant1Root + "/T3"),
		TemplateName:  "Template",
		BaseTemplates: []content.ID{"{111}"},
	})
	require.NoError(t, err)
	h.loader.Evict(ctx, func(k string) bool { return k == tenant1Root })

	assert.Equal(t, "/sitecore/templates/Tenant1//*[@@id='{111}' or @@id='{333}']",
		h.builder.TemplatesQuery(ctx, home))
	assert.Equal(t, int64(2), h.store.scans.Load())
}

func TestBuilder_CachesByRoot(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	home := h.node(t, "/sitecore/content/Tenant1/Site1/Home")
	about := h.node(t, "/sitecore/content/Tenant1/Site1/Home/About Us")

	for i := 0; i < 5; i++ {
		assert.Equal(t, tenant1Query, h.builder.TemplatesQuery(ctx, home))
		assert.Equal(t, tenant1Query, h.builder.TemplatesQuery(ctx, about))
	}
	assert.Equal(t, int64(1), h.store.scans.Load())

	st := h.loader.Stats()
	assert.Equal(t, int64(9), st.Hits)
	assert.Equal(t, int64(1), st.Misses)
	assert.Equal(t, 1, st.Entries)
}

func TestBuilder_Fallback(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	tests := []struct {
		name string
		node *content.Node
	}{
		{"invalid identifier", h.node(t, "/sitecore/content/Tenant2/Site2/Home")},
		{"no settings node", h.node(t, "/sitecore/content/Tenant3/Site-3/Home")},
		{"outside any site", h.node(t, "/sitecore/templates")},
		{"nil node", nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, globalQuery, h.builder.TemplatesQuery(ctx, tt.node))
		})
	}
	assert.Zero(t, h.store.scans.Load())
	assert.Zero(t, h.loader.Cache().Len())
}

func TestBuilder_TemplatesRootErrors(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	_, err := h.builder.TemplatesRoot(ctx, h.node(t, "/sitecore/content/Tenant2/Site2/Home"))
	assert.ErrorIs(t, err, ErrInvalidTemplatesRoot)
	assert.ErrorIs(t, err, content.ErrInvalidID)

	_, err = h.builder.TemplatesRoot(ctx, h.node(t, "/sitecore/content/Tenant3/Site-3/Home"))
	assert.ErrorIs(t, err, ErrNoSettings)

	_, err = h.builder.TemplatesRoot(ctx, nil)
	assert.ErrorIs(t, err, ErrNilNode)

	require.NoError(t, h.mem.Delete(ctx, content.ParsePath(tenant1Root)))
	_, err = h.builder.TemplatesRoot(ctx, h.node(t, "/sitecore/content/Tenant1/Site1/Home"))
	assert.ErrorIs(t, err, ErrTemplatesRootNotFound)
}

func TestBuilder_ScanFailureNotCached(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	home := h.node(t, "/sitecore/content/Tenant1/Site1/Home")

	h.store.fail.Store(true)
	assert.Equal(t, "/sitecore/templates/Tenant1//*[@@templatename='Template']",
		h.builder.TemplatesQuery(ctx, home))
	assert.Zero(t, h.loader.Cache().Len())

	h.store.fail.Store(false)
	assert.Equal(t, tenant1Query, h.builder.TemplatesQuery(ctx, home))
	assert.Equal(t, int64(2), h.store.scans.Load())
}

func TestBuilder_NoPageTemplates(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	require.NoError(t, h.mem.Delete(ctx, content.ParsePath(tenant1Root+"/T1")))

	assert.Equal(t, "/sitecore/templates/Tenant1//*[@@templatename='Template']",
		h.builder.TemplatesQuery(ctx, h.node(t, "/sitecore/content/Tenant1/Site1/Home")))
	assert.Equal(t, 1, h.loader.Cache().Len())
}

func TestBuilder_ConcurrentMissesScanOnce(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	home := h.node(t, "/sitecore/content/Tenant1/Site1/Home")
	started, release := h.store.blockNext()

	var wg sync.WaitGroup
	results := make([]string, 8)
	for i := range results {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			results[i] = h.builder.TemplatesQuery(ctx, home)
		}(i)
	}
	<-started
	close(release)
	wg.Wait()

	for _, r := range results {
		assert.Equal(t, tenant1Query, r)
	}
	assert.LessOrEqual(t, h.store.scans.Load(), int64(2))
}

// TestBuilder_EvictionDuringScan covers a scan that began before an
// eviction and finishes after it.
func TestBuilder_EvictionDuringScan(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	home := h.node(t, "/sitecore/content/Tenant1/Site1/Home")
	started, release := h.store.blockNext()

	done := make(chan string)
	go func() { done <- h.builder.TemplatesQuery(ctx, home) }()
	<-started

	_, err := h.mem.Create(ctx, content.Node{
		ID:            "{333}",
		Path:          content.ParsePath(tenant1Root + "/T3"),
		TemplateName:  "Template",
		BaseTemplates: []content.ID{"{111}"},
	})
	require.NoError(t, err)
	h.loader.Evict(ctx, func(k string) bool { return k == tenant1Root })
	close(release)
	<-done

	_, cached := h.loader.Cache().Get(ctx, tenant1Root)
	assert.False(t, cached, "result of a scan overtaken by eviction was stored")
	assert.Equal(t, "/sitecore/templates/Tenant1//*[@@id='{111}' or @@id='{333}']",
		h.builder.TemplatesQuery(ctx, home))
}

func TestBuilder_GUIDSpellings(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	const root = "7f1d5c2a-aaaa-4c8e-9b51-3a0f7e1d2c44"
	for _, n := range []content.Node{
		{ID: root, Path: content.ParsePath("/sitecore/templates/Tenant4")},
		{ID: "{444}", Path: content.ParsePath("/sitecore/templates/Tenant4/T4"), TemplateName: "Template",
			BaseTemplates: []content.ID{"2b3e0a6f-4c1d-4e8a-9f70-5d6c7b8a9e01"}},
		{Path: content.ParsePath("/sitecore/content/Tenant4"), TemplateName: "Tenant"},
		{Path: content.ParsePath("/sitecore/content/Tenant4/Site4"), TemplateName: "Site"},
		{Path: content.ParsePath("/sitecore/content/Tenant4/Site4/Home")},
		{Path: content.ParsePath("/sitecore/content/Tenant4/Site4/Settings"),
			Fields: map[string]string{DefaultSettingsField: "urn:uuid:" + root}},
	} {
		_, err := h.mem.Create(ctx, n)
		require.NoError(t, err)
	}

	home := h.node(t, "/sitecore/content/Tenant4/Site4/Home")
	assert.Equal(t, "/sitecore/templates/Tenant4//*[@@id='{444}']", h.builder.TemplatesQuery(ctx, home))
}

func TestBuilder_NilNodeLogsAtDebug(t *testing.T) {
	h := newHarness(t)
	var logs bytes.Buffer
	b, err := NewBuilder(h.builder.deps, WithLogger(observe.NewLoggerWithWriter("info", &logs)))
	require.NoError(t, err)

	assert.Equal(t, globalQuery, b.TemplatesQuery(context.Background(), nil))
	assert.Empty(t, logs.String())
}

func TestBuilder_CustomConfig(t *testing.T) {
	h := newHarness(t)
	b, err := NewBuilder(h.builder.deps, WithConfig(Config{GlobalTemplatesRoot: "/sitecore/templates/Project"}))
	require.NoError(t, err)

	assert.Equal(t, "/sitecore/templates/Project//*[@@templatename='Template']", b.DefaultQuery())
	assert.Equal(t, DefaultSettingsField, b.Config().SettingsField)
}
