package content

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/datatypes"

	"github.com/harbourhotels/hotel-site/internal/db/models"
)

var errStoreDown = errors.New("store down")

// memorySections serves fixed rows per page and counts calls.
type memorySections struct {
	mu    sync.Mutex
	rows  map[string][]models.ContentSection
	err   error
	calls int
}

func (m *memorySections) ActiveSections(_ context.Context, page string) ([]models.ContentSection, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.calls++

	if m.err != nil {
		return nil, m.err
	}

	return m.rows[page], nil
}

func (m *memorySections) set(page string, rows []models.ContentSection, err error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.rows == nil {
		m.rows = make(map[string][]models.ContentSection)
	}

	m.rows[page] = rows
	m.err = err
}

func (m *memorySections) callCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()

	return m.calls
}

func section(key, data string, order int, active bool) models.ContentSection {
	return models.ContentSection{
		PageName:     "home",
		SectionKey:   key,
		Data:         datatypes.JSON(data),
		DisplayOrder: order,
		IsActive:     active,
	}
}

func TestSectionDataRoundTrip(t *testing.T) {
	store := &memorySections{}
	store.set("home", []models.ContentSection{section("hero", `{"title":"Welcome"}`, 1, true)}, nil)

	c := NewClient(store)
	require.NoError(t, c.Load(context.Background(), "home"))

	assert.Equal(t, map[string]any{"title": "Welcome"}, c.SectionData("hero", map[string]any{}))
	assert.False(t, c.Loading())
	assert.NoError(t, c.Err())
}

func TestSectionDataFallbackOnEmptyPage(t *testing.T) {
	c := NewClient(&memorySections{})
	require.NoError(t, c.Load(context.Background(), "nowhere"))

	fallback := map[string]any{"title": "Default"}
	for _, key := range []string{"hero", "intro", "", "HERO"} {
		assert.Equal(t, fallback, c.SectionData(key, fallback))
		assert.Equal(t, "fb", Decode(c, key, "fb"))
	}
}

func TestSectionDataBeforeLoad(t *testing.T) {
	c := NewClient(&memorySections{})

	assert.Equal(t, 42, c.SectionData("hero", 42))
	assert.Empty(t, c.Sections())
}

func TestInactiveSectionsAreNeverReturned(t *testing.T) {
	store := &memorySections{}
	// the source is expected to filter, but a row slipping through must still be ignored
	store.set("home", []models.ContentSection{section("hero", `{"title":"Hidden"}`, 1, false)}, nil)

	c := NewClient(store)
	require.NoError(t, c.Load(context.Background(), "home"))

	assert.Equal(t, "fallback", c.SectionData("hero", "fallback"))
	assert.Empty(t, c.Sections())
}

func TestSectionsOrderedByDisplayOrder(t *testing.T) {
	store := &memorySections{}
	store.set("home", []models.ContentSection{
		section("intro", `{}`, 3, true),
		section("hero", `{}`, 1, true),
		section("highlights", `{}`, 2, true),
		section("extra", `{}`, 2, true),
	}, nil)

	c := NewClient(store)
	require.NoError(t, c.Load(context.Background(), "home"))

	var keys []string
	for _, s := range c.Sections() {
		keys = append(keys, s.SectionKey)
	}

	assert.Equal(t, []string{"hero", "highlights", "extra", "intro"}, keys)
}

func TestDuplicateKeyFirstMatchWins(t *testing.T) {
	store := &memorySections{}
	store.set("home", []models.ContentSection{
		section("hero", `{"title":"Second"}`, 2, true),
		section("hero", `{"title":"First"}`, 1, true),
	}, nil)

	c := NewClient(store)
	require.NoError(t, c.Load(context.Background(), "home"))

	assert.Equal(t, map[string]any{"title": "First"}, c.SectionData("hero", nil))
}

func TestLoadOncePerPage(t *testing.T) {
	store := &memorySections{}
	store.set("home", []models.ContentSection{section("hero", `{}`, 1, true)}, nil)

	c := NewClient(store)
	ctx := context.Background()

	require.NoError(t, c.Load(ctx, "home"))
	require.NoError(t, c.Load(ctx, "home"))
	assert.Equal(t, 1, store.callCount())

	require.NoError(t, c.Load(ctx, "about"))
	assert.Equal(t, 2, store.callCount())
	assert.Equal(t, "about", c.Page())

	require.NoError(t, c.Refetch(ctx))
	assert.Equal(t, 3, store.callCount())
}

func TestLoadFailureEmptiesSequence(t *testing.T) {
	store := &memorySections{}
	store.set("home", []models.ContentSection{section("hero", `{"title":"Welcome"}`, 1, true)}, nil)

	c := NewClient(store)
	ctx := context.Background()
	require.NoError(t, c.Load(ctx, "home"))

	store.set("home", nil, errStoreDown)

	err := c.Refetch(ctx)
	require.ErrorIs(t, err, errStoreDown)
	assert.ErrorIs(t, c.Err(), errStoreDown)
	assert.False(t, c.Loading())
	assert.Empty(t, c.Sections())
	assert.Equal(t, "fallback", c.SectionData("hero", "fallback"))

	// a failed page is fetched again by the next Load
	store.set("home", []models.ContentSection{section("hero", `{"title":"Back"}`, 1, true)}, nil)
	require.NoError(t, c.Load(ctx, "home"))
	assert.NoError(t, c.Err())
	assert.Equal(t, map[string]any{"title": "Back"}, c.SectionData("hero", nil))
}

type heroView struct {
	Title    string `json:"title"`
	Subtitle string `json:"subtitle"`
	Items    []struct {
		Title string `json:"title"`
	} `json:"items"`
}

func TestDecode(t *testing.T) {
	store := &memorySections{}
	store.set("home", []models.ContentSection{
		section("hero", `{"title":"Welcome"}`, 1, true),
		section("broken", `["not","an","object"]`, 2, true),
	}, nil)

	c := NewClient(store)
	require.NoError(t, c.Load(context.Background(), "home"))

	fallback := heroView{Title: "Fallback", Subtitle: "Fallback subtitle"}

	got := Decode(c, "hero", fallback)
	assert.Equal(t, "Welcome", got.Title)
	// absent nested fields are not defaulted from the fallback
	assert.Empty(t, got.Subtitle)
	assert.Nil(t, got.Items)

	assert.Equal(t, fallback, Decode(c, "missing", fallback))
	assert.Equal(t, fallback, Decode(c, "broken", fallback))

	// a Set decodes the same way
	assert.Equal(t, "Welcome", Decode(c.Set(), "hero", fallback).Title)
}

func TestSetIsASnapshot(t *testing.T) {
	store := &memorySections{}
	store.set("home", []models.ContentSection{section("hero", `{"title":"One"}`, 1, true)}, nil)

	c := NewClient(store)
	ctx := context.Background()
	require.NoError(t, c.Load(ctx, "home"))

	before := c.Set()

	store.set("home", []models.ContentSection{section("hero", `{"title":"Two"}`, 1, true)}, nil)
	require.NoError(t, c.Refetch(ctx))

	assert.Equal(t, map[string]any{"title": "One"}, before.SectionData("hero", nil))
	assert.Equal(t, map[string]any{"title": "Two"}, c.SectionData("hero", nil))

	// callers can not modify the cached sequence
	copied := c.Sections()
	copied[0].SectionKey = "changed"
	assert.Equal(t, "hero", c.Sections()[0].SectionKey)
}

// gatedSections hands every call to the test, which decides when and how it returns.
type gatedSections struct {
	calls chan gatedCall
}

type gatedCall struct {
	page  string
	reply chan gatedReply
}

type gatedReply struct {
	rows []models.ContentSection
	err  error
}

func (g *gatedSections) ActiveSections(_ context.Context, page string) ([]models.ContentSection, error) {
	call := gatedCall{page: page, reply: make(chan gatedReply, 1)}
	g.calls <- call
	r := <-call.reply

	return r.rows, r.err
}

func TestOverlappingLoadAndRefetch(t *testing.T) {
	tests := []struct {
		name string
		// staleLast makes the first issued request return after the second.
		staleLast bool
	}{
		{name: "stale response arrives last and is dropped", staleLast: true},
		{name: "responses arrive in request order", staleLast: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			source := &gatedSections{calls: make(chan gatedCall)}
			c := NewClient(source)
			ctx := context.Background()

			loadDone := make(chan error, 1)
			go func() { loadDone <- c.Load(ctx, "home") }()

			first := <-source.calls
			assert.Equal(t, "home", first.page)
			assert.True(t, c.Loading())

			refetchDone := make(chan error, 1)
			go func() { refetchDone <- c.Refetch(ctx) }()

			second := <-source.calls
			assert.Equal(t, "home", second.page)

			older := gatedReply{rows: []models.ContentSection{section("hero", `{"title":"Old"}`, 1, true)}}
			newer := gatedReply{rows: []models.ContentSection{section("hero", `{"title":"New"}`, 1, true)}}

			if tt.staleLast {
				second.reply <- newer
				require.NoError(t, <-refetchDone)
				assert.True(t, c.Loading())

				first.reply <- older
				require.NoError(t, <-loadDone)
			} else {
				first.reply <- older
				require.NoError(t, <-loadDone)

				second.reply <- newer
				require.NoError(t, <-refetchDone)
			}

			assert.False(t, c.Loading())
			assert.Equal(t, map[string]any{"title": "New"}, c.SectionData("hero", nil))
		})
	}
}

func TestLoadOfNewPageWhileItIsPending(t *testing.T) {
	source := &gatedSections{calls: make(chan gatedCall)}
	c := NewClient(source)
	ctx := context.Background()

	homeDone := make(chan error, 1)
	go func() { homeDone <- c.Load(ctx, "home") }()

	home := <-source.calls
	home.reply <- gatedReply{rows: []models.ContentSection{section("hero", `{"title":"Home"}`, 1, true)}}
	require.NoError(t, <-homeDone)

	firstDone := make(chan error, 1)
	go func() { firstDone <- c.Load(ctx, "about") }()

	first := <-source.calls
	assert.Equal(t, "about", first.page)

	// home is still applied, so a repeated Load of about must fetch again
	secondDone := make(chan error, 1)
	go func() { secondDone <- c.Load(ctx, "about") }()

	second := <-source.calls
	assert.Equal(t, "about", second.page)

	about := gatedReply{rows: []models.ContentSection{section("hero", `{"title":"About"}`, 1, true)}}
	second.reply <- about
	require.NoError(t, <-secondDone)

	assert.Equal(t, "about", c.Set().Page())
	assert.Equal(t, map[string]any{"title": "About"}, c.SectionData("hero", nil))

	first.reply <- about
	require.NoError(t, <-firstDone)
	assert.False(t, c.Loading())

	// applied now, so the next Load is a no-op
	require.NoError(t, c.Load(ctx, "about"))
	assert.Equal(t, "about", c.Page())
}

func TestStaleFailureDoesNotClearNewerContent(t *testing.T) {
	source := &gatedSections{calls: make(chan gatedCall)}
	c := NewClient(source)
	ctx := context.Background()

	loadDone := make(chan error, 1)
	go func() { loadDone <- c.Load(ctx, "home") }()

	first := <-source.calls

	refetchDone := make(chan error, 1)
	go func() { refetchDone <- c.Refetch(ctx) }()

	second := <-source.calls

	second.reply <- gatedReply{rows: []models.ContentSection{section("hero", `{"title":"New"}`, 1, true)}}
	require.NoError(t, <-refetchDone)

	first.reply <- gatedReply{err: errStoreDown}
	require.NoError(t, <-loadDone)

	assert.NoError(t, c.Err())
	assert.Equal(t, map[string]any{"title": "New"}, c.SectionData("hero", nil))
}

func TestRegistry(t *testing.T) {
	store := &memorySections{}
	store.set("home", []models.ContentSection{section("hero", `{"title":"Welcome"}`, 1, true)}, nil)

	r := NewRegistry(store)
	ctx := context.Background()

	home := r.Page(ctx, "home")
	assert.Same(t, home, r.Page(ctx, "home"))
	assert.Equal(t, 1, store.callCount())
	assert.Equal(t, []string{"home"}, r.Names())

	// refetch of an unvisited page is a no-op
	r.Refetch(ctx, "about")
	assert.Equal(t, 1, store.callCount())
	assert.Equal(t, []string{"home"}, r.Names())

	store.set("home", []models.ContentSection{section("hero", `{"title":"Edited"}`, 1, true)}, nil)
	r.Refetch(ctx, "home")
	assert.Equal(t, map[string]any{"title": "Edited"}, r.Page(ctx, "home").SectionData("hero", nil))
}

func TestRegistryRetriesFailedPage(t *testing.T) {
	store := &memorySections{}
	store.set("faq", nil, errStoreDown)

	r := NewRegistry(store)
	ctx := context.Background()

	faq := r.Page(ctx, "faq")
	assert.ErrorIs(t, faq.Err(), errStoreDown)
	assert.Equal(t, "fb", faq.SectionData("questions", "fb"))

	store.set("faq", []models.ContentSection{section("questions", `{"items":[]}`, 1, true)}, nil)

	faq = r.Page(ctx, "faq")
	assert.NoError(t, faq.Err())
	assert.Equal(t, map[string]any{"items": []any{}}, faq.SectionData("questions", nil))
	assert.Equal(t, 2, store.callCount())
}
