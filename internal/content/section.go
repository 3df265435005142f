package content

import (
	"cmp"
	"context"
	"encoding/json"
	"slices"
	"sync"

	"github.com/harbourhotels/hotel-site/internal/db/models"
)

// Lookup finds the raw document of the first section with a key.
// It is implemented by Set and Client.
type Lookup interface {
	lookup(key string) (json.RawMessage, bool)
}

// Set is an immutable, ordered snapshot of one page's active sections.
type Set struct {
	page     string
	sections []models.ContentSection
}

var emptySet = &Set{} //nolint:gochecknoglobals

// newSet drops inactive rows and sorts the rest by display order. The sort is
// stable so the store's tie order survives.
func newSet(page string, rows []models.ContentSection) *Set {
	sections := make([]models.ContentSection, 0, len(rows))

	for _, row := range rows {
		if row.IsActive {
			sections = append(sections, row)
		}
	}

	slices.SortStableFunc(sections, func(a, b models.ContentSection) int {
		return cmp.Compare(a.DisplayOrder, b.DisplayOrder)
	})

	return &Set{page: page, sections: sections}
}

// Page returns the page name the set was loaded for.
func (s *Set) Page() string {
	return s.page
}

// Len returns the number of sections.
func (s *Set) Len() int {
	return len(s.sections)
}

// Sections returns a copy of the ordered sections.
func (s *Set) Sections() []models.ContentSection {
	return slices.Clone(s.sections)
}

func (s *Set) lookup(key string) (json.RawMessage, bool) {
	for i := range s.sections {
		if s.sections[i].SectionKey == key {
			if len(s.sections[i].Data) == 0 {
				return json.RawMessage("{}"), true
			}

			return json.RawMessage(s.sections[i].Data), true
		}
	}

	return nil, false
}

// SectionData returns the decoded document of the first section with key,
// or fallback unchanged when there is none. Nested fields are not defaulted.
func (s *Set) SectionData(key string, fallback any) any {
	raw, ok := s.lookup(key)
	if !ok {
		return fallback
	}

	var data any
	if err := json.Unmarshal(raw, &data); err != nil {
		return fallback
	}

	return data
}

// Decode unmarshals the document of the first section with key into a zero T.
// Fields absent from the document stay zero. fallback is returned when the
// section is missing or its document does not fit T.
func Decode[T any](l Lookup, key string, fallback T) T {
	raw, ok := l.lookup(key)
	if !ok {
		return fallback
	}

	var out T
	if err := json.Unmarshal(raw, &out); err != nil {
		return fallback
	}

	return out
}

// Client caches the active sections of one page.
//
// Every fetch is numbered. A response is applied only when its number is
// higher than every number applied before, so a slow stale response can never
// overwrite a newer one.
type Client struct {
	source SectionSource

	mu       sync.RWMutex
	page     string
	loaded   bool // page was fetched successfully
	set      *Set
	err      error
	inflight int
	issued   uint64
	applied  uint64
}

// NewClient returns an empty Client reading from source.
func NewClient(source SectionSource) *Client {
	return &Client{source: source, set: emptySet}
}

// Load fetches the sections of page. It does nothing when the sections of
// page are already applied successfully. The returned error is informational: on failure the
// sections are emptied and Err reports the cause.
func (c *Client) Load(ctx context.Context, page string) error {
	c.mu.Lock()
	if c.page == page && c.loaded && c.set.page == page {
		c.mu.Unlock()

		return nil
	}

	c.page = page
	seq := c.begin()
	c.mu.Unlock()

	return c.fetch(ctx, page, seq)
}

// Refetch pulls the current page again regardless of earlier loads.
func (c *Client) Refetch(ctx context.Context) error {
	c.mu.Lock()
	page := c.page
	seq := c.begin()
	c.mu.Unlock()

	return c.fetch(ctx, page, seq)
}

// begin numbers a new fetch. c.mu must be held.
func (c *Client) begin() uint64 {
	c.issued++
	c.inflight++

	return c.issued
}

func (c *Client) fetch(ctx context.Context, page string, seq uint64) error {
	rows, err := c.source.ActiveSections(ctx, page)

	c.mu.Lock()
	defer c.mu.Unlock()

	c.inflight--

	if seq <= c.applied {
		sectionLoads.WithLabelValues(page, resultStale).Inc()

		return nil
	}

	c.applied = seq

	if err != nil {
		sectionLoads.WithLabelValues(page, resultError).Inc()

		c.set = &Set{page: page}
		c.err = err
		c.loaded = false

		return err
	}

	sectionLoads.WithLabelValues(page, resultOK).Inc()

	c.set = newSet(page, rows)
	c.err = nil
	c.loaded = true

	return nil
}

// Page returns the page name of the last Load.
func (c *Client) Page() string {
	c.mu.RLock()
	defer c.mu.RUnlock()

	return c.page
}

// Set returns the current snapshot. Renderers should take one Set per
// request so all regions of a page come from the same fetch.
func (c *Client) Set() *Set {
	c.mu.RLock()
	defer c.mu.RUnlock()

	return c.set
}

// Loading reports whether a fetch issued by this client is in flight.
func (c *Client) Loading() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()

	return c.inflight > 0
}

// Err returns the error of the last applied fetch, nil after a success.
func (c *Client) Err() error {
	c.mu.RLock()
	defer c.mu.RUnlock()

	return c.err
}

// Sections returns a copy of the current ordered sections.
func (c *Client) Sections() []models.ContentSection {
	return c.Set().Sections()
}

// SectionData looks key up in the current snapshot, see Set.SectionData.
func (c *Client) SectionData(key string, fallback any) any {
	return c.Set().SectionData(key, fallback)
}

func (c *Client) lookup(key string) (json.RawMessage, bool) {
	return c.Set().lookup(key)
}
