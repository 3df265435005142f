package content

import (
	"context"
	"slices"
	"sync"

	"github.com/rs/zerolog/log"
)

// Registry keeps one Client per page for the lifetime of the process.
type Registry struct {
	source SectionSource

	mu      sync.Mutex
	clients map[string]*Client
}

// NewRegistry returns an empty Registry reading from source.
func NewRegistry(source SectionSource) *Registry {
	return &Registry{
		source:  source,
		clients: make(map[string]*Client),
	}
}

func (r *Registry) client(name string) *Client {
	r.mu.Lock()
	defer r.mu.Unlock()

	c, ok := r.clients[name]
	if !ok {
		c = NewClient(r.source)
		r.clients[name] = c
	}

	return c
}

// Page returns the client of a page, loading it on first use and again after
// a failed load. Load errors are logged, the client then serves fallbacks.
func (r *Registry) Page(ctx context.Context, name string) *Client {
	c := r.client(name)

	if err := c.Load(ctx, name); err != nil {
		log.Error().Err(err).Str("page", name).Msg("failed to load page sections")
	}

	return c
}

// Refetch re-pulls a page after an admin write. Pages nobody has visited yet
// are skipped, their first visit loads fresh data anyway.
func (r *Registry) Refetch(ctx context.Context, name string) {
	r.mu.Lock()
	c, ok := r.clients[name]
	r.mu.Unlock()

	if !ok {
		return
	}

	if c.Page() == "" {
		if err := c.Load(ctx, name); err != nil {
			log.Error().Err(err).Str("page", name).Msg("failed to load page sections")
		}

		return
	}

	if err := c.Refetch(ctx); err != nil {
		log.Error().Err(err).Str("page", name).Msg("failed to refetch page sections")
	}
}

// Names returns the sorted names of the pages that have a client.
func (r *Registry) Names() []string {
	r.mu.Lock()
	defer r.mu.Unlock()

	names := make([]string, 0, len(r.clients))
	for name := range r.clients {
		names = append(names, name)
	}

	slices.Sort(names)

	return names
}
