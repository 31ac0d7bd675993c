// internal/site/registry.go
package site

import (
	"errors"
	"fmt"

	cfg "github.com/tamzrod/emcon/internal/config"
)

// Registry holds every configured site, keyed and in stable order.
type Registry struct {
	sites map[string]*Site
	keys  []string
}

// NewRegistry builds every site of a validated, normalized config.
func NewRegistry(c *cfg.Config, open Opener, opts Options) (*Registry, error) {
	r := &Registry{sites: make(map[string]*Site, len(c.Sites))}

	for _, key := range c.SiteKeys() {
		sc := c.Sites[key]
		sc.Key = key

		s, err := New(sc, open, opts)
		if err != nil {
			return nil, err
		}
		r.sites[key] = s
		r.keys = append(r.keys, key)
	}
	return r, nil
}

// Keys returns the site keys in stable order.
func (r *Registry) Keys() []string {
	return append([]string(nil), r.keys...)
}

// Get returns one site.
func (r *Registry) Get(key string) (*Site, bool) {
	s, ok := r.sites[key]
	return s, ok
}

// Sites returns every site in stable order.
func (r *Registry) Sites() []*Site {
	out := make([]*Site, 0, len(r.keys))
	for _, k := range r.keys {
		out = append(out, r.sites[k])
	}
	return out
}

// Filter selects sites by key, in the order given. No names selects all.
// Unknown names do not stop the selection: the known sites are returned
// together with an error naming every unknown one.
func (r *Registry) Filter(names []string) ([]*Site, error) {
	if len(names) == 0 {
		return r.Sites(), nil
	}

	var (
		out  []*Site
		errs []error
	)
	for _, n := range names {
		s, ok := r.sites[n]
		if !ok {
			errs = append(errs, fmt.Errorf("%w: %q", ErrSiteNotFound, n))
			continue
		}
		out = append(out, s)
	}
	return out, errors.Join(errs...)
}
