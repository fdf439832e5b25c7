package storage

import (
	"context"
	"fmt"
	"io"
	"strings"
)

// Router dispatches destinations to providers by URL scheme. Destinations
// without a registered scheme go to the fallback provider.
type Router struct {
	schemes  map[string]Provider
	fallback Provider
}

// NewRouter creates a router that sends unmatched destinations to fallback.
func NewRouter(fallback Provider) *Router {
	return &Router{
		schemes:  make(map[string]Provider),
		fallback: fallback,
	}
}

// Handle registers p for destinations starting with scheme + "://".
func (r *Router) Handle(scheme string, p Provider) *Router {
	r.schemes[strings.ToLower(scheme)] = p
	return r
}

// Resolve returns the provider responsible for dest.
func (r *Router) Resolve(dest string) (Provider, error) {
	if scheme, _, ok := strings.Cut(dest, "://"); ok {
		if p, found := r.schemes[strings.ToLower(scheme)]; found {
			return p, nil
		}
		if !strings.EqualFold(scheme, "file") {
			return nil, fmt.Errorf("no storage provider for scheme %q", scheme)
		}
	}
	if r.fallback == nil {
		return nil, fmt.Errorf("no storage provider for %q", dest)
	}
	return r.fallback, nil
}

func (r *Router) Create(ctx context.Context, key, contentType string) (io.WriteCloser, error) {
	p, err := r.Resolve(key)
	if err != nil {
		return nil, err
	}
	return p.Create(ctx, stripFileScheme(key), contentType)
}

func (r *Router) Open(ctx context.Context, key string) (io.ReadCloser, error) {
	p, err := r.Resolve(key)
	if err != nil {
		return nil, err
	}
	return p.Open(ctx, stripFileScheme(key))
}

func (r *Router) URL(key string) string {
	p, err := r.Resolve(key)
	if err != nil {
		return key
	}
	return p.URL(stripFileScheme(key))
}

func stripFileScheme(key string) string {
	if len(key) >= 7 && strings.EqualFold(key[:7], "file://") {
		return key[7:]
	}
	return key
}
