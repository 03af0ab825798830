package application

import (
	"context"
	"fmt"

	"github.com/wireloop/mcpgo/internal/domain"
)

// ResourceProvider backs resources/list and resources/read. A server that
// exposes no resources simply registers no provider; the dispatcher then
// omits the "resources" capability from initialize.
type ResourceProvider interface {
	List(ctx context.Context) ([]domain.ResourceDescriptor, error)
	Read(ctx context.Context, uri string) (*domain.ResourceContent, error)
}

// ResourceRegistry fans resources/list and resources/read out across zero or
// more providers, in registration order. Providers are consulted in order for
// Read; the first to recognize the uri wins.
type ResourceRegistry struct {
	providers []ResourceProvider
}

// NewResourceRegistry creates an empty registry.
func NewResourceRegistry() *ResourceRegistry {
	return &ResourceRegistry{}
}

// Register adds a provider.
func (r *ResourceRegistry) Register(p ResourceProvider) {
	r.providers = append(r.providers, p)
}

// Len reports how many providers are registered.
func (r *ResourceRegistry) Len() int {
	return len(r.providers)
}

// List aggregates descriptors from every registered provider.
func (r *ResourceRegistry) List(ctx context.Context) ([]domain.ResourceDescriptor, error) {
	var out []domain.ResourceDescriptor
	for _, p := range r.providers {
		descriptors, err := p.List(ctx)
		if err != nil {
			return nil, err
		}
		out = append(out, descriptors...)
	}
	return out, nil
}

// Read resolves uri against each provider in turn, returning a
// domain.ResourceNotFound error if none recognizes it.
func (r *ResourceRegistry) Read(ctx context.Context, uri string) (*domain.ResourceContent, *domain.Error) {
	for _, p := range r.providers {
		content, err := p.Read(ctx, uri)
		if err != nil {
			continue
		}
		if content != nil {
			return content, nil
		}
	}
	return nil, &domain.Error{Code: domain.ResourceNotFound, Message: fmt.Sprintf("Resource not found: %s", uri)}
}

// StaticResourceProvider serves a fixed, in-memory set of resources — useful
// for configuration-driven or test deployments that don't need a live
// backing store.
type StaticResourceProvider struct {
	descriptors []domain.ResourceDescriptor
	content     map[string]domain.ResourceContent
}

// NewStaticResourceProvider builds a provider from a fixed content map keyed
// by URI; descriptors are derived from the map in the order given.
func NewStaticResourceProvider(entries []domain.ResourceContent, describe func(domain.ResourceContent) domain.ResourceDescriptor) *StaticResourceProvider {
	p := &StaticResourceProvider{content: make(map[string]domain.ResourceContent, len(entries))}
	for _, e := range entries {
		p.content[e.URI] = e
		p.descriptors = append(p.descriptors, describe(e))
	}
	return p
}

// List implements ResourceProvider.
func (p *StaticResourceProvider) List(ctx context.Context) ([]domain.ResourceDescriptor, error) {
	return p.descriptors, nil
}

// Read implements ResourceProvider.
func (p *StaticResourceProvider) Read(ctx context.Context, uri string) (*domain.ResourceContent, error) {
	content, ok := p.content[uri]
	if !ok {
		return nil, nil
	}
	return &content, nil
}
