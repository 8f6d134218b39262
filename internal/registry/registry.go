// Package registry provides the service registry the generator reads routes,
// actions and discovered endpoints from.
package registry

import (
	"context"

	"github.com/kolah/routedoc/internal/model"
)

// Registry answers the two queries a generation run needs.
type Registry interface {
	// ListServices returns the known services. Actions are included only when
	// withActions is set; onlyLocal restricts the result to local services.
	ListServices(ctx context.Context, withActions, onlyLocal bool) ([]*model.ServiceDescriptor, error)

	// ListAliases returns the endpoints discovered for an endpoint-host service.
	ListAliases(ctx context.Context, service string) ([]model.AliasInfo, error)
}

// Static serves a fixed set of services.
type Static struct {
	services []*model.ServiceDescriptor
	aliases  map[string][]model.AliasInfo
}

var _ Registry = (*Static)(nil)

// NewStatic creates a registry over services. Actions are linked to their owning
// service.
func NewStatic(services []*model.ServiceDescriptor, aliases map[string][]model.AliasInfo) *Static {
	for _, svc := range services {
		link(svc)
	}
	return &Static{services: services, aliases: aliases}
}

func link(svc *model.ServiceDescriptor) {
	for _, a := range svc.Actions {
		if a == nil {
			continue
		}
		a.Service = svc.Name
		a.Owner = svc
	}
}

func (s *Static) ListServices(ctx context.Context, withActions, onlyLocal bool) ([]*model.ServiceDescriptor, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return filterServices(s.services, withActions, onlyLocal), nil
}

func (s *Static) ListAliases(ctx context.Context, service string) ([]model.AliasInfo, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	out := make([]model.AliasInfo, len(s.aliases[service]))
	copy(out, s.aliases[service])
	return out, nil
}

func filterServices(services []*model.ServiceDescriptor, withActions, onlyLocal bool) []*model.ServiceDescriptor {
	out := make([]*model.ServiceDescriptor, 0, len(services))
	for _, svc := range services {
		if onlyLocal && !svc.Local {
			continue
		}
		if !withActions {
			cp := *svc
			cp.Actions = nil
			svc = &cp
		}
		out = append(out, svc)
	}
	return out
}
