package hub

import (
	"context"
	"fmt"
	"strings"

	"ytissues/internal/debug"
	appErrors "ytissues/internal/errors"

	"golang.org/x/sync/singleflight"
)

// Resolver picks the service a widget talks to. Concurrent directory
// listings share one request.
type Resolver struct {
	lister Lister
	group  singleflight.Group
}

// NewResolver creates a resolver over a service directory.
func NewResolver(lister Lister) *Resolver {
	return &Resolver{lister: lister}
}

func (r *Resolver) list(ctx context.Context) ([]Service, error) {
	v, err, shared := r.group.Do("services", func() (any, error) {
		return r.lister.ListServices(ctx)
	})
	if err != nil {
		return nil, err
	}
	if shared {
		debug.Log("hub: shared service directory listing")
	}
	services, _ := v.([]Service)
	return services, nil
}

// Eligible lists services that expose a home URL and, when minVersion is
// set, satisfy it.
func (r *Resolver) Eligible(ctx context.Context, minVersion string) ([]Service, error) {
	services, err := r.list(ctx)
	if err != nil {
		return nil, err
	}
	return filterEligible(services, minVersion), nil
}

func filterEligible(services []Service, minVersion string) []Service {
	out := make([]Service, 0, len(services))
	for _, s := range services {
		if strings.TrimSpace(s.HomeURL) == "" {
			continue
		}
		if minVersion != "" && !SatisfiesVersion(s.Version, minVersion) {
			debug.Logf("hub: skipping %s (%s): version %q below %q", s.Name, s.ID, s.Version, minVersion)
			continue
		}
		out = append(out, s)
	}
	return out
}

// Resolve returns the eligible service with configuredID, else the first
// eligible service. No eligible service is a service_unavailable error.
func (r *Resolver) Resolve(ctx context.Context, configuredID, minVersion string) (*Service, error) {
	eligible, err := r.Eligible(ctx, minVersion)
	if err != nil {
		return nil, err
	}
	if len(eligible) == 0 {
		return nil, appErrors.New(appErrors.CodeServiceUnavailable, "no YouTrack service available", nil)
	}
	if configuredID != "" {
		for i := range eligible {
			if eligible[i].ID == configuredID {
				return &eligible[i], nil
			}
		}
		debug.Logf("hub: configured service %s not found, using %s", configuredID, eligible[0].ID)
	}
	return &eligible[0], nil
}

// Lookup fetches the current directory record for id.
func (r *Resolver) Lookup(ctx context.Context, id string) (*Service, error) {
	services, err := r.list(ctx)
	if err != nil {
		return nil, err
	}
	for i := range services {
		if services[i].ID == id && services[i].HomeURL != "" {
			return &services[i], nil
		}
	}
	return nil, appErrors.New(appErrors.CodeServiceUnavailable, fmt.Sprintf("service %s not found", id), nil)
}
