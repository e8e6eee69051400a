// Package hub lists YouTrack services registered in a Hub service directory
// and chooses the one a widget talks to.
package hub

import (
	"context"
	"net/http"
	"net/url"

	"ytissues/internal/youtrack"
)

// ServiceFields is the field selection for service listings.
const ServiceFields = "id,name,applicationName,homeUrl,version"

// Service is one application registered in Hub.
type Service struct {
	ID              string `json:"id"`
	Name            string `json:"name,omitempty"`
	ApplicationName string `json:"applicationName,omitempty"`
	HomeURL         string `json:"homeUrl,omitempty"`
	Version         string `json:"version,omitempty"`
}

// Lister lists YouTrack services.
type Lister interface {
	ListServices(ctx context.Context) ([]Service, error)
}

// Client reads the Hub service directory over a JSON transport bound to the
// Hub base URL.
type Client struct {
	transport youtrack.Transport
}

// NewClient creates a directory client.
func NewClient(t youtrack.Transport) *Client {
	return &Client{transport: t}
}

// ListServices returns every service whose application is YouTrack.
func (c *Client) ListServices(ctx context.Context) ([]Service, error) {
	params := url.Values{}
	params.Set("fields", ServiceFields)
	params.Set("query", "applicationName:YouTrack")

	var resp struct {
		Services []Service `json:"services"`
	}
	req := youtrack.Request{Method: http.MethodGet, Path: "api/rest/services", Query: params}
	if err := c.transport.Fetch(ctx, req, &resp); err != nil {
		return nil, err
	}
	return resp.Services, nil
}
