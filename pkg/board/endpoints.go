package board

import (
	"fmt"
	"net/url"
	"strings"
)

// Endpoints are the store addresses derived from the single configured base address.
type Endpoints struct {
	Base     *url.URL
	Listings string
	Channel  string
	Health   string
}

// ResolveEndpoints derives the retrieval, creation and channel addresses from
// a base address. The channel address substitutes the transport scheme
// (http→ws, https→wss) and appends /ws.
func ResolveEndpoints(base string) (Endpoints, error) {
	u, err := url.Parse(strings.TrimRight(base, "/"))
	if err != nil {
		return Endpoints{}, fmt.Errorf("parse base address %q: %w", base, err)
	}

	var wsScheme string
	switch u.Scheme {
	case "http":
		wsScheme = "ws"
	case "https":
		wsScheme = "wss"
	default:
		return Endpoints{}, fmt.Errorf("base address %q must use http or https", base)
	}
	if u.Host == "" {
		return Endpoints{}, fmt.Errorf("base address %q has no host", base)
	}

	channel := *u
	channel.Scheme = wsScheme

	return Endpoints{
		Base:     u,
		Listings: u.JoinPath("listings").String(),
		Channel:  channel.JoinPath("ws").String(),
		Health:   u.JoinPath("health").String(),
	}, nil
}
