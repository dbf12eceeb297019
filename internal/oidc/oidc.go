// Package oidc resolves the key set URI published in an issuer's OpenID
// Connect discovery document.
package oidc

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"path"
)

// Fetcher is the subset of the HTTP capability discovery needs. It is
// satisfied by jwks.Fetcher implementations.
type Fetcher interface {
	Fetch(ctx context.Context, uri string) ([]byte, error)
}

// WellKnownEndpoints holds the well known OIDC endpoints.
type WellKnownEndpoints struct {
	JWKSURI string `json:"jwks_uri"`
}

// GetWellKnownEndpointsFromIssuerURL gets the well known endpoints for the
// passed in issuer url.
func GetWellKnownEndpointsFromIssuerURL(ctx context.Context, fetcher Fetcher, issuerURL url.URL) (*WellKnownEndpoints, error) {
	issuerURL.Path = path.Join(issuerURL.Path, ".well-known/openid-configuration")

	body, err := fetcher.Fetch(ctx, issuerURL.String())
	if err != nil {
		return nil, fmt.Errorf("could not get well known endpoints from url %s: %w", issuerURL.String(), err)
	}

	var wkEndpoints WellKnownEndpoints
	if err := json.Unmarshal(body, &wkEndpoints); err != nil {
		return nil, fmt.Errorf("could not decode json body when getting well known endpoints: %w", err)
	}
	if wkEndpoints.JWKSURI == "" {
		return nil, fmt.Errorf("well known endpoints from %s did not include a jwks_uri", issuerURL.String())
	}

	return &wkEndpoints, nil
}
