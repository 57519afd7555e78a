package adapters

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	"golang.org/x/oauth2"

	"relay/internal/oauth/models"
)

// maxBodyBytes bounds how much of an upstream response is read.
const maxBodyBytes = 1 << 20

// IdentityProviderClient talks to the identity provider's token endpoint and
// the profile service. It implements service.TokenExchanger and
// service.ProfileFetcher.
type IdentityProviderClient struct {
	tokenURL   string
	profileURL string
	httpClient *http.Client
}

// NewIdentityProviderClient builds a client for <oauthURI>/token and <profileURI>/profile.
// A nil httpClient falls back to http.DefaultClient.
func NewIdentityProviderClient(oauthURI, profileURI string, httpClient *http.Client) *IdentityProviderClient {
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	return &IdentityProviderClient{
		tokenURL:   strings.TrimRight(oauthURI, "/") + "/token",
		profileURL: strings.TrimRight(profileURI, "/") + "/profile",
		httpClient: httpClient,
	}
}

// Exchange posts the code and client credentials as JSON and decodes the granted token.
func (c *IdentityProviderClient) Exchange(ctx context.Context, req models.TokenExchangeRequest) (*models.TokenExchangeResponse, error) {
	payload, err := json.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("encode token request: %w", err)
	}
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.tokenURL, bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("build token request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("token request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return nil, fmt.Errorf("read token response: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, &models.UpstreamError{Endpoint: models.EndpointToken, StatusCode: resp.StatusCode, Body: body}
	}

	var token models.TokenExchangeResponse
	if err := json.Unmarshal(body, &token); err != nil {
		return nil, fmt.Errorf("decode token response: %w", err)
	}
	if token.AccessToken == "" {
		return nil, fmt.Errorf("token response has no access_token")
	}
	return &token, nil
}

// FetchProfile loads the profile with the access token. Only a 200 is a profile;
// every other status becomes an UpstreamError carrying the raw body.
func (c *IdentityProviderClient) FetchProfile(ctx context.Context, token models.TokenExchangeResponse) (*models.Profile, error) {
	client := c.bearerClient(ctx, token)

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, c.profileURL, nil)
	if err != nil {
		return nil, fmt.Errorf("build profile request: %w", err)
	}
	httpReq.Header.Set("Accept", "application/json")

	resp, err := client.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("profile request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return nil, fmt.Errorf("read profile response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, &models.UpstreamError{Endpoint: models.EndpointProfile, StatusCode: resp.StatusCode, Body: body}
	}

	var profile models.Profile
	if err := json.Unmarshal(body, &profile); err != nil {
		return nil, fmt.Errorf("decode profile response: %w", err)
	}
	return &profile, nil
}

// bearerClient wraps the base client in an oauth2 transport that sends the
// access token as a Bearer credential. The granted token_type is only recorded
// on the session; it never selects the Authorization scheme.
func (c *IdentityProviderClient) bearerClient(ctx context.Context, token models.TokenExchangeResponse) *http.Client {
	src := oauth2.StaticTokenSource(&oauth2.Token{
		AccessToken: token.AccessToken,
		TokenType:   "Bearer",
	})
	client := oauth2.NewClient(context.WithValue(ctx, oauth2.HTTPClient, c.httpClient), src)
	client.Timeout = c.httpClient.Timeout
	return client
}
