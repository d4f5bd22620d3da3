package resolve

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"
)

const defaultHTTPTimeout = 10 * time.Second

// apiError is a non-2xx response from an upstream service.
type apiError struct {
	Status int
	Body   string
}

func (e *apiError) Error() string {
	return fmt.Sprintf("upstream status %d: %s", e.Status, e.Body)
}

// classify maps a client error onto a provider error code.
func classify(provider string, err error) *ProviderError {
	var ae *apiError
	switch {
	case errors.As(err, &ae):
		code := CodeNetwork
		if ae.Status == http.StatusUnauthorized || ae.Status == http.StatusForbidden {
			code = CodePermission
		}
		return &ProviderError{Provider: provider, Code: code, Status: ae.Status, Err: err}
	case isDecodeError(err):
		return &ProviderError{Provider: provider, Code: CodeMalformed, Err: err}
	default:
		return &ProviderError{Provider: provider, Code: CodeNetwork, Err: err}
	}
}

func isDecodeError(err error) bool {
	var syn *json.SyntaxError
	var typ *json.UnmarshalTypeError
	return errors.As(err, &syn) || errors.As(err, &typ)
}

// doJSON issues a GET and decodes the JSON body into out. Non-2xx
// responses surface as apiError so callers can classify them.
func doJSON(ctx context.Context, client *http.Client, endpoint string, params url.Values, out any) error {
	u, err := url.Parse(endpoint)
	if err != nil {
		return fmt.Errorf("parse endpoint: %w", err)
	}
	u.RawQuery = params.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return &apiError{Status: resp.StatusCode, Body: string(body)}
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return err
	}
	return nil
}

// Suggestion is a lightweight autocomplete hit from the places service.
type Suggestion struct {
	ID   string `json:"id"`
	Text string `json:"text"`
}

// Place is the full record behind a suggestion.
type Place struct {
	ID               string   `json:"id"`
	FormattedAddress string   `json:"formatted_address"`
	LGAName          string   `json:"lga_name"`
	Lat              *float64 `json:"lat"`
	Lng              *float64 `json:"lng"`
}

// PlacesClient is the transport behind the places provider.
type PlacesClient interface {
	Suggest(ctx context.Context, query string, limit int) ([]Suggestion, error)
	Details(ctx context.Context, id string) (Place, error)
}

// HTTPPlacesClient talks to a places-style autocomplete service.
type HTTPPlacesClient struct {
	BaseURL string
	APIKey  string
	Client  *http.Client
}

func (c *HTTPPlacesClient) httpClient() *http.Client {
	if c.Client != nil {
		return c.Client
	}
	return &http.Client{Timeout: defaultHTTPTimeout}
}

func (c *HTTPPlacesClient) Suggest(ctx context.Context, query string, limit int) ([]Suggestion, error) {
	params := url.Values{}
	params.Set("query", query)
	params.Set("limit", fmt.Sprint(limit))
	if c.APIKey != "" {
		params.Set("key", c.APIKey)
	}
	var body struct {
		Suggestions []Suggestion `json:"suggestions"`
	}
	if err := doJSON(ctx, c.httpClient(), c.BaseURL+"/autocomplete", params, &body); err != nil {
		return nil, err
	}
	return body.Suggestions, nil
}

func (c *HTTPPlacesClient) Details(ctx context.Context, id string) (Place, error) {
	params := url.Values{}
	params.Set("id", id)
	if c.APIKey != "" {
		params.Set("key", c.APIKey)
	}
	var p Place
	if err := doJSON(ctx, c.httpClient(), c.BaseURL+"/details", params, &p); err != nil {
		return Place{}, err
	}
	return p, nil
}

// PropertyRecord is one parcel hit from the property search service.
type PropertyRecord struct {
	ID      string   `json:"id"`
	Address string   `json:"address"`
	LGAName string   `json:"lga_name"`
	LGACode string   `json:"lga_code"`
	Lot     string   `json:"lot"`
	Plan    string   `json:"plan"`
	Lat     *float64 `json:"lat"`
	Lng     *float64 `json:"lng"`
}

// PropertyClient is the transport behind the property provider.
type PropertyClient interface {
	Search(ctx context.Context, address string, limit int) ([]PropertyRecord, error)
}

// HTTPPropertyClient talks to the jurisdiction's property search API.
type HTTPPropertyClient struct {
	BaseURL string
	Client  *http.Client
}

func (c *HTTPPropertyClient) httpClient() *http.Client {
	if c.Client != nil {
		return c.Client
	}
	return &http.Client{Timeout: defaultHTTPTimeout}
}

func (c *HTTPPropertyClient) Search(ctx context.Context, address string, limit int) ([]PropertyRecord, error) {
	params := url.Values{}
	params.Set("address", address)
	params.Set("limit", fmt.Sprint(limit))
	var body struct {
		Results []PropertyRecord `json:"results"`
	}
	if err := doJSON(ctx, c.httpClient(), c.BaseURL+"/search", params, &body); err != nil {
		return nil, err
	}
	return body.Results, nil
}
