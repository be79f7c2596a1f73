package oracle

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"time"
)

// ErrOracleUnavailable is returned when the ownership service cannot be
// reached or answers with an unexpected status.
var ErrOracleUnavailable = errors.New("ownership oracle unavailable")

// DefaultRequestTimeout bounds a single ownership lookup.
const DefaultRequestTimeout = 5 * time.Second

// Client queries a remote ownership service over HTTP.
// The service exposes GET {base}/collections/{collection}/items/{id}/owner
// and answers {"owner": "<identity>"}; 404 means the item is unknown and
// reads as an empty owner.
type Client struct {
	baseURL string
	http    *http.Client
}

// NewClient creates a Client for the given base URL.
func NewClient(baseURL string) *Client {
	return &Client{
		baseURL: baseURL,
		http:    &http.Client{Timeout: DefaultRequestTimeout},
	}
}

// ownerResponse is the ownership service's answer.
type ownerResponse struct {
	Owner string `json:"owner"`
}

// OwnerOf returns the current owner of an item per the remote service.
func (c *Client) OwnerOf(ctx context.Context, collection string, item uint64) (string, error) {
	endpoint := fmt.Sprintf("%s/collections/%s/items/%s/owner",
		c.baseURL, url.PathEscape(collection), strconv.FormatUint(item, 10))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return "", fmt.Errorf("build ownership request: %w", err)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrOracleUnavailable, err)
	}
	defer resp.Body.Close()

	switch resp.StatusCode {
	case http.StatusOK:
		var body ownerResponse
		if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
			return "", fmt.Errorf("decode ownership response: %w", err)
		}
		return body.Owner, nil
	case http.StatusNotFound:
		// Unknown item; surfaces as a mismatch upstream.
		return "", nil
	default:
		return "", fmt.Errorf("%w: status %d", ErrOracleUnavailable, resp.StatusCode)
	}
}
