package loggly

import (
	"encoding/base64"
	"encoding/json"
	"fmt"
	"net/url"
	"strconv"

	"github.com/valyala/fasthttp"
)

// Customer is the account information returned by the customer endpoint.
type Customer struct {
	Subdomain string   `json:"subdomain"`
	Tokens    []string `json:"tokens"`
}

// SearchQuery describes one search against the account's events. The zero
// value searches everything the service defaults allow.
type SearchQuery struct {
	// Query in Loggly search syntax. Empty means "*".
	Query string

	// From and Until bound the time window, e.g. "-24h" and "now". Empty
	// values defer to the service defaults.
	From  string
	Until string

	// Order is "asc" or "desc".
	Order string

	// Size caps the number of returned events.
	Size int
}

// SearchEvent is one event returned by a search.
type SearchEvent struct {
	Raw       string         `json:"raw"`
	Timestamp int64          `json:"timestamp"`
	Tags      []string       `json:"tags"`
	Event     map[string]any `json:"event"`
}

// SearchResponse carries the events matching a search.
type SearchResponse struct {
	TotalEvents int64         `json:"total_events"`
	Events      []SearchEvent `json:"events"`
}

// searchHandle is the rsid envelope the search endpoint returns; the id is
// then exchanged for events.
type searchHandle struct {
	RSID struct {
		ID string `json:"id"`
	} `json:"rsid"`
}

// Customer retrieves the account information. Requires Auth.
func (c *Client) Customer() (*Customer, error) {
	cust := new(Customer)
	if err := c.apiGet(c.apiURI()+"/customer", cust); err != nil {
		return nil, err
	}
	return cust, nil
}

// Search runs q against the account's events: it first registers the query
// to obtain an rsid, then exchanges the rsid for the matching events.
// Requires Auth.
func (c *Client) Search(q SearchQuery) (*SearchResponse, error) {

	h := new(searchHandle)
	if err := c.apiGet(c.apiURI()+"/search?"+searchValues(q).Encode(), h); err != nil {
		return nil, err
	}

	ev := url.Values{}
	ev.Set("rsid", h.RSID.ID)

	resp := new(SearchResponse)
	if err := c.apiGet(c.apiURI()+"/events?"+ev.Encode(), resp); err != nil {
		return nil, err
	}

	return resp, nil
}

// apiURI returns the account-scoped API base, e.g.
// https://example.loggly.com/apiv2.
func (c *Client) apiURI() string {
	return "https://" + c.opts.Subdomain + ".loggly.com/apiv2"
}

// searchValues renders q as the query string understood by the search
// endpoint, omitting unset fields.
func searchValues(q SearchQuery) url.Values {
	v := url.Values{}

	if len(q.Query) == 0 {
		q.Query = "*"
	}
	v.Set("q", q.Query)

	if len(q.From) > 0 {
		v.Set("from", q.From)
	}
	if len(q.Until) > 0 {
		v.Set("until", q.Until)
	}
	if len(q.Order) > 0 {
		v.Set("order", q.Order)
	}
	if q.Size > 0 {
		v.Set("size", strconv.Itoa(q.Size))
	}

	return v
}

// apiGet issues an authenticated GET and decodes the JSON response into
// out.
func (c *Client) apiGet(uri string, out any) error {

	if c.opts.Auth == nil {
		return ErrMissingAuth
	}

	req := fasthttp.AcquireRequest()
	resp := fasthttp.AcquireResponse()
	defer fasthttp.ReleaseRequest(req)
	defer fasthttp.ReleaseResponse(resp)

	req.SetRequestURI(uri)
	req.Header.SetMethod(fasthttp.MethodGet)
	cred := c.opts.Auth.Username + ":" + c.opts.Auth.Password
	req.Header.Set("Authorization", "Basic "+base64.StdEncoding.EncodeToString([]byte(cred)))

	if err := c.api.DoTimeout(req, resp, c.opts.Timeout); err != nil {
		return fmt.Errorf("loggly: api request failed: %w", err)
	}

	if resp.StatusCode() != fasthttp.StatusOK {
		return &DeliveryError{
			Code:   resp.StatusCode(),
			Status: fasthttp.StatusMessage(resp.StatusCode()),
		}
	}

	if err := json.Unmarshal(resp.Body(), out); err != nil {
		return fmt.Errorf("%s: %w", deliveryErrPrefix, err)
	}

	return nil
}
