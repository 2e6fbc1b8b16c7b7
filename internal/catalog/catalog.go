package catalog

import (
	"context"
	"io"
	"net/url"
	"strconv"
	"strings"

	"github.com/charmbracelet/log"
	"github.com/handiism/chartpack/internal/catalog/dto"
	chttp "github.com/handiism/chartpack/internal/http"
	"github.com/handiism/chartpack/internal/model"
)

// DefaultURL is the pack listing endpoint of EtternaOnline.
const DefaultURL = "https://api.etternaonline.com/api/packs"

// Query selects a page of the catalog. Zero values are left out of the
// request so the server defaults apply.
type Query struct {
	Page  uint64
	Limit uint64

	// Sort is a field name, prefixed with "-" for descending order.
	Sort string

	// Search filters packs by name.
	Search string
}

// Client lists packs from the catalog.
//
// Example:
//
//	c := catalog.NewClient(httpClient, catalog.DefaultURL, logger)
//	page, err := c.FetchPacks(ctx, catalog.Query{Page: 1, Sort: "-popularity"})
//	for _, p := range page.Packs {
//	    fmt.Println(p.ID, p.Name, p.DownloadURL)
//	}
type Client struct {
	http    *chttp.Client
	baseURL string
	logger  *log.Logger
}

// NewClient creates a catalog client. An empty baseURL uses DefaultURL.
func NewClient(httpClient *chttp.Client, baseURL string, logger *log.Logger) *Client {
	if baseURL == "" {
		baseURL = DefaultURL
	}
	if logger == nil {
		logger = log.New(io.Discard)
	}
	return &Client{http: httpClient, baseURL: baseURL, logger: logger}
}

// FetchPacks returns one page of packs.
//
// An unknown sort field fails with ErrInvalidSort before any request is
// sent. Transport and status failures are *model.Error values from the HTTP
// client.
func (c *Client) FetchPacks(ctx context.Context, q Query) (*model.PackPage, error) {
	rawURL, err := BuildURL(c.baseURL, q)
	if err != nil {
		return nil, err
	}

	c.logger.Debug("fetching packs", "url", rawURL)
	var resp dto.JSONPacksResponse
	if err := c.http.GetJSON(ctx, rawURL, &resp); err != nil {
		return nil, err
	}

	page := resp.ToPage()
	c.logger.Debug("fetched packs", "count", len(page.Packs), "page", page.CurrentPage, "last", page.LastPage)
	return page, nil
}

// BuildURL adds the query parameters of q to base.
func BuildURL(base string, q Query) (string, error) {
	u, err := url.Parse(base)
	if err != nil {
		return "", model.NewError(model.KindURL, err)
	}

	params := u.Query()
	if q.Page > 0 {
		params.Set("page", strconv.FormatUint(q.Page, 10))
	}
	if q.Limit > 0 {
		params.Set("limit", strconv.FormatUint(q.Limit, 10))
	}
	if sort := strings.TrimSpace(q.Sort); sort != "" {
		field, desc, err := ParseSort(sort)
		if err != nil {
			return "", err
		}
		params.Set("sort", SortString(field, desc))
	}
	if search := strings.TrimSpace(q.Search); search != "" {
		params.Set("filter[search]", search)
	}

	u.RawQuery = params.Encode()
	return u.String(), nil
}
