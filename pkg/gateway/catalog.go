package gateway

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"

	"go.uber.org/zap"

	"github.com/clicafe/clicafe/internal/logging"
	"github.com/clicafe/clicafe/internal/metrics"
	"github.com/clicafe/clicafe/pkg/protocol"
)

// Categories lists product categories.
func (c *Client) Categories(ctx context.Context) ([]protocol.Category, error) {
	var out []protocol.Category
	if err := c.getCatalog(ctx, "/categories/", nil, "categories", &out); err != nil {
		return nil, fmt.Errorf("categories: %w", err)
	}
	return out, nil
}

// Products lists products matching f. Empty filter fields are not sent.
func (c *Client) Products(ctx context.Context, f protocol.ProductFilter) ([]protocol.Product, error) {
	q := url.Values{}
	for k, v := range map[string]string{
		"type":   f.Type,
		"form":   f.Form,
		"origin": f.Origin,
		"roast":  f.Roast,
		"search": f.Search,
	} {
		if v != "" {
			q.Set(k, v)
		}
	}

	var out []protocol.Product
	if err := c.getCatalog(ctx, "/products/", q, "products", &out); err != nil {
		return nil, fmt.Errorf("products: %w", err)
	}
	return out, nil
}

// Product fetches a single product by id.
func (c *Client) Product(ctx context.Context, id string) (*protocol.Product, error) {
	var out protocol.Product
	if err := c.getCatalog(ctx, "/products/"+escape(id)+"/", nil, "product", &out); err != nil {
		return nil, fmt.Errorf("product %s: %w", id, err)
	}
	return &out, nil
}

// InvalidateCatalog drops every cached catalog response.
func (c *Client) InvalidateCatalog() int {
	if c.cache == nil {
		return 0
	}
	return c.cache.Clear()
}

// getCatalog serves a public catalog GET from the cache when fresh, and
// stores the raw body on a miss.
func (c *Client) getCatalog(ctx context.Context, path string, query url.Values, endpoint string, out interface{}) error {
	key := path
	if len(query) > 0 {
		key += "?" + query.Encode()
	}

	if c.cache != nil {
		if data, ok := c.cache.Get(key); ok {
			if err := decodeList(data, out); err == nil {
				metrics.RecordCatalogCache(true)
				return nil
			}
			c.cache.Evict(key)
		}
		metrics.RecordCatalogCache(false)
	}

	var raw []byte
	err := c.do(ctx, call{
		method:   http.MethodGet,
		path:     path,
		query:    query,
		raw:      &raw,
		endpoint: endpoint,
	})
	if err != nil {
		return err
	}
	if err := decodeList(raw, out); err != nil {
		return fmt.Errorf("parse %s response: %w", endpoint, err)
	}

	if c.cache != nil {
		if err := c.cache.Put(key, raw); err != nil {
			logging.Warn("catalog cache write failed", zap.String("key", key), zap.Error(err))
		}
	}
	return nil
}

// decodeList decodes data into out, unwrapping a paginated
// {"results": [...]} envelope when present.
func decodeList(data []byte, out interface{}) error {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) > 0 && trimmed[0] == '{' {
		var page struct {
			Results json.RawMessage `json:"results"`
		}
		if err := json.Unmarshal(trimmed, &page); err != nil {
			return err
		}
		if page.Results != nil {
			trimmed = page.Results
		}
	}
	return json.Unmarshal(trimmed, out)
}
