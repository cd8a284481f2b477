package client

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
)

// GetList fetches endpoint and decodes every element independently, so a
// single malformed record is skipped instead of failing the whole list
func GetList[T any](ctx context.Context, c *Client, endpoint string) ([]T, error) {
	env, err := c.Request(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, err
	}

	raws, err := DecodeList[json.RawMessage](env.Data)
	if err != nil {
		return nil, err
	}

	items := make([]T, 0, len(raws))
	for i, raw := range raws {
		var item T
		if err := json.Unmarshal(raw, &item); err != nil {
			c.logger.Warn("skipping malformed record",
				"endpoint", endpoint,
				"index", i,
				"error", err,
			)
			continue
		}
		items = append(items, item)
	}
	return items, nil
}

// getObject fetches endpoint and decodes a single object
func getObject[T any](ctx context.Context, c *Client, endpoint string) (*T, error) {
	env, err := c.Request(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, err
	}
	out, err := Object[T](env)
	if err != nil {
		return nil, err
	}
	return &out, nil
}

// send issues a write and decodes the echoed object, if any
func send[T any](ctx context.Context, c *Client, method, endpoint string, body any) (*T, error) {
	env, err := c.Request(ctx, method, endpoint, body)
	if err != nil {
		return nil, err
	}
	out, err := Object[T](env)
	if err != nil {
		return nil, err
	}
	return &out, nil
}

// remove issues a DELETE and discards the body
func remove(ctx context.Context, c *Client, endpoint string) error {
	_, err := c.Request(ctx, http.MethodDelete, endpoint, nil)
	return err
}

// withQuery appends the non-empty params, sorted by key
func withQuery(endpoint string, params map[string]string) string {
	values := url.Values{}
	for k, v := range params {
		if v != "" {
			values.Set(k, v)
		}
	}
	encoded := values.Encode()
	if encoded == "" {
		return endpoint
	}

	sep := "?"
	if strings.Contains(endpoint, "?") {
		sep = "&"
	}
	return endpoint + sep + encoded
}

func itemPath(collection string, id int64) string {
	return fmt.Sprintf("%s/%d", collection, id)
}

// Logger returns the client logger, for packages layering on the client
func (c *Client) Logger() *slog.Logger {
	return c.logger
}
