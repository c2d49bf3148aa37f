package elasticsearch

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/jonesrussell/yelp-search/internal/logger"
)

const alreadyExistsType = "resource_already_exists_exception"

// IndexExists reports whether index exists.
func (c *Client) IndexExists(ctx context.Context, index string) (bool, error) {
	res, err := c.es.Indices.Exists([]string{index}, c.es.Indices.Exists.WithContext(ctx))
	if err != nil {
		return false, transportError("index exists", err)
	}
	defer closeBody(res.Body, c.log)

	if res.StatusCode == http.StatusNotFound {
		return false, nil
	}
	if res.IsError() {
		return false, newResponseError(res)
	}

	return true, nil
}

// CreateIndex creates index with the given settings and mappings body.
func (c *Client) CreateIndex(ctx context.Context, index string, mapping any) error {
	var body bytes.Buffer
	if mapping != nil {
		if err := json.NewEncoder(&body).Encode(mapping); err != nil {
			return fmt.Errorf("marshal mapping for %s: %w", index, err)
		}
	}

	res, err := c.es.Indices.Create(index,
		c.es.Indices.Create.WithBody(&body),
		c.es.Indices.Create.WithContext(ctx),
	)
	if err != nil {
		return transportError("create index", err)
	}
	defer closeBody(res.Body, c.log)

	if res.IsError() {
		return newResponseError(res)
	}

	return nil
}

// EnsureIndex creates index unless it already exists. The existing mapping is
// never compared or updated. It reports whether the index was created.
func (c *Client) EnsureIndex(ctx context.Context, index string, mapping any) (bool, error) {
	exists, err := c.IndexExists(ctx, index)
	if err != nil {
		return false, fmt.Errorf("check index %s: %w", index, err)
	}
	if exists {
		c.log.Debug("Index already exists", logger.String("index", index))
		return false, nil
	}

	if createErr := c.CreateIndex(ctx, index, mapping); createErr != nil {
		// Another loader created it between the two calls.
		if respErr, ok := IsResponseError(createErr); ok && respErr.Type == alreadyExistsType {
			return false, nil
		}
		return false, fmt.Errorf("create index %s: %w", index, createErr)
	}

	c.log.Info("Created index", logger.String("index", index))
	return true, nil
}
