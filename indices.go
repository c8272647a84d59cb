package elastiq

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/elastiq/elastiq/metrics"
)

// CreateIndex creates an index with the given mapping. Creation is skipped
// when the index already exists.
func (c *ESClient) CreateIndex(ctx context.Context, name string, mapping M) error {
	exists, err := c.IndexExists(ctx, name)
	if err != nil {
		return err
	}
	if exists {
		return nil
	}

	start := time.Now()
	data, err := json.Marshal(mapping)
	if err != nil {
		return fmt.Errorf("failed to marshal index mapping: %w", err)
	}

	res, err := c.es.Indices.Create(name,
		c.es.Indices.Create.WithBody(bytes.NewReader(data)),
		c.es.Indices.Create.WithContext(ctx),
	)
	if err != nil {
		return &BackendError{Operation: "indices.create", Err: err}
	}
	defer res.Body.Close()

	if res.IsError() {
		return backendError("indices.create", res)
	}

	metrics.ObserveIndexOperation(name, "create", time.Since(start))
	return nil
}

// DeleteIndex deletes an index. A missing index is not an error.
func (c *ESClient) DeleteIndex(ctx context.Context, name string) error {
	start := time.Now()
	res, err := c.es.Indices.Delete([]string{name},
		c.es.Indices.Delete.WithContext(ctx),
	)
	if err != nil {
		return &BackendError{Operation: "indices.delete", Err: err}
	}
	defer res.Body.Close()

	if res.IsError() && res.StatusCode != http.StatusNotFound {
		return backendError("indices.delete", res)
	}

	metrics.ObserveIndexOperation(name, "delete", time.Since(start))
	return nil
}

// IndexExists reports whether an index exists.
func (c *ESClient) IndexExists(ctx context.Context, name string) (bool, error) {
	res, err := c.es.Indices.Exists([]string{name},
		c.es.Indices.Exists.WithContext(ctx),
	)
	if err != nil {
		return false, &BackendError{Operation: "indices.exists", Err: err}
	}
	defer res.Body.Close()

	return res.StatusCode == http.StatusOK, nil
}
