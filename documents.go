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

// IndexDocument indexes (or replaces) a single document.
func (c *ESClient) IndexDocument(ctx context.Context, index, id string, doc M) error {
	start := time.Now()
	data, err := json.Marshal(doc)
	if err != nil {
		return fmt.Errorf("failed to marshal document: %w", err)
	}

	res, err := c.es.Index(index, bytes.NewReader(data),
		c.es.Index.WithDocumentID(id),
		c.es.Index.WithContext(ctx),
	)
	if err != nil {
		return &BackendError{Operation: "index", Err: err}
	}
	defer res.Body.Close()

	if res.IsError() {
		return backendError("index", res)
	}

	metrics.ObserveIndexOperation(index, "index", time.Since(start))
	return nil
}

// DeleteDocument deletes a single document. A missing document is not an
// error.
func (c *ESClient) DeleteDocument(ctx context.Context, index, id string) error {
	start := time.Now()
	res, err := c.es.Delete(index, id,
		c.es.Delete.WithContext(ctx),
	)
	if err != nil {
		return &BackendError{Operation: "delete", Err: err}
	}
	defer res.Body.Close()

	if res.IsError() && res.StatusCode != http.StatusNotFound {
		return backendError("delete", res)
	}

	metrics.ObserveIndexOperation(index, "delete", time.Since(start))
	return nil
}

// BulkIndex indexes a batch of documents keyed by document ID in one bulk
// request.
func (c *ESClient) BulkIndex(ctx context.Context, index string, docs map[string]M) error {
	if len(docs) == 0 {
		return nil
	}

	start := time.Now()
	var buf bytes.Buffer
	for id, doc := range docs {
		action, err := json.Marshal(M{"index": M{"_id": id}})
		if err != nil {
			return fmt.Errorf("failed to marshal bulk action: %w", err)
		}
		source, err := json.Marshal(doc)
		if err != nil {
			return fmt.Errorf("failed to marshal bulk document: %w", err)
		}
		buf.Write(action)
		buf.WriteByte('\n')
		buf.Write(source)
		buf.WriteByte('\n')
	}

	res, err := c.es.Bulk(&buf,
		c.es.Bulk.WithIndex(index),
		c.es.Bulk.WithContext(ctx),
	)
	if err != nil {
		return &BackendError{Operation: "bulk", Err: err}
	}
	defer res.Body.Close()

	if res.IsError() {
		return backendError("bulk", res)
	}

	metrics.ObserveIndexOperation(index, "bulk", time.Since(start))
	return nil
}
