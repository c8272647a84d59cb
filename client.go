package elastiq

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/elastic/go-elasticsearch/v8"
	"github.com/elastic/go-elasticsearch/v8/esapi"

	"github.com/elastiq/elastiq/logger"
	"github.com/elastiq/elastiq/metrics"
)

// SearchParams carries the assembled parameters of a single search call.
// Index and Body are each optional; absent values are omitted from the
// request entirely.
type SearchParams struct {
	Index []string
	Body  M
}

// MsearchParams carries the flattened header/body sequence of a batched
// msearch call.
type MsearchParams struct {
	Body []M
}

// Client is the execution collaborator of the query builders. It owns all
// transport-level concerns (TLS, retries, pooling); elastiq only constructs
// request bodies and hands them over.
type Client interface {
	Search(ctx context.Context, params SearchParams) (Response, error)
	Msearch(ctx context.Context, params MsearchParams) (*MsearchResponse, error)
	Count(ctx context.Context, params SearchParams) (Response, error)
}

// ESClient implements Client on top of the official Elasticsearch client.
// It also exposes thin index- and document-administration plumbing that is
// not part of the builder surface.
type ESClient struct {
	es *elasticsearch.Client
}

// NewESClient creates an ESClient from an Elasticsearch configuration. The
// connection is not verified here; use Ping to check reachability.
func NewESClient(cfg elasticsearch.Config) (*ESClient, error) {
	es, err := elasticsearch.NewClient(cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to create Elasticsearch client: %w", err)
	}
	return &ESClient{es: es}, nil
}

// Ping verifies the cluster is reachable.
func (c *ESClient) Ping(ctx context.Context) error {
	res, err := c.es.Info(c.es.Info.WithContext(ctx))
	if err != nil {
		return &BackendError{Operation: "ping", Err: err}
	}
	defer res.Body.Close()
	if res.IsError() {
		return backendError("ping", res)
	}
	return nil
}

// Search executes a single search request.
func (c *ESClient) Search(ctx context.Context, params SearchParams) (Response, error) {
	start := time.Now()
	idx := indexLabel(params.Index)

	opts := []func(*esapi.SearchRequest){
		c.es.Search.WithContext(ctx),
	}
	if len(params.Index) > 0 {
		opts = append(opts, c.es.Search.WithIndex(params.Index...))
	}
	if len(params.Body) > 0 {
		data, err := json.Marshal(params.Body)
		if err != nil {
			return nil, fmt.Errorf("failed to marshal search body: %w", err)
		}
		opts = append(opts, c.es.Search.WithBody(bytes.NewReader(data)))
	}

	res, err := c.es.Search(opts...)
	if err != nil {
		metrics.ObserveQuery(idx, "search", "error", time.Since(start))
		return nil, &BackendError{Operation: "search", Err: err}
	}
	defer res.Body.Close()

	if res.IsError() {
		metrics.ObserveQuery(idx, "search", "error", time.Since(start))
		return nil, backendError("search", res)
	}

	var body Response
	if err := json.NewDecoder(res.Body).Decode(&body); err != nil {
		metrics.ObserveQuery(idx, "search", "error", time.Since(start))
		return nil, fmt.Errorf("failed to decode search response: %w", err)
	}

	metrics.ObserveQuery(idx, "search", "ok", time.Since(start))
	logger.Log.Debug("search executed",
		logger.WithIndex(idx),
		logger.WithDuration(time.Since(start)),
	)
	return body, nil
}

// Msearch executes a batched multi-search request. The flattened entries are
// encoded as newline-delimited JSON per the msearch wire format.
func (c *ESClient) Msearch(ctx context.Context, params MsearchParams) (*MsearchResponse, error) {
	start := time.Now()

	var buf bytes.Buffer
	for _, entry := range params.Body {
		data, err := json.Marshal(entry)
		if err != nil {
			return nil, fmt.Errorf("failed to marshal msearch entry: %w", err)
		}
		buf.Write(data)
		buf.WriteByte('\n')
	}

	res, err := c.es.Msearch(&buf, c.es.Msearch.WithContext(ctx))
	if err != nil {
		metrics.ObserveQuery("_msearch", "msearch", "error", time.Since(start))
		return nil, &BackendError{Operation: "msearch", Err: err}
	}
	defer res.Body.Close()

	if res.IsError() {
		metrics.ObserveQuery("_msearch", "msearch", "error", time.Since(start))
		return nil, backendError("msearch", res)
	}

	var body MsearchResponse
	if err := json.NewDecoder(res.Body).Decode(&body); err != nil {
		metrics.ObserveQuery("_msearch", "msearch", "error", time.Since(start))
		return nil, fmt.Errorf("failed to decode msearch response: %w", err)
	}

	metrics.ObserveQuery("_msearch", "msearch", "ok", time.Since(start))
	logger.Log.Debug("msearch executed",
		logger.WithOperation("msearch"),
		logger.WithDuration(time.Since(start)),
	)
	return &body, nil
}

// Count executes a count request with the given query body.
func (c *ESClient) Count(ctx context.Context, params SearchParams) (Response, error) {
	start := time.Now()
	idx := indexLabel(params.Index)

	opts := []func(*esapi.CountRequest){
		c.es.Count.WithContext(ctx),
	}
	if len(params.Index) > 0 {
		opts = append(opts, c.es.Count.WithIndex(params.Index...))
	}
	if len(params.Body) > 0 {
		data, err := json.Marshal(params.Body)
		if err != nil {
			return nil, fmt.Errorf("failed to marshal count body: %w", err)
		}
		opts = append(opts, c.es.Count.WithBody(bytes.NewReader(data)))
	}

	res, err := c.es.Count(opts...)
	if err != nil {
		metrics.ObserveQuery(idx, "count", "error", time.Since(start))
		return nil, &BackendError{Operation: "count", Err: err}
	}
	defer res.Body.Close()

	if res.IsError() {
		metrics.ObserveQuery(idx, "count", "error", time.Since(start))
		return nil, backendError("count", res)
	}

	var body Response
	if err := json.NewDecoder(res.Body).Decode(&body); err != nil {
		metrics.ObserveQuery(idx, "count", "error", time.Since(start))
		return nil, fmt.Errorf("failed to decode count response: %w", err)
	}

	metrics.ObserveQuery(idx, "count", "ok", time.Since(start))
	return body, nil
}

// backendError decodes an error response into a BackendError. The error
// payload stays opaque; elastiq does not interpret it.
func backendError(operation string, res *esapi.Response) error {
	var payload map[string]interface{}
	if err := json.NewDecoder(res.Body).Decode(&payload); err != nil {
		return &BackendError{Operation: operation, Status: res.Status()}
	}
	return &BackendError{Operation: operation, Status: res.Status(), Payload: payload["error"]}
}

func indexLabel(index []string) string {
	if len(index) == 0 {
		return "_all"
	}
	return strings.Join(index, ",")
}
