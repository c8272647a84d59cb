package elastiq

// Response is the raw, decoded JSON body of a single search response.
// elastiq passes response bodies through unmodified; the accessors below are
// read-only conveniences over the standard response shape.
type Response map[string]interface{}

// TotalHits returns hits.total.value, or 0 when absent.
func (r Response) TotalHits() int {
	hits, ok := r["hits"].(map[string]interface{})
	if !ok {
		return 0
	}
	total, ok := hits["total"].(map[string]interface{})
	if !ok {
		return 0
	}
	if v, ok := total["value"].(float64); ok {
		return int(v)
	}
	return 0
}

// Hits returns the hits.hits array, or nil when absent.
func (r Response) Hits() []map[string]interface{} {
	hits, ok := r["hits"].(map[string]interface{})
	if !ok {
		return nil
	}
	raw, ok := hits["hits"].([]interface{})
	if !ok {
		return nil
	}
	out := make([]map[string]interface{}, 0, len(raw))
	for _, h := range raw {
		if m, ok := h.(map[string]interface{}); ok {
			out = append(out, m)
		}
	}
	return out
}

// Aggregations returns the aggregations object, or nil when absent.
func (r Response) Aggregations() map[string]interface{} {
	aggs, ok := r["aggregations"].(map[string]interface{})
	if !ok {
		return nil
	}
	return aggs
}

// MsearchResponse is the decoded body of an msearch response. Responses are
// positional, in the order the request entries were sent.
type MsearchResponse struct {
	Took      int        `json:"took"`
	Responses []Response `json:"responses"`
}

// MultiResponse is the result of MultiQueryBuilder.Execute: the backend's
// positional responses re-keyed by entry name.
type MultiResponse struct {
	Took      int
	Responses map[string]Response
}
