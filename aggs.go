package elastiq

// AggregationBuilder builds one named bucket or metric aggregation spec,
// optionally holding nested sub-aggregations at arbitrary depth. Each kind
// call replaces the current definition; a spec holds exactly one definition
// key.
type AggregationBuilder struct {
	spec M
	subs map[string]M
}

// NewAggregation returns an empty aggregation builder.
func NewAggregation() *AggregationBuilder {
	return &AggregationBuilder{spec: M{}}
}

func (a *AggregationBuilder) define(kind string, params M) *AggregationBuilder {
	a.spec = M{kind: params}
	return a
}

// Terms defines a terms bucket aggregation on the field.
func (a *AggregationBuilder) Terms(field string, options ...M) *AggregationBuilder {
	return a.define("terms", withOptions(M{"field": field}, options))
}

// DateHistogram defines a date_histogram bucket aggregation. The interval
// (calendar_interval, fixed_interval, ...) is supplied through options.
func (a *AggregationBuilder) DateHistogram(field string, options ...M) *AggregationBuilder {
	return a.define("date_histogram", withOptions(M{"field": field}, options))
}

// Range defines a range bucket aggregation with explicit bucket bounds.
func (a *AggregationBuilder) Range(field string, ranges []M, options ...M) *AggregationBuilder {
	return a.define("range", withOptions(M{"field": field, "ranges": ranges}, options))
}

// Histogram defines a histogram bucket aggregation with a numeric interval.
func (a *AggregationBuilder) Histogram(field string, interval float64) *AggregationBuilder {
	return a.define("histogram", M{"field": field, "interval": interval})
}

// Avg defines an avg metric aggregation.
func (a *AggregationBuilder) Avg(field string) *AggregationBuilder {
	return a.define("avg", M{"field": field})
}

// Sum defines a sum metric aggregation.
func (a *AggregationBuilder) Sum(field string) *AggregationBuilder {
	return a.define("sum", M{"field": field})
}

// Min defines a min metric aggregation.
func (a *AggregationBuilder) Min(field string) *AggregationBuilder {
	return a.define("min", M{"field": field})
}

// Max defines a max metric aggregation.
func (a *AggregationBuilder) Max(field string) *AggregationBuilder {
	return a.define("max", M{"field": field})
}

// Count defines a value_count metric aggregation.
func (a *AggregationBuilder) Count(field string) *AggregationBuilder {
	return a.define("value_count", M{"field": field})
}

// Cardinality defines a cardinality metric aggregation.
func (a *AggregationBuilder) Cardinality(field string) *AggregationBuilder {
	return a.define("cardinality", M{"field": field})
}

// SubAggregation recurses into a nested aggregation builder and stores its
// result under aggs.<name> of the current spec, overwriting any prior
// sub-aggregation with the same name.
func (a *AggregationBuilder) SubAggregation(name string, fn func(*AggregationBuilder)) *AggregationBuilder {
	sub := NewAggregation()
	fn(sub)
	if a.subs == nil {
		a.subs = make(map[string]M)
	}
	a.subs[name] = sub.Build()
	return a
}

// Build returns the accumulated spec mapping.
func (a *AggregationBuilder) Build() M {
	spec := make(M, len(a.spec)+1)
	for k, v := range a.spec {
		spec[k] = v
	}
	if len(a.subs) > 0 {
		aggs := make(M, len(a.subs))
		for name, sub := range a.subs {
			aggs[name] = sub
		}
		spec["aggs"] = aggs
	}
	return spec
}
