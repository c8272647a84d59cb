package elastiq

// RangeBuilder builds a single field's range clause from comparison calls.
// The first comparator invocation appends the clause to the owning builder;
// later invocations (including ones from a new RangeBuilder for the same
// field) update that clause in place, preserving its position.
type RangeBuilder struct {
	owner   *QueryBuilder
	field   string
	bounds  M
	emitted bool
}

// Range returns a range sub-builder bound to this field. No clause is
// appended until the first comparator is invoked. When the builder already
// holds a range clause for the field, the new sub-builder picks up its
// bounds so comparator re-invocation overwrites instead of duplicating.
func (qb *QueryBuilder) Range(field string) *RangeBuilder {
	rb := &RangeBuilder{owner: qb, field: field, bounds: M{}}
	if existing := qb.lastRangeBounds(field); existing != nil {
		for op, v := range existing {
			rb.bounds[op] = v
		}
		rb.emitted = true
	}
	return rb
}

// Gt sets the greater-than bound.
func (rb *RangeBuilder) Gt(value interface{}) *RangeBuilder {
	return rb.set("gt", value)
}

// Gte sets the greater-than-or-equal bound.
func (rb *RangeBuilder) Gte(value interface{}) *RangeBuilder {
	return rb.set("gte", value)
}

// Lt sets the less-than bound.
func (rb *RangeBuilder) Lt(value interface{}) *RangeBuilder {
	return rb.set("lt", value)
}

// Lte sets the less-than-or-equal bound.
func (rb *RangeBuilder) Lte(value interface{}) *RangeBuilder {
	return rb.set("lte", value)
}

func (rb *RangeBuilder) set(op string, value interface{}) *RangeBuilder {
	rb.bounds[op] = value

	bounds := make(M, len(rb.bounds))
	for k, v := range rb.bounds {
		bounds[k] = v
	}
	clause := M{"range": M{rb.field: bounds}}

	if rb.emitted {
		rb.owner.UpdateLastRangeQuery(rb.field, clause)
	} else {
		rb.owner.AddQuery(clause)
		rb.emitted = true
	}
	return rb
}
