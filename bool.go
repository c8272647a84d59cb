package elastiq

// BoolBuilder composes must/should/filter/must_not clause groups into one
// bool clause. Group callbacks receive a fresh QueryBuilder sharing the
// owner's client; only the built query portion of that builder is kept.
type BoolBuilder struct {
	owner              *QueryBuilder
	must               []M
	should             []M
	filter             []M
	mustNot            []M
	minimumShouldMatch *int
}

// Must appends one clause per callback to the must group.
func (b *BoolBuilder) Must(fns ...func(*QueryBuilder)) *BoolBuilder {
	b.must = append(b.must, b.collect(fns)...)
	return b
}

// Should appends one clause per callback to the should group.
func (b *BoolBuilder) Should(fns ...func(*QueryBuilder)) *BoolBuilder {
	b.should = append(b.should, b.collect(fns)...)
	return b
}

// Filter appends one clause per callback to the filter group.
func (b *BoolBuilder) Filter(fns ...func(*QueryBuilder)) *BoolBuilder {
	b.filter = append(b.filter, b.collect(fns)...)
	return b
}

// MustNot appends one clause per callback to the must_not group.
func (b *BoolBuilder) MustNot(fns ...func(*QueryBuilder)) *BoolBuilder {
	b.mustNot = append(b.mustNot, b.collect(fns)...)
	return b
}

// MinimumShouldMatch sets minimum_should_match, overwriting any prior value.
func (b *BoolBuilder) MinimumShouldMatch(n int) *BoolBuilder {
	b.minimumShouldMatch = &n
	return b
}

func (b *BoolBuilder) collect(fns []func(*QueryBuilder)) []M {
	clauses := make([]M, 0, len(fns))
	for _, fn := range fns {
		inner := b.owner.sub()
		fn(inner)
		if q := inner.buildQuery(); q != nil {
			clauses = append(clauses, q)
		}
	}
	return clauses
}

// Build emits the bool clause. must/should/must_not collapse to a bare
// clause when the group holds exactly one entry; filter is always an array.
// All groups empty yields {"bool": {}}.
func (b *BoolBuilder) Build() M {
	spec := M{}
	if v := singleOrArray(b.must); v != nil {
		spec["must"] = v
	}
	if v := singleOrArray(b.should); v != nil {
		spec["should"] = v
	}
	if len(b.filter) > 0 {
		spec["filter"] = append([]M(nil), b.filter...)
	}
	if v := singleOrArray(b.mustNot); v != nil {
		spec["must_not"] = v
	}
	if b.minimumShouldMatch != nil {
		spec["minimum_should_match"] = *b.minimumShouldMatch
	}
	return M{"bool": spec}
}

func singleOrArray(clauses []M) interface{} {
	switch len(clauses) {
	case 0:
		return nil
	case 1:
		return clauses[0]
	default:
		return append([]M(nil), clauses...)
	}
}
