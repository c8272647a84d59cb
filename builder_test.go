package elastiq

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeClient is a Client stub recording calls and returning canned
// responses.
type fakeClient struct {
	searchCalls  int
	msearchCalls int
	countCalls   int

	lastSearch  SearchParams
	lastMsearch MsearchParams

	searchRes  Response
	msearchRes *MsearchResponse
	countRes   Response
	err        error
}

func (f *fakeClient) Search(ctx context.Context, params SearchParams) (Response, error) {
	f.searchCalls++
	f.lastSearch = params
	if f.err != nil {
		return nil, f.err
	}
	if f.searchRes == nil {
		return Response{"hits": map[string]interface{}{}}, nil
	}
	return f.searchRes, nil
}

func (f *fakeClient) Msearch(ctx context.Context, params MsearchParams) (*MsearchResponse, error) {
	f.msearchCalls++
	f.lastMsearch = params
	if f.err != nil {
		return nil, f.err
	}
	if f.msearchRes == nil {
		return &MsearchResponse{}, nil
	}
	return f.msearchRes, nil
}

func (f *fakeClient) Count(ctx context.Context, params SearchParams) (Response, error) {
	f.countCalls++
	if f.err != nil {
		return nil, f.err
	}
	if f.countRes == nil {
		return Response{"count": float64(0)}, nil
	}
	return f.countRes, nil
}

func TestBuildEmpty(t *testing.T) {
	body := NewQuery().Build()
	assert.Equal(t, M{}, body)
}

func TestBuildSingleClauseUnwrapped(t *testing.T) {
	body := NewQuery().Match("title", "golang").Build()

	assert.Equal(t, M{
		"query": M{"match": M{"title": M{"query": "golang"}}},
	}, body)
}

func TestBuildMultipleClausesWrapInBoolMust(t *testing.T) {
	body := NewQuery().
		Match("title", "golang").
		Term("status", "published").
		Build()

	assert.Equal(t, M{
		"query": M{"bool": M{"must": []M{
			{"match": M{"title": M{"query": "golang"}}},
			{"term": M{"status": "published"}},
		}}},
	}, body)
}

func TestBuildFilterAlwaysWrapsInBool(t *testing.T) {
	// A single top-level clause collapses to a bare must while the filter
	// stays an array even with one entry.
	body := NewQuery().
		Match("title", "golang").
		Filter(func(q *QueryBuilder) {
			q.Term("status", "published")
		}).
		Build()

	assert.Equal(t, M{
		"query": M{"bool": M{
			"must":   M{"match": M{"title": M{"query": "golang"}}},
			"filter": []M{{"term": M{"status": "published"}}},
		}},
	}, body)
}

func TestBuildFilterOnlyOmitsMust(t *testing.T) {
	body := NewQuery().
		Filter(func(q *QueryBuilder) {
			q.Term("status", "published")
		}).
		Build()

	boolSpec := body["query"].(M)["bool"].(M)
	assert.NotContains(t, boolSpec, "must")
	assert.Equal(t, []M{{"term": M{"status": "published"}}}, boolSpec["filter"])
}

func TestBuildScenarioIndexMatchSize(t *testing.T) {
	qb := NewQuery().Index("posts").Match("title", "golang").Size(10)

	assert.Equal(t, M{
		"query": M{"match": M{"title": M{"query": "golang"}}},
		"size":  10,
	}, qb.Build())
}

func TestBuildIdempotent(t *testing.T) {
	qb := NewQuery().
		Index("posts").
		Match("title", "golang").
		Sort("created_at", "desc").
		Size(20).
		From(40)
	qb.Range("views").Gte(10).Lte(100)

	first := qb.Build()
	second := qb.Build()
	assert.Equal(t, first, second)
	assert.Equal(t, first, qb.ToArray())

	a, err := json.Marshal(first)
	require.NoError(t, err)
	b, err := json.Marshal(second)
	require.NoError(t, err)
	assert.Equal(t, a, b)
}

func TestMatchOptionsMerge(t *testing.T) {
	body := NewQuery().
		Match("title", "golang", M{"boost": 2.0, "fuzziness": "AUTO"}).
		Build()

	assert.Equal(t, M{
		"query": M{"match": M{"title": M{
			"query":     "golang",
			"boost":     2.0,
			"fuzziness": "AUTO",
		}}},
	}, body)
}

func TestMatchOptionsMayOverrideQueryKey(t *testing.T) {
	body := NewQuery().
		Match("title", "golang", M{"query": "python"}).
		Build()

	assert.Equal(t, "python", body["query"].(M)["match"].(M)["title"].(M)["query"])
}

func TestLeafClauses(t *testing.T) {
	cases := []struct {
		name   string
		build  func(*QueryBuilder) *QueryBuilder
		clause M
	}{
		{
			name:   "match_phrase",
			build:  func(q *QueryBuilder) *QueryBuilder { return q.MatchPhrase("title", "hello world") },
			clause: M{"match_phrase": M{"title": M{"query": "hello world"}}},
		},
		{
			name:   "terms",
			build:  func(q *QueryBuilder) *QueryBuilder { return q.Terms("status", "a", "b") },
			clause: M{"terms": M{"status": []interface{}{"a", "b"}}},
		},
		{
			name:   "wildcard",
			build:  func(q *QueryBuilder) *QueryBuilder { return q.Wildcard("title", "go*") },
			clause: M{"wildcard": M{"title": M{"value": "go*"}}},
		},
		{
			name:   "fuzzy",
			build:  func(q *QueryBuilder) *QueryBuilder { return q.Fuzzy("title", "serch", M{"fuzziness": 2}) },
			clause: M{"fuzzy": M{"title": M{"value": "serch", "fuzziness": 2}}},
		},
		{
			name:   "exists",
			build:  func(q *QueryBuilder) *QueryBuilder { return q.Exists("title") },
			clause: M{"exists": M{"field": "title"}},
		},
		{
			name:   "match_all",
			build:  func(q *QueryBuilder) *QueryBuilder { return q.MatchAll() },
			clause: M{"match_all": M{}},
		},
		{
			name:   "ids",
			build:  func(q *QueryBuilder) *QueryBuilder { return q.Ids("1", "2") },
			clause: M{"ids": M{"values": []string{"1", "2"}}},
		},
		{
			name:   "prefix",
			build:  func(q *QueryBuilder) *QueryBuilder { return q.Prefix("title", "go") },
			clause: M{"prefix": M{"title": M{"value": "go"}}},
		},
		{
			name:   "query_string",
			build:  func(q *QueryBuilder) *QueryBuilder { return q.QueryString("title:golang") },
			clause: M{"query_string": M{"query": "title:golang"}},
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			body := tc.build(NewQuery()).Build()
			assert.Equal(t, M{"query": tc.clause}, body)
		})
	}
}

func TestSortAppends(t *testing.T) {
	body := NewQuery().
		MatchAll().
		Sort("created_at", "desc").
		Sort("title").
		SortWith(M{"_score": M{"order": "desc"}}).
		Build()

	assert.Equal(t, []M{
		{"created_at": M{"order": "desc"}},
		{"title": M{"order": "asc"}},
		{"_score": M{"order": "desc"}},
	}, body["sort"])
}

func TestSourceVariants(t *testing.T) {
	t.Run("list", func(t *testing.T) {
		body := NewQuery().Source([]string{"title", "author"}).Build()
		assert.Equal(t, []string{"title", "author"}, body["_source"])
	})

	t.Run("false is emitted", func(t *testing.T) {
		body := NewQuery().Source(false).Build()
		assert.Contains(t, body, "_source")
		assert.Equal(t, false, body["_source"])
	})

	t.Run("include exclude mapping", func(t *testing.T) {
		body := NewQuery().Source(M{"includes": []string{"title"}, "excludes": []string{"body"}}).Build()
		assert.Equal(t, M{"includes": []string{"title"}, "excludes": []string{"body"}}, body["_source"])
	})

	t.Run("overwrites prior value", func(t *testing.T) {
		body := NewQuery().Source([]string{"title"}).Source(false).Build()
		assert.Equal(t, false, body["_source"])
	})
}

func TestHighlightOverwrites(t *testing.T) {
	body := NewQuery().
		Highlight(M{"title": M{}}, M{"pre_tags": []string{"<em>"}}).
		Highlight(M{"body": M{}}).
		Build()

	assert.Equal(t, M{"fields": M{"body": M{}}}, body["highlight"])
}

func TestSizeFromOverwrite(t *testing.T) {
	body := NewQuery().Size(10).Size(25).From(0).From(50).Build()
	assert.Equal(t, 25, body["size"])
	assert.Equal(t, 50, body["from"])
}

func TestNestedExtractsQueryPortion(t *testing.T) {
	body := NewQuery().
		Nested("comments", func(q *QueryBuilder) {
			q.Match("comments.author", "jane")
			// size is part of the nested builder's body but not its query
			// portion and must not leak into the nested clause
			q.Size(5)
		}).
		Build()

	assert.Equal(t, M{
		"query": M{"nested": M{
			"path":  "comments",
			"query": M{"match": M{"comments.author": M{"query": "jane"}}},
		}},
	}, body)
}

func TestAggregationOverwritesSameName(t *testing.T) {
	body := NewQuery().
		MatchAll().
		Aggregation("by_genre", func(a *AggregationBuilder) {
			a.Terms("genre")
		}).
		Aggregation("by_genre", func(a *AggregationBuilder) {
			a.Terms("genre.keyword")
		}).
		Build()

	assert.Equal(t, M{
		"by_genre": M{"terms": M{"field": "genre.keyword"}},
	}, body["aggs"])
}

func TestExecuteWithoutClientFails(t *testing.T) {
	_, err := NewQuery().Match("title", "x").Execute(context.Background())
	require.Error(t, err)
	assert.True(t, IsConfigError(err))

	var ce *ConfigError
	require.ErrorAs(t, err, &ce)
	assert.Equal(t, ErrNoClient, ce.Code)
}

func TestExecuteAssemblesParams(t *testing.T) {
	client := &fakeClient{searchRes: Response{"took": float64(3)}}

	res, err := New(client).
		Index("posts", "drafts").
		Match("title", "golang").
		Execute(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 1, client.searchCalls)
	assert.Equal(t, []string{"posts", "drafts"}, client.lastSearch.Index)
	assert.Equal(t, M{
		"query": M{"match": M{"title": M{"query": "golang"}}},
	}, client.lastSearch.Body)
	assert.Equal(t, Response{"took": float64(3)}, res)
}

func TestExecuteEmptyBodyOmitted(t *testing.T) {
	client := &fakeClient{}

	_, err := New(client).Index("posts").Execute(context.Background())
	require.NoError(t, err)
	assert.Nil(t, client.lastSearch.Body)
}

func TestExecuteCount(t *testing.T) {
	client := &fakeClient{countRes: Response{"count": float64(42)}}

	n, err := New(client).Index("posts").Term("status", "published").ExecuteCount(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 42, n)
	assert.Equal(t, 1, client.countCalls)
}

func TestConnectionWithoutManagerFails(t *testing.T) {
	_, err := NewQuery().Connection("reporting")
	require.Error(t, err)

	var ce *ConfigError
	require.ErrorAs(t, err, &ce)
	assert.Equal(t, ErrNoResolver, ce.Code)
}

func TestWithConnectionResetsState(t *testing.T) {
	manager := NewManager(&Config{DefaultConnection: "default"})
	manager.RegisterClient("default", &fakeClient{})
	manager.RegisterClient("reporting", &fakeClient{})

	qb, err := manager.Query()
	require.NoError(t, err)
	qb.Index("posts").Match("title", "golang")

	fresh, err := qb.WithConnection("reporting")
	require.NoError(t, err)
	assert.Equal(t, M{}, fresh.Build())
}

func TestCloneWithConnectionPreservesState(t *testing.T) {
	manager := NewManager(&Config{DefaultConnection: "default"})
	manager.RegisterClient("default", &fakeClient{})
	manager.RegisterClient("reporting", &fakeClient{})

	qb, err := manager.Query()
	require.NoError(t, err)
	qb.Index("posts").Match("title", "golang").Size(10)

	clone, err := qb.CloneWithConnection("reporting")
	require.NoError(t, err)
	assert.Equal(t, qb.Build(), clone.Build())

	// further mutation of the clone must not leak back
	clone.Term("status", "published")
	assert.NotEqual(t, qb.Build(), clone.Build())
}
