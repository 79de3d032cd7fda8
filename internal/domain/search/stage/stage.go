// Package stage describes the relevance-ranking first stage of an archive pipeline.
package stage

import "go.mongodb.org/mongo-driver/bson"

// Vector search policy. Fixed so a client cannot inflate the cost of a query.
const (
	VectorLimit         = 50
	VectorNumCandidates = 500
)

// Kind identifies the search stage flavour.
type Kind string

// Search stage kinds.
const (
	KindLexical Kind = "lexical"
	KindVector  Kind = "vector"
)

// Search is a search stage descriptor: Lexical or Vector.
type Search interface {
	Kind() Kind
	// Stage renders the descriptor as a single aggregation stage.
	Stage() bson.D
}

// Lexical is a full-text search over a lexical index.
type Lexical struct {
	Index string
	Query string
	Path  string
}

// Kind implements Search.
func (Lexical) Kind() Kind { return KindLexical }

// Stage renders {$search: {index, text: {query, path}}}.
func (l Lexical) Stage() bson.D {
	return bson.D{{Key: "$search", Value: bson.D{
		{Key: "index", Value: l.Index},
		{Key: "text", Value: bson.D{
			{Key: "query", Value: l.Query},
			{Key: "path", Value: l.Path},
		}},
	}}}
}

// Vector is an approximate nearest-neighbour search over a vector index.
type Vector struct {
	Index         string
	QueryVector   []float32
	Path          string
	Exact         bool
	Limit         int
	NumCandidates int
}

// NewVector builds a Vector descriptor with the fixed limit and candidate pool.
func NewVector(index, path string, queryVector []float32) Vector {
	return Vector{
		Index:         index,
		QueryVector:   queryVector,
		Path:          path,
		Limit:         VectorLimit,
		NumCandidates: VectorNumCandidates,
	}
}

// Kind implements Search.
func (Vector) Kind() Kind { return KindVector }

// Stage renders {$vectorSearch: {...}}. numCandidates is omitted for exact search.
func (v Vector) Stage() bson.D {
	body := bson.D{
		{Key: "index", Value: v.Index},
		{Key: "queryVector", Value: v.QueryVector},
		{Key: "path", Value: v.Path},
		{Key: "exact", Value: v.Exact},
		{Key: "limit", Value: v.Limit},
	}
	if !v.Exact {
		body = append(body, bson.E{Key: "numCandidates", Value: v.NumCandidates})
	}
	return bson.D{{Key: "$vectorSearch", Value: body}}
}

// KindOf returns the kind of s, or "none" when s is nil. Used as a metrics label.
func KindOf(s Search) string {
	if s == nil {
		return "none"
	}
	return string(s.Kind())
}
