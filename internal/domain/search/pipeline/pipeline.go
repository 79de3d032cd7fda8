// Package pipeline assembles archive aggregation pipelines.
//
// Stage order is fixed: the search stage (if any) comes first so relevance
// ranking runs before refinement, then the $match predicate (if non-empty),
// then the caller's trailing stages in the order given. Absent parts are
// omitted rather than emitted as no-op stages.
package pipeline

import (
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/db-frog/folklore-archive/internal/domain/search/page"
	"github.com/db-frog/folklore-archive/internal/domain/search/stage"
)

// CountField is the field of the document produced by Count.
const CountField = "total"

// Build returns search, $match and trailing stages in that order.
func Build(predicate bson.D, search stage.Search, trailing ...bson.D) mongo.Pipeline {
	p := make(mongo.Pipeline, 0, len(trailing)+2)
	if search != nil {
		p = append(p, search.Stage())
	}
	if len(predicate) > 0 {
		p = append(p, Match(predicate))
	}
	for _, s := range trailing {
		if len(s) > 0 {
			p = append(p, s)
		}
	}
	return p
}

// Match wraps a predicate in a $match stage.
func Match(predicate bson.D) bson.D {
	return bson.D{{Key: "$match", Value: predicate}}
}

// Paginate returns the $skip and $limit stages of p. $skip is omitted on the first page.
func Paginate(p page.Page) []bson.D {
	if p.Skip() == 0 {
		return []bson.D{Limit(p.Size())}
	}
	return []bson.D{
		{{Key: "$skip", Value: p.Skip()}},
		Limit(p.Size()),
	}
}

// Limit caps the number of documents.
func Limit(n int) bson.D {
	return bson.D{{Key: "$limit", Value: n}}
}

// Sample selects exactly one document at random.
func Sample() bson.D {
	return bson.D{{Key: "$sample", Value: bson.D{{Key: "size", Value: 1}}}}
}

// Count replaces the result set with a single {total: n} document, or nothing when empty.
func Count() bson.D {
	return bson.D{{Key: "$count", Value: CountField}}
}

// GroupDistinct groups on field, dropping null and empty values, sorted ascending.
// Each output document is {_id: value}.
func GroupDistinct(field string) []bson.D {
	return []bson.D{
		Match(bson.D{{Key: field, Value: bson.D{{Key: "$nin", Value: bson.A{nil, ""}}}}}),
		{{Key: "$group", Value: bson.D{{Key: "_id", Value: "$" + field}}}},
		{{Key: "$sort", Value: bson.D{{Key: "_id", Value: 1}}}},
	}
}
