package thesaurus

import (
	"context"

	domthes "github.com/db-frog/folklore-archive/internal/domain/thesaurus"
)

// Source reads every thesaurus record.
type Source interface {
	Entries(ctx context.Context) ([]domthes.Entry, error)
}
