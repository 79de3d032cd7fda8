package chi

import (
	"context"

	domfolder "github.com/db-frog/folklore-archive/internal/domain/folder"
	"github.com/db-frog/folklore-archive/internal/domain/folklore"
	"github.com/db-frog/folklore-archive/internal/domain/search/page"
	domsession "github.com/db-frog/folklore-archive/internal/domain/session"
	archiveuc "github.com/db-frog/folklore-archive/internal/usecase/archive"
	downloaduc "github.com/db-frog/folklore-archive/internal/usecase/download"
	healthuc "github.com/db-frog/folklore-archive/internal/usecase/health"
)

// ArchiveService serves archive reads.
type ArchiveService interface {
	List(ctx context.Context, filters string) ([]folklore.Document, error)
	Paginated(ctx context.Context, filters string, p page.Page) ([]folklore.Document, error)
	Random(ctx context.Context, filters string) ([]folklore.Document, error)
	Count(ctx context.Context, filters string) (int, error)
	FilterOptions(ctx context.Context, fieldToPath map[string]string) (map[string][]string, error)
	Genres(ctx context.Context) ([]string, error)
	Languages(ctx context.Context) ([]string, error)
	ByGenre(ctx context.Context, genre string) ([]folklore.Document, error)
	ByLanguage(ctx context.Context, language string) ([]folklore.Document, error)
	Get(ctx context.Context, id string) (folklore.Document, error)
	Browse(ctx context.Context, req archiveuc.BrowseRequest) (domfolder.Listing, error)
}

// DownloadService opens stored originals.
type DownloadService interface {
	Open(ctx context.Context, id string) (*downloaduc.File, error)
}

// SessionService handles login and session authentication.
type SessionService interface {
	Login() (state, authURL string)
	Callback(ctx context.Context, code, state, wantState string) (domsession.Session, error)
	Authenticate(ctx context.Context, id string) (domsession.Session, error)
	CurrentUser(ctx context.Context, id string) (map[string]any, error)
	Logout(ctx context.Context, id string) string
}

// HealthService reports dependency health.
type HealthService interface {
	Check(ctx context.Context) healthuc.Report
}
