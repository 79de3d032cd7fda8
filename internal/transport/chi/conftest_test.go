package chi

import (
	"context"
	"net/http"
	"net/http/httptest"

	"github.com/go-chi/chi/v5"

	"github.com/db-frog/folklore-archive/internal/domain"
	domfolder "github.com/db-frog/folklore-archive/internal/domain/folder"
	"github.com/db-frog/folklore-archive/internal/domain/folklore"
	"github.com/db-frog/folklore-archive/internal/domain/search/page"
	domsession "github.com/db-frog/folklore-archive/internal/domain/session"
	archiveuc "github.com/db-frog/folklore-archive/internal/usecase/archive"
	downloaduc "github.com/db-frog/folklore-archive/internal/usecase/download"
	healthuc "github.com/db-frog/folklore-archive/internal/usecase/health"
)

// fakeArchive records the last call's arguments and returns scripted results.
type fakeArchive struct {
	docs    []folklore.Document
	count   int
	options map[string][]string
	values  []string
	listing domfolder.Listing
	err     error
	tokens  int

	filters     string
	page        page.Page
	fieldToPath map[string]string
	lookup      string
	id          string
	browse      archiveuc.BrowseRequest
}

func (f *fakeArchive) useEmbedding(ctx context.Context) {
	if f.tokens > 0 {
		domain.UsageFromContext(ctx).AddTokens(f.tokens)
	}
}

func (f *fakeArchive) List(ctx context.Context, filters string) ([]folklore.Document, error) {
	f.filters = filters
	f.useEmbedding(ctx)
	return f.docs, f.err
}

func (f *fakeArchive) Paginated(_ context.Context, filters string, p page.Page) ([]folklore.Document, error) {
	f.filters, f.page = filters, p
	return f.docs, f.err
}

func (f *fakeArchive) Random(_ context.Context, filters string) ([]folklore.Document, error) {
	f.filters = filters
	return f.docs, f.err
}

func (f *fakeArchive) Count(_ context.Context, filters string) (int, error) {
	f.filters = filters
	return f.count, f.err
}

func (f *fakeArchive) FilterOptions(_ context.Context, fieldToPath map[string]string) (map[string][]string, error) {
	f.fieldToPath = fieldToPath
	return f.options, f.err
}

func (f *fakeArchive) Genres(_ context.Context) ([]string, error)    { return f.values, f.err }
func (f *fakeArchive) Languages(_ context.Context) ([]string, error) { return f.values, f.err }

func (f *fakeArchive) ByGenre(_ context.Context, genre string) ([]folklore.Document, error) {
	f.lookup = genre
	return f.docs, f.err
}

func (f *fakeArchive) ByLanguage(_ context.Context, language string) ([]folklore.Document, error) {
	f.lookup = language
	return f.docs, f.err
}

func (f *fakeArchive) Get(_ context.Context, id string) (folklore.Document, error) {
	f.id = id
	if f.err != nil {
		return folklore.Document{}, f.err
	}
	if len(f.docs) == 0 {
		return folklore.Document{}, domain.ErrNotFound
	}
	return f.docs[0], nil
}

func (f *fakeArchive) Browse(_ context.Context, req archiveuc.BrowseRequest) (domfolder.Listing, error) {
	f.browse = req
	return f.listing, f.err
}

type fakeDownload struct {
	file *downloaduc.File
	err  error
}

func (f *fakeDownload) Open(_ context.Context, _ string) (*downloaduc.File, error) {
	return f.file, f.err
}

type fakeSessions struct {
	session   domsession.Session
	authErr   error
	cbErr     error
	info      map[string]any
	logout    string
	authed    []string
	cbState   [2]string
	loggedOut string
}

func (f *fakeSessions) Login() (string, string) {
	return "st-1", "https://idp.example.edu/oidcAuthorize?state=st-1"
}

func (f *fakeSessions) Callback(_ context.Context, _, state, wantState string) (domsession.Session, error) {
	f.cbState = [2]string{state, wantState}
	return f.session, f.cbErr
}

func (f *fakeSessions) Authenticate(_ context.Context, id string) (domsession.Session, error) {
	f.authed = append(f.authed, id)
	return f.session, f.authErr
}

func (f *fakeSessions) CurrentUser(_ context.Context, id string) (map[string]any, error) {
	if id == "" {
		return nil, domain.ErrUnauthenticated
	}
	return f.info, f.authErr
}

func (f *fakeSessions) Logout(_ context.Context, id string) string {
	f.loggedOut = id
	return f.logout
}

type fakeHealth struct{ report healthuc.Report }

func (f *fakeHealth) Check(_ context.Context) healthuc.Report { return f.report }

type harness struct {
	archive  *fakeArchive
	download *fakeDownload
	sessions *fakeSessions
	health   *fakeHealth
	router   http.Handler
}

// newHarness builds a router; withAuth mounts the session routes and middleware.
func newHarness(withAuth bool) *harness {
	h := &harness{
		archive:  &fakeArchive{},
		download: &fakeDownload{},
		sessions: &fakeSessions{},
		health:   &fakeHealth{report: healthuc.Report{Status: healthuc.Healthy, Checks: map[string]healthuc.CheckResult{"database": healthuc.CheckOK}}},
	}
	var sessions SessionService
	if withAuth {
		sessions = h.sessions
	}
	srv := NewServer(h.archive, h.download, sessions, h.health, CookieConfig{FrontendURL: "https://archive.example.edu/"})
	r := chi.NewRouter()
	srv.Routes(r)
	h.router = r
	return h
}

func (h *harness) get(target string, cookies ...*http.Cookie) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, target, http.NoBody)
	for _, c := range cookies {
		req.AddCookie(c)
	}
	rr := httptest.NewRecorder()
	h.router.ServeHTTP(rr, req)
	return rr
}
