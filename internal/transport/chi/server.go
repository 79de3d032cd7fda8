// Package chi exposes the archive over HTTP.
package chi

import (
	"encoding/json"
	"fmt"
	"io"
	"mime"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/db-frog/folklore-archive/internal/domain"
	domfolder "github.com/db-frog/folklore-archive/internal/domain/folder"
	"github.com/db-frog/folklore-archive/internal/domain/folklore"
	"github.com/db-frog/folklore-archive/internal/domain/search/page"
	"github.com/db-frog/folklore-archive/internal/logger"
	archiveuc "github.com/db-frog/folklore-archive/internal/usecase/archive"
	healthuc "github.com/db-frog/folklore-archive/internal/usecase/health"
)

// Server holds the HTTP handlers.
type Server struct {
	archive  ArchiveService
	download DownloadService
	sessions SessionService
	health   HealthService
	cookies  CookieConfig
}

// NewServer creates an HTTP API server. sessions may be nil, which disables
// the /auth routes and leaves /folklore unauthenticated.
func NewServer(
	archive ArchiveService,
	download DownloadService,
	sessions SessionService,
	health HealthService,
	cookies CookieConfig,
) *Server {
	cookies.applyDefaults()
	return &Server{
		archive:  archive,
		download: download,
		sessions: sessions,
		health:   health,
		cookies:  cookies,
	}
}

// Routes mounts every endpoint on r.
func (s *Server) Routes(r chi.Router) {
	r.Get("/health", s.HealthCheck)
	r.Method(http.MethodGet, "/metrics", promhttp.Handler())

	if s.sessions != nil {
		r.Route("/auth", func(r chi.Router) {
			r.Get("/login", s.Login)
			r.Get("/callback", s.Callback)
			r.Get("/current-user", s.CurrentUser)
			r.Get("/logout", s.Logout)
		})
	}

	r.Route("/folklore", func(r chi.Router) {
		r.Use(SessionMiddleware(s.sessions, s.cookies.SessionName))
		r.Get("/", s.ListFolklore)
		r.Get("/paginated", s.ListPaginated)
		r.Get("/random", s.RandomFolklore)
		r.Get("/count", s.CountFolklore)
		r.Get("/filters", s.FilterOptions)
		r.Get("/genres", s.ListGenres)
		r.Get("/languages", s.ListLanguages)
		r.Get("/genre/{genre}", s.GetByGenre)
		r.Get("/language/{language}", s.GetByLanguage)
		r.Get("/browse", s.Browse)
		r.Get("/{id}", s.GetFolklore)
		r.Get("/{id}/download", s.DownloadFolklore)
	})
}

// ListFolklore handles GET /folklore/.
func (s *Server) ListFolklore(w http.ResponseWriter, r *http.Request) {
	ctx, usage := domain.NewContextWithUsage(r.Context())
	docs, err := s.archive.List(ctx, r.URL.Query().Get("filters"))
	if err != nil {
		handleDomainError(w, r, err)
		return
	}
	setEmbeddingHeaders(w, usage)
	writeJSON(w, http.StatusOK, docs)
}

// ListPaginated handles GET /folklore/paginated.
func (s *Server) ListPaginated(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	number, err := intParam(q.Get("page"), 1)
	if err != nil {
		writeError(w, http.StatusBadRequest, CodeBadRequest, "page must be an integer")
		return
	}
	size, err := intParam(q.Get("page_size"), page.DefaultSize)
	if err != nil {
		writeError(w, http.StatusBadRequest, CodeBadRequest, "page_size must be an integer")
		return
	}

	ctx, usage := domain.NewContextWithUsage(r.Context())
	docs, err := s.archive.Paginated(ctx, q.Get("filters"), page.New(number, size))
	if err != nil {
		handleDomainError(w, r, err)
		return
	}
	setEmbeddingHeaders(w, usage)
	writeJSON(w, http.StatusOK, docs)
}

// RandomFolklore handles GET /folklore/random.
func (s *Server) RandomFolklore(w http.ResponseWriter, r *http.Request) {
	ctx, usage := domain.NewContextWithUsage(r.Context())
	docs, err := s.archive.Random(ctx, r.URL.Query().Get("filters"))
	if err != nil {
		handleDomainError(w, r, err)
		return
	}
	setEmbeddingHeaders(w, usage)
	writeJSON(w, http.StatusOK, docs)
}

// CountFolklore handles GET /folklore/count.
func (s *Server) CountFolklore(w http.ResponseWriter, r *http.Request) {
	ctx, usage := domain.NewContextWithUsage(r.Context())
	n, err := s.archive.Count(ctx, r.URL.Query().Get("filters"))
	if err != nil {
		handleDomainError(w, r, err)
		return
	}
	setEmbeddingHeaders(w, usage)
	writeJSON(w, http.StatusOK, n)
}

// FilterOptions handles GET /folklore/filters.
func (s *Server) FilterOptions(w http.ResponseWriter, r *http.Request) {
	raw := r.URL.Query().Get("field_to_path")
	if raw == "" {
		writeJSON(w, http.StatusOK, map[string][]string{})
		return
	}
	var fieldToPath map[string]string
	if err := json.Unmarshal([]byte(raw), &fieldToPath); err != nil {
		handleDomainError(w, r, fmt.Errorf("%w: field_to_path must be an object of strings", domain.ErrInvalidFilterSyntax))
		return
	}

	opts, err := s.archive.FilterOptions(r.Context(), fieldToPath)
	if err != nil {
		handleDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, opts)
}

// ListGenres handles GET /folklore/genres.
func (s *Server) ListGenres(w http.ResponseWriter, r *http.Request) {
	values, err := s.archive.Genres(r.Context())
	if err != nil {
		handleDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, values)
}

// ListLanguages handles GET /folklore/languages.
func (s *Server) ListLanguages(w http.ResponseWriter, r *http.Request) {
	values, err := s.archive.Languages(r.Context())
	if err != nil {
		handleDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, values)
}

// GetByGenre handles GET /folklore/genre/{genre}.
func (s *Server) GetByGenre(w http.ResponseWriter, r *http.Request) {
	docs, err := s.archive.ByGenre(r.Context(), chi.URLParam(r, "genre"))
	if err != nil {
		handleDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, docs)
}

// GetByLanguage handles GET /folklore/language/{language}.
func (s *Server) GetByLanguage(w http.ResponseWriter, r *http.Request) {
	docs, err := s.archive.ByLanguage(r.Context(), chi.URLParam(r, "language"))
	if err != nil {
		handleDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, docs)
}

// listingResponse is a folder listing: child folder names, or documents at a leaf.
type listingResponse struct {
	Leaf      bool                 `json:"leaf"`
	Folders   *[]string            `json:"folders,omitempty"`
	Documents *[]folklore.Document `json:"documents,omitempty"`
}

// Browse handles GET /folklore/browse?path=["Nigeria","Folk Tale"]&filters=&leaf=.
func (s *Server) Browse(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	var path domfolder.Path
	if raw := q.Get("path"); raw != "" {
		if err := json.Unmarshal([]byte(raw), &path); err != nil {
			handleDomainError(w, r, fmt.Errorf("%w: path must be a JSON list of strings", domain.ErrInvalidFolderPath))
			return
		}
	}
	leaf := false
	if raw := q.Get("leaf"); raw != "" {
		v, err := strconv.ParseBool(raw)
		if err != nil {
			writeError(w, http.StatusBadRequest, CodeBadRequest, "leaf must be a boolean")
			return
		}
		leaf = v
	}

	ctx, usage := domain.NewContextWithUsage(r.Context())
	listing, err := s.archive.Browse(ctx, archiveuc.BrowseRequest{
		Path:    path,
		Filters: q.Get("filters"),
		Leaf:    leaf,
	})
	if err != nil {
		handleDomainError(w, r, err)
		return
	}
	setEmbeddingHeaders(w, usage)

	resp := listingResponse{Leaf: listing.Leaf}
	if listing.Leaf {
		docs := listing.Documents
		if docs == nil {
			docs = []folklore.Document{}
		}
		resp.Documents = &docs
	} else {
		folders := listing.Folders
		if folders == nil {
			folders = []string{}
		}
		resp.Folders = &folders
	}
	writeJSON(w, http.StatusOK, resp)
}

// GetFolklore handles GET /folklore/{id}.
func (s *Server) GetFolklore(w http.ResponseWriter, r *http.Request) {
	doc, err := s.archive.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		handleDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, doc)
}

// DownloadFolklore handles GET /folklore/{id}/download by streaming the stored original.
func (s *Server) DownloadFolklore(w http.ResponseWriter, r *http.Request) {
	f, err := s.download.Open(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		handleDomainError(w, r, err)
		return
	}
	defer f.Body.Close()

	contentType := f.ContentType
	if contentType == "" {
		contentType = "application/octet-stream"
	}
	w.Header().Set("Content-Type", contentType)
	w.Header().Set("Content-Disposition", mime.FormatMediaType("attachment", map[string]string{"filename": f.Name}))
	if f.Size > 0 {
		w.Header().Set("Content-Length", strconv.FormatInt(f.Size, 10))
	}
	w.WriteHeader(http.StatusOK)

	if _, err := io.Copy(w, f.Body); err != nil {
		logger.FromContext(r.Context()).Warn("Download interrupted", zap.String("file", f.Name), zap.Error(err))
	}
}

// healthResponse is the body of GET /health.
type healthResponse struct {
	Status healthuc.Status                 `json:"status"`
	Checks map[string]healthuc.CheckResult `json:"checks"`
}

// HealthCheck handles GET /health.
func (s *Server) HealthCheck(w http.ResponseWriter, r *http.Request) {
	report := s.health.Check(r.Context())

	httpStatus := http.StatusOK
	if report.Status != healthuc.Healthy {
		httpStatus = http.StatusServiceUnavailable
	}
	writeJSON(w, httpStatus, healthResponse{Status: report.Status, Checks: report.Checks})
}

func setEmbeddingHeaders(w http.ResponseWriter, usage *domain.EmbeddingUsage) {
	if usage != nil && usage.Used {
		w.Header().Set("X-Embedding-Tokens", strconv.Itoa(usage.TotalTokens))
	}
}

func intParam(raw string, def int) (int, error) {
	if raw == "" {
		return def, nil
	}
	return strconv.Atoi(raw)
}
