package main

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"go.uber.org/zap"

	"github.com/db-frog/folklore-archive/internal/blobstore"
	blobMinio "github.com/db-frog/folklore-archive/internal/blobstore/minio"
	blobS3 "github.com/db-frog/folklore-archive/internal/blobstore/s3"
	"github.com/db-frog/folklore-archive/internal/config"
	dbMongo "github.com/db-frog/folklore-archive/internal/db/mongo"
	dbValkey "github.com/db-frog/folklore-archive/internal/db/valkey"
	"github.com/db-frog/folklore-archive/internal/domain"
	domfolder "github.com/db-frog/folklore-archive/internal/domain/folder"
	logpkg "github.com/db-frog/folklore-archive/internal/logger"
	"github.com/db-frog/folklore-archive/internal/metrics"
	archiverepo "github.com/db-frog/folklore-archive/internal/repository/archive"
	"github.com/db-frog/folklore-archive/internal/repository/embcache"
	sessionrepo "github.com/db-frog/folklore-archive/internal/repository/session"
	thesaurusrepo "github.com/db-frog/folklore-archive/internal/repository/thesaurus"
	"github.com/db-frog/folklore-archive/internal/tracer"
	chiTransport "github.com/db-frog/folklore-archive/internal/transport/chi"
	oidcClient "github.com/db-frog/folklore-archive/internal/transport/oidc"
	openaiEmb "github.com/db-frog/folklore-archive/internal/transport/openai"
	archiveuc "github.com/db-frog/folklore-archive/internal/usecase/archive"
	downloaduc "github.com/db-frog/folklore-archive/internal/usecase/download"
	embeddinguc "github.com/db-frog/folklore-archive/internal/usecase/embedding"
	folderuc "github.com/db-frog/folklore-archive/internal/usecase/folder"
	healthuc "github.com/db-frog/folklore-archive/internal/usecase/health"
	"github.com/db-frog/folklore-archive/internal/usecase/query"
	sessionuc "github.com/db-frog/folklore-archive/internal/usecase/session"
	thesaurusuc "github.com/db-frog/folklore-archive/internal/usecase/thesaurus"
	"github.com/db-frog/folklore-archive/internal/version"
)

func main() {
	env := config.GetEnv()

	cfg, err := config.Load(env)
	if err != nil {
		panic("failed to load config: " + err.Error())
	}

	logger, err := logpkg.NewLogger(env, cfg.Logging.Level)
	if err != nil {
		panic("failed to create logger: " + err.Error())
	}
	defer func() { _ = logger.Sync() }()

	logger.Info("Starting folklore archive API server",
		zap.String("version", version.String()),
		zap.String("env", env),
		zap.Int("http_port", cfg.HTTP.Port),
		zap.String("database", cfg.Database.Name),
		zap.String("storage_driver", cfg.Storage.Driver),
		zap.Bool("auth", cfg.Auth.Enabled()),
		zap.Bool("embedding", cfg.Embedding.Enabled),
	)

	ctx := context.Background()

	tp, err := tracer.New(ctx, tracer.Config{
		ServiceName:    cfg.Tracing.ServiceName,
		ServiceVersion: version.Version,
		Environment:    env,
		EnableExport:   cfg.Tracing.Enabled,
	})
	if err != nil {
		logger.Fatal("Failed to create tracer provider", zap.Error(err))
	}

	// Document store
	store, err := dbMongo.Connect(ctx, dbMongo.Config{
		URI:      cfg.Database.URI,
		Database: cfg.Database.Name,
		AppName:  cfg.Tracing.ServiceName,
	})
	if err != nil {
		logger.Fatal("Failed to create database store", zap.Error(err))
	}
	readiness := time.Duration(cfg.Database.ReadinessTimeout) * time.Second
	if err := store.WaitForReady(ctx, readiness); err != nil {
		logger.Fatal("Database not ready", zap.Error(err))
	}
	logger.Info("Connected to database")

	// Key-value store, optional: sessions and the embedding cache live here.
	var kv *dbValkey.Store
	if len(cfg.Cache.Addrs) > 0 {
		kv, err = dbValkey.NewStore(dbValkey.Config{
			Addrs:    cfg.Cache.Addrs,
			Password: cfg.Cache.Password,
		})
		if err != nil {
			logger.Fatal("Failed to create cache store", zap.Error(err))
		}
		defer kv.Close()
		if err := kv.WaitForReady(ctx, readiness); err != nil {
			logger.Fatal("Cache not ready", zap.Error(err))
		}
		logger.Info("Connected to cache", zap.Strings("addrs", cfg.Cache.Addrs))
	}

	metrics.RegisterHTTPMetrics()
	metrics.RegisterEmbeddingMetrics()
	metrics.RegisterArchiveMetrics()

	// Pass nil interfaces (not typed nil pointers) when a component is disabled.
	var embedder domain.Embedder
	var embeddingChecker healthuc.EmbeddingChecker
	if cfg.Embedding.Enabled {
		var base *openaiEmb.Embedder
		embedder, base = buildEmbedder(cfg.Embedding, kv, logger)
		embeddingChecker = base
		logger.Info("Embedder created",
			zap.String("provider", cfg.Embedding.Provider),
			zap.String("model", cfg.Embedding.Model),
			zap.Int("dimensions", cfg.Embedding.Dimensions),
		)
	}

	archiveRepo := archiverepo.New(store, cfg.Database.ArchiveCollection)
	index := thesaurusuc.New(thesaurusrepo.New(store, cfg.Database.ThesaurusCollection), logger)

	compiler := query.NewCompiler(index, embedder, query.Config{
		TextIndex:     cfg.Search.TextIndex,
		VectorIndex:   cfg.Search.VectorIndex,
		FullTextPath:  cfg.Search.FullTextPath,
		EmbeddingPath: cfg.Search.EmbeddingPath,
		Dimensions:    cfg.Embedding.Dimensions,
	})
	folders := folderuc.New(archiveRepo, domfolder.Levels{
		Geography:         cfg.Folders.GeographyField,
		Genre:             cfg.Folders.GenreField,
		SubCategoryPrefix: cfg.Folders.SubCategoryPrefix,
		MaxDepth:          cfg.Folders.MaxDepth,
	}, cfg.Search.MaxListResults)
	archiveSvc := archiveuc.New(archiveRepo, compiler, index, folders, archiveuc.Config{
		MaxListResults: cfg.Search.MaxListResults,
	})

	blobs, err := buildBlobStore(ctx, cfg.Storage)
	if err != nil {
		logger.Fatal("Failed to create object store", zap.Error(err))
	}
	downloadSvc := downloaduc.New(archiveRepo, blobs)

	var sessionSvc chiTransport.SessionService
	if cfg.Auth.Enabled() {
		provider := oidcClient.New(ctx, oidcClient.Config{
			AuthorityURL: cfg.Auth.AuthorityURL,
			Issuer:       cfg.Auth.Issuer,
			JWKSURL:      cfg.Auth.JWKSURL,
			ClientID:     cfg.Auth.ClientID,
			ClientSecret: cfg.Auth.ClientSecret,
			Audience:     cfg.Auth.Audience,
			RedirectURL:  cfg.Auth.RedirectURL,
			FrontendURL:  cfg.Auth.FrontendURL,
			Scopes:       cfg.Auth.Scopes,
		})
		sessions := sessionrepo.New(kv, time.Duration(cfg.Auth.SessionTTLMin)*time.Minute)
		sessionSvc = sessionuc.New(sessions, provider)
		logger.Info("OIDC login enabled", zap.String("authority", cfg.Auth.AuthorityURL))
	}

	var cachePinger healthuc.Pinger
	if kv != nil {
		cachePinger = kv
	}
	healthSvc := healthuc.New(store, cachePinger, embeddingChecker)

	server := chiTransport.NewServer(archiveSvc, downloadSvc, sessionSvc, healthSvc, chiTransport.CookieConfig{
		MaxAge:      time.Duration(cfg.Auth.CookieMaxAgeMin) * time.Minute,
		Insecure:    cfg.Auth.InsecureCookies,
		FrontendURL: cfg.Auth.FrontendURL,
	})

	r := chi.NewRouter()
	r.Use(jsonRecoverer(logger))
	r.Use(chiMiddleware.RequestID)
	r.Use(wideEventMiddleware(logger))
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   cfg.HTTP.CORSOrigins,
		AllowedMethods:   []string{http.MethodGet, http.MethodOptions},
		AllowedHeaders:   []string{"Accept", "Content-Type"},
		ExposedHeaders:   []string{"X-Request-ID", "X-Embedding-Tokens", "Content-Disposition"},
		AllowCredentials: true,
		MaxAge:           300,
	}))
	r.Use(metrics.Middleware())
	server.Routes(r)

	addr := fmt.Sprintf(":%d", cfg.HTTP.Port)
	srv := &http.Server{
		Addr:         addr,
		Handler:      r,
		ReadTimeout:  time.Duration(cfg.HTTP.ReadTimeoutSec) * time.Second,
		WriteTimeout: time.Duration(cfg.HTTP.WriteTimeoutSec) * time.Second,
	}

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)

	go func() {
		logger.Info("Starting HTTP server", zap.String("addr", addr))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("HTTP server error", zap.Error(err))
		}
	}()

	<-quit
	logger.Info("Received shutdown signal")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), time.Duration(cfg.HTTP.ShutdownSec)*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("Error during shutdown", zap.Error(err))
	}
	if err := store.Close(shutdownCtx); err != nil {
		logger.Error("Error closing database", zap.Error(err))
	}
	if err := tp.Shutdown(shutdownCtx); err != nil {
		logger.Error("Error flushing traces", zap.Error(err))
	}

	logger.Info("Server stopped gracefully")
}

// buildEmbedder assembles the decorator chain: OpenAI -> Cached -> Instrumented -> Instruction.
// The base client is returned separately for health checks.
func buildEmbedder(
	cfg config.EmbeddingConfig,
	kv *dbValkey.Store,
	logger *zap.Logger,
) (domain.Embedder, *openaiEmb.Embedder) {
	base := openaiEmb.NewEmbedder(&openaiEmb.Config{
		APIKey:     cfg.APIKey,
		BaseURL:    cfg.BaseURL,
		Model:      cfg.Model,
		Dimensions: cfg.Dimensions,
		Provider:   cfg.Provider,
		Timeout:    time.Duration(cfg.TimeoutSec) * time.Second,
		Logger:     logger,
	})

	var embedder domain.Embedder = base
	if kv != nil {
		embedder = embcache.New(
			base, kv, cfg.Model,
			time.Duration(cfg.CacheTTLHours)*time.Hour,
			metrics.EmbeddingCacheTotal, logger,
		)
	}

	embedder = embeddinguc.NewInstrumentedEmbedder(embedder, cfg.Provider, cfg.Model, logger)

	// Instruction prefix is outermost so the cache key includes it.
	if cfg.QueryInstruction != "" {
		embedder = domain.NewInstructionEmbedder(embedder, cfg.QueryInstruction)
	}
	return embedder, base
}

func buildBlobStore(ctx context.Context, cfg config.StorageConfig) (blobstore.Store, error) {
	switch cfg.Driver {
	case "minio":
		return blobMinio.NewFromConfig(blobMinio.Config{
			Endpoint:  cfg.Endpoint,
			AccessKey: cfg.AccessKey,
			SecretKey: cfg.SecretKey,
			Region:    cfg.Region,
			Bucket:    cfg.Bucket,
			UseSSL:    cfg.UseSSL,
		})
	case "s3":
		return blobS3.NewFromConfig(ctx, blobS3.Config{
			Bucket:    cfg.Bucket,
			Region:    cfg.Region,
			Endpoint:  cfg.Endpoint,
			AccessKey: cfg.AccessKey,
			SecretKey: cfg.SecretKey,
		})
	default:
		return nil, fmt.Errorf("unknown storage driver %q", cfg.Driver)
	}
}

// jsonRecoverer is a recovery middleware that returns JSON instead of a plain text stacktrace.
func jsonRecoverer(logger *zap.Logger) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer func() {
				if rvr := recover(); rvr != nil {
					if rvr == http.ErrAbortHandler {
						panic(rvr)
					}
					logger.Error("panic recovered",
						zap.Any("panic", rvr),
						zap.Stack("stacktrace"),
					)
					w.Header().Set("Content-Type", "application/json")
					w.WriteHeader(http.StatusInternalServerError)
					_ = json.NewEncoder(w).Encode(map[string]string{
						"code":    "internal_error",
						"message": "internal error",
					})
				}
			}()
			next.ServeHTTP(w, r)
		})
	}
}

// wideEventMiddleware emits a canonical log line per request and propagates X-Request-ID.
func wideEventMiddleware(logger *zap.Logger) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()

			requestID := chiMiddleware.GetReqID(r.Context())
			if requestID != "" {
				w.Header().Set("X-Request-ID", requestID)
			}

			reqLogger := logger.With(zap.String("request_id", requestID))
			ctx := logpkg.ContextWithLogger(r.Context(), reqLogger)

			ww := chiMiddleware.NewWrapResponseWriter(w, r.ProtoMajor)
			next.ServeHTTP(ww, r.WithContext(ctx))

			// Canonical log line, one per request. Tokens come from the response
			// header so cached and uncached searches log the same way.
			fields := []zap.Field{
				zap.String("method", r.Method),
				zap.String("path", r.URL.Path),
				zap.Int("status", ww.Status()),
				zap.Duration("latency", time.Since(start)),
				zap.String("ip", r.RemoteAddr),
				zap.String("user_agent", r.UserAgent()),
				zap.Int("response_bytes", ww.BytesWritten()),
			}
			if tokens := ww.Header().Get("X-Embedding-Tokens"); tokens != "" {
				fields = append(fields, zap.String("embedding_tokens", tokens))
			}
			reqLogger.Info("http_request", fields...)
		})
	}
}
