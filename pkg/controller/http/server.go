package http

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/lheh1167/slack-pair-bot/pkg/domain/interfaces"
	"github.com/lheh1167/slack-pair-bot/pkg/service/directory"
	"github.com/lheh1167/slack-pair-bot/pkg/usecase"
	"github.com/lheh1167/slack-pair-bot/pkg/utils/errutil"
	"github.com/lheh1167/slack-pair-bot/pkg/utils/logging"
	"github.com/lheh1167/slack-pair-bot/pkg/utils/safe"
	"github.com/m-mizutani/goerr/v2"
)

type Server struct {
	router             *chi.Mux
	slackUC            *usecase.SlackUseCases
	slackSigningSecret string
	cache              *directory.Cache
	directoryRepo      interfaces.DirectoryRepository
}

type Options func(*Server)

// WithSlack mounts the slash command and interaction webhooks
func WithSlack(slackUC *usecase.SlackUseCases, signingSecret string) Options {
	return func(s *Server) {
		s.slackUC = slackUC
		s.slackSigningSecret = signingSecret
	}
}

// WithDirectoryCache reports snapshot state on /health
func WithDirectoryCache(cache *directory.Cache) Options {
	return func(s *Server) {
		s.cache = cache
	}
}

// WithDirectoryRepository reports mirror state on /health
func WithDirectoryRepository(repo interfaces.DirectoryRepository) Options {
	return func(s *Server) {
		s.directoryRepo = repo
	}
}

func New(opts ...Options) (*Server, error) {
	r := chi.NewRouter()

	s := &Server{
		router: r,
	}
	for _, opt := range opts {
		opt(s)
	}

	if s.slackUC != nil && s.slackSigningSecret == "" {
		return nil, goerr.New("slack signing secret is required to serve slack webhooks")
	}

	// Middleware
	r.Use(middleware.RequestID)
	r.Use(accessLogger)
	r.Use(middleware.Recoverer)

	r.Get("/health", s.healthHandler)

	// Slack webhooks use signature verification instead of auth
	if s.slackUC != nil {
		r.Route("/hooks/slack", func(r chi.Router) {
			r.Use(SlackSignatureMiddleware(s.slackSigningSecret))

			r.Post("/command", NewSlackCommandHandler(s.slackUC).ServeHTTP)
			r.Post("/interaction", NewSlackInteractionHandler(s.slackUC).ServeHTTP)
		})
	}

	return s, nil
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

// accessLogger is a middleware that logs HTTP requests
func accessLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)

		defer func() {
			logging.Default().Info("access",
				"method", r.Method,
				"path", r.URL.Path,
				"status", ww.Status(),
				"bytes", ww.BytesWritten(),
				"duration", time.Since(start),
				"remote", r.RemoteAddr,
				"request_id", middleware.GetReqID(r.Context()),
			)
		}()

		next.ServeHTTP(ww, r)
	})
}

type snapshotStatus struct {
	Users     int       `json:"users"`
	FetchedAt time.Time `json:"fetched_at"`
	ExpiresAt time.Time `json:"expires_at"`
}

type mirrorStatus struct {
	Users              int        `json:"users"`
	LastRefreshSuccess *time.Time `json:"last_refresh_success,omitempty"`
	LastRefreshAttempt *time.Time `json:"last_refresh_attempt,omitempty"`
}

type healthResponse struct {
	Status   string          `json:"status"`
	Snapshot *snapshotStatus `json:"snapshot,omitempty"`
	Mirror   *mirrorStatus   `json:"mirror,omitempty"`
}

func timeOrNil(t time.Time) *time.Time {
	if t.IsZero() {
		return nil
	}
	return &t
}

// healthHandler always answers 200 while the process is serving and adds
// what is known about the directory
func (s *Server) healthHandler(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	resp := healthResponse{Status: "ok"}

	if s.cache != nil {
		if snapshot := s.cache.Snapshot(); snapshot != nil {
			resp.Snapshot = &snapshotStatus{
				Users:     snapshot.Len(),
				FetchedAt: snapshot.FetchedAt(),
				ExpiresAt: snapshot.ExpiresAt(),
			}
		}
	}

	if s.directoryRepo != nil {
		meta, err := s.directoryRepo.GetMetadata(ctx)
		if err != nil {
			logging.From(ctx).Warn("failed to read directory metadata", "error", err)
		} else {
			resp.Mirror = &mirrorStatus{
				Users:              meta.UserCount,
				LastRefreshSuccess: timeOrNil(meta.LastRefreshSuccess),
				LastRefreshAttempt: timeOrNil(meta.LastRefreshAttempt),
			}
		}
	}

	writeJSON(ctx, w, http.StatusOK, resp)
}

func writeJSON(ctx context.Context, w http.ResponseWriter, status int, v any) {
	data, err := json.Marshal(v)
	if err != nil {
		errutil.HandleHTTP(ctx, w, goerr.Wrap(err, "failed to marshal response"), http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	safe.Write(ctx, w, data)
}
