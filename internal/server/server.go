package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/newsroom-api/server/config"
	"github.com/newsroom-api/server/internal/auth"
	"github.com/newsroom-api/server/internal/db"
	"github.com/newsroom-api/server/internal/handlers"
	"github.com/newsroom-api/server/internal/mail"
	"github.com/newsroom-api/server/internal/mq"
	"github.com/newsroom-api/server/internal/sanitize"
	"github.com/newsroom-api/server/internal/services"
	"github.com/newsroom-api/server/internal/storage"
	"github.com/newsroom-api/server/internal/store"
	"go.mongodb.org/mongo-driver/mongo"
)

// Services is everything the HTTP layer needs.
type Services struct {
	Users     *services.UserService
	Accounts  *services.AccountService
	Articles  *services.ArticleService
	Comments  *services.CommentService
	Analytics *services.AnalyticsService
	Visits    *services.VisitService
	Media     *services.MediaService
	Tokens    *auth.Tokens
	Policy    *auth.Policy
}

// Server owns the HTTP server and the connections it was built on.
type Server struct {
	httpServer *http.Server
	client     *mongo.Client
	queue      *mq.MQ
}

// New connects the collaborators selected by cfg and constructs a Server.
func New(ctx context.Context, cfg config.Config, logger *slog.Logger) (*Server, error) {
	client, database, err := db.Open(ctx, cfg)
	if err != nil {
		return nil, err
	}

	queue, err := mq.Open(ctx, cfg.MQ)
	if err != nil {
		_ = client.Disconnect(ctx)
		return nil, fmt.Errorf("open mq: %w", err)
	}
	closeAll := func() {
		if queue != nil {
			_ = queue.Close()
		}
		_ = client.Disconnect(context.Background())
	}

	mailer, err := NewMailer(cfg, queue, logger)
	if err != nil {
		closeAll()
		return nil, err
	}

	objects, err := storage.Open(ctx, cfg.Storage)
	if err != nil {
		closeAll()
		return nil, fmt.Errorf("open storage: %w", err)
	}

	svc, err := NewServices(cfg, Repositories{
		Users:     store.NewUserRepository(database),
		Articles:  store.NewArticleRepository(database),
		Comments:  store.NewCommentRepository(database),
		Analytics: store.NewAnalyticsRepository(database),
		Visits:    store.NewVisitRepository(database),
	}, mailer, objectStore(objects), logger)
	if err != nil {
		closeAll()
		return nil, err
	}

	router := NewRouter(cfg, svc)

	port := cfg.ServerPort
	if port == 0 {
		port = 8400
	}

	httpServer := &http.Server{
		Addr:         fmt.Sprintf(":%d", port),
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	return &Server{
		httpServer: httpServer,
		client:     client,
		queue:      queue,
	}, nil
}

// Repositories groups the persistence implementations behind the services.
type Repositories struct {
	Users     services.UserRepository
	Articles  services.ArticleRepository
	Comments  services.CommentRepository
	Analytics services.AnalyticsRepository
	Visits    services.VisitRepository
}

// NewServices builds the service layer over repos. A nil objects disables
// uploads.
func NewServices(cfg config.Config, repos Repositories, mailer mail.Sender, objects services.ObjectStore, logger *slog.Logger) (Services, error) {
	tokens, err := auth.NewTokens(cfg.JWT.AccessKey, cfg.JWT.RefreshKey)
	if err != nil {
		return Services{}, err
	}
	policy, err := auth.NewPolicy()
	if err != nil {
		return Services{}, err
	}
	sanitizer := sanitize.New()

	users := services.NewUserService(repos.Users)
	return Services{
		Users:     users,
		Accounts:  services.NewAccountService(users, repos.Users, tokens, mailer, cfg, logger),
		Articles:  services.NewArticleService(repos.Articles, repos.Users, repos.Comments, sanitizer),
		Comments:  services.NewCommentService(repos.Comments, repos.Articles, repos.Users, sanitizer),
		Analytics: services.NewAnalyticsService(repos.Analytics),
		Visits:    services.NewVisitService(repos.Visits),
		Media:     services.NewMediaService(objects, users, logger),
		Tokens:    tokens,
		Policy:    policy,
	}, nil
}

// NewRouter mounts every API route with the standard middleware stack.
func NewRouter(cfg config.Config, svc Services) *chi.Mux {
	authn := handlers.NewAuthenticator(svc.Tokens, svc.Users, svc.Policy)
	limiter := handlers.NewRateLimiter(cfg.RateLimit.PerSecond, cfg.RateLimit.Burst)

	router := chi.NewRouter()
	router.Use(
		middleware.RequestID,
		middleware.RealIP,
		middleware.Recoverer,
		middleware.Logger,
		middleware.Timeout(60*time.Second),
	)
	router.Get("/healthz", handlers.Healthz)
	router.Route("/api", func(r chi.Router) {
		r.Route("/auth", func(r chi.Router) {
			handlers.AuthRouter(r, svc.Accounts, svc.Users, svc.Media, authn, limiter)
		})
		r.Route("/article", func(r chi.Router) {
			handlers.ArticleRouter(r, svc.Articles, svc.Media, authn)
		})
		r.Route("/admin", func(r chi.Router) {
			handlers.AdminRouter(r, svc.Users, svc.Accounts, svc.Articles, svc.Analytics, authn)
		})
		r.Route("/comment", func(r chi.Router) {
			handlers.CommentRouter(r, svc.Comments, authn)
		})
		r.Route("/count", func(r chi.Router) {
			handlers.CountRouter(r, svc.Visits)
		})
	})
	return router
}

// NewMailer picks the outbound mail path: the broker when one is
// configured, SMTP when a host is set, otherwise the log.
func NewMailer(cfg config.Config, queue *mq.MQ, logger *slog.Logger) (mail.Sender, error) {
	switch {
	case queue != nil:
		return mail.NewQueueSender(queue, cfg.MQ.Channel), nil
	case cfg.SMTP.Host != "":
		sender, err := mail.NewSMTPSender(cfg.SMTP)
		if err != nil {
			return nil, fmt.Errorf("smtp: %w", err)
		}
		return sender, nil
	default:
		logger.Warn("no SMTP host or broker configured; mail is only logged")
		return mail.NewLogSender(logger), nil
	}
}

// objectStore keeps a nil *storage.Storage from becoming a non-nil
// interface value.
func objectStore(s *storage.Storage) services.ObjectStore {
	if s == nil {
		return nil
	}
	return s
}

// Start runs the HTTP server until Shutdown is called.
func (s *Server) Start() error {
	if err := s.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Shutdown drains in-flight requests, then closes the broker and database
// connections.
func (s *Server) Shutdown(ctx context.Context) error {
	err := s.httpServer.Shutdown(ctx)
	if s.queue != nil {
		err = errors.Join(err, s.queue.Close())
	}
	if s.client != nil {
		err = errors.Join(err, s.client.Disconnect(ctx))
	}
	return err
}
