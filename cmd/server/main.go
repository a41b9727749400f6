package main // Entry point package

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"
	"github.com/sirupsen/logrus"

	"github.com/iliyamo/movie-catalog-api/internal/auth"
	"github.com/iliyamo/movie-catalog-api/internal/config"
	"github.com/iliyamo/movie-catalog-api/internal/database"
	"github.com/iliyamo/movie-catalog-api/internal/handler"
	"github.com/iliyamo/movie-catalog-api/internal/middleware"
	"github.com/iliyamo/movie-catalog-api/internal/queue"
	"github.com/iliyamo/movie-catalog-api/internal/repository"
	"github.com/iliyamo/movie-catalog-api/internal/router"
	"github.com/iliyamo/movie-catalog-api/internal/service"
	"github.com/iliyamo/movie-catalog-api/internal/session"
)

func main() {
	log := logrus.New()

	if err := config.LoadDotEnv(); err != nil {
		log.WithError(err).Fatal("load .env")
	}
	cfg, err := config.Load() // Load environment config
	if err != nil {
		log.WithError(err).Fatal("config")
	}
	setupLogger(log, cfg)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	db, err := database.Open(ctx, cfg.DSN())
	if err != nil {
		log.WithError(err).Fatal("mysql connect")
	}
	defer db.Close()
	if err := database.Migrate(ctx, db); err != nil {
		log.WithError(err).Fatal("mysql migrate")
	}

	rdb, err := config.NewRedisClient(ctx)
	if err != nil {
		log.WithError(err).Fatal("redis connect")
	}
	defer rdb.Close()

	users := repository.NewUserRepo(db)
	movies := repository.NewMovieRepo(db)
	sessions := session.NewStore(rdb, cfg.AuthSecret, cfg.SessionPrefix, cfg.SessionTTL)

	// Login checks credentials locally; mutations are gated on the bearer token.
	local := auth.NewLocalAuthenticator(users)
	bearer := auth.NewBearerAuthenticator(users, cfg.AuthSecret, cfg.TokenTTL)

	var events service.EventPublisher = service.NopPublisher{}
	if cfg.EventsEnabled {
		events = service.NewAMQPPublisher(cfg.AMQPURL)
	}
	if cfg.EventsConsumer {
		go func() {
			if err := queue.StartCatalogConsumer(ctx, cfg.AMQPURL, cfg.EventsLogPath, log); err != nil && !errors.Is(err, context.Canceled) {
				log.WithError(err).Error("catalog consumer stopped")
			}
		}()
	}

	e := echo.New() // Create Echo instance
	e.HideBanner = true
	e.HTTPErrorHandler = handler.ErrorHandler(log)
	e.Use(echomw.Recover())
	e.Use(echomw.RequestID())
	e.Use(middleware.RequestLogger(log))

	router.RegisterRoutes(e, map[string]handler.Pinger{
		"mysql": handler.PingFunc(db.PingContext),
		"redis": handler.PingFunc(func(ctx context.Context) error { return rdb.Ping(ctx).Err() }),
	})
	router.RegisterAuth(e, &handler.AuthHandler{
		Registrar:    service.NewRegistrationService(users, cfg.BcryptCost, log),
		Local:        local,
		Tokens:       bearer,
		Sessions:     sessions,
		CookieName:   cfg.SessionCookie,
		SecureCookie: cfg.Env == "prod",
		Log:          log,
	})
	router.RegisterMovies(e,
		handler.NewMovieHandler(service.NewMovieService(movies, events, log), log),
		bearer,
		middleware.NewResponseCache(config.LoadCacheConfig(), rdb, log),
		log)

	addr := ":" + cfg.Port // Address string with port
	go func() {
		log.WithField("addr", addr).WithField("env", cfg.Env).Info("listening")
		if err := e.Start(addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.WithError(err).Fatal("server")
		}
	}()

	<-ctx.Done()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := e.Shutdown(shutdownCtx); err != nil {
		log.WithError(err).Error("shutdown")
	}
	log.Info("stopped")
}

func setupLogger(log *logrus.Logger, cfg config.Config) {
	if cfg.Env == "prod" {
		log.SetFormatter(&logrus.JSONFormatter{})
	} else {
		log.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	}
	lvl, err := logrus.ParseLevel(cfg.LogLevel)
	if err != nil {
		lvl = logrus.InfoLevel
	}
	log.SetLevel(lvl)
}
