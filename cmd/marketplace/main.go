package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"reverse_market/internal/config"
	authapi "reverse_market/internal/http-server/handlers/api/auth"
	"reverse_market/internal/http-server/handlers/api/category"
	"reverse_market/internal/http-server/handlers/api/dashboard"
	"reverse_market/internal/http-server/handlers/api/message"
	"reverse_market/internal/http-server/handlers/api/offer"
	"reverse_market/internal/http-server/handlers/api/ping"
	"reverse_market/internal/http-server/handlers/api/request"
	mwauth "reverse_market/internal/http-server/middleware/auth"
	kafkax "reverse_market/internal/kafka"
	"reverse_market/internal/lib/token"
	"reverse_market/internal/market"
	"reverse_market/internal/redisx"
	"reverse_market/internal/storage/postgres"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/joho/godotenv"
)

func main() {

	log := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelDebug}))

	err := godotenv.Load()
	if err != nil {
		log.Error("Failed to load .env", slog.String("error", err.Error()))
	}

	cfg := config.Load()

	storage, err := postgres.New(cfg.PostgresConn)
	if err != nil {
		log.Error("Failed to connect to postgresql", slog.String("error", err.Error()))
		os.Exit(1)
	}
	defer storage.Close()

	rdb := redisx.New(cfg.RedisAddr)
	sessions := redisx.NewSessions(rdb)

	tokens := token.NewManager(cfg.JWTSecret, cfg.TokenTTL)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	requestEvents := kafkax.NewProducer(log, cfg.KafkaBrokers, market.TopicRequestCreated, 256)
	requestClosedEvents := kafkax.NewProducer(log, cfg.KafkaBrokers, market.TopicRequestClosed, 256)
	offerEvents := kafkax.NewProducer(log, cfg.KafkaBrokers, market.TopicOfferCreated, 256)
	offerDecidedEvents := kafkax.NewProducer(log, cfg.KafkaBrokers, market.TopicOfferDecided, 256)
	for _, p := range []*kafkax.Producer{requestEvents, requestClosedEvents, offerEvents, offerDecidedEvents} {
		p.Start(ctx)
	}

	authenticated := mwauth.New(log, tokens, sessions, storage)

	router := chi.NewRouter()
	router.Use(middleware.RequestID, middleware.RealIP, middleware.Recoverer)
	router.Use(middleware.Timeout(15 * time.Second))

	router.Route("/api", func(r chi.Router) {
		r.Get("/ping", ping.New(log))
		r.Post("/register", authapi.NewRegister(log, storage, tokens, sessions))
		r.Post("/login", authapi.NewLogin(log, storage, tokens, sessions))

		r.Group(func(r chi.Router) {
			r.Use(authenticated)

			r.Post("/logout", authapi.NewLogout(log, sessions))
			r.Get("/profile", authapi.NewProfile(log))
			r.Get("/categories", category.NewGetCategories(log))
			r.Get("/dashboard/stats", dashboard.NewGetStats(log, storage))

			r.Route("/requests", func(r chi.Router) {
				r.Get("/", request.NewGetRequests(log, storage))
				r.Post("/", request.NewPostRequest(log, storage, requestEvents, cfg.ServiceName))
				r.Get("/my", request.NewGetMyRequests(log, storage))
				r.Get("/{requestId}", request.NewGetRequest(log, storage))
				r.Put("/{requestId}/close", request.NewCloseRequest(log, storage, requestClosedEvents, cfg.ServiceName))
			})

			r.Route("/offers", func(r chi.Router) {
				r.Post("/", offer.NewPostOffer(log, storage, offerEvents, cfg.ServiceName))
				r.Get("/my", offer.NewGetMyOffers(log, storage))
				r.Get("/request/{requestId}", offer.NewGetRequestOffers(log, storage))
				r.Put("/{offerId}/accept", offer.NewAcceptOffer(log, storage, offerDecidedEvents, cfg.ServiceName))
			})

			r.Route("/messages", func(r chi.Router) {
				r.Post("/", message.NewPostMessage(log, storage))
				r.Get("/conversation/{requestId}", message.NewGetConversation(log, storage))
			})
		})
	})

	done := make(chan os.Signal, 1)
	signal.Notify(done, os.Interrupt, syscall.SIGINT, syscall.SIGTERM)

	srv := &http.Server{
		Addr:    cfg.HTTPAddr,
		Handler: router,
	}

	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Error("failed to start the server", slog.String("error", err.Error()))
		}
	}()

	log.Info("starting server", slog.String("addr", cfg.HTTPAddr))
	<-done

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("failed to shut down the server", slog.String("error", err.Error()))
	}

	cancel()
	for _, p := range []*kafkax.Producer{requestEvents, requestClosedEvents, offerEvents, offerDecidedEvents} {
		p.WaitClosed()
	}

	log.Info("server stopped")
}
