package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"reverse_market/internal/config"
	kafkax "reverse_market/internal/kafka"
	"reverse_market/internal/market"

	"github.com/joho/godotenv"
	"github.com/segmentio/kafka-go"
)

// The notifier tails offer decisions and logs a notification per party.
// A real deployment would fan these out to mail or push; stdout keeps
// the pipeline observable without either.
func main() {

	log := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelDebug}))

	err := godotenv.Load()
	if err != nil {
		log.Error("Failed to load .env", slog.String("error", err.Error()))
	}

	cfg := config.Load()

	consumer := kafkax.NewConsumer(cfg.KafkaBrokers, "marketplace-notifier", market.TopicOfferDecided)

	ctx, cancel := context.WithCancel(context.Background())

	done := make(chan os.Signal, 1)
	signal.Notify(done, os.Interrupt, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-done
		cancel()
	}()

	log.Info("notifier started", slog.String("topic", market.TopicOfferDecided))

	err = consumer.Run(ctx, func(ctx context.Context, m kafka.Message) error {
		var ev market.Envelope
		if err := kafkax.Unmarshal(m.Value, &ev); err != nil {
			log.Error("skipping malformed event", slog.String("error", err.Error()))
			return nil
		}
		if ev.EventType != market.EventOfferAccepted {
			return nil
		}

		payload, err := kafkax.UnwrapPayload[market.OfferAcceptedPayload](ev.Payload)
		if err != nil {
			log.Error("skipping malformed payload", slog.String("error", err.Error()))
			return nil
		}

		log.Info("notify seller: your offer was accepted",
			slog.String("seller_id", payload.SellerID),
			slog.String("offer_id", payload.OfferID),
			slog.Float64("price", payload.Price),
		)
		log.Info("notify customer: request matched",
			slog.String("customer_id", payload.CustomerID),
			slog.String("request_id", payload.RequestID),
			slog.Int("other_offers_rejected", payload.RejectedCount),
		)
		return nil
	})
	if err != nil {
		log.Error("consumer stopped with error", slog.String("error", err.Error()))
		os.Exit(1)
	}

	log.Info("notifier stopped")
}
