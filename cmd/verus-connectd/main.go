package main

import (
	"context"
	"crypto/ecdsa"
	"crypto/x509"
	"encoding/pem"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill-redisstream/pkg/redisstream"
	"github.com/caarlos0/env/v11"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/Fried333/verus-connect/adapters/events"
	"github.com/Fried333/verus-connect/adapters/store"
	"github.com/Fried333/verus-connect/adapters/tokenizer"
	"github.com/Fried333/verus-connect/adapters/verusrpc"
	"github.com/Fried333/verus-connect/ports"
	"github.com/Fried333/verus-connect/service"
	transport "github.com/Fried333/verus-connect/transport/http"
)

type config struct {
	ListenAddr string `env:"LISTEN_ADDR" envDefault:":9000"`
	PathPrefix string `env:"PATH_PREFIX" envDefault:"/auth/verus"`
	Debug      bool   `env:"DEBUG"`
	Metrics    bool   `env:"METRICS" envDefault:"true"`

	VerusAPIURL     string `env:"VERUS_API_URL"`
	VerusChain      string `env:"VERUS_CHAIN"`
	VerusIAddress   string `env:"VERUS_IADDRESS,required"`
	VerusPrivateKey string `env:"VERUS_PRIVATE_KEY,required"`
	CallbackURL     string `env:"CALLBACK_URL,required"`
	RedirectURL     string `env:"REDIRECT_URL"`

	ChallengeTTL time.Duration `env:"CHALLENGE_TTL" envDefault:"5m"`
	ReapInterval time.Duration `env:"REAP_INTERVAL" envDefault:"60s"`

	RedisURL string `env:"REDIS_URL"`

	// SessionKeyFile holds a PEM-encoded EC private key; when set, verified
	// logins carry a signed session token in their passthrough data.
	SessionKeyFile string        `env:"SESSION_KEY_FILE"`
	SessionTTL     time.Duration `env:"SESSION_TTL" envDefault:"24h"`
}

func main() {
	log := zerolog.New(os.Stderr).With().Timestamp().Logger()

	var cfg config
	if err := env.Parse(&cfg); err != nil {
		log.Fatal().Err(err).Msg("failed to parse environment")
	}
	if cfg.Debug {
		log = log.Level(zerolog.DebugLevel)
	} else {
		log = log.Level(zerolog.InfoLevel)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	challengeStore := store.NewMemoryStore(cfg.ChallengeTTL, store.WithLogger(log))
	go challengeStore.StartReaper(ctx, cfg.ReapInterval)

	verusClient, err := verusrpc.NewClient(verusrpc.Config{
		APIURL:      cfg.VerusAPIURL,
		Chain:       cfg.VerusChain,
		IAddress:    cfg.VerusIAddress,
		PrivateKey:  cfg.VerusPrivateKey,
		CallbackURL: cfg.CallbackURL,
		RedirectURL: cfg.RedirectURL,
		Logger:      log,
	})
	if err != nil {
		log.Fatal().Err(err).Msg("failed to create verus client")
	}

	publisher, err := newPublisher(cfg.RedisURL, log)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to create event publisher")
	}

	var hook service.LoginHook
	if cfg.SessionKeyFile != "" {
		key, err := loadSessionKey(cfg.SessionKeyFile)
		if err != nil {
			log.Fatal().Err(err).Str("file", cfg.SessionKeyFile).Msg("failed to load session key")
		}
		hook = tokenizer.NewSessionTokenizer(key, cfg.SessionTTL).Hook()
	}

	loginService, err := service.NewLoginService(service.Config{
		Store:        challengeStore,
		Verus:        verusClient,
		Events:       publisher,
		OnLogin:      hook,
		ChallengeTTL: cfg.ChallengeTTL,
		Logger:       log,
	})
	if err != nil {
		log.Fatal().Err(err).Msg("failed to create login service")
	}

	router := transport.SetupRouter(loginService, transport.RouterConfig{
		PathPrefix: cfg.PathPrefix,
		Metrics:    cfg.Metrics,
		Logger:     log,
	})

	server := &http.Server{
		Addr:              cfg.ListenAddr,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		log.Info().Str("addr", cfg.ListenAddr).Str("prefix", cfg.PathPrefix).Msg("listening")
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error().Err(err).Msg("server failed")
			stop()
		}
	}()

	<-ctx.Done()
	log.Info().Msg("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("shutdown failed")
	}
}

// newPublisher wires verified-login events into a Redis stream when
// REDIS_URL is set, and drops them otherwise.
func newPublisher(redisURL string, log zerolog.Logger) (ports.EventPublisher, error) {
	if redisURL == "" {
		log.Info().Msg("REDIS_URL not set, login events disabled")
		return events.NopPublisher{}, nil
	}

	opts, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse redis url: %w", err)
	}

	publisher, err := redisstream.NewPublisher(
		redisstream.PublisherConfig{Client: redis.NewClient(opts)},
		watermill.NewStdLogger(false, false),
	)
	if err != nil {
		return nil, err
	}
	return events.NewWatermillPublisher(publisher), nil
}

func loadSessionKey(path string) (*ecdsa.PrivateKey, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	block, _ := pem.Decode(raw)
	if block == nil {
		return nil, errors.New("no PEM block found")
	}
	return x509.ParseECPrivateKey(block.Bytes)
}
