package main

import (
	"context"
	"database/sql"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/hashicorp/go-multierror"
	"github.com/joho/godotenv"
	"github.com/rs/zerolog/log"

	"github.com/radoslav1992/ai-help-center/internal/config"
	"github.com/radoslav1992/ai-help-center/internal/handler"
	"github.com/radoslav1992/ai-help-center/internal/logger"
	"github.com/radoslav1992/ai-help-center/internal/model/catalog"
	"github.com/radoslav1992/ai-help-center/internal/repository"
	"github.com/radoslav1992/ai-help-center/internal/service/ai"
	"github.com/radoslav1992/ai-help-center/internal/service/chat"
	"github.com/radoslav1992/ai-help-center/internal/service/image"
	"github.com/radoslav1992/ai-help-center/internal/service/openai"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	envErr := godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		logger.Setup(logger.Options{})
		log.Fatal().Err(err).Msg("failed to load configuration")
	}
	logger.Setup(logger.Options{Level: cfg.Log.Level, Format: cfg.Log.Format})
	if envErr != nil {
		log.Debug().Err(envErr).Msg("no .env file, using process environment only")
	}

	offerings := catalog.NewMemoryStore(catalog.Seed())

	assistant, closeAssistant := newAssistant(ctx, cfg, offerings)
	manager := chat.NewManager(assistant, chat.Config{
		AssistantID:  cfg.OpenAI.AssistantID,
		PollInterval: cfg.Chat.PollInterval,
		Timeout:      cfg.Chat.Timeout,
	})

	deps := handler.Deps{
		Chat:      manager,
		ProxyPath: strings.TrimRight(cfg.Server.PublicURL, "/") + image.DefaultProxyPath,
		Images: image.NewRelay(&http.Client{Timeout: cfg.ImageProxy.Timeout}, image.RelayConfig{
			AllowedHosts: cfg.ImageProxy.AllowedHosts,
			UserAgent:    cfg.ImageProxy.UserAgent,
			MaxBytes:     cfg.ImageProxy.MaxBytes,
		}),
		Offerings:      offerings,
		AllowedOrigins: cfg.Server.AllowedOrigins,
	}

	db, err := openDatabase(ctx, cfg.Database)
	if err != nil {
		log.Warn().Err(err).Msg("database unavailable, contact and portfolio routes disabled")
	} else {
		deps.Contacts = repository.NewContactRepository(db)
		deps.Projects = repository.NewPortfolioRepository(db)
	}

	srv := &http.Server{
		Addr:              cfg.Server.Addr,
		Handler:           handler.NewRouter(deps),
		ReadHeaderTimeout: cfg.Server.ReadHeaderTimeout,
		IdleTimeout:       120 * time.Second,
	}

	log.Info().Str("addr", srv.Addr).Bool("assistant", manager.Configured()).Msg("help center backend listening")
	runErr := runServer(ctx, srv, cfg.Server.ShutdownTimeout)

	var result *multierror.Error
	if runErr != nil {
		result = multierror.Append(result, runErr)
	}
	closeAssistant()
	if db != nil {
		if err := db.Close(); err != nil {
			result = multierror.Append(result, err)
		}
	}
	if err := result.ErrorOrNil(); err != nil {
		log.Fatal().Err(err).Msg("server error")
	}
	log.Info().Msg("shut down cleanly")
}

// newAssistant builds the configured assistant backend. A nil assistant
// leaves the chat routes answering with a configuration error.
func newAssistant(ctx context.Context, cfg *config.Config, offerings catalog.Store) (chat.Assistant, func()) {
	noop := func() {}
	l := logger.For("bootstrap")

	switch cfg.Chat.Provider {
	case config.ProviderArk:
		chatModel, err := cfg.AI.NewChatModel(ctx)
		if err != nil {
			l.Warn().Err(err).Msg("failed to create Ark chat model, chat disabled")
			return nil, noop
		}
		prompt := ai.DefaultPromptTemplate(cfg.AI.AgencyName).Build(offerings.List())
		svc, err := ai.NewService(ctx, chatModel, prompt)
		if err != nil {
			l.Warn().Err(err).Msg("failed to initialize AI service, chat disabled")
			return nil, noop
		}
		threads := ai.NewThreads(svc, ai.WithIdleTTL(cfg.AI.ThreadTTL), ai.WithMaxThreads(cfg.AI.MaxThreads))
		l.Info().Str("model", cfg.AI.Model).Msg("using Ark assistant backend")
		return threads, threads.Close
	default:
		if !cfg.OpenAI.Enabled() {
			l.Warn().Msg("OPENAI_API_KEY not set, chat disabled")
			return nil, noop
		}
		client, err := openai.NewClient(openai.Config{
			APIKey:  cfg.OpenAI.APIKey,
			BaseURL: cfg.OpenAI.BaseURL,
			OrgID:   cfg.OpenAI.OrgID,
		}, nil)
		if err != nil {
			l.Warn().Err(err).Msg("failed to create OpenAI client, chat disabled")
			return nil, noop
		}
		l.Info().Str("assistantId", cfg.OpenAI.AssistantID).Msg("using OpenAI assistant backend")
		return client, noop
	}
}

func openDatabase(ctx context.Context, cfg config.DatabaseConfig) (*sql.DB, error) {
	driver, err := repository.ParseDriver(cfg.Driver)
	if err != nil {
		return nil, err
	}

	openCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	db, err := repository.Open(openCtx, driver, cfg.URL)
	if err != nil {
		return nil, err
	}

	if !cfg.SkipMigrations {
		n, err := repository.Migrate(db, driver)
		if err != nil {
			db.Close()
			return nil, err
		}
		log := logger.For("bootstrap")
		log.Info().Int("applied", n).Str("driver", string(driver)).Msg("migrations applied")
	}
	return db, nil
}

func runServer(ctx context.Context, srv *http.Server, shutdownTimeout time.Duration) error {
	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
		err := <-errCh
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	}
}
