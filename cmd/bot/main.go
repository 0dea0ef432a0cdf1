package main

import (
	"context"
	"io"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"coworkingbot/internal/api"
	"coworkingbot/internal/backend"
	"coworkingbot/internal/bot"
	"coworkingbot/internal/config"
	"coworkingbot/internal/domain"
	"coworkingbot/internal/events"
	"coworkingbot/internal/logging"
	"coworkingbot/internal/metrics"
	"coworkingbot/internal/notify"
	"coworkingbot/internal/repository"
	"coworkingbot/internal/service"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
)

const (
	sweepInterval       = 10 * time.Minute
	healthWatchInterval = 30 * time.Second
	shutdownTimeout     = 10 * time.Second
)

func main() {
	if err := run(); err != nil {
		log.Fatalf("Fatal error: %v", err)
	}
}

func run() error {
	cfg, texts, logger, closer, err := loadConfigAndLogger()
	if err != nil {
		return err
	}
	if closer != nil {
		defer (func(c io.Closer) { _ = c.Close() })(closer)
	}

	if err := os.MkdirAll(cfg.Exports.Path, 0o755); err != nil {
		logger.Error().Err(err).Msg("Ошибка создания директории для экспорта")
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	redisClient := initRedis(ctx, cfg, &logger)
	if redisClient != nil {
		defer func() { _ = redisClient.Close() }()
	}
	stateRepo, memoryRepo := initStateRepository(cfg, redisClient, &logger)
	stateService := service.NewStateService(stateRepo, &logger)
	go sweepSessions(ctx, memoryRepo, &logger)

	contentRepo, err := repository.NewContentRepository(cfg.Content.DBPath)
	if err != nil {
		logger.Error().Err(err).Str("path", cfg.Content.DBPath).Msg("Ошибка открытия хранилища текстов")
		return err
	}
	defer func() { _ = contentRepo.Close() }()
	contentService := service.NewContentService(contentRepo, cfg.Content.CacheTTL, &logger)
	if cfg.Content.BackupPath != "" {
		go contentRepo.RunBackups(ctx, cfg.Content.BackupPath, cfg.Content.BackupInterval, cfg.Content.BackupRetention, &logger)
	}

	var backendOpts []backend.Option
	if redisClient != nil {
		backendOpts = append(backendOpts, backend.WithCache(redisClient, cfg.Backend.CacheTTL))
	}
	backendClient, err := backend.New(cfg.Backend, logging.Component(&logger, "backend"), backendOpts...)
	if err != nil {
		logger.Error().Err(err).Msg("Ошибка создания клиента сервера")
		return err
	}

	botAPI, err := bot.NewBotAPI(cfg.Telegram)
	if err != nil {
		logger.Error().Err(err).Msg("Ошибка создания BotAPI")
		return err
	}
	tgService := service.NewTelegramService(botAPI)

	notifier, err := notify.New(tgService, cfg, logging.Component(&logger, "notify"))
	if err != nil {
		logger.Error().Err(err).Msg("Ошибка создания уведомлений")
		return err
	}

	eventBus := events.NewEventBus()
	notifier.Subscribe(eventBus)

	if cfg.Monitoring.PrometheusEnabled {
		metrics.Register()
	}

	checks := map[string]api.Checker{
		"backend": func(ctx context.Context) error {
			_, err := backendClient.TestConnection(ctx)
			return err
		},
	}
	checks["content"] = contentRepo.Ping
	if redisClient != nil {
		checks["redis"] = func(ctx context.Context) error { return repository.Ping(ctx, redisClient) }
	}
	shutdownOps := startOpsServers(ctx, cfg, checks, &logger)
	defer shutdownOps()

	telegramBot, err := bot.NewBot(
		tgService, cfg, texts, stateService, backendClient,
		contentService, notifier, eventBus, &logger,
	)
	if err != nil {
		logger.Error().Err(err).Msg("Ошибка создания бота")
		return err
	}

	logger.Info().Str("version", cfg.App.Version).Msg("Бот запущен...")
	telegramBot.StartDigest(ctx)
	telegramBot.Start(ctx)
	telegramBot.Stop()

	logger.Info().Msg("Shutdown complete.")
	return nil
}

func loadConfigAndLogger() (*config.Config, config.Texts, zerolog.Logger, io.Closer, error) {
	configPath := os.Getenv("CONFIG_PATH")
	if configPath == "" {
		configPath = "configs/config.yaml"
	}

	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, config.Texts{}, zerolog.Logger{}, nil, err
	}

	baseLogger, closer, err := logging.New(cfg.Logging, cfg.App)
	if err != nil {
		return nil, config.Texts{}, zerolog.Logger{}, nil, err
	}
	logger := *baseLogger

	textsPath := os.Getenv("TEXTS_PATH")
	if textsPath == "" {
		textsPath = "configs/texts.yaml"
	}
	texts, err := config.LoadTexts(textsPath)
	if err != nil {
		logger.Error().Err(err).Msgf("Ошибка чтения %s", textsPath)
		return nil, config.Texts{}, zerolog.Logger{}, closer, err
	}

	return cfg, texts, logger, closer, nil
}

// initRedis returns nil when Redis is not configured; sessions then stay in memory.
func initRedis(ctx context.Context, cfg *config.Config, logger *zerolog.Logger) *redis.Client {
	if cfg.Redis.Address == "" {
		return nil
	}
	client := repository.NewRedisClient(cfg.Redis)
	if err := repository.Ping(ctx, client); err != nil {
		logger.Warn().Err(err).Msg("Redis unavailable")
	}
	return client
}

func initStateRepository(cfg *config.Config, redisClient *redis.Client, logger *zerolog.Logger) (domain.StateRepository, *repository.MemoryStateRepository) {
	memoryRepo := repository.NewMemoryStateRepository(cfg.Session.TTL)
	if redisClient == nil {
		return memoryRepo, memoryRepo
	}
	primary := repository.NewRedisStateRepository(redisClient, cfg.Session.TTL)
	return repository.NewFailoverStateRepository(primary, memoryRepo, logger), memoryRepo
}

func sweepSessions(ctx context.Context, repo *repository.MemoryStateRepository, logger *zerolog.Logger) {
	ticker := time.NewTicker(sweepInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if n := repo.Sweep(); n > 0 {
				logger.Debug().Int("removed", n).Msg("Expired sessions swept")
			}
		}
	}
}

// startOpsServers runs the health/metrics HTTP server and the gRPC health
// service when their ports are set. The returned func shuts both down.
func startOpsServers(ctx context.Context, cfg *config.Config, checks map[string]api.Checker, logger *zerolog.Logger) func() {
	var shutdowns []func(context.Context)

	if cfg.Monitoring.HealthCheckPort != 0 {
		httpServer := api.NewHTTPServer(cfg.Monitoring, checks, logger)
		go func() {
			if err := httpServer.Start(); err != nil {
				logger.Error().Err(err).Msg("Ops HTTP server error")
			}
		}()
		shutdowns = append(shutdowns, func(ctx context.Context) { _ = httpServer.Shutdown(ctx) })
	}

	if cfg.Monitoring.GRPCHealthPort != 0 {
		grpcServer, err := api.NewGRPCServer(cfg.Monitoring.GRPCHealthPort, checks, logger)
		if err != nil {
			logger.Error().Err(err).Msg("gRPC health server disabled")
		} else {
			go func() {
				if err := grpcServer.Serve(); err != nil {
					logger.Error().Err(err).Msg("gRPC health server error")
				}
			}()
			go grpcServer.Watch(ctx, healthWatchInterval)
			shutdowns = append(shutdowns, grpcServer.Shutdown)
		}
	}

	return func() {
		ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		for _, fn := range shutdowns {
			fn(ctx)
		}
	}
}
