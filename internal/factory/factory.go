package factory

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/mcoot/bullcow/internal/api"
	"github.com/mcoot/bullcow/internal/dependencies/clock"
	"github.com/mcoot/bullcow/internal/dependencies/random"
	"github.com/mcoot/bullcow/internal/loop"
	"github.com/mcoot/bullcow/internal/services/bot"
	"github.com/mcoot/bullcow/internal/services/dispatch"
	"github.com/mcoot/bullcow/internal/services/history"
	"github.com/mcoot/bullcow/internal/services/matchmaking"
	"github.com/mcoot/bullcow/internal/services/registry"
	"github.com/mcoot/bullcow/internal/storage"
	"github.com/mcoot/bullcow/internal/storage/memory"
	redisstorage "github.com/mcoot/bullcow/internal/storage/redis"
	"github.com/mcoot/bullcow/internal/web/ws"
)

// Storage type constants
const (
	StorageTypeMemory = "memory"
	StorageTypeRedis  = "redis"
)

const defaultLoopBuffer = 1024

// App contains all wired application components
type App struct {
	// Storage
	Storage storage.Storage

	// External dependencies
	Clock  clock.Clock
	Random random.Random

	// Loop is nil when the app runs on an inline executor
	Loop     *loop.Loop
	Executor loop.Executor

	// Services
	Registry   *registry.Registry
	Matchmaker *matchmaking.Matchmaker
	Dispatcher *dispatch.Dispatcher
	History    *history.Service
	Bots       *bot.Service

	// WS serves player sockets
	WS *ws.Handler

	Logger *slog.Logger
}

// Config holds configuration for the application factory
type Config struct {
	// Logger is the application logger (optional)
	// If nil, a no-op logger is used
	Logger *slog.Logger
	// StorageType selects the storage backend ("memory" or "redis")
	// If empty, defaults to "memory"
	StorageType string
	// RedisConfig holds Redis connection settings (required if StorageType is "redis")
	RedisConfig *redisstorage.Config
	// Registry holds room lifecycle timings (optional)
	// If zero value, defaults to registry.DefaultConfig()
	Registry registry.Config
	// LoopBuffer is the event loop queue size (optional)
	LoopBuffer int
	// BotThinkTime delays each computer opponent action (optional)
	BotThinkTime time.Duration
}

// New creates a new application with all dependencies wired
func New(cfg Config) (*App, error) {
	// Use no-op logger if not provided
	logger := cfg.Logger
	if logger == nil {
		logger = slog.New(slog.NewJSONHandler(io.Discard, nil))
	}

	// Create storage based on type
	var store storage.Storage
	storageType := cfg.StorageType
	if storageType == "" {
		storageType = StorageTypeMemory
	}

	switch storageType {
	case StorageTypeMemory:
		store = memory.New()
	case StorageTypeRedis:
		if cfg.RedisConfig == nil {
			return nil, errors.New("RedisConfig required when StorageType is redis")
		}
		redisStore, err := redisstorage.New(*cfg.RedisConfig)
		if err != nil {
			return nil, err
		}
		store = redisStore
	default:
		return nil, errors.New("invalid StorageType: must be 'memory' or 'redis'")
	}

	registryCfg := cfg.Registry
	if registryCfg.GracePeriod == 0 {
		registryCfg = registry.DefaultConfig()
	}

	buffer := cfg.LoopBuffer
	if buffer <= 0 {
		buffer = defaultLoopBuffer
	}
	eventLoop := loop.New(logger, buffer)

	app := newWithDependencies(store, clock.New(), random.New(), eventLoop, registryCfg, cfg.BotThinkTime, logger)
	app.Loop = eventLoop
	return app, nil
}

// newWithDependencies creates an App with the given dependencies (useful for testing)
func newWithDependencies(
	store storage.Storage,
	clk clock.Clock,
	rnd random.Random,
	executor loop.Executor,
	registryCfg registry.Config,
	botThinkTime time.Duration,
	logger *slog.Logger,
) *App {
	historyService := history.NewService(store, rnd, logger)
	reg := registry.New(registryCfg, clk, rnd, executor, historyService, logger)
	matchmaker := matchmaking.New(reg, logger)
	bots := bot.NewService(reg, bot.DefaultStrategies(rnd), botThinkTime, clk, rnd, executor, logger)
	matchmaker.SetOpponents(bots)
	dispatcher := dispatch.New(reg, matchmaker, logger)
	wsHandler := ws.NewHandler(dispatcher, executor, logger)

	return &App{
		Storage:    store,
		Clock:      clk,
		Random:     rnd,
		Executor:   executor,
		Registry:   reg,
		Matchmaker: matchmaker,
		Dispatcher: dispatcher,
		History:    historyService,
		Bots:       bots,
		WS:         wsHandler,
		Logger:     logger,
	}
}

// Router builds the HTTP handler serving the API and the WebSocket endpoint
func (a *App) Router() http.Handler {
	return api.NewRouter(api.RouterConfig{
		Logger:     a.Logger,
		Executor:   a.Executor,
		Registry:   a.Registry,
		Matchmaker: a.Matchmaker,
		History:    a.History,
		WSHandler:  a.WS,
	})
}

// Run drives the event loop and the room sweeper until ctx is cancelled
func (a *App) Run(ctx context.Context) {
	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		a.Registry.Run(ctx)
	}()

	if a.Loop != nil {
		a.Loop.Run(ctx)
	}
	wg.Wait()
}

// Close waits for pending history writes and releases storage
func (a *App) Close() error {
	a.History.Flush()
	if closer, ok := a.Storage.(io.Closer); ok {
		return closer.Close()
	}
	return nil
}
