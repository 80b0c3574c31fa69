// Package app builds the long-lived dependencies shared by the server and the CLI.
package app

import (
	"context"
	"fmt"
	"log/slog"

	"ainews/internal/auth"
	"ainews/internal/config"
	"ainews/internal/db"
	"ainews/internal/llm"
	"ainews/internal/ratelimit"
	"ainews/internal/services"
	"ainews/internal/store"
	"ainews/internal/utils"

	"github.com/redis/go-redis/v9"
)

const renderCacheSize = 1000

type App struct {
	Config *config.Config
	Store  store.Store
	Tokens *auth.TokenManager

	Stories   *services.StoryService
	Comments  *services.CommentService
	Votes     *services.VoteService
	Accounts  *services.AccountService
	Generator *services.Generator

	closers []func() error
}

// Options lets callers (mostly tests) replace external dependencies.
type Options struct {
	Store     store.Store
	Redis     redis.UniversalClient
	Completer llm.Completer
}

func New(ctx context.Context, cfg *config.Config, opts Options) (*App, error) {
	a := &App{Config: cfg}

	st := opts.Store
	if st == nil {
		var err error
		st, err = a.openStore(ctx)
		if err != nil {
			a.Close()
			return nil, err
		}
	}
	a.Store = st

	limits, err := a.limits(ctx, opts.Redis)
	if err != nil {
		a.Close()
		return nil, err
	}

	cache, err := utils.NewCache(renderCacheSize)
	if err != nil {
		a.Close()
		return nil, err
	}

	completer := opts.Completer
	if completer == nil {
		completer, err = llm.New(cfg.LLM)
		if err != nil {
			a.Close()
			return nil, fmt.Errorf("llm client: %w", err)
		}
	}

	a.Tokens = auth.NewTokenManager(cfg.JWTSecret, auth.DefaultTokenTTL)
	a.Stories = services.NewStoryService(st, limits, cache)
	a.Comments = services.NewCommentService(st, limits, cache)
	a.Votes = services.NewVoteService(st, limits, cache)
	a.Accounts = services.NewAccountService(st, limits)
	a.Generator = services.NewGenerator(st, completer, cache, services.GeneratorOptions{
		Stories:     cfg.Generator.Stories,
		Concurrency: cfg.Generator.Concurrency,
	})
	return a, nil
}

func (a *App) openStore(ctx context.Context) (store.Store, error) {
	if a.Config.DatabaseURL == config.MemoryDSN {
		slog.Warn("using in-memory store, data is lost on restart")
		return store.NewMemory(), nil
	}
	gdb, err := db.Open(a.Config.DatabaseURL)
	if err != nil {
		return nil, err
	}
	sqlDB, err := gdb.DB()
	if err != nil {
		return nil, err
	}
	a.closers = append(a.closers, sqlDB.Close)
	if err := sqlDB.PingContext(ctx); err != nil {
		return nil, fmt.Errorf("ping database: %w", err)
	}
	if err := db.Migrate(gdb); err != nil {
		return nil, err
	}
	return db.NewStore(gdb), nil
}

func (a *App) limits(ctx context.Context, client redis.UniversalClient) (*ratelimit.Set, error) {
	if client == nil {
		if a.Config.Redis.Addr == "" {
			return ratelimit.NewUnlimitedSet(), nil
		}
		c := redis.NewClient(&redis.Options{
			Addr:     a.Config.Redis.Addr,
			Password: a.Config.Redis.Password,
		})
		a.closers = append(a.closers, c.Close)
		if err := c.Ping(ctx).Err(); err != nil {
			return nil, fmt.Errorf("ping redis: %w", err)
		}
		client = c
	}
	return ratelimit.NewSet(client, a.Config.Redis.Prefix, a.Config.RateLimits)
}

// Close releases database and redis connections.
func (a *App) Close() {
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i](); err != nil {
			slog.Warn("close failed", "err", err)
		}
	}
	a.closers = nil
}
