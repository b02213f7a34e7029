// Package bootstrap wires adapters from configuration for the commands.
package bootstrap

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
	"github.com/user/news-harvester/internal/adapter/chromedp_session"
	"github.com/user/news-harvester/internal/adapter/http_session"
	"github.com/user/news-harvester/internal/adapter/postgres"
	"github.com/user/news-harvester/internal/repository"
	"github.com/user/news-harvester/pkg/config"
	"github.com/user/news-harvester/pkg/proxy"
	"go.uber.org/zap"
)

// FetchSession opens the session selected by FETCH_MODE. The returned
// function releases it.
func FetchSession(cfg *config.Config, logger *zap.Logger) (repository.FetchSession, func() error, error) {
	pm := proxy.NewManager(cfg.Proxies)

	switch cfg.FetchMode {
	case config.FetchModeHTTP:
		logger.Info("using static http fetch session")
		s := http_session.New(http_session.Options{
			PageLoadTimeout: cfg.PageLoadTimeout(),
			SettleDelay:     cfg.SettleDelay(),
			AcceptLanguage:  cfg.AcceptLanguage,
		}, pm)
		return s, s.Close, nil
	default:
		logger.Info("using headless browser fetch session", zap.Bool("headless", cfg.Headless))
		browser, err := chromedp_session.NewBrowser(chromedp_session.Options{
			Headless:        cfg.Headless,
			PageLoadTimeout: cfg.PageLoadTimeout(),
			SettleDelay:     cfg.SettleDelay(),
			AcceptLanguage:  cfg.AcceptLanguage,
		}, pm, logger)
		if err != nil {
			return nil, nil, err
		}
		return browser.Session(), browser.Close, nil
	}
}

// Postgres connects to POSTGRES_URL and applies the schema.
func Postgres(ctx context.Context, cfg *config.Config) (*pgxpool.Pool, error) {
	db, err := pgxpool.New(ctx, cfg.PostgresURL)
	if err != nil {
		return nil, fmt.Errorf("unable to connect to database: %w", err)
	}
	if err := db.Ping(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("unable to reach database: %w", err)
	}
	if err := postgres.Migrate(ctx, db); err != nil {
		db.Close()
		return nil, err
	}
	return db, nil
}

// Redis connects to REDIS_ADDR.
func Redis(ctx context.Context, cfg *config.Config) (*redis.Client, error) {
	rdb := redis.NewClient(&redis.Options{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
		DB:       cfg.RedisDB,
	})
	if err := rdb.Ping(ctx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("unable to connect to redis: %w", err)
	}
	return rdb, nil
}
