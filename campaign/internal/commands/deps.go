package commands

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/telhawk-systems/campaign-stack/campaign/internal/channel"
	"github.com/telhawk-systems/campaign-stack/campaign/internal/config"
	"github.com/telhawk-systems/campaign-stack/campaign/internal/contact"
	"github.com/telhawk-systems/campaign-stack/campaign/internal/ipaddress"
	"github.com/telhawk-systems/campaign-stack/campaign/internal/repository"
	"github.com/telhawk-systems/campaign-stack/campaign/internal/service"
	"github.com/telhawk-systems/campaign-stack/common/logging"
	natsclient "github.com/telhawk-systems/campaign-stack/common/messaging/nats"
)

// newRedisClient connects to Redis, or returns nil when Redis is disabled.
func newRedisClient(ctx context.Context, cfg config.RedisConfig) (*redis.Client, error) {
	if !cfg.Enabled {
		return nil, nil
	}

	opt, err := redis.ParseURL(cfg.URL)
	if err != nil {
		return nil, fmt.Errorf("invalid redis URL: %w", err)
	}
	opt.MaxRetries = cfg.MaxRetries
	opt.PoolSize = cfg.PoolSize

	client := redis.NewClient(opt)

	// Test connection
	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	if err := client.Ping(pingCtx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("redis connection failed: %w", err)
	}
	return client, nil
}

// newNATSClient connects to NATS, or returns nil when NATS is disabled.
func newNATSClient(cfg config.NATSConfig, logger *logging.Logger) (*natsclient.Client, error) {
	if !cfg.Enabled {
		return nil, nil
	}

	natsCfg := natsclient.DefaultConfig()
	natsCfg.URL = cfg.URL
	natsCfg.Name = "campaign"
	natsCfg.MaxReconnects = cfg.MaxReconnects
	natsCfg.ReconnectWait = cfg.ReconnectWait
	natsCfg.Logger = logger.Logger

	return natsclient.NewClient(natsCfg)
}

// newService wires the execution service over repo.
func newService(cfg *config.Config, repo repository.Repository, tracker *contact.Tracker, notifier service.Notifier, logger *logging.Logger) *service.Service {
	return service.NewService(service.Config{
		Repository: repo,
		IPResolver: ipaddress.NewResolver(cfg.EventLog.DefaultIP),
		Contacts:   tracker,
		Channels:   channel.NewExtractor(),
		Notifier:   notifier,
		Logger:     logger,
		BatchSize:  cfg.EventLog.BatchSize,
	})
}
