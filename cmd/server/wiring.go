package main

import (
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/nextlevelbuilder/temporal-agent-mcp/internal/config"
	"github.com/nextlevelbuilder/temporal-agent-mcp/internal/dispatch"
	"github.com/nextlevelbuilder/temporal-agent-mcp/internal/safety"
	"github.com/nextlevelbuilder/temporal-agent-mcp/internal/store"
	"github.com/nextlevelbuilder/temporal-agent-mcp/internal/store/pg"
	"github.com/nextlevelbuilder/temporal-agent-mcp/internal/tools"
)

// buildRepo opens the Postgres pool and wraps it as a store.Repository.
func buildRepo(cfg *config.Config) (store.Repository, *sqlx.DB, error) {
	db, err := pg.OpenDB(cfg.DatabaseURL, cfg.DBPoolSize)
	if err != nil {
		return nil, nil, fmt.Errorf("open store: %w", err)
	}
	return pg.New(db), db, nil
}

// urlValidationConfig builds the SSRF gauntlet's config from cfg.
func urlValidationConfig(cfg *config.Config) safety.URLValidationConfig {
	return safety.URLValidationConfig{
		Production:     cfg.IsProduction(),
		AllowedDomains: cfg.AllowedWebhookDomains,
	}
}

// buildDispatchRegistry wires the four callback dispatchers sharing one
// HMAC signer and URL validation config.
func buildDispatchRegistry(cfg *config.Config, repo store.Repository) *dispatch.Registry {
	signer := safety.NewSigner(cfg.HMACSecret)
	urlCfg := urlValidationConfig(cfg)

	return &dispatch.Registry{
		Webhook: &dispatch.WebhookDispatcher{Signer: signer, URLCfg: urlCfg, Timeout: cfg.WebhookTimeout},
		Chat:    &dispatch.ChatDispatcher{Signer: signer, URLCfg: urlCfg, Timeout: cfg.WebhookTimeout},
		Email: &dispatch.EmailDispatcher{
			Host:     cfg.SMTPHost,
			Port:     cfg.SMTPPort,
			Username: cfg.SMTPUsername,
			Password: cfg.SMTPPassword,
			From:     cfg.SMTPFrom,
			Timeout:  cfg.WebhookTimeout,
		},
		Store: &dispatch.StoreDispatcher{Repo: repo},
	}
}

// buildToolRegistry wires the seven-operation tool surface against repo.
func buildToolRegistry(cfg *config.Config, repo store.Repository) *tools.Registry {
	deps := &tools.Deps{
		Repo:              repo,
		MaxActiveTasks:    cfg.MaxActiveTasks,
		MaxPayloadBytes:   cfg.MaxPayloadSize,
		WebhookMaxRetries: cfg.WebhookMaxRetries,
		RetryDelaySeconds: 0,
		URLCfg:            urlValidationConfig(cfg),
	}
	return tools.NewRegistry(deps)
}
