package api

import (
	"context"

	"github.com/artpro/wealthtrack/pkg/cache"
	"github.com/artpro/wealthtrack/pkg/config"
	"github.com/artpro/wealthtrack/pkg/ingest"
	"github.com/artpro/wealthtrack/pkg/marketdata"
	"github.com/artpro/wealthtrack/pkg/services"
	"github.com/rs/zerolog"
)

// NewServices wires market data, statement parsing and mail from the configuration.
// The mailer is left nil when SendGrid is not configured.
func NewServices(ctx context.Context, cfg *config.Config, c *cache.Cache, logger zerolog.Logger) (Services, error) {
	llm, err := ingest.NewLLM(ctx, cfg, logger)
	if err != nil {
		return Services{}, err
	}

	svc := Services{
		Market: marketdata.NewTwelveData(cfg, c, logger),
		Parser: ingest.NewParser(ingest.NewTika(cfg.TikaURL, nil, logger), llm, cfg.MaxUploadBytes, logger),
	}

	if mailer := services.NewMailer(cfg, logger); mailer.Enabled() {
		svc.Mailer = mailer
	} else {
		logger.Info().Msg("SendGrid not configured, welcome emails disabled")
	}
	return svc, nil
}
