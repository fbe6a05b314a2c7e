package handlers

import (
	"errors"
	"net/http"

	"github.com/artpro/wealthtrack/pkg/database"
	"github.com/artpro/wealthtrack/pkg/ingest"
	"github.com/artpro/wealthtrack/pkg/ingest/exchanges"
	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
)

// ImportHandler parses broker statements and exchange exports
type ImportHandler struct {
	portfolios *database.PortfolioRepository
	parser     *ingest.Parser
	maxBytes   int64
	logger     zerolog.Logger
}

// NewImportHandler creates a new import handler
func NewImportHandler(portfolios *database.PortfolioRepository, parser *ingest.Parser, maxBytes int64, logger zerolog.Logger) *ImportHandler {
	if maxBytes <= 0 {
		maxBytes = ingest.DefaultMaxBytes
	}
	return &ImportHandler{
		portfolios: portfolios,
		parser:     parser,
		maxBytes:   maxBytes,
		logger:     logger,
	}
}

// ParseBrokerFile extracts transactions from an uploaded statement without saving them
func (h *ImportHandler) ParseBrokerFile(c *gin.Context) {
	if _, ok := ownedPortfolio(c, h.portfolios, h.logger); !ok {
		return
	}

	var upload *ingest.Upload
	if fh, err := c.FormFile("file"); err == nil {
		upload = ingest.FromMultipart(fh)
	}

	result, err := h.parser.Parse(c.Request.Context(), upload)
	if err != nil {
		status, body := ingest.Describe(err)
		if status >= http.StatusInternalServerError {
			h.logger.Error().Err(err).Msg("Broker file parsing failed")
		}
		c.JSON(status, body)
		return
	}
	c.JSON(http.StatusOK, result)
}

// ListExchanges returns the supported exchange export formats
func (h *ImportHandler) ListExchanges(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"exchanges": exchanges.All()})
}

// ImportExchange normalizes an exchange export; the rows are returned, not saved
func (h *ImportHandler) ImportExchange(c *gin.Context) {
	if _, ok := ownedPortfolio(c, h.portfolios, h.logger); !ok {
		return
	}

	fh, err := c.FormFile("file")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "No file was uploaded. Please select a file to upload."})
		return
	}
	if fh.Size > h.maxBytes {
		c.JSON(http.StatusRequestEntityTooLarge, gin.H{"error": "File size exceeds the maximum limit."})
		return
	}

	f, err := fh.Open()
	if err != nil {
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": "Failed to read the uploaded file."})
		return
	}
	defer f.Close()

	rows, err := exchanges.ReadRows(fh.Filename, f)
	if errors.Is(err, exchanges.ErrUnsupportedSheet) {
		c.JSON(http.StatusUnsupportedMediaType, gin.H{"error": err.Error()})
		return
	}
	if err != nil {
		h.logger.Warn().Err(err).Str("file", fh.Filename).Msg("Failed to read exchange export")
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": "Failed to read the uploaded file."})
		return
	}

	txs := exchanges.MapTransactions(c.Param("exchange"), rows)
	h.logger.Info().Str("exchange", c.Param("exchange")).Int("count", len(txs)).Msg("Exchange export mapped")
	c.JSON(http.StatusOK, gin.H{"transactions": txs})
}
