// Package ingest turns uploaded broker statements into transactions using a
// text extraction server and a language model.
package ingest

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"
)

// Parser runs the upload → text → LLM → schema pipeline
type Parser struct {
	extractor TextExtractor
	llm       LLM
	maxBytes  int64
	logger    zerolog.Logger
}

// NewParser creates a statement parser
func NewParser(extractor TextExtractor, llm LLM, maxBytes int64, logger zerolog.Logger) *Parser {
	return &Parser{
		extractor: extractor,
		llm:       llm,
		maxBytes:  maxBytes,
		logger:    logger.With().Str("component", "ingest").Logger(),
	}
}

// Parse validates the upload and extracts its transactions. Nothing is persisted.
func (p *Parser) Parse(ctx context.Context, upload *Upload) (*ParseResult, error) {
	if upload == nil {
		return nil, &FileError{
			Code:    CodeNoFile,
			Message: "No file was uploaded. Please select a file to upload.",
			Details: map[string]interface{}{
				"expectedType": "File object",
			},
		}
	}

	unknownMIME, err := upload.validate(p.maxBytes)
	if err != nil {
		return nil, err
	}
	if unknownMIME {
		p.logger.Warn().Str("mime", upload.MIMEType).Str("file", upload.Name).Msg("MIME type not in supported list, extension is valid")
	}

	data, err := upload.read()
	if err != nil {
		return nil, err
	}
	p.logger.Debug().Str("file", upload.Name).Int("bytes", len(data)).Msg("File validation passed")

	content, err := p.extractor.Extract(ctx, upload.Name, data)
	if err != nil {
		return nil, err
	}
	p.logger.Debug().Int("length", len(content)).Msg("File content extracted")

	reply, err := p.llm.Generate(ctx, BuildPrompt(content))
	if err != nil {
		return nil, fmt.Errorf("language model request failed: %w", err)
	}

	result, err := ParseLLMOutput(reply)
	if err != nil {
		p.logger.Error().Err(err).Str("reply", reply).Msg("LLM output rejected")
		return nil, err
	}

	p.logger.Info().Str("file", upload.Name).Int("transactions", len(result.Transactions)).Msg("Broker file parsed")
	return result, nil
}
