package ingest

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/rs/zerolog"
)

// TextExtractor turns a document into plain text
type TextExtractor interface {
	Extract(ctx context.Context, name string, data []byte) (string, error)
}

// Tika extracts text with an Apache Tika server
type Tika struct {
	baseURL string
	client  *http.Client
	logger  zerolog.Logger
}

// NewTika creates a Tika client for the server at baseURL
func NewTika(baseURL string, client *http.Client, logger zerolog.Logger) *Tika {
	if client == nil {
		client = &http.Client{Timeout: 2 * time.Minute}
	}
	return &Tika{
		baseURL: strings.TrimRight(baseURL, "/"),
		client:  client,
		logger:  logger.With().Str("component", "tika").Logger(),
	}
}

// Extract implements TextExtractor
func (t *Tika) Extract(ctx context.Context, name string, data []byte) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPut, t.baseURL+"/tika", bytes.NewReader(data))
	if err != nil {
		return "", err
	}
	req.Header.Set("Accept", "text/plain")

	resp, err := t.client.Do(req)
	if err != nil {
		t.logger.Error().Err(err).Str("file", name).Msg("Tika server unreachable")
		return "", fmt.Errorf("%w: %v", ErrServiceUnavailable, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("failed to read extracted content: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		t.logger.Error().Int("status", resp.StatusCode).Str("file", name).Str("body", string(body)).Msg("Tika server error")

		switch resp.StatusCode {
		case http.StatusUnprocessableEntity:
			return "", &FileError{
				Code:    CodeUnsupportedFileContent,
				Message: "The file content cannot be processed. The file may be corrupted, password-protected, or in an unsupported format.",
				Details: map[string]interface{}{
					"fileName":   name,
					"tikaStatus": resp.StatusCode,
					"tikaError":  string(body),
				},
			}
		case http.StatusInternalServerError:
			return "", ErrServiceUnavailable
		default:
			return "", fmt.Errorf("file processing failed with status %d, please ensure the file is valid and try again", resp.StatusCode)
		}
	}

	text := string(body)
	if strings.TrimSpace(text) == "" {
		return "", &FileError{
			Code:    CodeNoExtractableContent,
			Message: "No readable content could be extracted from the file. Please ensure the file contains transaction data and is not corrupted.",
			Details: map[string]interface{}{
				"fileName":            name,
				"extractedTextLength": len(text),
			},
		}
	}
	return text, nil
}
