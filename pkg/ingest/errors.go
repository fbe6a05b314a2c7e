package ingest

import (
	"errors"
	"fmt"
	"net/http"
)

// Error types reported to clients
const (
	TypeValidation = "validation_error"
	TypeService    = "service_error"
	TypeProcessing = "processing_error"
	TypeServer     = "server_error"
)

// Error codes
const (
	CodeNoFile                 = "NO_FILE_UPLOADED"
	CodeFileTooLarge           = "FILE_TOO_LARGE"
	CodeUnsupportedFormat      = "UNSUPPORTED_FORMAT"
	CodeEmptyFile              = "EMPTY_FILE"
	CodeFileReadError          = "FILE_READ_ERROR"
	CodeUnsupportedFileContent = "UNSUPPORTED_FILE_CONTENT"
	CodeNoExtractableContent   = "NO_EXTRACTABLE_CONTENT"
	CodeServiceUnavailable     = "SERVICE_UNAVAILABLE"
	CodeParsingError           = "PARSING_ERROR"
	CodeInternalError          = "INTERNAL_ERROR"
)

var (
	// ErrServiceUnavailable means the extraction server could not be reached or failed
	ErrServiceUnavailable = errors.New("file processing service is temporarily unavailable, please try again later")
	// ErrInvalidLLMOutput means the model reply was not valid JSON or did not match the schema
	ErrInvalidLLMOutput = errors.New("LLM returned invalid or malformed JSON")
)

// FileError is a validation failure of an uploaded file
type FileError struct {
	Code    string
	Message string
	Details map[string]interface{}
}

func (e *FileError) Error() string {
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Status returns the HTTP status for the error code
func (e *FileError) Status() int {
	switch e.Code {
	case CodeFileTooLarge:
		return http.StatusRequestEntityTooLarge
	case CodeUnsupportedFormat, CodeUnsupportedFileContent:
		return http.StatusUnsupportedMediaType
	case CodeFileReadError:
		return http.StatusUnprocessableEntity
	default:
		return http.StatusBadRequest
	}
}

// ErrorBody is the JSON error payload of the parse endpoint
type ErrorBody struct {
	Error   string                 `json:"error"`
	Code    string                 `json:"code"`
	Details map[string]interface{} `json:"details,omitempty"`
	Type    string                 `json:"type"`
}

// Describe maps any ingestion error to an HTTP status and response body
func Describe(err error) (int, ErrorBody) {
	var fe *FileError
	switch {
	case errors.As(err, &fe):
		return fe.Status(), ErrorBody{
			Error:   fe.Message,
			Code:    fe.Code,
			Details: fe.Details,
			Type:    TypeValidation,
		}
	case errors.Is(err, ErrServiceUnavailable):
		return http.StatusServiceUnavailable, ErrorBody{
			Error: err.Error(),
			Code:  CodeServiceUnavailable,
			Type:  TypeService,
			Details: map[string]interface{}{
				"suggestion": "Please try again later or contact support if the problem persists.",
			},
		}
	case errors.Is(err, ErrInvalidLLMOutput):
		return http.StatusUnprocessableEntity, ErrorBody{
			Error: "Failed to parse the file content. The file format may not be supported or the content may be unclear.",
			Code:  CodeParsingError,
			Type:  TypeProcessing,
			Details: map[string]interface{}{
				"originalError": err.Error(),
				"suggestion":    "Please ensure the file contains clear transaction data in a supported format.",
			},
		}
	default:
		return http.StatusInternalServerError, ErrorBody{
			Error: "An unexpected error occurred while processing your file.",
			Code:  CodeInternalError,
			Type:  TypeServer,
			Details: map[string]interface{}{
				"message":    err.Error(),
				"suggestion": "Please try again or contact support if the problem persists.",
			},
		}
	}
}
