package ingest

import (
	"fmt"
	"io"
	"mime/multipart"
	"path/filepath"
	"strings"
)

// DefaultMaxBytes is the upload limit when none is configured
const DefaultMaxBytes int64 = 10 << 20

var supportedExtensions = []string{".csv", ".xls", ".xlsx", ".pdf", ".txt"}

var supportedMIMETypes = []string{
	"text/csv",
	"application/vnd.ms-excel",
	"application/vnd.openxmlformats-officedocument.spreadsheetml.sheet",
	"application/pdf",
	"text/plain",
}

// Upload is a received file before validation
type Upload struct {
	Name     string
	Size     int64
	MIMEType string
	Open     func() (io.ReadCloser, error)
}

// FromMultipart wraps a multipart file header
func FromMultipart(fh *multipart.FileHeader) *Upload {
	if fh == nil {
		return nil
	}
	return &Upload{
		Name:     fh.Filename,
		Size:     fh.Size,
		MIMEType: fh.Header.Get("Content-Type"),
		Open: func() (io.ReadCloser, error) {
			return fh.Open()
		},
	}
}

// validate checks size, then extension, then emptiness.
// It returns true when the MIME type is not one of the known ones.
func (u *Upload) validate(maxBytes int64) (bool, error) {
	if maxBytes <= 0 {
		maxBytes = DefaultMaxBytes
	}

	if u.Size > maxBytes {
		return false, &FileError{
			Code: CodeFileTooLarge,
			Message: fmt.Sprintf("File size exceeds the maximum limit of %gMB. Your file is %.2fMB.",
				toMB(maxBytes), toMB(u.Size)),
			Details: map[string]interface{}{
				"fileSize":   u.Size,
				"maxSize":    maxBytes,
				"fileSizeMB": fmt.Sprintf("%.2f", toMB(u.Size)),
				"maxSizeMB":  toMB(maxBytes),
			},
		}
	}

	ext := strings.ToLower(filepath.Ext(u.Name))
	if !contains(supportedExtensions, ext) {
		return false, &FileError{
			Code: CodeUnsupportedFormat,
			Message: fmt.Sprintf("File format '%s' is not supported. Supported formats are: %s.",
				ext, strings.Join(supportedExtensions, ", ")),
			Details: map[string]interface{}{
				"fileName":            u.Name,
				"fileExtension":       ext,
				"supportedExtensions": supportedExtensions,
				"supportedFormats":    "CSV, Excel (.xls, .xlsx), PDF, and plain text files",
			},
		}
	}

	if u.Size == 0 {
		return false, &FileError{
			Code:    CodeEmptyFile,
			Message: "The uploaded file is empty. Please upload a file with transaction data.",
			Details: map[string]interface{}{
				"fileName": u.Name,
				"fileSize": u.Size,
			},
		}
	}

	mimeType := strings.TrimSpace(strings.Split(u.MIMEType, ";")[0])
	return mimeType != "" && !contains(supportedMIMETypes, mimeType), nil
}

// read loads the whole file, bounded by the validated size
func (u *Upload) read() ([]byte, error) {
	readErr := func(err error) error {
		return &FileError{
			Code:    CodeFileReadError,
			Message: "Failed to read the uploaded file. The file may be corrupted or inaccessible.",
			Details: map[string]interface{}{
				"fileName": u.Name,
				"fileSize": u.Size,
				"error":    err.Error(),
			},
		}
	}

	f, err := u.Open()
	if err != nil {
		return nil, readErr(err)
	}
	defer f.Close()

	data, err := io.ReadAll(io.LimitReader(f, u.Size+1))
	if err != nil {
		return nil, readErr(err)
	}
	return data, nil
}

func contains(list []string, v string) bool {
	for _, s := range list {
		if s == v {
			return true
		}
	}
	return false
}

func toMB(n int64) float64 {
	return float64(n) / (1024 * 1024)
}
