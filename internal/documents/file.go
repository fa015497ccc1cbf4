package documents

import (
	"bytes"
	"fmt"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"strings"

	"github.com/pdfcpu/pdfcpu/pkg/api"
)

// ReadFile reads a multipart upload into a File, detecting the content type
// and counting pages when the file is a PDF.
func ReadFile(logger *slog.Logger, role Role, position int, fh *multipart.FileHeader) (File, error) {
	if !role.Valid() {
		return File{}, fmt.Errorf("%w: %s", ErrInvalidRole, role)
	}

	f, err := fh.Open()
	if err != nil {
		return File{}, fmt.Errorf("%w: %s: %v", ErrInvalidFile, fh.Filename, err)
	}
	defer f.Close()

	data, err := io.ReadAll(f)
	if err != nil {
		return File{}, fmt.Errorf("%w: %s: %v", ErrInvalidFile, fh.Filename, err)
	}
	if len(data) == 0 {
		return File{}, fmt.Errorf("%w: %s is empty", ErrInvalidFile, fh.Filename)
	}

	contentType := detectContentType(fh.Header.Get("Content-Type"), data)

	return File{
		Role:        role,
		Position:    position,
		Filename:    fh.Filename,
		ContentType: contentType,
		Data:        data,
		PageCount:   extractPDFPageCount(logger, data, contentType),
	}, nil
}

func detectContentType(header string, data []byte) string {
	header = strings.TrimSpace(header)
	if header != "" && header != "application/octet-stream" {
		return header
	}
	return http.DetectContentType(data)
}

func extractPDFPageCount(logger *slog.Logger, data []byte, contentType string) *int {
	if contentType != "application/pdf" {
		return nil
	}

	count, err := api.PageCount(bytes.NewReader(data), nil)
	if err != nil {
		logger.Warn("failed to extract PDF page count", "error", err)
		return nil
	}

	return &count
}
