package backend

import (
	"bytes"
	"fmt"
	"mime/multipart"
	"net/textproto"
	"strings"
)

// Multipart field names accepted by the text extraction step.
const (
	FieldPatentApplication = "patent_application_file"
	FieldOfficeAction      = "office_action_file"
	FieldRecentClaims      = "recent_claims_file"
)

// PriorArtField returns the field name for the n-th prior-art file, counting from 1.
func PriorArtField(n int) string {
	return fmt.Sprintf("prior_art_file_%d", n)
}

// Upload is one file sent to text extraction.
type Upload struct {
	Field       string
	Filename    string
	ContentType string
	Data        []byte
}

var quoteEscaper = strings.NewReplacer("\\", "\\\\", `"`, "\\\"")

func encodeMultipart(uploads []Upload) ([]byte, string, error) {
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)

	for _, u := range uploads {
		h := make(textproto.MIMEHeader)
		h.Set("Content-Disposition", fmt.Sprintf(
			`form-data; name="%s"; filename="%s"`,
			quoteEscaper.Replace(u.Field),
			quoteEscaper.Replace(u.Filename),
		))
		contentType := u.ContentType
		if contentType == "" {
			contentType = "application/octet-stream"
		}
		h.Set("Content-Type", contentType)

		part, err := w.CreatePart(h)
		if err != nil {
			return nil, "", fmt.Errorf("create part %s: %w", u.Field, err)
		}
		if _, err := part.Write(u.Data); err != nil {
			return nil, "", fmt.Errorf("write part %s: %w", u.Field, err)
		}
	}

	if err := w.Close(); err != nil {
		return nil, "", err
	}
	return buf.Bytes(), w.FormDataContentType(), nil
}
