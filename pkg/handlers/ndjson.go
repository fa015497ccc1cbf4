package handlers

import (
	"encoding/json"
	"net/http"
	"strings"
)

// ContentTypeNDJSON is the media type for newline-delimited JSON streams.
const ContentTypeNDJSON = "application/x-ndjson"

// WantsNDJSON reports whether the client asked for a newline-delimited JSON stream.
func WantsNDJSON(r *http.Request) bool {
	return strings.Contains(r.Header.Get("Accept"), ContentTypeNDJSON)
}

// NDJSONWriter writes one JSON value per line, flushing after each.
type NDJSONWriter struct {
	enc *json.Encoder
	rc  *http.ResponseController
}

// NewNDJSONWriter sets streaming headers, writes status, and returns a writer.
// The ResponseWriter (or a wrapper exposing Unwrap) must support flushing
// for lines to reach the client before the handler returns.
func NewNDJSONWriter(w http.ResponseWriter, status int) *NDJSONWriter {
	w.Header().Set("Content-Type", ContentTypeNDJSON)
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("X-Accel-Buffering", "no")
	w.WriteHeader(status)

	return &NDJSONWriter{
		enc: json.NewEncoder(w),
		rc:  http.NewResponseController(w),
	}
}

// Write encodes v as a single line and flushes it to the client.
func (n *NDJSONWriter) Write(v any) error {
	if err := n.enc.Encode(v); err != nil {
		return err
	}
	// flushing is best effort; recorders in tests do not always support it
	n.rc.Flush()
	return nil
}
