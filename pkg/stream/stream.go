// Package stream reads incrementally produced text bodies in fixed-size
// chunks, delivering each decoded piece as it arrives.
package stream

import (
	"context"
	"errors"
	"io"
	"strings"
	"unicode/utf8"
)

// DefaultChunkSize matches the read size used by the claim-response service clients.
const DefaultChunkSize = 1024

// Drain reads r to EOF in chunks of chunkSize bytes, passing each decoded
// piece to onChunk and returning the concatenated text. Multi-byte UTF-8
// sequences split across reads are held back until complete, so every piece
// is valid text. A non-nil error from onChunk stops the read.
func Drain(ctx context.Context, r io.Reader, chunkSize int, onChunk func(string) error) (string, error) {
	if chunkSize <= 0 {
		chunkSize = DefaultChunkSize
	}

	var (
		acc     strings.Builder
		pending []byte
		buf     = make([]byte, chunkSize)
	)

	emit := func(b []byte) error {
		if len(b) == 0 {
			return nil
		}
		piece := string(b)
		acc.WriteString(piece)
		if onChunk != nil {
			return onChunk(piece)
		}
		return nil
	}

	for {
		if err := ctx.Err(); err != nil {
			return acc.String(), err
		}

		n, readErr := r.Read(buf)
		if n > 0 {
			pending = append(pending, buf[:n]...)
			cut := completePrefix(pending)
			if err := emit(pending[:cut]); err != nil {
				return acc.String(), err
			}
			pending = append(pending[:0], pending[cut:]...)
		}

		if readErr != nil {
			if errors.Is(readErr, io.EOF) {
				// a truncated trailing sequence is emitted as-is
				if err := emit(pending); err != nil {
					return acc.String(), err
				}
				return acc.String(), nil
			}
			return acc.String(), readErr
		}
	}
}

// completePrefix returns the length of the longest prefix of b that does not
// end in the middle of a UTF-8 sequence.
func completePrefix(b []byte) int {
	// a rune is at most utf8.UTFMax bytes, so only the tail needs inspection
	for i := len(b) - 1; i >= 0 && i >= len(b)-utf8.UTFMax; i-- {
		if !utf8.RuneStart(b[i]) {
			continue
		}
		if utf8.FullRune(b[i:]) {
			return len(b)
		}
		return i
	}
	return len(b)
}
