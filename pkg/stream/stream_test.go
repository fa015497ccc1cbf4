package stream_test

import (
	"context"
	"errors"
	"io"
	"strings"
	"testing"
	"testing/iotest"
	"unicode/utf8"

	"github.com/JaimeStill/patentbot/pkg/stream"
)

func TestDrain(t *testing.T) {
	tests := []struct {
		name      string
		input     string
		chunkSize int
	}{
		{"empty", "", 4},
		{"ascii", "Claim 1 is amended to recite a fastener.", 8},
		{"multibyte split", "§ 103 rejection — «Smith» ✓ 日本語", 3},
		{"single byte reads", "é€𝄞", 1},
		{"default size", strings.Repeat("response ", 500), 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var pieces []string
			got, err := stream.Drain(context.Background(), strings.NewReader(tt.input), tt.chunkSize, func(s string) error {
				pieces = append(pieces, s)
				return nil
			})
			if err != nil {
				t.Fatalf("drain: %v", err)
			}
			if got != tt.input {
				t.Errorf("accumulated text mismatch:\n got %q\nwant %q", got, tt.input)
			}
			if strings.Join(pieces, "") != tt.input {
				t.Error("pieces do not concatenate to the input")
			}
			for i, p := range pieces {
				if !utf8.ValidString(p) {
					t.Errorf("piece %d is not valid UTF-8: %q", i, p)
				}
			}
		})
	}
}

func TestDrainOneByteReader(t *testing.T) {
	input := "Ω claims ✓"
	got, err := stream.Drain(context.Background(), iotest.OneByteReader(strings.NewReader(input)), 16, nil)
	if err != nil {
		t.Fatalf("drain: %v", err)
	}
	if got != input {
		t.Errorf("got %q, want %q", got, input)
	}
}

func TestDrainErrors(t *testing.T) {
	t.Run("read error keeps partial text", func(t *testing.T) {
		boom := errors.New("connection reset")
		r := io.MultiReader(strings.NewReader("partial"), iotest.ErrReader(boom))

		got, err := stream.Drain(context.Background(), r, 4, nil)
		if !errors.Is(err, boom) {
			t.Fatalf("err = %v, want %v", err, boom)
		}
		if got != "partial" {
			t.Errorf("partial text = %q", got)
		}
	})

	t.Run("callback error stops", func(t *testing.T) {
		stop := errors.New("client gone")
		calls := 0
		_, err := stream.Drain(context.Background(), strings.NewReader("abcdefgh"), 2, func(string) error {
			calls++
			return stop
		})
		if !errors.Is(err, stop) {
			t.Fatalf("err = %v, want %v", err, stop)
		}
		if calls != 1 {
			t.Errorf("callback calls = %d, want 1", calls)
		}
	})

	t.Run("cancelled context", func(t *testing.T) {
		ctx, cancel := context.WithCancel(context.Background())
		cancel()

		_, err := stream.Drain(ctx, strings.NewReader("never read"), 4, nil)
		if !errors.Is(err, context.Canceled) {
			t.Fatalf("err = %v, want context.Canceled", err)
		}
	})
}
