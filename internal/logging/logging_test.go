package logging

import (
	"bytes"
	"strings"
	"testing"

	"github.com/rs/zerolog"
)

func TestParseLevel(t *testing.T) {
	if ParseLevel("WARNING") != zerolog.WarnLevel {
		t.Fatalf("expected warn")
	}
	if ParseLevel("nonsense") != zerolog.InfoLevel {
		t.Fatalf("expected info fallback")
	}
}

func TestNew_WritesServiceField(t *testing.T) {
	var buf bytes.Buffer
	log := New(&buf, "debug", "painter")
	log.Debug().Msg("hello")
	if !strings.Contains(buf.String(), `"service":"painter"`) {
		t.Fatalf("expected service field, got %s", buf.String())
	}
}
