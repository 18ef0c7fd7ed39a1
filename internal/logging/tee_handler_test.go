package logging

import (
	"bytes"
	"context"
	"errors"
	"io"
	"log/slog"
	"strings"
	"testing"
	"time"
)

func TestTeeHandlerCollapses(t *testing.T) {
	if _, ok := TeeHandler(nil, nil).(NoopHandler); !ok {
		t.Fatal("expected NoopHandler when every handler is nil")
	}
	var buf bytes.Buffer
	inner := slog.NewJSONHandler(&buf, nil)
	if TeeHandler(nil, inner) != inner {
		t.Fatal("expected single handler to be returned unwrapped")
	}
}

func TestTeeHandlerRespectsPerHandlerLevel(t *testing.T) {
	var infoBuf, debugBuf bytes.Buffer
	infoHandler := slog.NewJSONHandler(&infoBuf, &slog.HandlerOptions{Level: slog.LevelInfo})
	debugHandler := slog.NewJSONHandler(&debugBuf, &slog.HandlerOptions{Level: slog.LevelDebug})

	logger := slog.New(TeeHandler(infoHandler, debugHandler)).With(slog.String("run_id", "r1"))
	logger.Debug("debug only")
	if infoBuf.Len() != 0 {
		t.Fatal("info handler should not receive debug records")
	}
	if !bytes.Contains(debugBuf.Bytes(), []byte(`"run_id":"r1"`)) {
		t.Fatalf("expected attrs on debug handler, got %s", debugBuf.String())
	}

	logger.Info("both")
	if !bytes.Contains(infoBuf.Bytes(), []byte(`"both"`)) {
		t.Fatalf("expected info record, got %s", infoBuf.String())
	}
}

type failingHandler struct{ slog.Handler }

func (failingHandler) Handle(context.Context, slog.Record) error { return errors.New("disk full") }

func TestTeeHandlerKeepsWritingAfterSinkError(t *testing.T) {
	var buf bytes.Buffer
	good := slog.NewJSONHandler(&buf, nil)
	bad := failingHandler{Handler: slog.NewJSONHandler(io.Discard, nil)}

	err := TeeHandler(bad, good).Handle(context.Background(), slog.NewRecord(time.Now(), slog.LevelInfo, "still written", 0))
	if err == nil || !strings.Contains(err.Error(), "disk full") {
		t.Fatalf("expected sink error, got %v", err)
	}
	if !bytes.Contains(buf.Bytes(), []byte("still written")) {
		t.Fatalf("second sink should receive the record, got %q", buf.String())
	}
}
