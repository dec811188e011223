package boardview

import (
	"bytes"
	"context"
	"log/slog"
	"strings"
	"testing"

	"github.com/gogpu/boardview/board"
)

func TestNopHandler(t *testing.T) {
	h := nopHandler{}
	for _, level := range []slog.Level{slog.LevelDebug, slog.LevelInfo, slog.LevelWarn, slog.LevelError} {
		if h.Enabled(context.Background(), level) {
			t.Errorf("nopHandler.Enabled(%v) = true, want false", level)
		}
	}
	if err := h.Handle(context.Background(), slog.Record{}); err != nil {
		t.Errorf("nopHandler.Handle() = %v, want nil", err)
	}
	if _, ok := h.WithAttrs(nil).(nopHandler); !ok {
		t.Error("WithAttrs did not return nopHandler")
	}
	if _, ok := h.WithGroup("g").(nopHandler); !ok {
		t.Error("WithGroup did not return nopHandler")
	}
}

func TestSetLoggerNilRestoresSilence(t *testing.T) {
	orig := Logger()
	t.Cleanup(func() { SetLogger(orig) })

	var buf bytes.Buffer
	SetLogger(slog.New(slog.NewTextHandler(&buf, nil)))
	Logger().Info("hello")
	if !strings.Contains(buf.String(), "hello") {
		t.Errorf("custom logger not installed: %q", buf.String())
	}
	SetLogger(nil)
	if Logger().Enabled(context.Background(), slog.LevelError) {
		t.Error("SetLogger(nil) should restore the silent logger")
	}
}

func TestSkippedRecordsAreLogged(t *testing.T) {
	var buf bytes.Buffer
	l := slog.New(slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelWarn}))
	e := NewEngine(WithLogger(l))
	defer e.Close()
	doc := testDoc()
	doc.Components = append(doc.Components, board.Component{ID: "v1", Type: "via"})
	if err := e.Load(doc); err != nil {
		t.Fatal(err)
	}
	if err := e.Tick(); err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(buf.String(), "v1") {
		t.Errorf("warning for skipped record missing: %q", buf.String())
	}
}

type capture struct{ l *slog.Logger }

func (c *capture) SetLogger(l *slog.Logger) { c.l = l }

func TestPropagateLogger(t *testing.T) {
	c := &capture{}
	l := slog.New(slog.DiscardHandler)
	propagateLogger(c, l)
	if c.l != l {
		t.Error("logger not propagated to setter")
	}
	propagateLogger(struct{}{}, l) // no setter: no-op
}
