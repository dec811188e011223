package store

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/gogpu/boardview/board"
)

func openTemp(t *testing.T) *Store {
	t.Helper()
	s, err := Open(filepath.Join(t.TempDir(), "nested", "boards.db"))
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func sampleDoc() board.Document {
	return board.Document{
		Board: board.BoardConfig{Width: 80, Height: 50, Thickness: 1.6},
		Components: []board.Component{
			{ID: "p1", Type: board.KindRect, Layer: board.LayerTop, Pos: []float64{10, 0, 5}, Size: []float64{2, 1}},
			{ID: "t1", Type: board.KindTrace, Points: [][]float64{{0, 0}, {10, 0}}, Width: 0.4,
				Extra: map[string]any{"net": "GND"}},
		},
	}
}

func TestPutGet(t *testing.T) {
	s := openTemp(t)
	ctx := context.Background()
	doc := sampleDoc()
	if err := s.Put(ctx, "rev-a", doc); err != nil {
		t.Fatalf("Put: %v", err)
	}
	got, err := s.Get(ctx, "rev-a")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if diff := cmp.Diff(doc, got); diff != "" {
		t.Errorf("round trip mismatch (-want +got):\n%s", diff)
	}
}

func TestPutReplaces(t *testing.T) {
	s := openTemp(t)
	ctx := context.Background()
	doc := sampleDoc()
	if err := s.Put(ctx, "rev-a", doc); err != nil {
		t.Fatal(err)
	}
	doc.Components = doc.Components[:1]
	if err := s.Put(ctx, "rev-a", doc); err != nil {
		t.Fatal(err)
	}
	list, err := s.List(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if len(list) != 1 || list[0].Components != 1 {
		t.Errorf("list = %+v, want one entry with 1 component", list)
	}
}

func TestListOrderAndDelete(t *testing.T) {
	s := openTemp(t)
	ctx := context.Background()
	for _, name := range []string{"zeta", "alpha", "mid"} {
		if err := s.Put(ctx, name, sampleDoc()); err != nil {
			t.Fatal(err)
		}
	}
	if err := s.Delete(ctx, "mid"); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	list, err := s.List(ctx)
	if err != nil {
		t.Fatal(err)
	}
	var names []string
	for _, e := range list {
		names = append(names, e.Name)
	}
	if diff := cmp.Diff([]string{"alpha", "zeta"}, names); diff != "" {
		t.Errorf("names (-want +got):\n%s", diff)
	}
}

func TestErrors(t *testing.T) {
	s := openTemp(t)
	ctx := context.Background()
	tests := []struct {
		name string
		err  error
		want error
	}{
		{"get missing", func() error { _, err := s.Get(ctx, "nope"); return err }(), ErrNotFound},
		{"delete missing", s.Delete(ctx, "nope"), ErrNotFound},
		{"empty name", s.Put(ctx, "", sampleDoc()), ErrEmptyName},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if !errors.Is(tt.err, tt.want) {
				t.Errorf("err = %v, want %v", tt.err, tt.want)
			}
		})
	}
}

func TestReopenKeepsData(t *testing.T) {
	path := filepath.Join(t.TempDir(), "boards.db")
	ctx := context.Background()
	s, err := Open(path)
	if err != nil {
		t.Fatal(err)
	}
	if err := s.Put(ctx, "keep", sampleDoc()); err != nil {
		t.Fatal(err)
	}
	if err := s.Close(); err != nil {
		t.Fatal(err)
	}
	s, err = Open(path)
	if err != nil {
		t.Fatal(err)
	}
	defer s.Close()
	if _, err := s.Get(ctx, "keep"); err != nil {
		t.Errorf("Get after reopen: %v", err)
	}
}
