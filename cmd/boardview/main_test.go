package main

import (
	"bytes"
	"context"
	"image/png"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"

	"github.com/gogpu/boardview"
	"github.com/gogpu/boardview/board"
	"github.com/gogpu/boardview/internal/shading"
)

const sampleDoc = `{
  "board": {"width": 60, "height": 40, "thickness": 1.6},
  "components": [
    {"id": "p1", "type": "smd_rect", "pos": [0, 0, 0], "size": [4, 4]},
    {"id": "p2", "type": "smd_rect", "pos": [10, 0, 0], "size": [2, 2]},
    {"id": "h1", "type": "hole", "pos": [-10, 0, 5], "radius": 0.6},
    {"id": "t1", "type": "trace", "points": [[-20, -10], [0, -10], [0, -5]], "width": 0.5, "net": "GND"},
    {"id": "v1", "type": "via", "pos": [1, 0, 1]}
  ]
}`

// topConfig renders 200x150 straight down from above the board center.
const topConfig = `
output:
  width: 200
  height: 150
camera:
  eye: [0, 80, 0]
  target: [0, 0, 0]
  fov: 45
`

func setup(t *testing.T) (dir, docPath, cfgPath string) {
	t.Helper()
	dir = t.TempDir()
	docPath = filepath.Join(dir, "board.json")
	cfgPath = filepath.Join(dir, "boardview.yaml")
	if err := os.WriteFile(docPath, []byte(sampleDoc), 0o644); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(cfgPath, []byte(topConfig), 0o644); err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { boardview.SetLogger(nil) })
	return dir, docPath, cfgPath
}

func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	cmd := newRootCmd()
	var out, errOut bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&errOut)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

func TestRender(t *testing.T) {
	dir, doc, cfg := setup(t)
	png1 := filepath.Join(dir, "out.png")
	if _, err := run(t, "-c", cfg, "render", doc, "-o", png1); err != nil {
		t.Fatal(err)
	}
	f, err := os.Open(png1)
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()
	img, err := png.Decode(f)
	if err != nil {
		t.Fatal(err)
	}
	if b := img.Bounds(); b.Dx() != 200 || b.Dy() != 150 {
		t.Errorf("png size = %v, want 200x150", b)
	}
}

func TestInspect(t *testing.T) {
	_, doc, cfg := setup(t)
	out, err := run(t, "-c", cfg, "inspect", doc)
	if err != nil {
		t.Fatal(err)
	}
	for _, want := range []string{"smd_rect/top", "2 instances", "hole/top", "ribbons", "v1", "unknown_type"} {
		if !strings.Contains(out, want) {
			t.Errorf("inspect output missing %q:\n%s", want, out)
		}
	}
}

func TestPick(t *testing.T) {
	_, doc, cfg := setup(t)
	// p1 sits at the board center, which projects to the image center.
	out, err := run(t, "-c", cfg, "pick", doc, "--x", "100", "--y", "75")
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(out, `"id":"p1"`) {
		t.Errorf("pick output = %q, want p1", out)
	}

	out, err = run(t, "-c", cfg, "pick", doc, "--x", "1", "--y", "1")
	if err != nil {
		t.Fatal(err)
	}
	if strings.TrimSpace(out) != "null" {
		t.Errorf("pick off board = %q, want null", out)
	}
}

func TestExportSTL(t *testing.T) {
	dir, doc, cfg := setup(t)
	out := filepath.Join(dir, "board.stl")
	if _, err := run(t, "-c", cfg, "export-stl", doc, "-o", out); err != nil {
		t.Fatal(err)
	}
	data, err := os.ReadFile(out)
	if err != nil {
		t.Fatal(err)
	}
	if !bytes.HasPrefix(data, []byte("solid boardview")) {
		t.Errorf("stl header = %.40q", data)
	}
}

func TestShader(t *testing.T) {
	dir, _, cfg := setup(t)
	out, err := run(t, "-c", cfg, "shader")
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(out, shading.VertexEntry) || !strings.Contains(out, shading.FragmentEntry) {
		t.Error("shader source missing entry points")
	}
	spv := filepath.Join(dir, "surface.spv")
	if _, err := run(t, "-c", cfg, "shader", "--spirv", spv); err != nil {
		t.Fatal(err)
	}
	data, err := os.ReadFile(spv)
	if err != nil {
		t.Fatal(err)
	}
	// SPIR-V magic number, little-endian
	if len(data) < 4 || !bytes.Equal(data[:4], []byte{0x03, 0x02, 0x23, 0x07}) {
		t.Errorf("spirv header = % x", data[:min(4, len(data))])
	}
}

func TestStoreCommands(t *testing.T) {
	dir, doc, cfg := setup(t)
	db := filepath.Join(dir, "snap.db")
	base := []string{"-c", cfg, "--store", db, "store"}
	cmd := func(args ...string) string {
		t.Helper()
		out, err := run(t, append(append([]string{}, base...), args...)...)
		if err != nil {
			t.Fatalf("store %v: %v", args, err)
		}
		return out
	}

	cmd("put", "rev-a", doc)
	if out := cmd("list"); !strings.Contains(out, "rev-a") || !strings.Contains(out, "5") {
		t.Errorf("list = %q", out)
	}

	restored := filepath.Join(dir, "restored.json")
	cmd("get", "rev-a", "-o", restored)
	want, err := board.LoadFile(doc)
	if err != nil {
		t.Fatal(err)
	}
	got, err := board.LoadFile(restored)
	if err != nil {
		t.Fatal(err)
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("restored document (-want +got):\n%s", diff)
	}

	cmd("rm", "rev-a")
	if _, err := run(t, append(append([]string{}, base...), "get", "rev-a")...); err == nil {
		t.Error("get after rm succeeded")
	}
}

func TestGPUDryRun(t *testing.T) {
	_, doc, cfg := setup(t)
	out, err := run(t, "-c", cfg, "gpu-dryrun", doc, "-n", "2", "--metrics")
	if err != nil {
		t.Fatal(err)
	}
	for _, want := range []string{"frames", "draw calls", "boardview_rebuilds_total 1", `boardview_skipped_components_total{reason="unknown_type"} 1`} {
		if !strings.Contains(out, want) {
			t.Errorf("gpu-dryrun output missing %q:\n%s", want, out)
		}
	}
}

func TestLoadConfig(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "c.yaml")
	data := `
output: {width: 320, height: 240, labels: true, clear: "#101010"}
engine:
  hole_slack: 1.07
  materials:
    pad: {base: "#ff0000", band: 0.2}
store: {path: other.db}
`
	if err := os.WriteFile(path, []byte(data), 0o644); err != nil {
		t.Fatal(err)
	}
	cfg, err := LoadConfig(path)
	if err != nil {
		t.Fatal(err)
	}
	want := DefaultConfig()
	want.Output = OutputConfig{Width: 320, Height: 240, Labels: true, Clear: "#101010"}
	want.Engine.HoleSlack = 1.07
	want.Engine.Materials.Pad = &boardview.Material{Base: "#ff0000", Band: 0.2}
	want.Store.Path = "other.db"
	if diff := cmp.Diff(want, cfg); diff != "" {
		t.Errorf("config (-want +got):\n%s", diff)
	}

	if cfg, err := LoadConfig(filepath.Join(dir, "missing.yaml")); err != nil || cfg.Output.Width != 1024 {
		t.Errorf("missing config = %+v, %v; want defaults", cfg, err)
	}
	bad := filepath.Join(dir, "bad.yaml")
	if err := os.WriteFile(bad, []byte("output: {width: 0}"), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := LoadConfig(bad); err == nil {
		t.Error("zero width accepted")
	}
}

func TestWatchRerendersOnWrite(t *testing.T) {
	dir, doc, _ := setup(t)
	cfg := DefaultConfig()
	cfg.Output.Width, cfg.Output.Height = 64, 48
	a := &app{cfg: cfg, log: slog.New(slog.DiscardHandler)}

	ctx, cancel := context.WithCancel(context.Background())
	rendered := make(chan string, 8)
	done := make(chan error, 1)
	go func() {
		done <- a.watch(ctx, doc, filepath.Join(dir, "w.png"), func(p string) { rendered <- p })
	}()

	wait := func(what string) {
		t.Helper()
		select {
		case <-rendered:
		case <-time.After(5 * time.Second):
			cancel()
			t.Fatalf("timed out waiting for %s", what)
		}
	}
	wait("initial render")
	if err := os.WriteFile(doc, []byte(sampleDoc), 0o644); err != nil {
		t.Fatal(err)
	}
	wait("re-render after write")

	cancel()
	if err := <-done; err != nil {
		t.Errorf("watch returned %v", err)
	}
}
