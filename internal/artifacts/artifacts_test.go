package artifacts_test

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/JaimeStill/docket/internal/artifacts"
	"github.com/JaimeStill/docket/pkg/storage"
)

var formats = map[string]artifacts.Format{
	"extract": {Suffix: ".docling.json"},
	"segment": {Suffix: ".json"},
	"publish": {Suffix: ".json", Published: true},
}

func newStore(t *testing.T) (*artifacts.Store, string, string) {
	t.Helper()

	root := t.TempDir()
	outDir := filepath.Join(root, "output")
	contentDir := filepath.Join(root, "content")

	cfg := &storage.Config{Backend: storage.Filesystem}
	output, err := storage.New(cfg, outDir, slog.Default())
	if err != nil {
		t.Fatal(err)
	}
	content, err := storage.New(cfg, contentDir, slog.Default())
	if err != nil {
		t.Fatal(err)
	}

	return artifacts.New(output, content, formats, slog.Default()), outDir, contentDir
}

func TestWriteReadExists(t *testing.T) {
	store, outDir, _ := newStore(t)
	ctx := context.Background()

	ok, err := store.Exists(ctx, "cyber-bill", "segment")
	if err != nil || ok {
		t.Fatalf("Exists before write = %v, %v; want false, nil", ok, err)
	}

	if _, err := store.Read(ctx, "cyber-bill", "segment"); !errors.Is(err, artifacts.ErrNotFound) {
		t.Fatalf("Read before write error = %v, want ErrNotFound", err)
	}

	if err := store.Write(ctx, "cyber-bill", "segment", artifacts.Artifact{Data: []byte(`{"sections":[]}`)}); err != nil {
		t.Fatalf("Write: %v", err)
	}

	ok, err = store.Exists(ctx, "cyber-bill", "segment")
	if err != nil || !ok {
		t.Fatalf("Exists after write = %v, %v; want true, nil", ok, err)
	}

	data, err := store.Read(ctx, "cyber-bill", "segment")
	if err != nil {
		t.Fatalf("Read: %v", err)
	}
	if string(data) != `{"sections":[]}` {
		t.Errorf("data = %s", data)
	}

	if _, err := os.Stat(filepath.Join(outDir, "cyber-bill.json")); err != nil {
		t.Errorf("artifact should live at {slug}{suffix}: %v", err)
	}
}

func TestCompanions(t *testing.T) {
	store, outDir, _ := newStore(t)
	ctx := context.Background()

	a := artifacts.Artifact{
		Data:       []byte(`{"texts":[]}`),
		Companions: map[string][]byte{".md": []byte("# Bill\n")},
	}
	if err := store.Write(ctx, "cyber-bill", "extract", a); err != nil {
		t.Fatalf("Write: %v", err)
	}

	md, err := os.ReadFile(filepath.Join(outDir, "cyber-bill.md"))
	if err != nil {
		t.Fatalf("companion not written: %v", err)
	}
	if string(md) != "# Bill\n" {
		t.Errorf("companion = %q", md)
	}
	if _, err := os.Stat(filepath.Join(outDir, "cyber-bill.docling.json")); err != nil {
		t.Errorf("primary not written: %v", err)
	}
}

func TestPublishedRouting(t *testing.T) {
	store, outDir, contentDir := newStore(t)
	ctx := context.Background()

	if err := store.Write(ctx, "cyber-bill", "publish", artifacts.Artifact{Data: []byte(`{"id":"cyber-bill"}`)}); err != nil {
		t.Fatalf("Write: %v", err)
	}

	if _, err := os.Stat(filepath.Join(contentDir, "cyber-bill.json")); err != nil {
		t.Errorf("published artifact should be in the content dir: %v", err)
	}
	if _, err := os.Stat(filepath.Join(outDir, "cyber-bill.json")); !os.IsNotExist(err) {
		t.Error("published artifact should not be in the output dir")
	}

	ok, err := store.Exists(ctx, "cyber-bill", "segment")
	if err != nil || ok {
		t.Error("segment and publish share a suffix but not a location")
	}
}

func TestUnknownStage(t *testing.T) {
	store, _, _ := newStore(t)
	ctx := context.Background()

	if _, err := store.Exists(ctx, "cyber-bill", "translate"); !errors.Is(err, artifacts.ErrUnknownStage) {
		t.Errorf("Exists error = %v, want ErrUnknownStage", err)
	}
	if err := store.Write(ctx, "cyber-bill", "translate", artifacts.Artifact{}); !errors.Is(err, artifacts.ErrUnknownStage) {
		t.Errorf("Write error = %v, want ErrUnknownStage", err)
	}
	if _, err := store.Key("cyber-bill", "translate"); !errors.Is(err, artifacts.ErrUnknownStage) {
		t.Errorf("Key error = %v, want ErrUnknownStage", err)
	}
}
