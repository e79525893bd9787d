package export

import (
	"os"
	"strings"
	"testing"

	"flacsync/internal/core"
)

func TestWriteManifest(t *testing.T) {
	dir := t.TempDir()
	w := &Writer{Dir: dir, Name: "summer-mix"}

	entries := []core.ManifestEntry{
		{Path: dir + "/The Beatles - Hey Jude.wav", Artist: "The Beatles", Title: "Hey Jude"},
		{Path: dir + "/Radiohead - Creep.wav", Artist: "Radiohead", Title: "Creep"},
	}

	path, err := w.WriteManifest(entries)
	if err != nil {
		t.Fatalf("WriteManifest() error: %v", err)
	}
	if !strings.HasSuffix(path, "summer-mix.m3u8") {
		t.Errorf("WriteManifest() path = %q", path)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("ReadFile: %v", err)
	}
	content := string(data)

	if !strings.HasPrefix(content, "#EXTM3U") {
		t.Error("manifest should start with #EXTM3U")
	}
	for _, want := range []string{"The Beatles - Hey Jude.wav", "Radiohead - Creep.wav", "Radiohead - Creep"} {
		if !strings.Contains(content, want) {
			t.Errorf("manifest missing %q:\n%s", want, content)
		}
	}
	if !strings.Contains(content, "#EXT-X-ENDLIST") {
		t.Error("manifest should be closed with #EXT-X-ENDLIST")
	}
}

func TestWriteManifest_Empty(t *testing.T) {
	w := &Writer{Dir: t.TempDir(), Name: "empty"}

	path, err := w.WriteManifest(nil)
	if err != nil {
		t.Fatalf("WriteManifest() error: %v", err)
	}
	if path != "" {
		t.Errorf("WriteManifest() = %q, expected no file for empty entries", path)
	}
}
