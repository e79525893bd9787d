package audio

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/bogem/id3v2"
	"go.uber.org/zap"
)

func TestTaggerRetag_SetsFramesAndClearsComments(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "The Beatles - Hey Jude.mp3")
	if err := os.WriteFile(path, []byte("\xff\xfbaudio-frames"), 0o644); err != nil {
		t.Fatal(err)
	}

	// Seed the file with a comment frame that must not survive.
	tag, err := id3v2.Open(path, id3v2.Options{Parse: true})
	if err != nil {
		t.Fatalf("seed tag: %v", err)
	}
	tag.AddCommentFrame(id3v2.CommentFrame{
		Encoding:    id3v2.EncodingUTF8,
		Language:    "eng",
		Description: "",
		Text:        "ripped by someone",
	})
	if err := tag.Save(); err != nil {
		t.Fatalf("save seed tag: %v", err)
	}
	_ = tag.Close()

	tagger := NewTagger(zap.NewNop())
	if err := tagger.Retag(path, "The Beatles", "Hey Jude"); err != nil {
		t.Fatalf("Retag() error: %v", err)
	}

	got, err := id3v2.Open(path, id3v2.Options{Parse: true})
	if err != nil {
		t.Fatalf("reopen tag: %v", err)
	}
	defer func() {
		_ = got.Close()
	}()

	if got.Artist() != "The Beatles" {
		t.Errorf("Artist() = %q, expected The Beatles", got.Artist())
	}
	if got.Title() != "Hey Jude" {
		t.Errorf("Title() = %q, expected Hey Jude", got.Title())
	}
	if frames := got.GetFrames(got.CommonID("Comments")); len(frames) != 0 {
		t.Errorf("comment frames = %d, expected 0", len(frames))
	}
}

func TestTaggerRetag_IgnoresNonMP3(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "The Beatles - Hey Jude.wav")
	if err := os.WriteFile(path, []byte("RIFF"), 0o644); err != nil {
		t.Fatal(err)
	}

	tagger := NewTagger(zap.NewNop())
	if err := tagger.Retag(path, "The Beatles", "Hey Jude"); err != nil {
		t.Fatalf("Retag() on wav should be a no-op, got %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if string(data) != "RIFF" {
		t.Error("non-MP3 file must not be modified")
	}
}
