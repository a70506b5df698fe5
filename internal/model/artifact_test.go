package model

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func sampleArtifact() *Artifact {
	return &Artifact{
		Movies: []MovieRecord{
			{ID: "1", Title: "Heat", Genres: "crime, drama"},
			{ID: "2", Title: "Alien", Genres: "horror, sci-fi"},
		},
		Embeddings: [][]float32{
			{1, 0},
			{0, 1},
		},
		Metadata: Metadata{
			Model:          "test-model",
			GenerationDate: "2024-01-02T03:04:05Z",
			Stats:          Stats{NumMovies: 2, EmbeddingDim: 2},
		},
	}
}

func TestSaveLoadVerifyRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "model", "model.json")

	a := sampleArtifact()
	if err := a.Save(path); err != nil {
		t.Fatalf("Save failed: %v", err)
	}
	if a.Metadata.Checksum == "" {
		t.Fatal("Save should inject a checksum")
	}

	loaded, err := Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if loaded.Metadata.Checksum != a.Metadata.Checksum {
		t.Errorf("loaded checksum %s, want %s", loaded.Metadata.Checksum, a.Metadata.Checksum)
	}
	if err := loaded.Verify(); err != nil {
		t.Errorf("Verify failed on round-tripped artifact: %v", err)
	}
	if len(loaded.Movies) != 2 || loaded.Movies[1].Title != "Alien" {
		t.Errorf("movies did not survive round trip: %+v", loaded.Movies)
	}
}

func TestVerifyDetectsCorruption(t *testing.T) {
	a := sampleArtifact()
	original, err := a.ComputeChecksum()
	if err != nil {
		t.Fatalf("ComputeChecksum failed: %v", err)
	}
	a.Metadata.Checksum = original

	// Corrupting any payload byte changes the computed checksum.
	a.Movies[0].Title = "Heat 2"
	err = a.Verify()
	if !errors.Is(err, ErrChecksumMismatch) {
		t.Errorf("expected ErrChecksumMismatch, got %v", err)
	}

	a.Movies[0].Title = "Heat"
	if err := a.Verify(); err != nil {
		t.Errorf("Verify failed after restoring payload: %v", err)
	}

	a.Embeddings[0][0] = 0.5
	if err := a.Verify(); !errors.Is(err, ErrChecksumMismatch) {
		t.Errorf("embedding corruption not detected: %v", err)
	}
}

func TestVerifyRequiresChecksum(t *testing.T) {
	a := sampleArtifact()
	if err := a.Verify(); !errors.Is(err, ErrChecksumMismatch) {
		t.Errorf("expected ErrChecksumMismatch for missing checksum, got %v", err)
	}
}

func TestChecksumExcludesItself(t *testing.T) {
	a := sampleArtifact()

	before, err := a.ComputeChecksum()
	if err != nil {
		t.Fatalf("ComputeChecksum failed: %v", err)
	}

	a.Metadata.Checksum = before
	after, err := a.ComputeChecksum()
	if err != nil {
		t.Fatalf("ComputeChecksum failed: %v", err)
	}

	if before != after {
		t.Error("checksum must not depend on the checksum field itself")
	}
}

func TestLoadMissingArtifact(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "absent.json"))
	if !errors.Is(err, ErrArtifactNotFound) {
		t.Errorf("expected ErrArtifactNotFound, got %v", err)
	}
}

func TestSaveLeavesNoTempFileBehind(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "model.json")

	if err := sampleArtifact().Save(path); err != nil {
		t.Fatalf("Save failed: %v", err)
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		t.Fatalf("reading dir: %v", err)
	}
	for _, e := range entries {
		if strings.HasSuffix(e.Name(), ".tmp") {
			t.Errorf("temp file %s left behind", e.Name())
		}
	}
}
