package model

import (
	"crypto/md5"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
)

// Errors returned by artifact operations.
var (
	ErrArtifactNotFound = errors.New("model artifact not found")
	ErrChecksumMismatch = errors.New("artifact checksum mismatch")
)

// SimilarityStats summarizes sampled pairwise cosine similarities. It
// is a sanity signal that embeddings are neither collapsed (near 1
// everywhere) nor degenerate (near 0 everywhere).
type SimilarityStats struct {
	Min    float64 `json:"min"`
	Max    float64 `json:"max"`
	Median float64 `json:"median"`
	Mean   float64 `json:"mean"`
}

// Stats carries build diagnostics stored in the artifact metadata.
type Stats struct {
	NumMovies     int             `json:"num_movies"`
	AvgTextLength int             `json:"avg_text_length"`
	EmbeddingDim  int             `json:"embedding_dim"`
	Degenerate    int             `json:"degenerate_records,omitempty"`
	Similarity    SimilarityStats `json:"similarity"`
}

// Metadata describes how and when an artifact was generated.
type Metadata struct {
	Model          string             `json:"model"`
	GenerationDate string             `json:"generation_date"`
	Strategy       string             `json:"strategy,omitempty"`
	Weights        map[string]float64 `json:"weights,omitempty"`
	Stats          Stats              `json:"stats"`
	Checksum       string             `json:"checksum,omitempty"`
}

// Artifact is the persisted bundle of movie records, their embedding
// vectors, and metadata. Movies[i] and Embeddings[i] are positionally
// paired. An artifact is built once, written atomically, and never
// mutated afterwards.
type Artifact struct {
	Movies     []MovieRecord `json:"movies"`
	Embeddings [][]float32   `json:"embeddings"`
	Metadata   Metadata      `json:"metadata"`
}

// canonical returns the artifact's canonical serialized form with the
// checksum field cleared. The content hash is computed over exactly
// these bytes.
func (a *Artifact) canonical() ([]byte, error) {
	clone := *a
	clone.Metadata.Checksum = ""
	data, err := json.MarshalIndent(&clone, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("serializing artifact: %w", err)
	}
	return data, nil
}

// ComputeChecksum returns the hex MD5 digest of the artifact's
// canonical form, excluding the checksum field itself.
func (a *Artifact) ComputeChecksum() (string, error) {
	data, err := a.canonical()
	if err != nil {
		return "", err
	}
	sum := md5.Sum(data)
	return hex.EncodeToString(sum[:]), nil
}

// Save computes the content checksum, injects it into the metadata,
// and writes the artifact to path. The write is all-or-nothing: the
// file is staged under a temp name and renamed into place.
func (a *Artifact) Save(path string) error {
	checksum, err := a.ComputeChecksum()
	if err != nil {
		return err
	}
	a.Metadata.Checksum = checksum

	data, err := json.MarshalIndent(a, "", "  ")
	if err != nil {
		return fmt.Errorf("serializing artifact: %w", err)
	}

	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("creating artifact directory: %w", err)
		}
	}

	tempPath := path + ".tmp"
	if err := os.WriteFile(tempPath, data, 0644); err != nil {
		return fmt.Errorf("writing temp artifact: %w", err)
	}
	if err := os.Rename(tempPath, path); err != nil {
		os.Remove(tempPath)
		return fmt.Errorf("renaming temp artifact: %w", err)
	}
	return nil
}

// Load reads an artifact from path. It does not verify the checksum;
// call Verify separately when integrity matters.
func Load(path string) (*Artifact, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, ErrArtifactNotFound
		}
		return nil, fmt.Errorf("reading artifact: %w", err)
	}

	var a Artifact
	if err := json.Unmarshal(data, &a); err != nil {
		return nil, fmt.Errorf("parsing artifact: %w", err)
	}
	return &a, nil
}

// Verify reserializes the artifact without its checksum field and
// confirms the stored checksum matches, detecting transport or storage
// corruption. Returns ErrChecksumMismatch on any difference.
func (a *Artifact) Verify() error {
	if a.Metadata.Checksum == "" {
		return fmt.Errorf("%w: artifact carries no checksum", ErrChecksumMismatch)
	}
	computed, err := a.ComputeChecksum()
	if err != nil {
		return err
	}
	if computed != a.Metadata.Checksum {
		return fmt.Errorf("%w: stored %s, computed %s", ErrChecksumMismatch, a.Metadata.Checksum, computed)
	}
	return nil
}

// Dimensions returns the embedding dimension recorded in the metadata.
func (a *Artifact) Dimensions() int {
	return a.Metadata.Stats.EmbeddingDim
}
