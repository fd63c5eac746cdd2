package classifier

import (
	"encoding/gob"
	"errors"
	"fmt"
	"os"
	"path/filepath"
)

// Artifact filenames. The model and its scaler are two paired opaque
// blobs: both must be present and decodable to activate the trained
// variant. Loading only one of the pair counts as "no model".
const (
	ModelArtifact  = "detector_model.gob"
	ScalerArtifact = "scaler.gob"

	artifactDirPermission  = 0750
	artifactFilePermission = 0600
)

// ErrNoModel reports that no usable trained model pair exists. Callers
// fall back to the rule-based variant; this is never fatal.
var ErrNoModel = errors.New("no trained model available")

// Save persists the fitted ensemble and its scaler as paired artifacts
// under dir, creating the directory if needed.
func Save(dir string, e *Ensemble) error {
	if e == nil || e.scaler == nil {
		return errors.New("cannot save an unfitted ensemble")
	}
	if err := os.MkdirAll(dir, artifactDirPermission); err != nil {
		return fmt.Errorf("create model dir: %w", err)
	}
	if err := writeGob(filepath.Join(dir, ModelArtifact), e); err != nil {
		return fmt.Errorf("write model artifact: %w", err)
	}
	if err := writeGob(filepath.Join(dir, ScalerArtifact), e.scaler); err != nil {
		return fmt.Errorf("write scaler artifact: %w", err)
	}
	return nil
}

// Load reads the paired artifacts from dir. Any missing or corrupt half
// of the pair yields ErrNoModel.
func Load(dir string) (*Ensemble, error) {
	var e Ensemble
	if err := readGob(filepath.Join(dir, ModelArtifact), &e); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrNoModel, err)
	}
	var s Scaler
	if err := readGob(filepath.Join(dir, ScalerArtifact), &s); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrNoModel, err)
	}
	if len(e.Stumps) == 0 {
		return nil, fmt.Errorf("%w: model artifact holds no trees", ErrNoModel)
	}
	e.scaler = &s
	return &e, nil
}

// Select returns the trained variant when a model pair loads from dir,
// otherwise the rule-based fallback. The bool reports whether the trained
// variant is active.
func Select(dir string) (Classifier, bool) {
	e, err := Load(dir)
	if err != nil {
		return NewRuleBased(), false
	}
	return e, true
}

func writeGob(path string, v any) error {
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, artifactFilePermission)
	if err != nil {
		return err
	}
	defer func() { _ = f.Close() }()
	return gob.NewEncoder(f).Encode(v)
}

func readGob(path string, v any) error {
	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer func() { _ = f.Close() }()
	return gob.NewDecoder(f).Decode(v)
}
