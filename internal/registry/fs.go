package registry

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/wonny/quantoracle/internal/contracts"
)

// On-disk layout (compatibility surface, mirrored by external tooling):
//
//	<root>/<family_id>/<version_id>/model.json
//	<root>/<family_id>/<version_id>/meta.json
//	<root>/<family_id>/LATEST          (bare version-id string)
const (
	artifactFile = "model.json"
	metaFile     = "meta.json"
	latestFile   = "LATEST"
)

// FSRegistry is the filesystem-backed Registry implementation
type FSRegistry struct {
	root string
	log  zerolog.Logger
}

// NewFSRegistry creates a registry rooted at dir (usually <data>/models)
func NewFSRegistry(dir string, log zerolog.Logger) *FSRegistry {
	return &FSRegistry{
		root: dir,
		log:  log.With().Str("component", "registry").Logger(),
	}
}

// GenerateVersionID returns a UTC second-resolution timestamp id,
// e.g. "20250102T153045Z". String-sortable and monotonic per writer.
func (r *FSRegistry) GenerateVersionID() string {
	return time.Now().UTC().Format("20060102T150405Z")
}

func (r *FSRegistry) familyDir(familyID string) string {
	return filepath.Join(r.root, familyID)
}

func (r *FSRegistry) versionDir(familyID, versionID string) string {
	return filepath.Join(r.familyDir(familyID), versionID)
}

// WriteArtifact persists model.json under the version directory
func (r *FSRegistry) WriteArtifact(ctx context.Context, familyID, versionID string, artifact *contracts.ModelArtifact) error {
	if err := artifact.Validate(); err != nil {
		return fmt.Errorf("write artifact %s@%s: %w", familyID, versionID, err)
	}
	return r.writeJSON(r.versionDir(familyID, versionID), artifactFile, artifact)
}

// WriteMeta persists meta.json under the version directory
func (r *FSRegistry) WriteMeta(ctx context.Context, familyID, versionID string, meta *contracts.ModelMeta) error {
	return r.writeJSON(r.versionDir(familyID, versionID), metaFile, meta)
}

// SetLatest atomically replaces the family's LATEST pointer.
// temp 파일 작성 후 rename — 같은 디렉터리 내 rename은 원자적이므로
// 동시 reader는 이전 버전 또는 새 버전 중 하나만 본다.
func (r *FSRegistry) SetLatest(ctx context.Context, familyID, versionID string) error {
	dir := r.familyDir(familyID)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("set latest %s: %w", familyID, err)
	}

	tmp, err := os.CreateTemp(dir, latestFile+".tmp-*")
	if err != nil {
		return fmt.Errorf("set latest %s: %w", familyID, err)
	}
	tmpName := tmp.Name()

	if _, err := tmp.WriteString(versionID); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("set latest %s: %w", familyID, err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("set latest %s: %w", familyID, err)
	}

	if err := os.Rename(tmpName, filepath.Join(dir, latestFile)); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("set latest %s: %w", familyID, err)
	}

	r.log.Info().
		Str("family", familyID).
		Str("version", versionID).
		Msg("latest pointer published")
	return nil
}

// ReadLatest returns the current pointer value, or ok=false when the family
// was never published
func (r *FSRegistry) ReadLatest(ctx context.Context, familyID string) (string, bool, error) {
	data, err := os.ReadFile(filepath.Join(r.familyDir(familyID), latestFile))
	if os.IsNotExist(err) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("read latest %s: %w", familyID, err)
	}

	version := strings.TrimSpace(string(data))
	if version == "" {
		return "", false, nil
	}
	return version, true, nil
}

// LoadLatest resolves the pointer and loads both files.
// A pointer naming a version whose files are missing is reported as
// ErrArtifactMissing so callers can distinguish corruption from
// "not yet published".
func (r *FSRegistry) LoadLatest(ctx context.Context, familyID string) (*contracts.ModelMeta, *contracts.ModelArtifact, bool, error) {
	version, ok, err := r.ReadLatest(ctx, familyID)
	if err != nil || !ok {
		return nil, nil, false, err
	}

	dir := r.versionDir(familyID, version)

	var artifact contracts.ModelArtifact
	if err := r.readJSON(filepath.Join(dir, artifactFile), &artifact); err != nil {
		if os.IsNotExist(err) {
			r.log.Error().
				Str("family", familyID).
				Str("version", version).
				Msg("latest pointer references missing artifact")
			return nil, nil, false, fmt.Errorf("%w: %s@%s", ErrArtifactMissing, familyID, version)
		}
		return nil, nil, false, fmt.Errorf("load latest %s@%s: %w", familyID, version, err)
	}

	var meta contracts.ModelMeta
	if err := r.readJSON(filepath.Join(dir, metaFile), &meta); err != nil {
		if os.IsNotExist(err) {
			return nil, nil, false, fmt.Errorf("%w: %s@%s", ErrArtifactMissing, familyID, version)
		}
		return nil, nil, false, fmt.Errorf("load latest %s@%s: %w", familyID, version, err)
	}

	if err := artifact.Validate(); err != nil {
		return nil, nil, false, fmt.Errorf("load latest %s@%s: %w", familyID, version, err)
	}

	return &meta, &artifact, true, nil
}

func (r *FSRegistry) writeJSON(dir, name string, v interface{}) error {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("write %s: %w", name, err)
	}

	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("write %s: %w", name, err)
	}

	if err := os.WriteFile(filepath.Join(dir, name), data, 0o644); err != nil {
		return fmt.Errorf("write %s: %w", name, err)
	}
	return nil
}

func (r *FSRegistry) readJSON(path string, v interface{}) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	if err := json.Unmarshal(data, v); err != nil {
		return fmt.Errorf("parse %s: %w", filepath.Base(path), err)
	}
	return nil
}
