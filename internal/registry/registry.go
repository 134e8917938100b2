// Package registry persists trained model artifacts, versioned per model
// family, with a "latest" pointer that is published last so readers never
// observe a pointer to an incomplete version.
package registry

import (
	"context"
	"errors"

	"github.com/wonny/quantoracle/internal/contracts"
)

// ErrArtifactMissing is returned when the LATEST pointer names a version
// whose artifact or meta files cannot be found. This is an integrity fault,
// distinct from a family that was simply never published.
var ErrArtifactMissing = errors.New("registry: latest pointer references a missing artifact")

// Registry is the versioned model store
// ⭐ SSOT: 모델 영속화 인터페이스는 여기서만 정의.
// 로컬 디스크 외 백엔드(오브젝트 스토리지 등)로 교체 가능하도록 추상화.
type Registry interface {
	// GenerateVersionID returns a string-sortable, timestamp-derived version
	// id. Monotonic under the single-writer-per-family deployment assumption.
	GenerateVersionID() string

	// WriteArtifact persists the artifact for (family, version).
	// Idempotent: calling twice with the same version overwrites.
	WriteArtifact(ctx context.Context, familyID, versionID string, artifact *contracts.ModelArtifact) error

	// WriteMeta persists the descriptive metadata alongside the artifact.
	WriteMeta(ctx context.Context, familyID, versionID string, meta *contracts.ModelMeta) error

	// SetLatest atomically flips the family's LATEST pointer. Callers must
	// only invoke this after WriteArtifact and WriteMeta succeeded.
	SetLatest(ctx context.Context, familyID, versionID string) error

	// ReadLatest returns the current pointer value. ok=false means the
	// family was never published — an expected steady state, not an error.
	ReadLatest(ctx context.Context, familyID string) (versionID string, ok bool, err error)

	// LoadLatest resolves the pointer and loads meta + artifact.
	// ok=false with nil error: never published.
	// ErrArtifactMissing: pointer exists but version files are gone.
	LoadLatest(ctx context.Context, familyID string) (*contracts.ModelMeta, *contracts.ModelArtifact, bool, error)
}

// Publish writes artifact and meta then flips the pointer, in the required
// order. Convenience wrapper used by the trainer.
func Publish(ctx context.Context, r Registry, familyID, versionID string, artifact *contracts.ModelArtifact, meta *contracts.ModelMeta) error {
	if err := r.WriteArtifact(ctx, familyID, versionID, artifact); err != nil {
		return err
	}
	if err := r.WriteMeta(ctx, familyID, versionID, meta); err != nil {
		return err
	}
	// Pointer flip last: a crash before this line leaves the previous
	// version visible and complete.
	return r.SetLatest(ctx, familyID, versionID)
}
