package jobsrv

import (
	"context"

	"github.com/Abraxas-365/workgate/pkg/fsx"
	"github.com/Abraxas-365/workgate/pkg/job"
	"github.com/Abraxas-365/workgate/pkg/kernel"
)

// InputKeyArtifactRef marks an input value that was moved to file storage.
// The value is the storage path; Hydrate swaps it back for the original key.
const InputKeyArtifactRef = "_artifact_ref"

const defaultOffloadThreshold = 64 * 1024 // bytes

// ArtifactVault moves oversized input values out of the job record and into
// file storage, so the jobs table stays small while contracts of arbitrary
// size remain submittable.
type ArtifactVault struct {
	fs        fsx.FileSystem
	threshold int
}

// NewArtifactVault creates a vault over the given storage. A non-positive
// threshold keeps the default.
func NewArtifactVault(fs fsx.FileSystem, threshold int) *ArtifactVault {
	if threshold <= 0 {
		threshold = defaultOffloadThreshold
	}
	return &ArtifactVault{fs: fs, threshold: threshold}
}

// Offload replaces any pair whose value exceeds the threshold with an
// artifact reference. The original key travels inside the stored blob.
func (v *ArtifactVault) Offload(ctx context.Context, input job.Input) (job.Input, error) {
	out := make(job.Input, 0, len(input))
	for _, p := range input {
		if len(p.Value) <= v.threshold {
			out = append(out, p)
			continue
		}

		path := v.fs.Join("artifacts", kernel.NewArtifactID().String(), p.Key)
		if err := v.fs.WriteFile(ctx, path, []byte(p.Value)); err != nil {
			return nil, err
		}
		out = append(out,
			job.Pair{Key: p.Key, Value: ""},
			job.Pair{Key: InputKeyArtifactRef + ":" + p.Key, Value: path},
		)
	}
	return out, nil
}

// Hydrate restores offloaded values from storage.
func (v *ArtifactVault) Hydrate(ctx context.Context, input job.Input) (job.Input, error) {
	refs := make(map[string]string)
	for _, p := range input {
		if key, ok := artifactKey(p.Key); ok {
			refs[key] = p.Value
		}
	}
	if len(refs) == 0 {
		return input, nil
	}

	out := make(job.Input, 0, len(input))
	for _, p := range input {
		if _, isRef := artifactKey(p.Key); isRef {
			continue
		}
		if path, ok := refs[p.Key]; ok {
			data, err := v.fs.ReadFile(ctx, path)
			if err != nil {
				return nil, err
			}
			p.Value = string(data)
		}
		out = append(out, p)
	}
	return out, nil
}

func artifactKey(key string) (string, bool) {
	prefix := InputKeyArtifactRef + ":"
	if len(key) > len(prefix) && key[:len(prefix)] == prefix {
		return key[len(prefix):], true
	}
	return "", false
}
