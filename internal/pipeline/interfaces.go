package pipeline

import "context"

// ImageDriver drives the external container toolchain. Calls are opaque and
// synchronous; the only observable contract is success or failure.
type ImageDriver interface {
	// Build produces the image for tag, parameterized by the unit identifier.
	Build(ctx context.Context, tag, unitID string) error

	// ExtractArtifact runs the image with hostDir mounted and copies the
	// well-known coverage artifact into it.
	ExtractArtifact(ctx context.Context, tag, hostDir string) error

	// Remove deletes the image to reclaim space.
	Remove(ctx context.Context, tag string) error

	// PruneBuildCache trims the builder cache down to roughly keepStorageGB.
	PruneBuildCache(ctx context.Context, keepStorageGB int) error
}

// RelevanceRunner invokes the external relevance computation over a unit's
// diff and coverage artifact, writing its report to outputPath. The adapter
// owns the mapping from the tool's exit status to a Relevance value; a
// non-nil error means the computation itself failed.
type RelevanceRunner interface {
	Evaluate(ctx context.Context, diffPath, artifactPath, outputPath string) (Relevance, error)
}
