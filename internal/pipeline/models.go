package pipeline

import (
	"fmt"

	"github.com/UCLA-SEAL/Change-Cover/internal/workspace"
)

// StageOutcome classifies how a pipeline stage concluded for one unit.
type StageOutcome string

// Stage outcomes. Collection reports skipped, succeeded, or failed;
// evaluation additionally distinguishes the fully-covered success from the
// ordinary one, since only the former releases the unit's image.
const (
	OutcomeNotStarted   StageOutcome = "not-started"
	OutcomeSkipped      StageOutcome = "skipped"
	OutcomeSucceeded    StageOutcome = "succeeded"
	OutcomePartial      StageOutcome = "partially-covered"
	OutcomeFullyCovered StageOutcome = "fully-covered"
	OutcomeFailed       StageOutcome = "failed"
)

// ArtifactPresent reports whether the outcome guarantees the stage's output
// file exists on disk, which is the precondition for the next stage.
func (o StageOutcome) ArtifactPresent() bool {
	return o == OutcomeSucceeded || o == OutcomeSkipped
}

// Unit is one immutable work item: a pull-request identifier plus its
// deterministic output locations.
type Unit struct {
	ID    string
	Paths workspace.UnitPaths
}

// PipelineRun tracks one unit's traversal through the two stages. It lives
// only while the unit is in flight; nothing persists it past completion.
type PipelineRun struct {
	ID       string
	Unit     Unit
	ImageTag string

	Collect  StageOutcome
	Evaluate StageOutcome

	// Reclaimed is true once the unit's image was actually removed.
	Reclaimed bool
}

// Relevance is the classification returned by the relevance computation for
// a unit that evaluated successfully.
type Relevance string

const (
	// RelevancePartial means some modified lines are not exercised by the
	// existing regression suite.
	RelevancePartial Relevance = "partial"
	// RelevanceFullyCovered means every modified line is already exercised,
	// so the unit's build image has no further use.
	RelevanceFullyCovered Relevance = "fully-covered"
)

// ImageTag derives the deterministic per-unit image name. Tags are
// unit-scoped, so no two pipelines ever contend for the same image.
func ImageTag(project, unitID string) string {
	return fmt.Sprintf("%s-pr-%s", project, unitID)
}
