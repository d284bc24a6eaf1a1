package pipeline

import "testing"

func TestImageTag(t *testing.T) {
	if got := ImageTag("pandas", "48776"); got != "pandas-pr-48776" {
		t.Fatalf("ImageTag = %s, want pandas-pr-48776", got)
	}
}

func TestArtifactPresent(t *testing.T) {
	cases := map[StageOutcome]bool{
		OutcomeSucceeded:    true,
		OutcomeSkipped:      true,
		OutcomeFailed:       false,
		OutcomeNotStarted:   false,
		OutcomePartial:      false,
		OutcomeFullyCovered: false,
	}
	for outcome, want := range cases {
		if got := outcome.ArtifactPresent(); got != want {
			t.Errorf("%s.ArtifactPresent() = %v, want %v", outcome, got, want)
		}
	}
}
