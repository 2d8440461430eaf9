package enums

import "testing"

func TestJobStatusTransitions(t *testing.T) {
	t.Parallel()

	cases := []struct {
		from JobStatus
		to   JobStatus
		want bool
	}{
		{JobStatusProcessing, JobStatusCompleted, true},
		{JobStatusProcessing, JobStatusFailed, true},
		{JobStatusProcessing, JobStatusProcessing, false},
		{JobStatusCompleted, JobStatusFailed, false},
		{JobStatusCompleted, JobStatusProcessing, false},
		{JobStatusFailed, JobStatusCompleted, false},
		{JobStatus("queued"), JobStatusCompleted, false},
	}
	for _, tc := range cases {
		if got := tc.from.CanTransitionTo(tc.to); got != tc.want {
			t.Fatalf("%s -> %s: expected %v got %v", tc.from, tc.to, tc.want, got)
		}
	}
}

func TestJobStatusTerminal(t *testing.T) {
	t.Parallel()

	if JobStatusProcessing.IsTerminal() {
		t.Fatal("processing must not be terminal")
	}
	if !JobStatusCompleted.IsTerminal() || !JobStatusFailed.IsTerminal() {
		t.Fatal("completed and failed must be terminal")
	}
}

func TestParseRejectsUnknownValues(t *testing.T) {
	t.Parallel()

	if _, err := ParseJobStatus("done"); err == nil {
		t.Fatal("expected error for unknown job status")
	}
	if _, err := ParseUserRole("superuser"); err == nil {
		t.Fatal("expected error for unknown role")
	}
	if got, err := ParseAspectRatio("16:9"); err != nil || got != AspectRatio16x9 {
		t.Fatalf("expected 16:9, got %q err=%v", got, err)
	}
	if got, err := ParseIndustry("Food & Beverage"); err != nil || got != IndustryFoodAndBeverage {
		t.Fatalf("unexpected industry parse %q err=%v", got, err)
	}
}

func TestGenerationModelKinds(t *testing.T) {
	t.Parallel()

	if !GenerationModelVeo3Fast.IsVideo() || GenerationModelVeo3Fast.IsImage() {
		t.Fatal("veo model must be video only")
	}
	if !GenerationModelImagen4.IsImage() || GenerationModelImagen4.IsVideo() {
		t.Fatal("imagen model must be image only")
	}
	if GenerationModel("dall-e").IsValid() {
		t.Fatal("unknown model must be invalid")
	}
	if GenerationModelVeo2.SupportsAudio() {
		t.Fatal("veo 2 has no audio")
	}
}

func TestHasRole(t *testing.T) {
	t.Parallel()

	if !HasRole([]string{"user", "creator"}, UserRoleCreator) {
		t.Fatal("creator role should match")
	}
	if HasRole([]string{"user"}, UserRoleCreator) {
		t.Fatal("user must not satisfy creator")
	}
	if !HasRole([]string{"admin"}, UserRoleCreator) {
		t.Fatal("admin implies creator")
	}
	if HasRole(nil, UserRoleUser) {
		t.Fatal("no roles must not match")
	}
}

func TestAssetHelpers(t *testing.T) {
	t.Parallel()

	if !AssetTypeVTODress.IsVTO() || AssetTypeGenericImage.IsVTO() {
		t.Fatal("unexpected VTO classification")
	}
	if got := len(VTOAssetTypes()); got != 7 {
		t.Fatalf("expected 7 VTO categories, got %d", got)
	}
	if !AssetRoleStartFrame.AllowedForVideo() || AssetRoleMask.AllowedForVideo() {
		t.Fatal("unexpected video role classification")
	}
	if !WorkspaceRoleOwner.CanManage() || WorkspaceRoleEditor.CanManage() {
		t.Fatal("unexpected workspace management rights")
	}
}
