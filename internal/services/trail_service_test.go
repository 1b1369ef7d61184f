package services

import (
	"errors"
	"testing"

	"gorm.io/datatypes"

	"github.com/studytrails/trails-service/internal/models"
)

func moduleWithPrereqs(id uint, prereqs string) *models.TrailModule {
	m := &models.TrailModule{ID: id}
	if prereqs != "" {
		m.Prerequisites = datatypes.JSON(prereqs)
	}
	return m
}

func TestCheckPrerequisites(t *testing.T) {
	s := &trailService{}

	tests := []struct {
		name     string
		modules  []*models.TrailModule
		moduleID uint
		prereqs  []uint
		wantErr  error
	}{
		{
			name: "valid chain",
			modules: []*models.TrailModule{
				moduleWithPrereqs(1, ""),
				moduleWithPrereqs(2, "[1]"),
				moduleWithPrereqs(3, ""),
			},
			moduleID: 3,
			prereqs:  []uint{2},
		},
		{
			name: "self dependency",
			modules: []*models.TrailModule{
				moduleWithPrereqs(1, ""),
			},
			moduleID: 1,
			prereqs:  []uint{1},
			wantErr:  &ValidationError{},
		},
		{
			name: "unknown prerequisite",
			modules: []*models.TrailModule{
				moduleWithPrereqs(1, ""),
			},
			moduleID: 1,
			prereqs:  []uint{99},
			wantErr:  &ValidationError{},
		},
		{
			name: "direct cycle",
			modules: []*models.TrailModule{
				moduleWithPrereqs(1, ""),
				moduleWithPrereqs(2, "[1]"),
			},
			moduleID: 1,
			prereqs:  []uint{2},
			wantErr:  ErrPrerequisiteCycle,
		},
		{
			name: "transitive cycle",
			modules: []*models.TrailModule{
				moduleWithPrereqs(1, ""),
				moduleWithPrereqs(2, "[1]"),
				moduleWithPrereqs(3, "[2]"),
			},
			moduleID: 1,
			prereqs:  []uint{3},
			wantErr:  ErrPrerequisiteCycle,
		},
		{
			name: "new module may depend on existing ones",
			modules: []*models.TrailModule{
				moduleWithPrereqs(1, ""),
				moduleWithPrereqs(2, "[1]"),
			},
			moduleID: 0,
			prereqs:  []uint{1, 2},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := s.checkPrerequisites(tt.modules, tt.moduleID, tt.prereqs)
			switch want := tt.wantErr.(type) {
			case nil:
				if err != nil {
					t.Fatalf("checkPrerequisites() error = %v, want nil", err)
				}
			case *ValidationError:
				var ve *ValidationError
				if !errors.As(err, &ve) {
					t.Fatalf("checkPrerequisites() error = %v, want validation error", err)
				}
			default:
				if !errors.Is(err, want) {
					t.Fatalf("checkPrerequisites() error = %v, want %v", err, want)
				}
			}
		})
	}
}

func TestDecodePrerequisites(t *testing.T) {
	tests := []struct {
		name string
		raw  string
		want []uint
	}{
		{name: "empty", raw: "", want: nil},
		{name: "sorted output", raw: "[3,1,2]", want: []uint{1, 2, 3}},
		{name: "malformed json ignored", raw: "{oops", want: nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := decodePrerequisites([]byte(tt.raw))
			if len(got) != len(tt.want) {
				t.Fatalf("decodePrerequisites(%q) = %v, want %v", tt.raw, got, tt.want)
			}
			for i := range got {
				if got[i] != tt.want[i] {
					t.Fatalf("decodePrerequisites(%q) = %v, want %v", tt.raw, got, tt.want)
				}
			}
		})
	}
}

func TestApplyModuleSettings(t *testing.T) {
	settings := models.ModuleSettings{
		MaxAttempts:  3,
		PassingScore: 70,
		ShowResults:  true,
	}

	limit := 45
	attempts := 5
	randomize := true
	applyModuleSettings(&settings, &models.ModuleSettingsRequest{
		RandomizeQuestions: &randomize,
		TimeLimitMinutes:   &limit,
		MaxAttempts:        &attempts,
	})

	if !settings.RandomizeQuestions {
		t.Error("RandomizeQuestions should be updated")
	}
	if settings.TimeLimitMinutes == nil || *settings.TimeLimitMinutes != 45 {
		t.Error("TimeLimitMinutes should be updated")
	}
	if settings.MaxAttempts != 5 {
		t.Errorf("MaxAttempts = %d, want 5", settings.MaxAttempts)
	}
	// Untouched fields keep their values.
	if settings.PassingScore != 70 || !settings.ShowResults {
		t.Error("fields without a request value must not change")
	}

	applyModuleSettings(&settings, nil)
	if settings.MaxAttempts != 5 {
		t.Error("nil request must be a no-op")
	}
}
