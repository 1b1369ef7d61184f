package services

import (
	"testing"

	"github.com/studytrails/trails-service/internal/models"
)

func TestCanResubmit(t *testing.T) {
	tests := []struct {
		status models.SubmissionStatus
		want   bool
	}{
		{models.SubmissionRejected, true},
		{models.SubmissionResubmit, true},
		{models.SubmissionWithdrawn, true},
		{models.SubmissionPending, false},
		{models.SubmissionApproved, false},
	}
	for _, tt := range tests {
		if got := canResubmit(tt.status); got != tt.want {
			t.Errorf("canResubmit(%s) = %v, want %v", tt.status, got, tt.want)
		}
	}
}
