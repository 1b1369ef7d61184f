package services

import (
	"log/slog"
	"testing"

	"github.com/studytrails/trails-service/internal/repositories"
	"github.com/studytrails/trails-service/internal/validator"
)

func TestNewAttemptService(t *testing.T) {
	type args struct {
		repo      repositories.Repository
		logger    *slog.Logger
		validator *validator.Validator
	}
	tests := []struct {
		name string
		args args
		want AttemptService
	}{
		{name: "ok"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			NewAttemptService(tt.args.repo, tt.args.logger, tt.args.validator, nil, nil, nil)
		})
	}
}
