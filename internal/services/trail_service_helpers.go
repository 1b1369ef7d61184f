package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"

	"github.com/dominikbraun/graph"

	"github.com/studytrails/trails-service/internal/models"
	"github.com/studytrails/trails-service/internal/repositories"
)

// ===== MODULE MANAGEMENT =====

func (s *trailService) AddModule(ctx context.Context, trailID uint, req *CreateModuleRequest, userID string) (*models.TrailModule, error) {
	s.logger.Info("Adding module", "trail_id", trailID, "kind", req.Kind, "user_id", userID)

	if err := s.validator.Validate(req); err != nil {
		return nil, err
	}

	trail, err := s.repo.Trail().GetByID(ctx, trailID)
	if err != nil {
		if repositories.IsNotFoundError(err) {
			return nil, ErrTrailNotFound
		}
		return nil, fmt.Errorf("failed to get trail: %w", err)
	}

	canEdit, err := s.canEditTrail(ctx, trail, userID)
	if err != nil {
		return nil, err
	}
	if !canEdit {
		return nil, NewPermissionError(userID, trailID, "trail", "add_module", "not owner or insufficient permissions")
	}

	module := &models.TrailModule{
		TrailID:  trailID,
		Title:    req.Title,
		Kind:     req.Kind,
		Position: req.Position,
		XPReward: req.XPReward,
		Body:     req.Body,
	}
	applyModuleSettings(&module.Settings, req.Settings)

	if len(req.Prerequisites) > 0 {
		existing, err := s.repo.Trail().ListModules(ctx, trailID)
		if err != nil {
			return nil, fmt.Errorf("failed to list modules: %w", err)
		}
		if err := s.checkPrerequisites(existing, 0, req.Prerequisites); err != nil {
			return nil, err
		}
		prereqs, err := json.Marshal(req.Prerequisites)
		if err != nil {
			return nil, fmt.Errorf("failed to encode prerequisites: %w", err)
		}
		module.Prerequisites = prereqs
	}

	if err := s.repo.Trail().CreateModule(ctx, module); err != nil {
		return nil, fmt.Errorf("failed to create module: %w", err)
	}

	s.logger.Info("Module added successfully", "trail_id", trailID, "module_id", module.ID)
	return module, nil
}

func (s *trailService) UpdateModule(ctx context.Context, moduleID uint, req *UpdateModuleRequest, userID string) (*models.TrailModule, error) {
	s.logger.Info("Updating module", "module_id", moduleID, "user_id", userID)

	if err := s.validator.Validate(req); err != nil {
		return nil, err
	}

	module, err := s.repo.Trail().GetModuleByID(ctx, moduleID)
	if err != nil {
		if repositories.IsNotFoundError(err) {
			return nil, ErrModuleNotFound
		}
		return nil, fmt.Errorf("failed to get module: %w", err)
	}

	trail, err := s.repo.Trail().GetByID(ctx, module.TrailID)
	if err != nil {
		return nil, fmt.Errorf("failed to get trail: %w", err)
	}
	canEdit, err := s.canEditTrail(ctx, trail, userID)
	if err != nil {
		return nil, err
	}
	if !canEdit {
		return nil, NewPermissionError(userID, moduleID, "module", "update", "not owner or insufficient permissions")
	}

	if req.Title != nil {
		module.Title = *req.Title
	}
	if req.Position != nil {
		module.Position = *req.Position
	}
	if req.XPReward != nil {
		module.XPReward = *req.XPReward
	}
	if req.Body != nil {
		module.Body = req.Body
	}
	applyModuleSettings(&module.Settings, req.Settings)

	if req.Prerequisites != nil {
		existing, err := s.repo.Trail().ListModules(ctx, module.TrailID)
		if err != nil {
			return nil, fmt.Errorf("failed to list modules: %w", err)
		}
		if err := s.checkPrerequisites(existing, moduleID, req.Prerequisites); err != nil {
			return nil, err
		}
		prereqs, err := json.Marshal(req.Prerequisites)
		if err != nil {
			return nil, fmt.Errorf("failed to encode prerequisites: %w", err)
		}
		module.Prerequisites = prereqs
	}

	if err := s.repo.Trail().UpdateModule(ctx, module); err != nil {
		return nil, fmt.Errorf("failed to update module: %w", err)
	}

	s.logger.Info("Module updated successfully", "module_id", moduleID)
	return module, nil
}

func (s *trailService) RemoveModule(ctx context.Context, moduleID uint, userID string) error {
	s.logger.Info("Removing module", "module_id", moduleID, "user_id", userID)

	module, err := s.repo.Trail().GetModuleByID(ctx, moduleID)
	if err != nil {
		if repositories.IsNotFoundError(err) {
			return ErrModuleNotFound
		}
		return fmt.Errorf("failed to get module: %w", err)
	}

	trail, err := s.repo.Trail().GetByID(ctx, module.TrailID)
	if err != nil {
		return fmt.Errorf("failed to get trail: %w", err)
	}
	canEdit, err := s.canEditTrail(ctx, trail, userID)
	if err != nil {
		return err
	}
	if !canEdit {
		return NewPermissionError(userID, moduleID, "module", "delete", "not owner or insufficient permissions")
	}

	// A module other modules depend on cannot be removed.
	siblings, err := s.repo.Trail().ListModules(ctx, module.TrailID)
	if err != nil {
		return fmt.Errorf("failed to list modules: %w", err)
	}
	for _, sibling := range siblings {
		if sibling.ID == moduleID {
			continue
		}
		for _, prereq := range decodePrerequisites(sibling.Prerequisites) {
			if prereq == moduleID {
				return NewValidationError("module_id",
					fmt.Sprintf("module %d is a prerequisite of module %d", moduleID, sibling.ID), moduleID)
			}
		}
	}

	if err := s.repo.Trail().DeleteModule(ctx, moduleID); err != nil {
		return fmt.Errorf("failed to delete module: %w", err)
	}

	s.logger.Info("Module removed successfully", "module_id", moduleID)
	return nil
}

func (s *trailService) ListModules(ctx context.Context, trailID uint) ([]*models.TrailModule, error) {
	modules, err := s.repo.Trail().ListModules(ctx, trailID)
	if err != nil {
		return nil, fmt.Errorf("failed to list modules: %w", err)
	}
	return modules, nil
}

// ===== PREREQUISITE GRAPH =====

// checkPrerequisites verifies that every referenced module exists in
// the trail and that adding the edges keeps the graph acyclic.
// moduleID is 0 for a module that is not created yet.
func (s *trailService) checkPrerequisites(modules []*models.TrailModule, moduleID uint, prereqs []uint) error {
	known := make(map[uint]bool, len(modules))
	for _, m := range modules {
		known[m.ID] = true
	}
	for _, p := range prereqs {
		if p == moduleID {
			return NewValidationError("prerequisites", "module cannot depend on itself", p)
		}
		if !known[p] {
			return NewValidationError("prerequisites",
				fmt.Sprintf("prerequisite module %d does not exist in this trail", p), p)
		}
	}

	// PreventCycles makes AddEdge refuse any edge that would close a
	// cycle, so the check is the edge insertion itself.
	g := graph.New(func(id uint) uint { return id }, graph.Directed(), graph.PreventCycles())
	for _, m := range modules {
		_ = g.AddVertex(m.ID)
	}
	if moduleID == 0 {
		// pending module, not yet persisted
		const pendingID = ^uint(0)
		_ = g.AddVertex(pendingID)
		moduleID = pendingID
	}

	for _, m := range modules {
		if m.ID == moduleID {
			// replaced below by the requested prerequisites
			continue
		}
		for _, p := range decodePrerequisites(m.Prerequisites) {
			if err := g.AddEdge(p, m.ID); err != nil && errors.Is(err, graph.ErrEdgeCreatesCycle) {
				return ErrPrerequisiteCycle
			}
		}
	}
	for _, p := range prereqs {
		if err := g.AddEdge(p, moduleID); err != nil && errors.Is(err, graph.ErrEdgeCreatesCycle) {
			return ErrPrerequisiteCycle
		}
	}
	return nil
}

func (s *trailService) UnlockOrder(ctx context.Context, trailID uint) ([]uint, error) {
	modules, err := s.repo.Trail().ListModules(ctx, trailID)
	if err != nil {
		return nil, fmt.Errorf("failed to list modules: %w", err)
	}
	if len(modules) == 0 {
		return []uint{}, nil
	}

	g := graph.New(func(id uint) uint { return id }, graph.Directed())
	position := make(map[uint]int, len(modules))
	for _, m := range modules {
		_ = g.AddVertex(m.ID)
		position[m.ID] = m.Position
	}
	for _, m := range modules {
		for _, p := range decodePrerequisites(m.Prerequisites) {
			_ = g.AddEdge(p, m.ID)
		}
	}

	// Ties broken by authoring position so the order is stable.
	order, err := graph.StableTopologicalSort(g, func(a, b uint) bool {
		if position[a] != position[b] {
			return position[a] < position[b]
		}
		return a < b
	})
	if err != nil {
		return nil, ErrPrerequisiteCycle
	}
	return order, nil
}

// ===== SHARED HELPERS =====

func (s *trailService) getUserRole(ctx context.Context, userID string) (models.UserRole, error) {
	user, err := s.repo.User().GetByID(ctx, userID)
	if err != nil {
		return "", fmt.Errorf("failed to get user: %w", err)
	}
	return user.Role, nil
}

func (s *trailService) isTeacherOrAdmin(ctx context.Context, userID string) (bool, error) {
	role, err := s.getUserRole(ctx, userID)
	if err != nil {
		return false, err
	}
	return role == models.RoleTeacher || role == models.RoleAdmin, nil
}

func (s *trailService) canEditTrail(ctx context.Context, trail *models.Trail, userID string) (bool, error) {
	if trail.CreatedBy == userID {
		return true, nil
	}
	role, err := s.getUserRole(ctx, userID)
	if err != nil {
		return false, err
	}
	return role == models.RoleAdmin, nil
}

func (s *trailService) buildTrailResponse(ctx context.Context, trail *models.Trail, userID string) *TrailResponse {
	resp := &TrailResponse{Trail: trail}

	if canEdit, err := s.canEditTrail(ctx, trail, userID); err == nil {
		resp.CanEdit = canEdit
		resp.CanDelete = canEdit
	}
	if _, err := s.repo.Trail().GetEnrollment(ctx, trail.ID, userID); err == nil {
		resp.Enrolled = true
	}
	if count, err := s.repo.Trail().CountEnrollments(ctx, trail.ID); err == nil {
		trail.EnrolledCount = count
	}
	if count, err := s.repo.Trail().CountModules(ctx, trail.ID); err == nil {
		trail.ModuleCount = count
	}
	return resp
}

func applyModuleSettings(settings *models.ModuleSettings, req *models.ModuleSettingsRequest) {
	if req == nil {
		return
	}
	if req.RandomizeQuestions != nil {
		settings.RandomizeQuestions = *req.RandomizeQuestions
	}
	if req.RandomizeOptions != nil {
		settings.RandomizeOptions = *req.RandomizeOptions
	}
	if req.TimeLimitMinutes != nil {
		settings.TimeLimitMinutes = req.TimeLimitMinutes
	}
	if req.MaxAttempts != nil {
		settings.MaxAttempts = *req.MaxAttempts
	}
	if req.PassingScore != nil {
		settings.PassingScore = *req.PassingScore
	}
	if req.ShowResults != nil {
		settings.ShowResults = *req.ShowResults
	}
}

// decodePrerequisites returns the module ids stored in the JSONB
// column, sorted for deterministic iteration.
func decodePrerequisites(raw []byte) []uint {
	if len(raw) == 0 {
		return nil
	}
	var ids []uint
	if err := json.Unmarshal(raw, &ids); err != nil {
		return nil
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}
