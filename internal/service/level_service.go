package service

import (
	"context"

	"github.com/spec-kit/helpdesk/internal/domain"
	"github.com/spec-kit/helpdesk/internal/lifecycle"
	"github.com/spec-kit/helpdesk/internal/repository"
	apperrors "github.com/spec-kit/helpdesk/pkg/util/errorutil"
)

// LevelService exposes escalation level management.
type LevelService struct {
	levels repository.LevelRepository
}

// NewLevelService builds the service.
func NewLevelService(levels repository.LevelRepository) *LevelService {
	return &LevelService{levels: levels}
}

// List returns every level in sort order.
func (s *LevelService) List(ctx context.Context) ([]domain.EscalationLevel, error) {
	levels, err := s.levels.List(ctx)
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	return levels, nil
}

// Delete removes a level. It is refused while any ticket or agent still
// references it.
func (s *LevelService) Delete(ctx context.Context, actor lifecycle.Actor, levelID string) error {
	if !actor.IsAdmin() {
		return apperrors.NewForbidden("admin role required to delete levels", map[string]any{"required": "admin"})
	}
	if _, err := s.levels.GetByID(ctx, levelID); err != nil {
		if repository.IsNotFound(err) {
			return apperrors.NewNotFound("escalation level", map[string]any{"level_id": levelID})
		}
		return apperrors.MapError(err)
	}
	tickets, agents, err := s.levels.CountReferences(ctx, levelID)
	if err != nil {
		return apperrors.MapError(err)
	}
	if tickets > 0 || agents > 0 {
		return apperrors.NewConflict("escalation level is in use", map[string]any{
			"level_id": levelID,
			"tickets":  tickets,
			"agents":   agents,
		})
	}
	if err := s.levels.Delete(ctx, levelID); err != nil {
		return apperrors.MapError(err)
	}
	return nil
}
