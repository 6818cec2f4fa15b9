package lifecycle

import "github.com/spec-kit/helpdesk/internal/domain"

func findLevel(id string, levels []domain.EscalationLevel) (domain.EscalationLevel, bool) {
	for _, level := range levels {
		if level.ID == id {
			return level, true
		}
	}
	return domain.EscalationLevel{}, false
}

// LowestLevel returns the active level with the smallest sort order.
func LowestLevel(levels []domain.EscalationLevel) (domain.EscalationLevel, bool) {
	var (
		best  domain.EscalationLevel
		found bool
	)
	for _, level := range levels {
		if !level.IsActive {
			continue
		}
		if !found || level.SortOrder < best.SortOrder {
			best, found = level, true
		}
	}
	return best, found
}

// NextLevel returns the active level immediately above current. ok is false
// when current is already the highest tier.
func NextLevel(current domain.EscalationLevel, levels []domain.EscalationLevel) (domain.EscalationLevel, bool) {
	var (
		best  domain.EscalationLevel
		found bool
	)
	for _, level := range levels {
		if !level.IsActive || level.ID == current.ID || level.SortOrder <= current.SortOrder {
			continue
		}
		if !found || level.SortOrder < best.SortOrder {
			best, found = level, true
		}
	}
	return best, found
}
