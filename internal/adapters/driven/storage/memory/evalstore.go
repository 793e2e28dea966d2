package memory

import (
	"context"
	"sort"
	"sync"

	"github.com/custodia-labs/sercha-rag/internal/core/domain"
	"github.com/custodia-labs/sercha-rag/internal/core/ports/driven"
)

// Ensure EvaluationStore implements the interface.
var _ driven.EvaluationStore = (*EvaluationStore)(nil)

// EvaluationStore keeps evaluation reports in memory.
type EvaluationStore struct {
	mu      sync.RWMutex
	reports map[string]domain.EvaluationReport
}

// NewEvaluationStore creates an empty store.
func NewEvaluationStore() *EvaluationStore {
	return &EvaluationStore{reports: make(map[string]domain.EvaluationReport)}
}

// SaveReport stores or replaces a report by ID.
func (s *EvaluationStore) SaveReport(_ context.Context, report *domain.EvaluationReport) error {
	if report.ID == "" {
		return domain.ErrInvalidInput
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.reports[report.ID] = *report
	return nil
}

// ListReports returns up to limit reports, newest first.
func (s *EvaluationStore) ListReports(_ context.Context, limit int) ([]domain.EvaluationReport, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	all := make([]domain.EvaluationReport, 0, len(s.reports))
	for _, r := range s.reports {
		all = append(all, r)
	}
	sort.Slice(all, func(i, j int) bool {
		if !all[i].StartedAt.Equal(all[j].StartedAt) {
			return all[i].StartedAt.After(all[j].StartedAt)
		}
		return all[i].ID < all[j].ID
	})

	if limit < 0 {
		limit = 0
	}
	if limit < len(all) {
		all = all[:limit]
	}
	return all, nil
}
