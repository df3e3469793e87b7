package stores

import (
	"context"
	"fmt"
	"time"

	"github.com/autoflow/autoflow/pkg/engine"
)

// RecordPass implements engine.Recorder, persisting one completed pass and
// its per-rule results.
func (s *SQLiteStore) RecordPass(ctx context.Context, record engine.PassRecord) error {
	now := time.Now()

	pass := &Pass{
		ID:          record.ID,
		StartedAt:   record.StartedAt,
		CompletedAt: &record.CompletedAt,
		Success:     record.Success,
		RulesTotal:  len(record.Results),
		CreatedAt:   now,
	}
	for _, res := range record.Results {
		if res.Success {
			pass.RulesSucceeded++
		} else {
			pass.RulesFailed++
		}
	}

	if err := s.CreatePass(ctx, pass); err != nil {
		return err
	}

	for _, res := range record.Results {
		result := &RuleResult{
			PassID:     record.ID,
			Rule:       res.Rule,
			Success:    res.Success,
			DurationMS: res.Duration.Milliseconds(),
			CreatedAt:  now,
		}
		if res.Error != "" {
			msg := res.Error
			result.Error = &msg
		}
		if err := s.AddRuleResult(ctx, result); err != nil {
			return fmt.Errorf("pass %s: %w", record.ID, err)
		}
	}
	return nil
}

// Interface guard.
var _ engine.Recorder = (*SQLiteStore)(nil)
