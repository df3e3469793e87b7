package stores

import "time"

// Pass represents one recorded execution pass.
type Pass struct {
	ID             string     `json:"id"`
	StartedAt      time.Time  `json:"started_at"`
	CompletedAt    *time.Time `json:"completed_at,omitempty"`
	Success        bool       `json:"success"`
	RulesTotal     int        `json:"rules_total"`
	RulesSucceeded int        `json:"rules_succeeded"`
	RulesFailed    int        `json:"rules_failed"`
	CreatedAt      time.Time  `json:"created_at"`
}

// RuleResult represents one rule's outcome within a recorded pass.
type RuleResult struct {
	ID         int64     `json:"id"`
	PassID     string    `json:"pass_id"`
	Rule       string    `json:"rule"`
	Success    bool      `json:"success"`
	DurationMS int64     `json:"duration_ms"`
	Error      *string   `json:"error,omitempty"`
	CreatedAt  time.Time `json:"created_at"`
}
