// Package engine implements the rule execution core of autoflow: the Rule
// contract, the Engine that fans out all enabled rules concurrently and keeps
// per-rule statistics, and the interval Scheduler that re-triggers full
// passes until stopped.
//
// Failure isolation is the central design rule. Every rule execution is
// recovered at its own boundary: an error (or panic) from one rule becomes a
// recorded failure outcome and never aborts the rest of the batch. ExecuteAll
// reports the aggregate result as an ordinary boolean, not an error.
package engine
