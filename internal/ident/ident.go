// Package ident defines the identifier value model for cub: hierarchical,
// human-readable IDs for specs, plans, epics, tasks, and standalone tasks.
//
// Identifiers are immutable values. They are created by constructors or by
// the number-allocating generators, and after that they are only formatted,
// parsed, or compared. All I/O lives behind the NumberSource interface.
package ident

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidArgument is returned for malformed identifier syntax or
	// out-of-range constructor arguments. Never retried.
	ErrInvalidArgument = errors.New("invalid identifier argument")

	// ErrSequenceExhausted is returned when all 62 symbols of a plan or
	// epic sequence are in use. There is no automatic fallback.
	ErrSequenceExhausted = errors.New("symbol sequence exhausted")
)

// SpecID identifies a top-level unit of work: a specification.
type SpecID struct {
	Project string
	Number  int
}

// String formats the spec ID as "{project}-{number}" with the number
// zero-padded to at least three digits (e.g. "cub-054").
func (s SpecID) String() string {
	return fmt.Sprintf("%s-%03d", s.Project, s.Number)
}

// Validate checks that the spec ID is well-formed.
func (s SpecID) Validate() error {
	if s.Project == "" {
		return fmt.Errorf("%w: spec project must not be empty", ErrInvalidArgument)
	}
	if s.Number < 0 {
		return fmt.Errorf("%w: spec number must be >= 0, got %d", ErrInvalidArgument, s.Number)
	}
	return nil
}

// PlanID identifies one design pass for a specification. The letter is
// drawn from PlanSequence and is unique within the specification.
type PlanID struct {
	Spec   SpecID
	Letter byte
}

// String formats the plan ID as "{spec}{letter}" (e.g. "cub-054A").
func (p PlanID) String() string {
	return p.Spec.String() + string(p.Letter)
}

// EpicID identifies a grouping of tasks within a plan. The char is drawn
// from EpicSequence and is unique within the plan.
type EpicID struct {
	Plan PlanID
	Char byte
}

// String formats the epic ID as "{plan}-{char}" (e.g. "cub-054A-0").
func (e EpicID) String() string {
	return e.Plan.String() + "-" + string(e.Char)
}

// TaskID identifies one executable unit of work within an epic. Numbers
// start at 1 and are sequential within the epic.
type TaskID struct {
	Epic   EpicID
	Number int
}

// String formats the task ID as "{epic}.{number}" (e.g. "cub-054A-0.1").
func (t TaskID) String() string {
	return fmt.Sprintf("%s.%d", t.Epic.String(), t.Number)
}

// StandaloneID identifies a work item outside the spec/plan/epic hierarchy.
type StandaloneID struct {
	Project string
	Number  int
}

// String formats the standalone ID as "{project}-s{number}" with the
// number zero-padded to at least three digits (e.g. "cub-s007").
func (s StandaloneID) String() string {
	return fmt.Sprintf("%s-s%03d", s.Project, s.Number)
}

// NewPlanID constructs a plan ID after validating that letter is a member
// of PlanSequence.
func NewPlanID(spec SpecID, letter byte) (PlanID, error) {
	if err := spec.Validate(); err != nil {
		return PlanID{}, err
	}
	if !inSequence(PlanSequence, letter) {
		return PlanID{}, fmt.Errorf("%w: plan letter %q is not in sequence A-Z a-z 0-9", ErrInvalidArgument, string(letter))
	}
	return PlanID{Spec: spec, Letter: letter}, nil
}

// NewEpicID constructs an epic ID after validating that char is a member
// of EpicSequence.
func NewEpicID(plan PlanID, char byte) (EpicID, error) {
	if !inSequence(EpicSequence, char) {
		return EpicID{}, fmt.Errorf("%w: epic char %q is not in sequence 0-9 a-z A-Z", ErrInvalidArgument, string(char))
	}
	return EpicID{Plan: plan, Char: char}, nil
}

// NewTaskID constructs a task ID. Task numbers start at 1.
func NewTaskID(epic EpicID, number int) (TaskID, error) {
	if number < 1 {
		return TaskID{}, fmt.Errorf("%w: task number must be >= 1, got %d", ErrInvalidArgument, number)
	}
	return TaskID{Epic: epic, Number: number}, nil
}
