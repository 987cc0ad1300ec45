// Package lifecycle defines the numeric, stable lifecycle stage identifiers
// a Task passes through (spec section 6) and the stage-set predicate hooks
// register against.
package lifecycle

// Stage is one of the twelve numeric lifecycle milestones (six success
// stages 1..6, six matching error stages -1..-6) a task passes through
// during registration and processing.
type Stage int

const (
	TaskPreRegister        Stage = 1
	TaskPreRegisterError   Stage = -1
	TaskRegistered         Stage = 2
	TaskRegisteredError    Stage = -2

	TaskPreProcessingStart          Stage = 3
	TaskPreProcessingStartError     Stage = -3
	TaskPreProcessingCompleted      Stage = 4
	TaskPreProcessingCompletedError Stage = -4
	TaskProcessingPreStart          Stage = 5
	TaskProcessingPreStartError     Stage = -5
	TaskProcessingPostDone          Stage = 6
	TaskProcessingPostDoneError     Stage = -6
)

// AllDefaultStages lists the twelve default stages 1..6 and -1..-6, in the
// same order TaskLifecycleStages(init_default_stages=True) populates in the
// source.
func AllDefaultStages() StageSet {
	var set StageSet
	for i := Stage(1); i <= 6; i++ {
		set.Register(i)
		set.Register(-i)
	}
	return set
}

// StageSet is a de-duplicated set of Stage values a Hook is registered
// against.
type StageSet struct {
	stages []Stage
	seen   map[Stage]struct{}
}

// NewStageSet builds a StageSet from zero or more stages.
func NewStageSet(stages ...Stage) StageSet {
	var set StageSet
	for _, s := range stages {
		set.Register(s)
	}
	return set
}

// Register adds stage to the set unless already present.
func (s *StageSet) Register(stage Stage) {
	if s.seen == nil {
		s.seen = make(map[Stage]struct{})
	}
	if _, ok := s.seen[stage]; ok {
		return
	}
	s.seen[stage] = struct{}{}
	s.stages = append(s.stages, stage)
}

// Has reports whether stage is registered in the set.
func (s StageSet) Has(stage Stage) bool {
	_, ok := s.seen[stage]
	return ok
}

// All returns the registered stages in registration order.
func (s StageSet) All() []Stage {
	out := make([]Stage, len(s.stages))
	copy(out, s.stages)
	return out
}
