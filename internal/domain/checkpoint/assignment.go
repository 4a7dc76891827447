package checkpoint

import (
	"errors"
	"fmt"

	"github.com/patrolops/patrol-backend-go/internal/domain/user"
)

const MaxBulkItems = 50

type FailureCode string

const (
	FailureValidation FailureCode = "VALIDATION_ERROR"
	FailureConflict   FailureCode = "CONFLICT"
	FailureNotFound   FailureCode = "NOT_FOUND"
)

type Assignment struct {
	CheckpointID string `json:"checkpoint_id"`
	GuardID      string `json:"guard_id"`
}

type ItemSuccess struct {
	Index        int    `json:"index"`
	CheckpointID string `json:"checkpoint_id"`
	GuardID      string `json:"guard_id"`
}

type ItemFailure struct {
	Index        int         `json:"index"`
	CheckpointID string      `json:"checkpoint_id,omitempty"`
	GuardID      string      `json:"guard_id"`
	Code         FailureCode `json:"code"`
	Reason       string      `json:"reason"`
}

type BulkSummary struct {
	Total      int `json:"total"`
	Successful int `json:"successful"`
	Failed     int `json:"failed"`
}

type BulkResult struct {
	Successful []ItemSuccess `json:"successful"`
	Failed     []ItemFailure `json:"failed"`
	Summary    BulkSummary   `json:"summary"`
}

// Snapshot is the locked state a bulk plan is computed against. Checkpoint
// AssignedGuards holds the current number of guards assigned to it.
type Snapshot struct {
	Checkpoints map[string]Checkpoint
	Guards      map[string]user.User
}

// PlanBulkAssign validates every item on its own against snap and the effect
// of earlier successful items in the same batch. snap is not modified.
func PlanBulkAssign(items []Assignment, snap Snapshot) BulkResult {
	p := newPlanner(snap)
	res := BulkResult{Successful: []ItemSuccess{}, Failed: []ItemFailure{}}

	for i, item := range items {
		if err := p.assign(item); err != nil {
			res.Failed = append(res.Failed, failure(i, item.CheckpointID, item.GuardID, err))
			continue
		}
		res.Successful = append(res.Successful, ItemSuccess{Index: i, CheckpointID: item.CheckpointID, GuardID: item.GuardID})
	}

	res.Summary = summarize(len(items), res)
	return res
}

// PlanBulkUnassign is PlanBulkAssign for clearing assignments. Successful
// entries carry the checkpoint the guard was released from.
func PlanBulkUnassign(guardIDs []string, snap Snapshot) BulkResult {
	p := newPlanner(snap)
	res := BulkResult{Successful: []ItemSuccess{}, Failed: []ItemFailure{}}

	for i, guardID := range guardIDs {
		checkpointID, err := p.unassign(guardID)
		if err != nil {
			res.Failed = append(res.Failed, failure(i, "", guardID, err))
			continue
		}
		res.Successful = append(res.Successful, ItemSuccess{Index: i, CheckpointID: checkpointID, GuardID: guardID})
	}

	res.Summary = summarize(len(guardIDs), res)
	return res
}

// itemError is a rejected batch item.
type itemError struct {
	code   FailureCode
	reason string
	err    error
}

func (e *itemError) Error() string { return e.reason }
func (e *itemError) Unwrap() error { return e.err }

func reject(code FailureCode, err error, format string, args ...any) *itemError {
	return &itemError{code: code, reason: fmt.Sprintf(format, args...), err: err}
}

type planner struct {
	checkpoints map[string]Checkpoint
	guards      map[string]user.User
	assigned    map[string]int     // checkpoint ID -> guards assigned
	guardCP     map[string]*string // guard ID -> checkpoint ID
}

func newPlanner(snap Snapshot) *planner {
	p := &planner{
		checkpoints: snap.Checkpoints,
		guards:      snap.Guards,
		assigned:    make(map[string]int, len(snap.Checkpoints)),
		guardCP:     make(map[string]*string, len(snap.Guards)),
	}
	for id, cp := range snap.Checkpoints {
		p.assigned[id] = cp.AssignedGuards
	}
	for id, g := range snap.Guards {
		p.guardCP[id] = g.AssignedCheckpointID
	}
	return p
}

func (p *planner) assign(item Assignment) error {
	if item.CheckpointID == "" || item.GuardID == "" {
		return reject(FailureValidation, nil, "checkpoint_id and guard_id are required")
	}

	cp, ok := p.checkpoints[item.CheckpointID]
	if !ok {
		return reject(FailureNotFound, ErrCheckpointNotFound, "checkpoint %s not found", item.CheckpointID)
	}
	if !cp.IsActive {
		return reject(FailureNotFound, ErrCheckpointInactive, "checkpoint %q is not active", cp.Name)
	}

	g, err := p.guard(item.GuardID)
	if err != nil {
		return err
	}
	if !g.IsActive {
		return reject(FailureNotFound, ErrGuardInactive, "guard %s is not active", g.ID)
	}

	if current := p.guardCP[g.ID]; current != nil {
		return reject(FailureConflict, ErrGuardAlreadyAssigned, "guard %s is already assigned to checkpoint %s", g.ID, *current)
	}

	if !cp.HasCapacity(p.assigned[cp.ID]) {
		return reject(FailureConflict, ErrCapacityExceeded, "checkpoint %q has reached its capacity of %d guard(s)", cp.Name, cp.MaxAssignedGuards)
	}

	cpID := cp.ID
	p.guardCP[g.ID] = &cpID
	p.assigned[cp.ID]++
	return nil
}

func (p *planner) unassign(guardID string) (string, error) {
	if guardID == "" {
		return "", reject(FailureValidation, nil, "guard_id is required")
	}

	g, err := p.guard(guardID)
	if err != nil {
		return "", err
	}

	current := p.guardCP[g.ID]
	if current == nil {
		return "", reject(FailureConflict, ErrGuardNotAssigned, "guard %s is not assigned to any checkpoint", g.ID)
	}

	p.guardCP[g.ID] = nil
	if p.assigned[*current] > 0 {
		p.assigned[*current]--
	}
	return *current, nil
}

func (p *planner) guard(id string) (user.User, error) {
	g, ok := p.guards[id]
	if !ok {
		return user.User{}, reject(FailureNotFound, ErrGuardNotFound, "guard %s not found", id)
	}
	if !g.IsGuard() {
		return user.User{}, reject(FailureNotFound, ErrNotAGuard, "user %s is not a guard", id)
	}
	return g, nil
}

func failure(index int, checkpointID, guardID string, err error) ItemFailure {
	f := ItemFailure{Index: index, CheckpointID: checkpointID, GuardID: guardID, Code: FailureValidation, Reason: err.Error()}
	var ie *itemError
	if errors.As(err, &ie) {
		f.Code = ie.code
	}
	return f
}

func summarize(total int, res BulkResult) BulkSummary {
	return BulkSummary{Total: total, Successful: len(res.Successful), Failed: len(res.Failed)}
}
