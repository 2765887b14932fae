package printer

import (
	"sync"

	"github.com/google/uuid"
)

type jobState int

const (
	jobPending jobState = iota
	jobAwaitingPermission
	jobComplete
)

func (s jobState) String() string {
	switch s {
	case jobPending:
		return "pending"
	case jobAwaitingPermission:
		return "awaiting_permission"
	case jobComplete:
		return "complete"
	}
	return "unknown"
}

// Job tracks the outcome of one print or battery operation. A completed job
// never becomes incomplete again.
type Job struct {
	ID string

	mu         sync.Mutex
	state      jobState
	code       Code
	message    MessageID
	permission MessageID
}

// NewJob creates a pending job with a fresh ID
func NewJob() *Job {
	return NewJobWithID(uuid.NewString())
}

// NewJobWithID creates a pending job using a caller supplied ID
func NewJobWithID(id string) *Job {
	return &Job{ID: id, code: OK}
}

// Complete reports whether the job has finished, successfully or not
func (j *Job) Complete() bool {
	j.mu.Lock()
	defer j.mu.Unlock()
	return j.state == jobComplete
}

// PermissionRequired reports whether the job is waiting for the radio to be
// enabled
func (j *Job) PermissionRequired() bool {
	j.mu.Lock()
	defer j.mu.Unlock()
	return j.state == jobAwaitingPermission
}

// Code returns the current classification
func (j *Job) Code() Code {
	j.mu.Lock()
	defer j.mu.Unlock()
	return j.code
}

// ErrorMessage returns the resolved error text, or "" when there is none
func (j *Job) ErrorMessage(t Table) string {
	j.mu.Lock()
	id := j.message
	j.mu.Unlock()
	if id == MsgNone {
		return ""
	}
	return Resolve(t, id)
}

// PermissionMessage returns the text asking the user to enable the radio,
// or "" when no permission is pending
func (j *Job) PermissionMessage(t Table) string {
	j.mu.Lock()
	id := j.permission
	j.mu.Unlock()
	if id == MsgNone {
		return ""
	}
	return Resolve(t, id)
}

// ResetPermission returns a job awaiting permission to pending so it can be
// run again.
func (j *Job) ResetPermission() {
	j.mu.Lock()
	defer j.mu.Unlock()
	if j.state != jobAwaitingPermission {
		return
	}
	j.state = jobPending
	j.code = OK
	j.permission = MsgNone
}

func (j *Job) finish(code Code, msg MessageID) {
	j.mu.Lock()
	defer j.mu.Unlock()
	if j.state == jobComplete {
		return
	}
	j.state = jobComplete
	j.code = code
	j.message = msg
	j.permission = MsgNone
}

func (j *Job) requirePermission() {
	j.mu.Lock()
	defer j.mu.Unlock()
	if j.state == jobComplete {
		return
	}
	j.state = jobAwaitingPermission
	j.code = PermissionRequired
	j.permission = MsgPermission
}

func (j *Job) stateName() string {
	j.mu.Lock()
	defer j.mu.Unlock()
	return j.state.String()
}
