package state

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	contractx "github.com/tanpawarit/marketing-ai/agent/contract"
)

type RunStatus string

const (
	RunRunning   RunStatus = "running"
	RunCompleted RunStatus = "completed"
	RunFailed    RunStatus = "failed"
)

type TaskStatus string

const (
	TaskPending   TaskStatus = "pending"
	TaskRunning   TaskStatus = "running"
	TaskCompleted TaskStatus = "completed"
	TaskFailed    TaskStatus = "failed"
)

var ErrUnknownTask = errors.New("task is not part of the run")

// TaskRecord is the persisted progress of one crew task.
type TaskRecord struct {
	Name       contractx.TaskName  `json:"name"`
	Agent      contractx.AgentType `json:"agent,omitempty"`
	Status     TaskStatus          `json:"status"`
	Output     json.RawMessage     `json:"output,omitempty"`
	Error      string              `json:"error,omitempty"`
	Attempts   int                 `json:"attempts"`
	StartedAt  time.Time           `json:"started_at,omitempty"`
	FinishedAt time.Time           `json:"finished_at,omitempty"`
}

// RunState is the checkpoint of one crew kickoff. Completed tasks are
// skipped when a run is resumed.
type RunState struct {
	RunID        string           `json:"run_id"`
	Version      int              `json:"version"`
	Inputs       contractx.Inputs `json:"inputs"`
	Status       RunStatus        `json:"status"`
	Tasks        []TaskRecord     `json:"tasks"`
	CampaignFile string           `json:"campaign_file,omitempty"`
	ReportPath   string           `json:"report_path,omitempty"`
	Error        string           `json:"error,omitempty"`
	CreatedAt    time.Time        `json:"created_at"`
	UpdatedAt    time.Time        `json:"updated_at"`
}

func NewRunState(runID string, inputs contractx.Inputs, now time.Time) *RunState {
	tasks := make([]TaskRecord, 0, len(contractx.TaskOrder))
	for _, name := range contractx.TaskOrder {
		tasks = append(tasks, TaskRecord{Name: name, Status: TaskPending})
	}
	return &RunState{
		RunID:     runID,
		Version:   1,
		Inputs:    inputs,
		Status:    RunRunning,
		Tasks:     tasks,
		CreatedAt: now.UTC(),
		UpdatedAt: now.UTC(),
	}
}

func (s *RunState) Touch(now time.Time) {
	s.UpdatedAt = now.UTC()
	s.Version++
}

func (s *RunState) Task(name contractx.TaskName) (*TaskRecord, bool) {
	for i := range s.Tasks {
		if s.Tasks[i].Name == name {
			return &s.Tasks[i], true
		}
	}
	return nil, false
}

func (s *RunState) IsTaskDone(name contractx.TaskName) bool {
	t, ok := s.Task(name)
	return ok && t.Status == TaskCompleted
}

func (s *RunState) StartTask(name contractx.TaskName, agent contractx.AgentType, now time.Time) error {
	t, ok := s.Task(name)
	if !ok {
		return fmt.Errorf("%w: %s", ErrUnknownTask, name)
	}
	t.Agent = agent
	t.Status = TaskRunning
	t.Error = ""
	t.Attempts++
	t.StartedAt = now.UTC()
	t.FinishedAt = time.Time{}
	s.Status = RunRunning
	s.Error = ""
	s.Touch(now)
	return nil
}

func (s *RunState) CompleteTask(name contractx.TaskName, output json.RawMessage, now time.Time) error {
	t, ok := s.Task(name)
	if !ok {
		return fmt.Errorf("%w: %s", ErrUnknownTask, name)
	}
	t.Status = TaskCompleted
	t.Output = output
	t.Error = ""
	t.FinishedAt = now.UTC()
	s.Touch(now)
	return nil
}

// FailTask records cause on the task and marks the whole run failed.
func (s *RunState) FailTask(name contractx.TaskName, cause error, now time.Time) error {
	t, ok := s.Task(name)
	if !ok {
		return fmt.Errorf("%w: %s", ErrUnknownTask, name)
	}
	msg := "unknown error"
	if cause != nil {
		msg = cause.Error()
	}
	t.Status = TaskFailed
	t.Error = msg
	t.FinishedAt = now.UTC()
	s.Status = RunFailed
	s.Error = fmt.Sprintf("%s: %s", name, msg)
	s.Touch(now)
	return nil
}

func (s *RunState) Complete(now time.Time) {
	s.Status = RunCompleted
	s.Error = ""
	s.Touch(now)
}

// Outputs returns the outputs of completed tasks in run order.
func (s *RunState) Outputs() []contractx.TaskOutput {
	out := make([]contractx.TaskOutput, 0, len(s.Tasks))
	for _, t := range s.Tasks {
		if t.Status != TaskCompleted || len(t.Output) == 0 {
			continue
		}
		out = append(out, contractx.TaskOutput{Task: t.Name, Output: t.Output})
	}
	return out
}

func (s *RunState) Validate() error {
	if strings.TrimSpace(s.RunID) == "" {
		return ErrInvalidRun
	}
	if s.Version <= 0 {
		return fmt.Errorf("invalid version: %d", s.Version)
	}
	switch s.Status {
	case RunRunning, RunCompleted, RunFailed:
	default:
		return fmt.Errorf("invalid run status: %q", s.Status)
	}
	seen := make(map[contractx.TaskName]struct{}, len(s.Tasks))
	for _, t := range s.Tasks {
		if _, dup := seen[t.Name]; dup {
			return fmt.Errorf("duplicate task record: %s", t.Name)
		}
		seen[t.Name] = struct{}{}
	}
	for _, name := range contractx.TaskOrder {
		if _, ok := seen[name]; !ok {
			return fmt.Errorf("missing task record: %s", name)
		}
	}
	return nil
}
