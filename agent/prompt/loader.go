package prompt

import (
	_ "embed"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	contractx "github.com/tanpawarit/marketing-ai/agent/contract"
	"gopkg.in/yaml.v3"
)

const (
	agentsFile = "agents.yaml"
	tasksFile  = "tasks.yaml"
)

var (
	//go:embed template/agents.yaml
	agentsRaw []byte

	//go:embed template/tasks.yaml
	tasksRaw []byte
)

// AgentDefinition describes one crew role.
type AgentDefinition struct {
	Role      string `yaml:"role"`
	Goal      string `yaml:"goal"`
	Backstory string `yaml:"backstory"`
}

// TaskDefinition describes one crew task and the role that owns it.
type TaskDefinition struct {
	Agent          contractx.AgentType `yaml:"agent"`
	Description    string              `yaml:"description"`
	ExpectedOutput string              `yaml:"expected_output"`
	OutputFile     string              `yaml:"output_file,omitempty"`
}

type Definitions struct {
	Agents map[contractx.AgentType]AgentDefinition
	Tasks  map[contractx.TaskName]TaskDefinition
}

// LoadDefinitions returns the embedded agent and task definitions. When dir
// is non-empty, agents.yaml and tasks.yaml found there replace the embedded
// ones file by file.
func LoadDefinitions(dir string) (Definitions, error) {
	agentsData, err := readOverride(dir, agentsFile, agentsRaw)
	if err != nil {
		return Definitions{}, err
	}
	tasksData, err := readOverride(dir, tasksFile, tasksRaw)
	if err != nil {
		return Definitions{}, err
	}

	var defs Definitions
	if err := yaml.Unmarshal(agentsData, &defs.Agents); err != nil {
		return Definitions{}, fmt.Errorf("%w: parse %s: %v", contractx.ErrPromptMissing, agentsFile, err)
	}
	if err := yaml.Unmarshal(tasksData, &defs.Tasks); err != nil {
		return Definitions{}, fmt.Errorf("%w: parse %s: %v", contractx.ErrPromptMissing, tasksFile, err)
	}
	defs.trim()

	if err := defs.Validate(); err != nil {
		return Definitions{}, err
	}
	return defs, nil
}

func readOverride(dir string, name string, fallback []byte) ([]byte, error) {
	dir = strings.TrimSpace(dir)
	if dir == "" {
		return fallback, nil
	}
	data, err := os.ReadFile(filepath.Join(dir, name))
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return fallback, nil
		}
		return nil, fmt.Errorf("read %s: %w", name, err)
	}
	return data, nil
}

func (d *Definitions) trim() {
	for k, a := range d.Agents {
		a.Role = strings.TrimSpace(a.Role)
		a.Goal = strings.TrimSpace(a.Goal)
		a.Backstory = strings.TrimSpace(a.Backstory)
		d.Agents[k] = a
	}
	for k, t := range d.Tasks {
		t.Agent = contractx.AgentType(strings.TrimSpace(string(t.Agent)))
		t.Description = strings.TrimSpace(t.Description)
		t.ExpectedOutput = strings.TrimSpace(t.ExpectedOutput)
		t.OutputFile = strings.TrimSpace(t.OutputFile)
		d.Tasks[k] = t
	}
}

// Validate checks that every crew task is defined and owned by a defined agent.
func (d Definitions) Validate() error {
	for name, a := range d.Agents {
		if a.Role == "" || a.Goal == "" || a.Backstory == "" {
			return fmt.Errorf("%w: agent=%s needs role, goal and backstory", contractx.ErrPromptMissing, name)
		}
	}
	for _, name := range contractx.TaskOrder {
		t, ok := d.Tasks[name]
		if !ok {
			return fmt.Errorf("%w: task=%s", contractx.ErrPromptMissing, name)
		}
		if t.Description == "" || t.ExpectedOutput == "" {
			return fmt.Errorf("%w: task=%s needs description and expected_output", contractx.ErrPromptMissing, name)
		}
		if _, ok := d.Agents[t.Agent]; !ok {
			return fmt.Errorf("%w: task=%s references unknown agent=%q", contractx.ErrPromptMissing, name, t.Agent)
		}
	}
	return nil
}

func (d Definitions) Agent(agentType contractx.AgentType) (AgentDefinition, error) {
	a, ok := d.Agents[agentType]
	if !ok {
		return AgentDefinition{}, fmt.Errorf("%w: agent=%s", contractx.ErrPromptMissing, agentType)
	}
	return a, nil
}

func (d Definitions) Task(name contractx.TaskName) (TaskDefinition, error) {
	t, ok := d.Tasks[name]
	if !ok {
		return TaskDefinition{}, fmt.Errorf("%w: task=%s", contractx.ErrPromptMissing, name)
	}
	return t, nil
}

// SystemPrompt renders the role description sent as the system message.
func (a AgentDefinition) SystemPrompt(vars map[string]string) string {
	var b strings.Builder
	b.WriteString("You are ")
	b.WriteString(Render(a.Role, vars))
	b.WriteString(".\n")
	b.WriteString(Render(a.Backstory, vars))
	b.WriteString("\n\nYour personal goal is: ")
	b.WriteString(Render(a.Goal, vars))
	return b.String()
}

// Render substitutes {name} placeholders. Unknown placeholders are kept.
func Render(text string, vars map[string]string) string {
	if len(vars) == 0 {
		return text
	}
	pairs := make([]string, 0, len(vars)*2)
	for k, v := range vars {
		pairs = append(pairs, "{"+k+"}", v)
	}
	return strings.NewReplacer(pairs...).Replace(text)
}
