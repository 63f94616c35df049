package config

import (
	"fmt"

	"go.trai.ch/rig/internal/core/domain"
	"gopkg.in/yaml.v3"
)

// Rigfile represents the structure of the rigfile.yaml declaration file.
type Rigfile struct {
	Version string                `yaml:"version"`
	Targets map[string]*TargetDTO `yaml:"targets"`
}

// TargetDTO represents a target definition in the declaration file.
type TargetDTO struct {
	Description string            `yaml:"description"`
	Phony       bool              `yaml:"phony"`
	Deps        []string          `yaml:"deps"`
	Actions     []ActionDTO       `yaml:"actions"`
	Mode        string            `yaml:"mode"`
	WorkingDir  string            `yaml:"workdir"`
	Environment map[string]string `yaml:"env"`
}

// ActionDTO is one recipe line: either a shell script string or an argv list.
type ActionDTO struct {
	Script string
	Argv   []string
}

// UnmarshalYAML accepts a scalar (run through sh -c) or a sequence of strings.
func (a *ActionDTO) UnmarshalYAML(value *yaml.Node) error {
	switch value.Kind {
	case yaml.ScalarNode:
		if value.Value == "" {
			return domain.Annotate(domain.ErrInvalidAction, "line", value.Line)
		}
		a.Script = value.Value
		return nil
	case yaml.SequenceNode:
		var argv []string
		if err := value.Decode(&argv); err != nil {
			return domain.Annotate(fmt.Errorf("%w: %w", domain.ErrInvalidAction, err), "line", value.Line)
		}
		if len(argv) == 0 || argv[0] == "" {
			return domain.Annotate(domain.ErrInvalidAction, "line", value.Line)
		}
		a.Argv = argv
		return nil
	default:
		return domain.Annotate(domain.ErrInvalidAction, "line", value.Line)
	}
}

func (a ActionDTO) toDomain() domain.Action {
	if a.Script != "" {
		return domain.Command{Script: a.Script}
	}
	return domain.Command{Argv: a.Argv}
}
