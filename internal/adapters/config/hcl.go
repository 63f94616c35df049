package config

import (
	"fmt"

	"github.com/hashicorp/hcl/v2"
	"github.com/hashicorp/hcl/v2/gohcl"
	"github.com/hashicorp/hcl/v2/hclparse"
	"github.com/zclconf/go-cty/cty"
	"go.trai.ch/rig/internal/core/domain"
)

// hclRigfile represents the top-level structure of rigfile.hcl.
type hclRigfile struct {
	Version string       `hcl:"version,optional"`
	Targets []*hclTarget `hcl:"target,block"`
}

// hclTarget is a `target "name" { ... }` block. Actions stay an expression
// because each element may be a string or a list of strings.
type hclTarget struct {
	Name        string            `hcl:"name,label"`
	Description string            `hcl:"description,optional"`
	Phony       bool              `hcl:"phony,optional"`
	Deps        []string          `hcl:"deps,optional"`
	Actions     hcl.Expression    `hcl:"actions,optional"`
	Mode        string            `hcl:"mode,optional"`
	WorkingDir  string            `hcl:"workdir,optional"`
	Environment map[string]string `hcl:"env,optional"`
}

func (l *Loader) decodeHCL(data []byte, configPath string) ([]declaration, error) {
	parser := hclparse.NewParser()
	file, diags := parser.ParseHCL(data, configPath)
	if diags.HasErrors() {
		return nil, fmt.Errorf("%w: %w", domain.ErrConfigParseFailed, diags)
	}

	var parsed hclRigfile
	if diags := gohcl.DecodeBody(file.Body, nil, &parsed); diags.HasErrors() {
		return nil, fmt.Errorf("%w: %w", domain.ErrConfigParseFailed, diags)
	}
	l.checkVersion(parsed.Version, configPath)

	decls := make([]declaration, 0, len(parsed.Targets))
	for _, t := range parsed.Targets {
		actions, err := decodeHCLActions(t.Actions)
		if err != nil {
			return nil, domain.Annotate(err, "target", t.Name)
		}

		decls = append(decls, declaration{
			name:        t.Name,
			description: t.Description,
			phony:       t.Phony,
			deps:        t.Deps,
			actions:     actions,
			mode:        t.Mode,
			workingDir:  t.WorkingDir,
			environment: t.Environment,
		})
	}
	return decls, nil
}

func decodeHCLActions(expr hcl.Expression) ([]domain.Action, error) {
	if expr == nil {
		return nil, nil
	}

	val, diags := expr.Value(nil)
	if diags.HasErrors() {
		return nil, fmt.Errorf("%w: %w", domain.ErrConfigParseFailed, diags)
	}
	if val.IsNull() {
		return nil, nil
	}
	if !val.IsKnown() || !val.CanIterateElements() || val.Type().IsMapType() || val.Type().IsObjectType() {
		return nil, domain.ErrInvalidAction
	}

	var actions []domain.Action
	for it := val.ElementIterator(); it.Next(); {
		_, elem := it.Element()
		action, err := decodeHCLAction(elem)
		if err != nil {
			return nil, domain.Annotate(err, "action", len(actions))
		}
		actions = append(actions, action)
	}
	return actions, nil
}

func decodeHCLAction(v cty.Value) (domain.Action, error) {
	if v.IsNull() || !v.IsKnown() {
		return nil, domain.ErrInvalidAction
	}

	ty := v.Type()
	switch {
	case ty == cty.String:
		if v.AsString() == "" {
			return nil, domain.ErrInvalidAction
		}
		return domain.Command{Script: v.AsString()}, nil
	case ty.IsTupleType() || ty.IsListType():
		argv := make([]string, 0, v.LengthInt())
		for it := v.ElementIterator(); it.Next(); {
			_, arg := it.Element()
			if arg.IsNull() || arg.Type() != cty.String {
				return nil, domain.ErrInvalidAction
			}
			argv = append(argv, arg.AsString())
		}
		if len(argv) == 0 || argv[0] == "" {
			return nil, domain.ErrInvalidAction
		}
		return domain.Command{Argv: argv}, nil
	default:
		return nil, domain.ErrInvalidAction
	}
}
