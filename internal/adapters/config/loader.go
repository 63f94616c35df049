// Package config loads target declarations from YAML and HCL files.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"unicode"

	"go.trai.ch/rig/internal/core/domain"
	"go.trai.ch/rig/internal/core/ports"
	"gopkg.in/yaml.v3"
)

// SupportedVersion is the only declaration schema version understood by the loader.
const SupportedVersion = "1"

// FileNames lists the declaration file names searched for, in order of preference.
var FileNames = []string{"rigfile.yaml", "rigfile.yml", "rigfile.hcl"}

// Loader implements ports.ConfigLoader.
type Loader struct {
	Logger ports.Logger
}

// NewLoader creates a new Loader with the given logger.
func NewLoader(logger ports.Logger) *Loader {
	return &Loader{Logger: logger}
}

// Load reads the declarations at path. A directory is searched, together with
// its parents, for the first of FileNames.
func (l *Loader) Load(path string) (*domain.Registry, error) {
	if path == "" {
		path = "."
	}

	info, err := os.Stat(path)
	if err != nil {
		return nil, domain.Annotate(fmt.Errorf("%w: %w", domain.ErrConfigReadFailed, err), "path", path)
	}

	configPath := path
	if info.IsDir() {
		configPath, err = findConfiguration(path)
		if err != nil {
			return nil, err
		}
	}

	decls, err := l.decode(configPath)
	if err != nil {
		return nil, domain.Annotate(err, "path", configPath)
	}

	registry, err := buildRegistry(decls, filepath.Dir(configPath))
	if err != nil {
		return nil, domain.Annotate(err, "path", configPath)
	}

	if err := registry.Validate(); err != nil {
		// Broken targets fail when requested; the rest stay usable.
		l.Logger.Warn(fmt.Sprintf("%s: %v", filepath.Base(configPath), err))
	}

	return registry, nil
}

func findConfiguration(cwd string) (string, error) {
	abs, err := filepath.Abs(cwd)
	if err != nil {
		return "", domain.Annotate(fmt.Errorf("%w: %w", domain.ErrConfigReadFailed, err), "cwd", cwd)
	}

	currentDir := abs
	for {
		for _, name := range FileNames {
			candidate := filepath.Join(currentDir, name)
			if info, err := os.Stat(candidate); err == nil && !info.IsDir() {
				return candidate, nil
			}
		}

		parentDir := filepath.Dir(currentDir)
		if parentDir == currentDir {
			// Reached root
			break
		}
		currentDir = parentDir
	}

	return "", domain.Annotate(domain.ErrConfigNotFound, "cwd", abs)
}

// declaration is the format-independent form of one target.
type declaration struct {
	name        string
	description string
	phony       bool
	deps        []string
	actions     []domain.Action
	mode        string
	workingDir  string
	environment map[string]string
}

func (l *Loader) decode(configPath string) ([]declaration, error) {
	// #nosec G304 -- configPath is chosen by the operator
	data, err := os.ReadFile(configPath)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", domain.ErrConfigReadFailed, err)
	}

	switch ext := strings.ToLower(filepath.Ext(configPath)); ext {
	case ".yaml", ".yml":
		return l.decodeYAML(data, configPath)
	case ".hcl":
		return l.decodeHCL(data, configPath)
	default:
		return nil, domain.Annotate(domain.ErrUnsupportedConfigFormat, "extension", ext)
	}
}

func (l *Loader) decodeYAML(data []byte, configPath string) ([]declaration, error) {
	var rigfile Rigfile
	if err := yaml.Unmarshal(data, &rigfile); err != nil {
		return nil, fmt.Errorf("%w: %w", domain.ErrConfigParseFailed, err)
	}
	l.checkVersion(rigfile.Version, configPath)

	names := make([]string, 0, len(rigfile.Targets))
	for name := range rigfile.Targets {
		names = append(names, name)
	}
	slices.Sort(names)

	decls := make([]declaration, 0, len(names))
	for _, name := range names {
		dto := rigfile.Targets[name]
		if dto == nil {
			dto = &TargetDTO{}
		}

		actions := make([]domain.Action, len(dto.Actions))
		for i, a := range dto.Actions {
			actions[i] = a.toDomain()
		}

		decls = append(decls, declaration{
			name:        name,
			description: dto.Description,
			phony:       dto.Phony,
			deps:        dto.Deps,
			actions:     actions,
			mode:        dto.Mode,
			workingDir:  dto.WorkingDir,
			environment: dto.Environment,
		})
	}
	return decls, nil
}

func (l *Loader) checkVersion(version, configPath string) {
	if version != "" && version != SupportedVersion {
		l.Logger.Warn(fmt.Sprintf("%s declares version %q, only %q is supported",
			filepath.Base(configPath), version, SupportedVersion))
	}
}

func buildRegistry(decls []declaration, baseDir string) (*domain.Registry, error) {
	registry := domain.NewRegistry()

	for _, d := range decls {
		if err := validateTargetName(d.name); err != nil {
			return nil, err
		}

		mode, ok := domain.ParseConcurrencyMode(d.mode)
		if !ok {
			return nil, domain.Annotate(domain.Annotate(domain.ErrInvalidMode, "mode", d.mode), "target", d.name)
		}

		target := &domain.Target{
			Name:          domain.NewInternedString(d.name),
			Description:   d.description,
			Phony:         d.phony,
			Prerequisites: domain.InternStrings(d.deps),
			Actions:       d.actions,
			Mode:          mode,
			WorkingDir:    resolveWorkingDir(baseDir, d.workingDir),
			Environment:   d.environment,
		}

		if err := registry.Register(target); err != nil {
			return nil, err
		}
	}

	return registry, nil
}

// validateTargetName rejects names that cannot be typed on a command line.
func validateTargetName(name string) error {
	if name == "" {
		return domain.ErrEmptyTargetName
	}
	if strings.HasPrefix(name, "-") || strings.IndexFunc(name, unicode.IsSpace) >= 0 {
		return domain.Annotate(domain.ErrInvalidTargetName, "target", name)
	}
	return nil
}

func resolveWorkingDir(baseDir, configured string) string {
	if configured == "" {
		return filepath.Clean(baseDir)
	}
	if filepath.IsAbs(configured) {
		return filepath.Clean(configured)
	}
	return filepath.Clean(filepath.Join(baseDir, configured))
}
