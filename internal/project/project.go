package project

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/AndreyAkinshin/goldtest/internal/config"
)

// Project represents a loaded goldtest project.
type Project struct {
	Root     string
	Config   *config.Config
	Warnings []string

	configPath string
}

// LoadProject finds and loads a project from the current directory.
func LoadProject() (*Project, error) {
	cwd, err := os.Getwd()
	if err != nil {
		return nil, err
	}
	return LoadProjectIn(cwd)
}

// LoadProjectIn finds and loads the project enclosing dir. Without a
// .goldtest directory the enclosing Go module (or dir itself) becomes the
// root and defaults apply.
func LoadProjectIn(dir string) (*Project, error) {
	root, err := FindRootFrom(dir)
	if errors.Is(err, ErrNoProjectRoot) {
		root, err = FindModuleRoot(dir)
		if errors.Is(err, ErrNoModuleRoot) {
			root, err = filepath.Abs(dir)
		}
	}
	if err != nil {
		return nil, err
	}
	return LoadProjectFrom(root)
}

// LoadProjectFrom loads a project from a specified root directory.
func LoadProjectFrom(root string) (*Project, error) {
	configPath, ok := configFile(root)
	if !ok {
		return &Project{Root: root, Config: config.Default()}, nil
	}
	return LoadProjectWithConfig(root, configPath)
}

// LoadProjectWithConfig loads a project whose configuration lives at an
// explicit path.
func LoadProjectWithConfig(root, configPath string) (*Project, error) {
	cfg, warnings, err := config.LoadAndValidate(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}

	return &Project{
		Root:       root,
		Config:     cfg,
		Warnings:   warnings,
		configPath: configPath,
	}, nil
}

// ConfigPath returns the full path to the project configuration file, or ""
// when the project runs on defaults.
func (p *Project) ConfigPath() string {
	return p.configPath
}

// GoldsRoot returns the configured golds root relative to dir, a package
// directory inside the project.
func (p *Project) GoldsRoot(dir string) string {
	return filepath.Join(dir, filepath.FromSlash(p.Config.Golds.Root))
}

// DatabaseDir returns the absolute directory of table golds.
func (p *Project) DatabaseDir() string {
	return filepath.Join(p.Root, filepath.FromSlash(p.Config.Database.Dir))
}

// GoldRoots returns every golds root inside the project, as discovered by
// DiscoverGoldRoots, in absolute form.
func (p *Project) GoldRoots() ([]string, error) {
	rel, err := DiscoverGoldRoots(p.Root, p.Config.Golds.Root)
	if err != nil {
		return nil, err
	}
	roots := make([]string, len(rel))
	for i, r := range rel {
		roots[i] = filepath.Join(p.Root, r)
	}
	return roots, nil
}
