// Package project provides project discovery and loading functionality.
package project

import (
	"errors"
	"os"
	"path/filepath"
)

// ConfigDirName is the name of the goldtest configuration directory.
const ConfigDirName = ".goldtest"

// ConfigFileNames are the accepted configuration file names, in lookup order.
var ConfigFileNames = []string{"config.json", "config.yaml", "config.yml"}

// ModuleFileName marks the root of a Go module.
const ModuleFileName = "go.mod"

// ErrNoProjectRoot is returned when no .goldtest configuration is found.
var ErrNoProjectRoot = errors.New(".goldtest/config.json not found: not a goldtest project (or any parent up to the root)")

// ErrNoModuleRoot is returned when no go.mod is found.
var ErrNoModuleRoot = errors.New("go.mod not found in the current directory or any parent")

// FindRoot walks up from the current working directory until it finds a
// .goldtest configuration file.
func FindRoot() (string, error) {
	cwd, err := os.Getwd()
	if err != nil {
		return "", err
	}
	return FindRootFrom(cwd)
}

// FindRootFrom walks up from the given directory until it finds a .goldtest
// configuration file.
func FindRootFrom(startDir string) (string, error) {
	dir, ok, err := walkUp(startDir, func(dir string) bool {
		_, found := configFile(dir)
		return found
	})
	if err != nil {
		return "", err
	}
	if !ok {
		return "", ErrNoProjectRoot
	}
	return dir, nil
}

// FindModuleRoot walks up from the given directory until it finds go.mod.
func FindModuleRoot(startDir string) (string, error) {
	dir, ok, err := walkUp(startDir, func(dir string) bool {
		info, err := os.Stat(filepath.Join(dir, ModuleFileName))
		return err == nil && !info.IsDir()
	})
	if err != nil {
		return "", err
	}
	if !ok {
		return "", ErrNoModuleRoot
	}
	return dir, nil
}

func walkUp(startDir string, match func(dir string) bool) (string, bool, error) {
	dir, err := filepath.Abs(startDir)
	if err != nil {
		return "", false, err
	}
	for {
		if match(dir) {
			return dir, true, nil
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			// Reached filesystem root
			return "", false, nil
		}
		dir = parent
	}
}

// configFile returns the first configuration file present under root.
func configFile(root string) (string, bool) {
	for _, name := range ConfigFileNames {
		p := filepath.Join(root, ConfigDirName, name)
		if info, err := os.Stat(p); err == nil && !info.IsDir() {
			return p, true
		}
	}
	return "", false
}
