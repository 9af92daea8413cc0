// Package project loads the farnese.toml build manifest.
package project

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"

	"farnese/internal/diag"
)

// ManifestName is the file searched for by FindManifest.
const ManifestName = "farnese.toml"

// DefaultOutDir is used when [build].out_dir is not set.
const DefaultOutDir = "build"

// Manifest is a parsed farnese.toml together with its location.
type Manifest struct {
	Path   string
	Root   string
	Config Config
}

// Config mirrors the manifest layout.
type Config struct {
	Package PackageConfig `toml:"package"`
	Build   BuildConfig   `toml:"build"`
}

type PackageConfig struct {
	Name string `toml:"name"`
}

// BuildConfig lists the AST documents to compile and where the IR goes.
type BuildConfig struct {
	Inputs   []string `toml:"inputs"`
	OutDir   string   `toml:"out_dir"`
	EmitCore bool     `toml:"emit_core"`
	Jobs     int      `toml:"jobs"`
}

// FindManifest walks up from startDir to locate farnese.toml.
func FindManifest(startDir string) (path string, ok bool, err error) {
	if startDir == "" {
		startDir = "."
	}
	dir, err := filepath.Abs(startDir)
	if err != nil {
		return "", false, fmt.Errorf("failed to resolve start directory: %w", err)
	}
	for {
		candidate := filepath.Join(dir, ManifestName)
		if _, err := os.Stat(candidate); err == nil {
			return candidate, true, nil
		} else if !errors.Is(err, os.ErrNotExist) {
			return "", false, fmt.Errorf("failed to stat %q: %w", candidate, err)
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			break
		}
		dir = parent
	}
	return "", false, nil
}

// LoadManifest finds and parses the manifest governing startDir.
// ok is false when there is none.
func LoadManifest(startDir string) (*Manifest, bool, error) {
	path, ok, err := FindManifest(startDir)
	if err != nil || !ok {
		return nil, ok, err
	}
	cfg, err := LoadConfig(path)
	if err != nil {
		return nil, true, err
	}
	return &Manifest{Path: path, Root: filepath.Dir(path), Config: cfg}, true, nil
}

// LoadConfig parses and validates one manifest file.
func LoadConfig(path string) (Config, error) {
	var cfg Config
	meta, err := toml.DecodeFile(path, &cfg)
	if err != nil {
		return Config{}, diag.Wrap(diag.ProjInvalidManifest, path, err)
	}
	if undecoded := meta.Undecoded(); len(undecoded) > 0 {
		return Config{}, diag.Errorf(diag.ProjInvalidManifest, path, "%s: unknown key %s", path, undecoded[0])
	}
	if !meta.IsDefined("package", "name") || strings.TrimSpace(cfg.Package.Name) == "" {
		return Config{}, diag.Errorf(diag.ProjInvalidManifest, path, "%s: missing [package].name", path)
	}
	if cfg.Build.Jobs < 0 {
		return Config{}, diag.Errorf(diag.ProjInvalidManifest, path, "%s: [build].jobs must not be negative", path)
	}
	for _, in := range cfg.Build.Inputs {
		if strings.TrimSpace(in) == "" {
			return Config{}, diag.Errorf(diag.ProjInvalidManifest, path, "%s: empty entry in [build].inputs", path)
		}
	}
	return cfg, nil
}

// Inputs returns the manifest's input documents resolved against Root.
func (m *Manifest) Inputs() []string {
	out := make([]string, len(m.Config.Build.Inputs))
	for i, in := range m.Config.Build.Inputs {
		out[i] = m.resolve(in)
	}
	return out
}

// OutDir returns the IR output directory resolved against Root.
func (m *Manifest) OutDir() string {
	dir := strings.TrimSpace(m.Config.Build.OutDir)
	if dir == "" {
		dir = DefaultOutDir
	}
	return m.resolve(dir)
}

func (m *Manifest) resolve(p string) string {
	p = filepath.FromSlash(p)
	if filepath.IsAbs(p) {
		return p
	}
	return filepath.Join(m.Root, p)
}
