package config

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// ProjectFileName is the optional per-project settings file.
const ProjectFileName = ".locindex.yaml"

// ProjectFile is the .locindex.yaml structure. Relative directories are
// resolved against the file's directory.
type ProjectFile struct {
	ModDir            string `yaml:"mod_dir,omitempty"`
	GameDir           string `yaml:"game_dir,omitempty"`
	Language          string `yaml:"language,omitempty"`
	ReferenceLanguage string `yaml:"reference_language,omitempty"`
	TargetLang        string `yaml:"target_lang,omitempty"`
	Workers           int    `yaml:"workers,omitempty"`
	ContextRadius     *int   `yaml:"context_radius,omitempty"`
}

// LoadProjectFile loads .locindex.yaml from dir. Returns nil if none exists.
func LoadProjectFile(dir string) (*ProjectFile, error) {
	path := filepath.Join(dir, ProjectFileName)
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}

	var pf ProjectFile
	if err := yaml.Unmarshal(data, &pf); err != nil {
		return nil, fmt.Errorf("parsing %s: %w", path, err)
	}
	return &pf, nil
}

func (pf *ProjectFile) apply(cfg *Config, dir string) {
	if pf.ModDir != "" {
		cfg.ModDir = resolve(dir, pf.ModDir)
	}
	if pf.GameDir != "" {
		cfg.GameDir = resolve(dir, pf.GameDir)
	}
	if pf.Language != "" {
		cfg.Language = pf.Language
	}
	if pf.ReferenceLanguage != "" {
		cfg.ReferenceLanguage = pf.ReferenceLanguage
	}
	if pf.TargetLang != "" {
		cfg.TargetLang = pf.TargetLang
	}
	if pf.Workers > 0 {
		cfg.Workers = pf.Workers
	}
	if pf.ContextRadius != nil {
		cfg.ContextRadius = *pf.ContextRadius
	}
}

func resolve(dir, p string) string {
	if filepath.IsAbs(p) {
		return p
	}
	return filepath.Join(dir, p)
}
