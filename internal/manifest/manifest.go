// Package manifest records what a pipeline run consumed and produced.
package manifest

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"time"

	"github.com/google/uuid"
	"gopkg.in/yaml.v3"

	"github.com/wagner-austin/tree-bot/internal/utils"
)

const (
	// FileName is the manifest written into every run directory.
	FileName = "run_manifest.yaml"
	// StampLayout formats run directory and output file timestamps.
	StampLayout = "20060102T150405Z"
)

// Input is one hashed input file.
type Input struct {
	Path   string `yaml:"path"`
	SHA256 string `yaml:"sha256"`
}

// Parameters are the knobs a run was executed with.
type Parameters struct {
	CertaintyThreshold float64 `yaml:"certainty_threshold"`
	FrequencyMin       int     `yaml:"frequency_min"`
	MaxErrors          int     `yaml:"max_errors"`
	PipelineStage      string  `yaml:"pipeline_stage"`
	ScanLimit          int     `yaml:"scan_limit"`
	Workers            int     `yaml:"workers"`
	SpeciesOverview    bool    `yaml:"species_overview"`
}

// Environment describes the host the run executed on.
type Environment struct {
	Go   string `yaml:"go"`
	OS   string `yaml:"os"`
	Arch string `yaml:"arch"`
}

// Outputs counts what the run produced.
type Outputs struct {
	Workbook      string `yaml:"workbook,omitempty"`
	Sheets        int    `yaml:"sheets"`
	Rows          int    `yaml:"rows"`
	SkippedSheets int    `yaml:"skipped_sheets"`
	Issues        int    `yaml:"issues"`
	Unmapped      int    `yaml:"unmapped_compounds"`
}

// Manifest is persisted as run_manifest.yaml.
type Manifest struct {
	RunID           string           `yaml:"run_id"`
	PipelineVersion string           `yaml:"pipeline_version"`
	StartedAt       time.Time        `yaml:"started_at"`
	FinishedAt      time.Time        `yaml:"finished_at"`
	Inputs          map[string]Input `yaml:"inputs"`
	Parameters      Parameters       `yaml:"parameters"`
	Environment     Environment      `yaml:"environment"`
	Outputs         Outputs          `yaml:"outputs"`

	// Not serialized: run directory the manifest belongs to
	runDir string
}

// New constructs an in-memory manifest for a run rooted at runDir. Call
// Save() to persist.
func New(runDir, version string, started time.Time) *Manifest {
	return &Manifest{
		RunID:           uuid.NewString(),
		PipelineVersion: version,
		StartedAt:       started.UTC(),
		Inputs:          make(map[string]Input),
		Environment: Environment{
			Go:   runtime.Version(),
			OS:   runtime.GOOS,
			Arch: runtime.GOARCH,
		},
		runDir: runDir,
	}
}

// RunDir returns the on-disk run directory.
func (m *Manifest) RunDir() string { return m.runDir }

// AddInput hashes path and records it under role. An empty path is ignored.
func (m *Manifest) AddInput(role, path string) error {
	if path == "" {
		return nil
	}
	sum, err := utils.SHA256File(path)
	if err != nil {
		return fmt.Errorf("hash %s input: %w", role, err)
	}
	m.Inputs[role] = Input{Path: path, SHA256: sum}
	return nil
}

// Save stamps FinishedAt and writes run_manifest.yaml using atomic write.
func (m *Manifest) Save(finished time.Time) error {
	if m.runDir == "" {
		return errors.New("run directory not set")
	}
	m.FinishedAt = finished.UTC()
	data, err := yaml.Marshal(m)
	if err != nil {
		return fmt.Errorf("marshal manifest: %w", err)
	}
	return utils.SafeWriteFile(filepath.Join(m.runDir, FileName), data)
}

// Load reads a run_manifest.yaml from dir.
func Load(dir string) (*Manifest, error) {
	b, err := os.ReadFile(filepath.Join(dir, FileName))
	if err != nil {
		return nil, fmt.Errorf("read manifest: %w", err)
	}
	var m Manifest
	if err := yaml.Unmarshal(b, &m); err != nil {
		return nil, fmt.Errorf("parse manifest: %w", err)
	}
	m.runDir = dir
	return &m, nil
}

// NewRunDir creates <base>/<UTC timestamp>/ and returns its path and the
// timestamp used. A second run within the same second gets a numeric
// suffix.
func NewRunDir(base string, now time.Time) (string, string, error) {
	stamp := now.UTC().Format(StampLayout)
	if err := utils.EnsureDir(base); err != nil {
		return "", "", fmt.Errorf("ensure out dir: %w", err)
	}
	dir := filepath.Join(base, stamp)
	for i := 2; ; i++ {
		err := os.Mkdir(dir, 0o755)
		if err == nil {
			return dir, stamp, nil
		}
		if !errors.Is(err, os.ErrExist) {
			return "", "", fmt.Errorf("create run dir: %w", err)
		}
		dir = filepath.Join(base, fmt.Sprintf("%s-%d", stamp, i))
	}
}
