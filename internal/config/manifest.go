package config

import (
	"errors"
	"fmt"
	"os"
	"time"
	"unicode/utf8"

	"gopkg.in/yaml.v3"
)

// Manifest is a batch of export job definitions loaded from YAML.
type Manifest struct {
	Jobs []JobSpec `yaml:"jobs"`
}

// JobSpec defines one export. Empty fields take the values of Config.
type JobSpec struct {
	Name          string        `yaml:"name"`
	Source        string        `yaml:"source"`
	DSN           string        `yaml:"dsn"`
	Query         string        `yaml:"query"`
	Destination   string        `yaml:"destination"`
	IncludeHeader bool          `yaml:"include_header"`
	Schedule      string        `yaml:"schedule"`
	Timeout       time.Duration `yaml:"timeout"`

	Delimiter    string   `yaml:"delimiter"`
	Enclosure    string   `yaml:"enclosure"`
	BOM          *bool    `yaml:"bom"`
	UseCRLF      *bool    `yaml:"crlf"`
	FormulaGuard *bool    `yaml:"formula_guard"`
	SheetName    string   `yaml:"sheet_name"`
	Columns      []string `yaml:"columns"`
}

// LoadManifest reads the manifest at path, fills unset job fields from
// defaults and validates the result.
func LoadManifest(path string, defaults *Config) (*Manifest, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read manifest %q: %w", path, err)
	}
	m, err := ParseManifest(data, defaults)
	if err != nil {
		return nil, fmt.Errorf("manifest %q: %w", path, err)
	}
	return m, nil
}

// ParseManifest is LoadManifest for in-memory YAML.
func ParseManifest(data []byte, defaults *Config) (*Manifest, error) {
	var m Manifest
	if err := yaml.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("failed to parse manifest: %w", err)
	}
	return NewManifest(m.Jobs, defaults)
}

// NewManifest builds a manifest from jobs defined in code, such as a single
// export given on the command line.
func NewManifest(jobs []JobSpec, defaults *Config) (*Manifest, error) {
	m := Manifest{Jobs: jobs}
	if len(m.Jobs) == 0 {
		return nil, errors.New("manifest defines no jobs")
	}

	seen := make(map[string]bool, len(m.Jobs))
	for i := range m.Jobs {
		job := &m.Jobs[i]
		job.applyDefaults(defaults)
		if err := job.Validate(); err != nil {
			return nil, fmt.Errorf("job %d (%s): %w", i, job.Name, err)
		}
		if seen[job.Name] {
			return nil, fmt.Errorf("job %d: duplicate name %q", i, job.Name)
		}
		seen[job.Name] = true
	}
	return &m, nil
}

func (j *JobSpec) applyDefaults(c *Config) {
	if c == nil {
		return
	}
	if j.Source == "" {
		j.Source = c.SourceKind
	}
	if j.DSN == "" {
		j.DSN = c.SourceDSN
	}
	if j.Timeout == 0 {
		j.Timeout = c.DefaultTimeout
	}
	if j.Delimiter == "" {
		j.Delimiter = c.Delimiter
	}
	if j.Enclosure == "" {
		j.Enclosure = c.Enclosure
	}
	if j.BOM == nil {
		j.BOM = &c.BOM
	}
	if j.UseCRLF == nil {
		j.UseCRLF = &c.UseCRLF
	}
	if j.FormulaGuard == nil {
		j.FormulaGuard = &c.FormulaGuard
	}
	if j.SheetName == "" {
		j.SheetName = c.SheetName
	}
}

// Validate checks the fields a job cannot run without.
func (j *JobSpec) Validate() error {
	switch {
	case j.Name == "":
		return errors.New("name is required")
	case j.Source == "":
		return errors.New("source is required")
	case j.Query == "":
		return errors.New("query is required")
	case j.Destination == "":
		return errors.New("destination is required")
	case j.Timeout < 0:
		return errors.New("timeout must not be negative")
	}
	if j.Delimiter != "" {
		if _, err := SingleRune(j.Delimiter); err != nil {
			return fmt.Errorf("delimiter: %w", err)
		}
	}
	if j.Enclosure != "" {
		if _, err := SingleRune(j.Enclosure); err != nil {
			return fmt.Errorf("enclosure: %w", err)
		}
	}
	return nil
}

// SingleRune returns the only character of s.
func SingleRune(s string) (rune, error) {
	r, size := utf8.DecodeRuneInString(s)
	if r == utf8.RuneError || size != len(s) {
		return 0, fmt.Errorf("%q must be exactly one character", s)
	}
	return r, nil
}
