package harness

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"
)

// Scenario is a conformance scenario: objects seeded into a fresh local
// store, a sequence of requests run through the engine, and assertions on
// the responses and the final store contents.
type Scenario struct {
	// Name uniquely identifies this scenario and names its golden file.
	Name string `yaml:"name"`

	// Description explains what this scenario validates.
	Description string `yaml:"description"`

	// Seed lists objects inserted before the first step.
	Seed []SeedObject `yaml:"seed,omitempty"`

	// Steps run in order. A failing step does not stop later steps.
	Steps []Step `yaml:"steps"`

	// Assertions validate the step outcomes and the final store.
	Assertions []Assertion `yaml:"assertions"`
}

// SeedObject is one object inserted before the steps run.
type SeedObject struct {
	Class      string         `yaml:"class"`
	ID         string         `yaml:"id"`
	Properties map[string]any `yaml:"properties"`
	Vector     []float32      `yaml:"vector,omitempty"`
}

// Step is one request. Exactly one of Query and Mutation is set; each holds
// the canonical wire request written as YAML.
type Step struct {
	Name     string         `yaml:"name"`
	Query    map[string]any `yaml:"query,omitempty"`
	Mutation map[string]any `yaml:"mutation,omitempty"`
}

// Kind returns KindQuery or KindMutation.
func (s Step) Kind() string {
	if s.Mutation != nil {
		return KindMutation
	}
	return KindQuery
}

// Assertion validates a step outcome or the final store.
type Assertion struct {
	// Type is one of the Assert* constants.
	Type string `yaml:"type"`

	// Step names the step checked by row_count, row_contains, error_code and
	// affected_rows.
	Step string `yaml:"step,omitempty"`

	// Count is the expected number of rows (row_count) or objects
	// (object_count).
	Count int `yaml:"count,omitempty"`

	// Index selects the row checked by row_contains.
	Index int `yaml:"index,omitempty"`

	// Expect is a subset of the row checked by row_contains.
	Expect map[string]any `yaml:"expect,omitempty"`

	// Code is the expected error code (error_code).
	Code string `yaml:"code,omitempty"`

	// Counts are the expected affected rows per operation (affected_rows).
	Counts []int `yaml:"counts,omitempty"`

	// Class is the class counted by object_count.
	Class string `yaml:"class,omitempty"`
}

// Assertion type constants.
const (
	AssertRowCount     = "row_count"
	AssertRowContains  = "row_contains"
	AssertErrorCode    = "error_code"
	AssertAffectedRows = "affected_rows"
	AssertObjectCount  = "object_count"
)

// LoadScenario reads and parses a scenario YAML file.
// Returns an error if the file doesn't exist, is malformed,
// contains unknown fields (typos), or is missing required fields.
func LoadScenario(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read scenario file: %w", err)
	}
	return ParseScenario(data)
}

// ParseScenario parses scenario YAML.
func ParseScenario(data []byte) (*Scenario, error) {
	var scenario Scenario
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	if err := decoder.Decode(&scenario); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}

	if err := validateScenario(&scenario); err != nil {
		return nil, fmt.Errorf("invalid scenario: %w", err)
	}

	return &scenario, nil
}

// LoadScenarios loads every *.yaml and *.yml file in dir, sorted by file
// name. When filter is non-empty only scenarios whose name contains it are
// returned.
func LoadScenarios(dir, filter string) ([]*Scenario, error) {
	var paths []string
	for _, pattern := range []string{"*.yaml", "*.yml"} {
		matches, err := filepath.Glob(filepath.Join(dir, pattern))
		if err != nil {
			return nil, err
		}
		paths = append(paths, matches...)
	}
	sort.Strings(paths)

	var scenarios []*Scenario
	for _, p := range paths {
		s, err := LoadScenario(p)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", filepath.Base(p), err)
		}
		if filter != "" && !strings.Contains(s.Name, filter) {
			continue
		}
		scenarios = append(scenarios, s)
	}
	return scenarios, nil
}

// validateScenario checks that required fields are present and valid.
func validateScenario(s *Scenario) error {
	if s.Name == "" {
		return fmt.Errorf("name is required")
	}

	if s.Description == "" {
		return fmt.Errorf("description is required")
	}

	if len(s.Steps) == 0 {
		return fmt.Errorf("steps list is required and must be non-empty")
	}

	if len(s.Assertions) == 0 {
		return fmt.Errorf("assertions list is required and must be non-empty")
	}

	for i, obj := range s.Seed {
		if obj.Class == "" {
			return fmt.Errorf("seed[%d]: class is required", i)
		}
		if obj.ID == "" {
			return fmt.Errorf("seed[%d]: id is required", i)
		}
	}

	steps := make(map[string]bool, len(s.Steps))
	for i, step := range s.Steps {
		if step.Name == "" {
			return fmt.Errorf("steps[%d]: name is required", i)
		}
		if steps[step.Name] {
			return fmt.Errorf("steps[%d]: duplicate step name %q", i, step.Name)
		}
		steps[step.Name] = true
		if (step.Query == nil) == (step.Mutation == nil) {
			return fmt.Errorf("steps[%d]: exactly one of query and mutation is required", i)
		}
	}

	for i, a := range s.Assertions {
		if err := validateAssertion(i, a, steps); err != nil {
			return err
		}
	}

	return nil
}

// validateAssertion validates a single assertion based on its type.
func validateAssertion(index int, a Assertion, steps map[string]bool) error {
	if a.Type == "" {
		return fmt.Errorf("assertions[%d]: type is required", index)
	}

	switch a.Type {
	case AssertRowCount, AssertRowContains, AssertErrorCode, AssertAffectedRows:
		if !steps[a.Step] {
			return fmt.Errorf("assertions[%d]: unknown step %q for %s", index, a.Step, a.Type)
		}
	case AssertObjectCount:
		if a.Class == "" {
			return fmt.Errorf("assertions[%d]: class is required for object_count", index)
		}
	default:
		return fmt.Errorf("assertions[%d]: unknown assertion type %q", index, a.Type)
	}

	switch a.Type {
	case AssertRowContains:
		if len(a.Expect) == 0 {
			return fmt.Errorf("assertions[%d]: expect is required for row_contains", index)
		}
		if a.Index < 0 {
			return fmt.Errorf("assertions[%d]: index must be non-negative", index)
		}
	case AssertErrorCode:
		if a.Code == "" {
			return fmt.Errorf("assertions[%d]: code is required for error_code", index)
		}
	case AssertRowCount, AssertObjectCount:
		if a.Count < 0 {
			return fmt.Errorf("assertions[%d]: count must be non-negative", index)
		}
	}

	return nil
}
