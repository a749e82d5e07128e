package harness

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
)

// SuiteResult contains results from running every scenario in a directory.
type SuiteResult struct {
	TotalScenarios int               `json:"total_scenarios"`
	Passed         int               `json:"passed"`
	Failed         int               `json:"failed"`
	Failures       []ScenarioFailure `json:"failures,omitempty"`
}

// ScenarioFailure represents a scenario that failed to load, run or pass.
type ScenarioFailure struct {
	Scenario string `json:"scenario"`
	Path     string `json:"path"`
	Error    string `json:"error"`
}

// ScenarioPaths lists the scenario files in dir, sorted by name.
func ScenarioPaths(dir string) ([]string, error) {
	if _, err := os.Stat(dir); err != nil {
		return nil, fmt.Errorf("scenario directory: %w", err)
	}
	var paths []string
	for _, pattern := range []string{"*.yaml", "*.yml"} {
		matches, err := filepath.Glob(filepath.Join(dir, pattern))
		if err != nil {
			return nil, err
		}
		paths = append(paths, matches...)
	}
	sort.Strings(paths)
	return paths, nil
}

// RunSuite loads and runs every scenario in dir.
//
// A scenario that fails to load or run counts as failed; the suite keeps
// going. The error is non-nil only when dir cannot be listed.
func RunSuite(ctx context.Context, dir string) (*SuiteResult, error) {
	paths, err := ScenarioPaths(dir)
	if err != nil {
		return nil, err
	}

	result := &SuiteResult{}
	for _, path := range paths {
		result.TotalScenarios++

		scenario, err := LoadScenario(path)
		if err != nil {
			result.fail(filepath.Base(path), path, err.Error())
			continue
		}
		res, err := Run(ctx, scenario)
		if err != nil {
			result.fail(scenario.Name, path, err.Error())
			continue
		}
		if !res.Pass {
			result.fail(scenario.Name, path, fmt.Sprintf("%d assertion(s) failed: %s", len(res.Errors), res.Errors[0]))
			continue
		}
		result.Passed++
	}
	return result, nil
}

func (r *SuiteResult) fail(name, path, msg string) {
	r.Failed++
	r.Failures = append(r.Failures, ScenarioFailure{Scenario: name, Path: path, Error: msg})
}
