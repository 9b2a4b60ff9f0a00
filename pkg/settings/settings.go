// Package settings merges global and project-scoped configuration into one
// effective configuration per command invocation. Fields resolve independently
// through a fixed precedence chain: project command-kind setting, project
// shared setting, global command-kind setting, global shared setting, built-in
// default. Only the API token has no default.
package settings

import (
	"errors"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// CommandKind selects the per-command settings sub-scope.
type CommandKind string

const (
	Completions CommandKind = "completions"
	Instruct    CommandKind = "instruct"
)

// ReasoningEffort controls the reasoning_effort request field. Auto means the
// field is omitted from the request entirely, deferring to the service.
type ReasoningEffort string

const (
	EffortAuto   ReasoningEffort = "auto"
	EffortLow    ReasoningEffort = "low"
	EffortMedium ReasoningEffort = "medium"
	EffortHigh   ReasoningEffort = "high"
)

// ParseEffort validates a reasoning effort value.
func ParseEffort(s string) (ReasoningEffort, bool) {
	switch ReasoningEffort(s) {
	case EffortAuto, EffortLow, EffortMedium, EffortHigh:
		return ReasoningEffort(s), true
	}
	return "", false
}

// Built-in defaults, the lowest precedence tier.
const (
	DefaultHostname   = "api.openai.com"
	DefaultAPIPath    = "/v1/chat/completions"
	DefaultModel      = "gpt-4o-mini"
	DefaultMaxSeconds = 60
)

// DefaultSnippet returns the built-in prompt snippet path for a command kind.
func DefaultSnippet(kind CommandKind) string {
	if kind == Instruct {
		return "builtin/instruct_prompt.md"
	}
	return "builtin/completion_prompt.md"
}

// ConfigError reports a setting that could not be resolved at any tier.
type ConfigError struct {
	Field string
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("settings: %s is not set at any scope", e.Field)
}

// EffectiveConfig is the fully resolved configuration for one invocation.
// Every field holds a concrete value after Resolve; it is never partially
// populated.
type EffectiveConfig struct {
	APIToken        string
	Hostname        string
	APIPath         string
	Model           string
	ReasoningEffort ReasoningEffort
	PromptSnippet   string
	MaxSeconds      int
	DebugLogging    bool
}

// Fields holds one tier's raw settings. Pointer fields distinguish an absent
// setting from an explicit zero value.
type Fields struct {
	APIToken        *string `yaml:"api_token"`
	Hostname        *string `yaml:"hostname"`
	APIPath         *string `yaml:"api_path"`
	Model           *string `yaml:"model_name"`
	ReasoningEffort *string `yaml:"reasoning_effort"`
	PromptSnippet   *string `yaml:"prompt_snippet_path"`
	MaxSeconds      *int    `yaml:"max_seconds"`
	DebugLogging    *bool   `yaml:"debug_logging"`
}

// Document is one settings document: shared fields at the top level plus
// command-kind overrides nested under "completions" and "instruct".
type Document struct {
	Fields      `yaml:",inline"`
	Completions Fields `yaml:"completions"`
	Instruct    Fields `yaml:"instruct"`
}

// kind returns the command-kind override tier of the document.
func (d *Document) kind(k CommandKind) *Fields {
	if d == nil {
		return nil
	}
	if k == Instruct {
		return &d.Instruct
	}
	return &d.Completions
}

// shared returns the shared tier of the document.
func (d *Document) shared() *Fields {
	if d == nil {
		return nil
	}
	return &d.Fields
}

// Resolve merges the project and global documents into an EffectiveConfig for
// the given command kind. The project document may be nil. It returns a
// ConfigError when api_token is absent (or empty) at every tier; all other
// fields always resolve because they carry built-in defaults.
func Resolve(kind CommandKind, project *Document, global Document) (EffectiveConfig, error) {
	tiers := []*Fields{
		project.kind(kind),
		project.shared(),
		global.kind(kind),
		global.shared(),
	}

	cfg := EffectiveConfig{
		APIToken:        firstString(tiers, func(f *Fields) *string { return f.APIToken }, ""),
		Hostname:        firstString(tiers, func(f *Fields) *string { return f.Hostname }, DefaultHostname),
		APIPath:         firstString(tiers, func(f *Fields) *string { return f.APIPath }, DefaultAPIPath),
		Model:           firstString(tiers, func(f *Fields) *string { return f.Model }, DefaultModel),
		ReasoningEffort: firstEffort(tiers),
		PromptSnippet:   firstString(tiers, func(f *Fields) *string { return f.PromptSnippet }, DefaultSnippet(kind)),
		MaxSeconds:      firstInt(tiers, func(f *Fields) *int { return f.MaxSeconds }, DefaultMaxSeconds),
		DebugLogging:    firstBool(tiers, func(f *Fields) *bool { return f.DebugLogging }, false),
	}

	if cfg.APIToken == "" {
		return EffectiveConfig{}, &ConfigError{Field: "api_token"}
	}

	return cfg, nil
}

func firstString(tiers []*Fields, get func(*Fields) *string, def string) string {
	for _, t := range tiers {
		if t == nil {
			continue
		}
		if v := get(t); v != nil {
			return *v
		}
	}
	return def
}

func firstInt(tiers []*Fields, get func(*Fields) *int, def int) int {
	for _, t := range tiers {
		if t == nil {
			continue
		}
		if v := get(t); v != nil {
			return *v
		}
	}
	return def
}

func firstBool(tiers []*Fields, get func(*Fields) *bool, def bool) bool {
	for _, t := range tiers {
		if t == nil {
			continue
		}
		if v := get(t); v != nil {
			return *v
		}
	}
	return def
}

// firstEffort resolves reasoning_effort through the chain. A tier carrying an
// invalid value is treated as absent so resolution still lands on a concrete
// effort.
func firstEffort(tiers []*Fields) ReasoningEffort {
	for _, t := range tiers {
		if t == nil || t.ReasoningEffort == nil {
			continue
		}
		if e, ok := ParseEffort(*t.ReasoningEffort); ok {
			return e
		}
	}
	return EffortAuto
}

// projectFile wraps the project-scoped document, which nests all SimpleAI
// settings under a single namespaced key.
type projectFile struct {
	SimpleAI Document `yaml:"SimpleAI"`
}

// LoadGlobal reads a YAML (or JSON) settings document. Environment variables
// referenced as ${VAR} or $VAR are expanded before parsing so API tokens can
// live in the environment rather than on disk.
func LoadGlobal(path string) (Document, error) {
	data, err := os.ReadFile(path) //nolint:gosec // path is caller-provided configuration, not user input
	if err != nil {
		return Document{}, fmt.Errorf("settings: load global: %w", err)
	}

	var doc Document
	if err := yaml.Unmarshal([]byte(os.ExpandEnv(string(data))), &doc); err != nil {
		return Document{}, fmt.Errorf("settings: parse global: %w", err)
	}

	return doc, nil
}

// LoadProject reads a project-scoped settings document holding a "SimpleAI"
// object. A missing file is not an error; it returns (nil, nil) so resolution
// falls through to the global tiers.
func LoadProject(path string) (*Document, error) {
	data, err := os.ReadFile(path) //nolint:gosec // path is caller-provided configuration, not user input
	if errors.Is(err, os.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("settings: load project: %w", err)
	}

	var pf projectFile
	if err := yaml.Unmarshal([]byte(os.ExpandEnv(string(data))), &pf); err != nil {
		return nil, fmt.Errorf("settings: parse project: %w", err)
	}

	doc := pf.SimpleAI
	return &doc, nil
}
