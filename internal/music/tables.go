// ABOUTME: Music state and sequence transition tables
// ABOUTME: Loads the embedded YAML tables or an override file
package music

import (
	_ "embed"
	"errors"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

//go:embed tables.yaml
var defaultTables []byte

// Transition types
const (
	TransitionNone         = 0
	TransitionFade         = 2
	TransitionCrossfade    = 3
	TransitionHold         = 4
	TransitionHoldOnly     = 6
	TransitionHook         = 8
	TransitionStopSequence = 9
	TransitionTrigger      = 12
)

// Null state and sequence ids
const (
	NullState    = 1000
	NullSequence = 2000
)

// ErrInvalidTables is returned for tables missing their null entries
var ErrInvalidTables = errors.New("invalid music tables")

// Entry is one music state or sequence
type Entry struct {
	ID         int    `yaml:"id"`
	Name       string `yaml:"name"`
	Transition int    `yaml:"transition"`
	AttribPos  int    `yaml:"attrib_pos"`
	Hook       int    `yaml:"hook"`
	FadeDelay  int    `yaml:"fade_delay"`
	File       string `yaml:"file"`
}

// Tables holds the state and sequence tables
type Tables struct {
	States    []Entry `yaml:"states"`
	Sequences []Entry `yaml:"sequences"`
}

// ParseTables decodes YAML tables
func ParseTables(data []byte) (*Tables, error) {
	var t Tables
	if err := yaml.Unmarshal(data, &t); err != nil {
		return nil, fmt.Errorf("failed to parse music tables: %w", err)
	}
	if len(t.States) == 0 || t.States[0].ID != NullState {
		return nil, fmt.Errorf("%w: first state must be %d", ErrInvalidTables, NullState)
	}
	if len(t.Sequences) == 0 || t.Sequences[0].ID != NullSequence {
		return nil, fmt.Errorf("%w: first sequence must be %d", ErrInvalidTables, NullSequence)
	}
	return &t, nil
}

// DefaultTables returns the built-in tables
func DefaultTables() *Tables {
	t, err := ParseTables(defaultTables)
	if err != nil {
		return &Tables{
			States:    []Entry{{ID: NullState, Name: "STATE_NULL"}},
			Sequences: []Entry{{ID: NullSequence, Name: "SEQ_NULL"}},
		}
	}
	return t
}

// LoadTables reads tables from path, or returns the built-in tables when
// path is empty
func LoadTables(path string) (*Tables, error) {
	if path == "" {
		return DefaultTables(), nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read music tables: %w", err)
	}
	return ParseTables(data)
}

func find(entries []Entry, id int) int {
	for i, e := range entries {
		if e.ID == id {
			return i
		}
	}
	return -1
}
