package harness

import (
	"bytes"
	"context"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/roach88/ewm/internal/store"
)

// Seed is the reference data a scenario (or the seed command) loads.
type Seed struct {
	Users  []store.User  `yaml:"users,omitempty"`
	Events []store.Event `yaml:"events,omitempty"`
}

// Scenario is a scripted sequence of participation operations.
type Scenario struct {
	Seed `yaml:",inline"`

	// Name uniquely identifies the scenario and names its golden file.
	Name string `yaml:"name"`

	// Description explains what the scenario validates.
	Description string `yaml:"description"`

	// Steps run in order against the service.
	Steps []Step `yaml:"steps"`

	// Assertions are checked against the store once every step has run.
	Assertions []Assertion `yaml:"assertions,omitempty"`
}

// Step operations.
const (
	OpCreate        = "create"
	OpCancel        = "cancel"
	OpModerate      = "moderate"
	OpListRequester = "list_requester"
	OpListEvent     = "list_event"
	OpAvailability  = "availability"
)

// Step is a single service call. Which id fields are read depends on Op.
type Step struct {
	Op          string  `yaml:"op"`
	Requester   int64   `yaml:"requester,omitempty"`
	Initiator   int64   `yaml:"initiator,omitempty"`
	Event       int64   `yaml:"event,omitempty"`
	Request     int64   `yaml:"request,omitempty"`
	Requests    []int64 `yaml:"requests,omitempty"`
	Disposition string  `yaml:"disposition,omitempty"`
	Expect      *Expect `yaml:"expect,omitempty"`
}

// Expect describes the outcome a step must produce. Unset fields are not
// checked. Without Error the step must succeed.
type Expect struct {
	Status    string  `yaml:"status,omitempty"`
	Error     string  `yaml:"error,omitempty"`
	Confirmed []int64 `yaml:"confirmed,omitempty"`
	Rejected  []int64 `yaml:"rejected,omitempty"`
	Count     *int    `yaml:"count,omitempty"`
	Remaining *int    `yaml:"remaining,omitempty"`
}

// Assertion types.
const (
	AssertConfirmedCount = "confirmed_count"
	AssertRequestStatus  = "request_status"
)

// Assertion checks final store state.
type Assertion struct {
	Type    string `yaml:"type"`
	Event   int64  `yaml:"event,omitempty"`
	Request int64  `yaml:"request,omitempty"`
	Count   int    `yaml:"count,omitempty"`
	Status  string `yaml:"status,omitempty"`
}

// LoadScenario reads, decodes and validates a scenario file.
// Unknown fields (typos) are rejected.
func LoadScenario(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read scenario file: %w", err)
	}
	return ParseScenario(data)
}

// ParseScenario decodes and validates scenario YAML.
func ParseScenario(data []byte) (*Scenario, error) {
	var scenario Scenario
	if err := decodeStrict(data, &scenario); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}
	if err := validateYAML(data, defScenario); err != nil {
		return nil, fmt.Errorf("invalid scenario: %w", err)
	}
	if err := validateSteps(&scenario); err != nil {
		return nil, fmt.Errorf("invalid scenario: %w", err)
	}
	return &scenario, nil
}

// LoadSeed reads, decodes and validates a seed file.
func LoadSeed(path string) (*Seed, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read seed file: %w", err)
	}

	var seed Seed
	if err := decodeStrict(data, &seed); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}
	if err := validateYAML(data, defSeed); err != nil {
		return nil, fmt.Errorf("invalid seed: %w", err)
	}
	return &seed, nil
}

// Apply writes the seed's users, then its events, into st.
func (s *Seed) Apply(ctx context.Context, st *store.Store) error {
	for _, u := range s.Users {
		if err := st.PutUser(ctx, u); err != nil {
			return fmt.Errorf("seed user %d: %w", u.ID, err)
		}
	}
	for _, e := range s.Events {
		if e.Title == "" {
			e.Title = fmt.Sprintf("event %d", e.ID)
		}
		if err := st.PutEvent(ctx, e); err != nil {
			return fmt.Errorf("seed event %d: %w", e.ID, err)
		}
	}
	return nil
}

func decodeStrict(data []byte, out any) error {
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	return decoder.Decode(out)
}

func validateYAML(data []byte, definition string) error {
	var doc any
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return err
	}
	return validateDocument(doc, definition)
}

// validateSteps checks the per-operation required fields the schema cannot
// express on its own.
func validateSteps(s *Scenario) error {
	for i, step := range s.Steps {
		var missing string
		switch step.Op {
		case OpCreate:
			missing = firstZero(map[string]int64{"requester": step.Requester, "event": step.Event})
		case OpCancel:
			missing = firstZero(map[string]int64{"requester": step.Requester, "request": step.Request})
		case OpModerate:
			missing = firstZero(map[string]int64{"initiator": step.Initiator, "event": step.Event})
			if missing == "" && step.Disposition == "" {
				missing = "disposition"
			}
		case OpListRequester:
			missing = firstZero(map[string]int64{"requester": step.Requester})
		case OpListEvent:
			missing = firstZero(map[string]int64{"initiator": step.Initiator, "event": step.Event})
		case OpAvailability:
			missing = firstZero(map[string]int64{"event": step.Event})
		default:
			return fmt.Errorf("steps[%d]: unknown op %q", i, step.Op)
		}
		if missing != "" {
			return fmt.Errorf("steps[%d]: %s requires %s", i, step.Op, missing)
		}
	}
	for i, a := range s.Assertions {
		switch {
		case a.Type == AssertConfirmedCount && a.Event == 0:
			return fmt.Errorf("assertions[%d]: confirmed_count requires event", i)
		case a.Type == AssertRequestStatus && (a.Request == 0 || a.Status == ""):
			return fmt.Errorf("assertions[%d]: request_status requires request and status", i)
		}
	}
	return nil
}

// firstZero returns the alphabetically first field whose value is zero.
func firstZero(fields map[string]int64) string {
	missing := ""
	for name, v := range fields {
		if v == 0 && (missing == "" || name < missing) {
			missing = name
		}
	}
	return missing
}
