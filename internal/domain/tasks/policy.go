package tasks

import "strings"

// InitialStatus is assigned to every record at submission time, before the
// upstream has reported anything about the task.
const InitialStatus = "submitted"

type StatusClass int

const (
	// StatusActive records are re-queried upstream on each listing pass.
	StatusActive StatusClass = iota
	// StatusTerminal records are frozen: no further writes, no further lookups.
	StatusTerminal
	// StatusHidden records stay in storage but never reach user-facing output.
	StatusHidden
)

func (c StatusClass) String() string {
	switch c {
	case StatusTerminal:
		return "terminal"
	case StatusHidden:
		return "hidden"
	default:
		return "active"
	}
}

// StatusPolicy declares which upstream status values are terminal and which
// are hidden. Membership is data, not code: the vocabulary is upstream-defined
// and open-ended, so anything the policy does not name stays active. No
// prefix or heuristic classification happens here.
type StatusPolicy struct {
	terminal map[string]struct{}
	hidden   map[string]struct{}
}

func NewStatusPolicy(terminal []string, hidden []string) StatusPolicy {
	return StatusPolicy{
		terminal: normalizeSet(terminal),
		hidden:   normalizeSet(hidden),
	}
}

// DefaultStatusPolicy matches the upstream vocabulary observed in production.
func DefaultStatusPolicy() StatusPolicy {
	return NewStatusPolicy(
		[]string{"submitted-confirmed", "confirmed"},
		[]string{"declined"},
	)
}

func (p StatusPolicy) Classify(status string) StatusClass {
	key := normalizeStatus(status)
	if _, ok := p.hidden[key]; ok {
		return StatusHidden
	}
	if _, ok := p.terminal[key]; ok {
		return StatusTerminal
	}
	return StatusActive
}

// TerminalStatuses returns the terminal set for store-level guards.
func (p StatusPolicy) TerminalStatuses() []string {
	out := make([]string, 0, len(p.terminal))
	for status := range p.terminal {
		out = append(out, status)
	}
	return out
}

func normalizeStatus(status string) string {
	return strings.ToLower(strings.TrimSpace(status))
}

func normalizeSet(values []string) map[string]struct{} {
	set := make(map[string]struct{}, len(values))
	for _, value := range values {
		key := normalizeStatus(value)
		if key == "" {
			continue
		}
		set[key] = struct{}{}
	}
	return set
}
