package parser

import (
	"fmt"
	"strconv"
	"strings"
)

// ChangeType represents the kind of change a resource or output undergoes.
type ChangeType string

const (
	ChangeCreate  ChangeType = "create"
	ChangeUpdate  ChangeType = "update"
	ChangeDelete  ChangeType = "delete"
	ChangeReplace ChangeType = "replace"
	ChangeRead    ChangeType = "read"
	ChangeNoOp    ChangeType = "no-op"
)

// Address identifies a change target: module path, resource type and name,
// and an optional instance index.
type Address struct {
	// Modules holds the module-path segments, outermost first.
	// Empty for root-module resources.
	Modules []string `json:"modules,omitempty"`
	Type    string   `json:"type"`
	Name    string   `json:"name"`
	// Index is the zero-based instance index for count resources. Nil when
	// the resource is not indexed.
	Index *int `json:"index,omitempty"`
	// Key is the instance key for for_each resources (the quoted form),
	// empty when the instance is numerically indexed or not indexed.
	Key string `json:"key,omitempty"`
	// Data marks data sources (addresses prefixed with "data.").
	Data bool `json:"data,omitempty"`
}

// Equal reports whether two addresses identify the same target.
func (a Address) Equal(b Address) bool {
	if a.Type != b.Type || a.Name != b.Name || a.Key != b.Key || a.Data != b.Data {
		return false
	}
	if (a.Index == nil) != (b.Index == nil) {
		return false
	}
	if a.Index != nil && *a.Index != *b.Index {
		return false
	}
	if len(a.Modules) != len(b.Modules) {
		return false
	}
	for i := range a.Modules {
		if a.Modules[i] != b.Modules[i] {
			return false
		}
	}
	return true
}

// String reconstructs the canonical address form,
// e.g. module.networking.module.security.aws_security_group.app[0].
func (a Address) String() string {
	var b strings.Builder
	for _, m := range a.Modules {
		b.WriteString("module.")
		b.WriteString(m)
		b.WriteString(".")
	}
	if a.Data {
		b.WriteString("data.")
	}
	b.WriteString(a.Type)
	b.WriteString(".")
	b.WriteString(a.Name)
	if a.Index != nil {
		fmt.Fprintf(&b, "[%d]", *a.Index)
	} else if a.Key != "" {
		fmt.Fprintf(&b, "[%q]", a.Key)
	}
	return b.String()
}

// ParseAddress parses a resource address like
// module.networking.aws_security_group.app[0] into its components.
func ParseAddress(s string) Address {
	var addr Address

	s = strings.TrimSpace(s)

	// Peel off the instance index or key.
	if i := strings.LastIndex(s, "["); i >= 0 && strings.HasSuffix(s, "]") {
		inner := s[i+1 : len(s)-1]
		s = s[:i]
		if n, err := strconv.Atoi(inner); err == nil {
			addr.Index = &n
		} else if unq, err := strconv.Unquote(inner); err == nil {
			addr.Key = unq
		} else {
			addr.Key = inner
		}
	}

	parts := strings.Split(s, ".")
	for len(parts) >= 2 && parts[0] == "module" {
		addr.Modules = append(addr.Modules, parts[1])
		parts = parts[2:]
	}
	if len(parts) > 0 && parts[0] == "data" {
		addr.Data = true
		parts = parts[1:]
	}
	switch len(parts) {
	case 0:
	case 1:
		addr.Type = parts[0]
	default:
		addr.Type = strings.Join(parts[:len(parts)-1], ".")
		addr.Name = parts[len(parts)-1]
	}
	return addr
}

// AttributeChange is a node in the attribute diff tree. Leaf nodes carry
// scalar values; container nodes (nested blocks, maps, lists of objects)
// carry children. Absent values are nil, never "", since an empty string is
// a legitimate scalar value.
type AttributeChange struct {
	Name string  `json:"name"`
	Old  *string `json:"old_value"`
	New  *string `json:"new_value"`

	Computed          bool `json:"computed,omitempty"`
	Sensitive         bool `json:"sensitive,omitempty"`
	ForcesReplacement bool `json:"forces_replacement,omitempty"`

	// HiddenAttributes and HiddenBlocks record collapsed-attribute notes
	// ("# (N unchanged attributes hidden)") emitted inside this node.
	// Consumers must not assume the child list is complete when these are
	// non-zero.
	HiddenAttributes int `json:"hidden_attributes,omitempty"`
	HiddenBlocks     int `json:"hidden_blocks,omitempty"`

	Children []AttributeChange `json:"children,omitempty"`
}

// IsContainer reports whether the node represents a nested block or
// collection rather than a scalar leaf.
func (a AttributeChange) IsContainer() bool {
	return len(a.Children) > 0 || (a.Old == nil && a.New == nil &&
		!a.Computed && !a.Sensitive && (a.HiddenAttributes > 0 || a.HiddenBlocks > 0))
}

// ResourceChange describes the planned change for a single resource.
type ResourceChange struct {
	Address Address    `json:"address"`
	Change  ChangeType `json:"change"`

	// Reason carries free-text annotations from the plan, e.g.
	// "(because aws_instance.web is not in configuration)" or
	// "moved from aws_instance.old".
	Reason string `json:"reason,omitempty"`

	Attributes []AttributeChange `json:"attributes,omitempty"`

	HiddenAttributes int `json:"hidden_attributes,omitempty"`
	HiddenBlocks     int `json:"hidden_blocks,omitempty"`
}

// OutputChange describes a change to a root-module output value.
type OutputChange struct {
	Name      string     `json:"name"`
	Change    ChangeType `json:"change"`
	Old       *string    `json:"old_value"`
	New       *string    `json:"new_value"`
	Computed  bool       `json:"computed,omitempty"`
	Sensitive bool       `json:"sensitive,omitempty"`
}

// Counts holds the action counts from the trailing "Plan:" line. The
// producer's line is trusted as authoritative metadata; it is
// cross-validated against the parsed resources but never re-derived.
type Counts struct {
	Add     uint `json:"add"`
	Change  uint `json:"change"`
	Destroy uint `json:"destroy"`
}

// WarningKind classifies recoverable parse anomalies.
type WarningKind string

const (
	// WarnSummaryMismatch: the Plan: line disagrees with counts derived
	// from the parsed resource changes.
	WarnSummaryMismatch WarningKind = "summary-mismatch"
	// WarnUnterminatedValue: a multi-line value reached end-of-input
	// before its terminator; the collected value is truncated.
	WarnUnterminatedValue WarningKind = "unterminated-value"
	// WarnUnknownHeaderVerb: a resource header used a verb outside the
	// known lexicon; the change was classified as update.
	WarnUnknownHeaderVerb WarningKind = "unknown-header-verb"
)

// Warning is a non-fatal anomaly attached to the parsed plan.
type Warning struct {
	Kind    WarningKind `json:"kind"`
	Subject string      `json:"subject,omitempty"`
	Detail  string      `json:"detail,omitempty"`
}

// Plan is the parsed model of one terraform/tofu plan. It is built in a
// single pass and never mutated afterwards; parse a new plan for new input.
// Diagnostic is one framed diagnostic block from terraform output, the
// "╷ ... ╵" sections printed for errors and warnings. A failed plan often
// consists of nothing but these.
type Diagnostic struct {
	Severity string `json:"severity"` // "error" or "warning"
	Summary  string `json:"summary"`
	Detail   string `json:"detail,omitempty"`

	// File and Line locate the offending configuration when the diagnostic
	// names one. Line is 0 when absent.
	File string `json:"file,omitempty"`
	Line int    `json:"line,omitempty"`
}

type Plan struct {
	// Resources and Outputs preserve source order. Downstream renderers
	// depend on this for stable diffs across repeated parses.
	Resources []ResourceChange `json:"resources"`
	Outputs   []OutputChange   `json:"outputs,omitempty"`

	// Counts is nil when the input carried no summary line.
	Counts *Counts `json:"counts,omitempty"`

	Errors   []Diagnostic `json:"errors,omitempty"`
	Warnings []Warning    `json:"warnings,omitempty"`
}

// HasErrors reports whether the input carried any error-severity diagnostic.
func (p *Plan) HasErrors() bool {
	for _, d := range p.Errors {
		if d.Severity == "error" {
			return true
		}
	}
	return false
}

// DerivedCounts computes action counts from the parsed resources. A replace
// contributes to both add and destroy.
func (p *Plan) DerivedCounts() Counts {
	var c Counts
	for _, r := range p.Resources {
		switch r.Change {
		case ChangeCreate:
			c.Add++
		case ChangeUpdate:
			c.Change++
		case ChangeDelete:
			c.Destroy++
		case ChangeReplace:
			c.Add++
			c.Destroy++
		}
	}
	return c
}

// HasChanges reports whether the plan contains any resource or output change.
func (p *Plan) HasChanges() bool {
	for _, r := range p.Resources {
		if r.Change != ChangeNoOp && r.Change != ChangeRead {
			return true
		}
	}
	return len(p.Outputs) > 0
}
