package site

import (
	"errors"
	"fmt"

	"go.uber.org/zap"
)

// FailureKind classifies non-fatal problems encountered during a page build.
type FailureKind int

const (
	ParseFailure FailureKind = iota
	MissingAsset
	MaterializationFailure
	DirectiveFailure
	TabSortKeyFailure
)

func (k FailureKind) String() string {
	switch k {
	case ParseFailure:
		return "parse-failure"
	case MissingAsset:
		return "missing-asset"
	case MaterializationFailure:
		return "materialization-failure"
	case DirectiveFailure:
		return "directive-failure"
	case TabSortKeyFailure:
		return "tab-sort-key-failure"
	default:
		return fmt.Sprintf("failure(%d)", int(k))
	}
}

// Page generation aborts only in these cases, everything else degrades.
var (
	ErrNoShell  = errors.New("no page shell template found")
	ErrNoTabs   = errors.New("no valid tabs found")
	ErrNoHead   = errors.New("no head item found")
	ErrBadGroup = errors.New("malformed group path")
)

// Diagnostic is one recorded non-fatal failure.
type Diagnostic struct {
	Kind    FailureKind
	Subject string
	Detail  string
	Err     error
}

func (d Diagnostic) String() string {
	s := d.Kind.String() + ": " + d.Subject
	if len(d.Detail) > 0 {
		s += ": " + d.Detail
	}
	if d.Err != nil {
		s += ": " + d.Err.Error()
	}
	return s
}

// Diagnostics accumulates the structured failure trail of one build. It is
// build-scoped and not safe for concurrent use, same as the rest of the
// pipeline.
type Diagnostics struct {
	entries []Diagnostic
	log     *zap.Logger
}

func NewDiagnostics(log *zap.Logger) *Diagnostics {
	return &Diagnostics{log: log}
}

// Add records a failure and mirrors it to the log.
func (d *Diagnostics) Add(kind FailureKind, subject, detail string, err error) {
	d.entries = append(d.entries, Diagnostic{Kind: kind, Subject: subject, Detail: detail, Err: err})
	if d.log != nil {
		d.log.Warn("Build degraded",
			zap.Stringer("kind", kind),
			zap.String("subject", subject),
			zap.String("detail", detail),
			zap.Error(err))
	}
}

// Entries returns recorded failures in the order they happened.
func (d *Diagnostics) Entries() []Diagnostic {
	return d.entries
}

// Count returns the number of recorded failures of the given kind.
func (d *Diagnostics) Count(kind FailureKind) int {
	n := 0
	for _, e := range d.entries {
		if e.Kind == kind {
			n++
		}
	}
	return n
}
