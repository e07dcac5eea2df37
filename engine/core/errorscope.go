package core

import "sync"

type Severity uint8

const (
	SeverityMessage Severity = iota
	SeverityWarning
	SeverityError
)

func (s Severity) String() string {
	switch s {
	case SeverityWarning:
		return "warning"
	case SeverityError:
		return "error"
	}
	return "message"
}

// Report is a single entry accumulated by an ErrorScope.
type Report struct {
	Severity Severity
	Code     ErrorCode
	Scope    string
	Message  string
}

// ErrorScope accumulates reports for a unit of work. Scopes nest: a child
// forwards every report to its parent so the outermost scope sees everything
// that happened during a frame. Safe for concurrent use.
type ErrorScope struct {
	mu      sync.Mutex
	name    string
	parent  *ErrorScope
	reports []Report
}

func NewErrorScope(name string) *ErrorScope {
	return &ErrorScope{name: name}
}

// Child opens a nested scope.
func (s *ErrorScope) Child(name string) *ErrorScope {
	return &ErrorScope{name: name, parent: s}
}

func (s *ErrorScope) Name() string {
	return s.name
}

func (s *ErrorScope) AddMessage(code ErrorCode, msg string) {
	s.add(Report{Severity: SeverityMessage, Code: code, Scope: s.name, Message: msg})
}

func (s *ErrorScope) AddWarning(code ErrorCode, msg string) {
	s.add(Report{Severity: SeverityWarning, Code: code, Scope: s.name, Message: msg})
}

func (s *ErrorScope) AddError(code ErrorCode, msg string) {
	s.add(Report{Severity: SeverityError, Code: code, Scope: s.name, Message: msg})
}

// ReportError records err with the code derived from it.
func (s *ErrorScope) ReportError(err error) {
	if err == nil {
		return
	}
	s.AddError(CodeOf(err), err.Error())
}

// add records r and logs it once, at the scope it was reported to.
func (s *ErrorScope) add(r Report) {
	if s == nil {
		return
	}
	s.record(r)

	l := Logger().With("scope", r.Scope, "code", r.Code)
	switch r.Severity {
	case SeverityError:
		l.Error(r.Message)
	case SeverityWarning:
		l.Warn(r.Message)
	default:
		l.Debug(r.Message)
	}
}

func (s *ErrorScope) record(r Report) {
	for ; s != nil; s = s.parent {
		s.mu.Lock()
		s.reports = append(s.reports, r)
		s.mu.Unlock()
	}
}

// Reports returns a copy of everything recorded in this scope.
func (s *ErrorScope) Reports() []Report {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]Report, len(s.reports))
	copy(out, s.reports)
	return out
}

// Errors returns only the error-severity reports.
func (s *ErrorScope) Errors() []Report {
	var out []Report
	for _, r := range s.Reports() {
		if r.Severity == SeverityError {
			out = append(out, r)
		}
	}
	return out
}

func (s *ErrorScope) HasErrors() bool {
	return len(s.Errors()) > 0
}

// Reset drops the accumulated reports; the parent is left untouched.
func (s *ErrorScope) Reset() {
	s.mu.Lock()
	s.reports = nil
	s.mu.Unlock()
}
