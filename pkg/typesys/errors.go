package typesys

import (
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/rhino1998/strata/pkg/types"
)

var (
	ErrUnresolved        = errors.New("unresolved reference")
	ErrAmbiguousCall     = errors.New("ambiguous call")
	ErrIncompatibleTypes = errors.New("incompatible types")
	ErrNoExtendsPath     = errors.New("no extends path")
	ErrCircularModify    = errors.New("circular modify declaration")
)

type UnresolvedError struct {
	What    string
	Name    string
	Context string
}

func (e UnresolvedError) Error() string {
	if e.Context == "" {
		return fmt.Sprintf("unresolved %s %q", e.What, e.Name)
	}

	return fmt.Sprintf("unresolved %s %q in %s", e.What, e.Name, e.Context)
}

func (e UnresolvedError) Unwrap() error { return ErrUnresolved }

type AmbiguousCallError struct {
	Name       string
	Candidates []*types.Method
}

func (e AmbiguousCallError) Error() string {
	parts := make([]string, 0, len(e.Candidates))
	for _, c := range e.Candidates {
		parts = append(parts, c.String())
	}

	return fmt.Sprintf("call to %s is ambiguous: %s", e.Name, strings.Join(parts, " and "))
}

func (e AmbiguousCallError) Unwrap() error { return ErrAmbiguousCall }

type IncompatibleTypesError struct {
	Left  types.Type
	Right types.Type
}

func (e IncompatibleTypesError) Error() string {
	return fmt.Sprintf("incompatible types %s and %s", typeName(e.Left), typeName(e.Right))
}

func (e IncompatibleTypesError) Unwrap() error { return ErrIncompatibleTypes }

func typeName(t types.Type) string {
	if t == nil {
		return "<nil>"
	}

	return t.String()
}

type ErrorSet struct {
	Errs []error
}

func newErrorSet() *ErrorSet {
	return new(ErrorSet)
}

func (e *ErrorSet) Add(err error) {
	var subErrs *ErrorSet
	if errors.As(err, &subErrs) {
		e.Errs = append(e.Errs, subErrs.Unwrap()...)
	} else {
		e.Errs = append(e.Errs, err)
	}
}

func (e ErrorSet) Error() string {
	return errors.Join(e.Errs...).Error()
}

func (e ErrorSet) Unwrap() []error {
	return e.Errs
}

func (e *ErrorSet) Defer(err error) error {
	if err != nil && e != err {
		e.Add(err)
	}

	if len(e.Errs) == 0 {
		return nil
	}

	return e
}

// Diagnostics collects non-fatal problems found while resolving. Each one
// is logged at warn level when reported; callers continue with a safe
// default.
type Diagnostics struct {
	logger *slog.Logger
	errs   *ErrorSet
}

func newDiagnostics(logger *slog.Logger) *Diagnostics {
	return &Diagnostics{logger: logger, errs: newErrorSet()}
}

func (d *Diagnostics) Report(err error) {
	d.logger.Warn("diagnostic", slog.Any("err", err))
	d.errs.Add(err)
}

func (d *Diagnostics) Reportf(format string, args ...any) {
	d.Report(fmt.Errorf(format, args...))
}

func (d *Diagnostics) Len() int { return len(d.errs.Errs) }

func (d *Diagnostics) Errors() []error { return d.errs.Unwrap() }

// Err returns the collected diagnostics as one error, or nil.
func (d *Diagnostics) Err() error {
	return d.errs.Defer(nil)
}

func (d *Diagnostics) Reset() {
	d.errs = newErrorSet()
}
