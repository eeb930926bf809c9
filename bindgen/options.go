// Package bindgen generates C++ bindings from a resolved API description.
//
// Generation is a pure function of the description and an Options value.
// The emission mode travels inside Options, so both variants can be
// produced in one process.
package bindgen

import (
	"errors"
	"fmt"
	"strings"

	"github.com/tliron/commonlog"
)

var log = commonlog.GetLogger("cppbind.bindgen")

// ErrNoNamespace is returned when neither the options nor the description
// prefix name the enclosing namespace.
var ErrNoNamespace = errors.New("no namespace: set one or give the description a prefix")

// Mode selects how generated bindings report failures.
type Mode int

const (
	ModeExceptions  Mode = iota // failures throw
	ModeStatusCodes             // failures are returned as sentinel values
)

func (m Mode) String() string {
	switch m {
	case ModeExceptions:
		return "exceptions"
	case ModeStatusCodes:
		return "no-exceptions"
	default:
		return "unknown"
	}
}

// ParseMode accepts "exceptions" and "no-exceptions".
func ParseMode(s string) (Mode, error) {
	switch strings.ToLower(s) {
	case "exceptions", "":
		return ModeExceptions, nil
	case "no-exceptions", "noexceptions", "status-codes":
		return ModeStatusCodes, nil
	default:
		return ModeExceptions, fmt.Errorf("unknown mode %q", s)
	}
}

// Options configures one generation run.
type Options struct {
	Mode Mode
	// Namespace encloses the whole output. Defaults to the description
	// prefix without its trailing underscore.
	Namespace string
	// InlineNamespace is opened inside Namespace in status-code mode.
	InlineNamespace string
	// Renames maps method names to their generated spelling, on top of
	// the built-in keyword table.
	Renames map[string]string
	// Preamble emits the header guard, includes and support types.
	Preamble    bool
	Includes    []string
	HeaderGuard string
}

// withDefaults fills the derived fields of o for description prefix.
func (o Options) withDefaults(prefix string) (Options, error) {
	if o.Namespace == "" {
		o.Namespace = strings.TrimSuffix(prefix, "_")
	}
	if o.Namespace == "" {
		return o, ErrNoNamespace
	}
	if o.InlineNamespace == "" {
		o.InlineNamespace = "noexceptions"
	}
	if o.HeaderGuard == "" {
		guard := strings.ToUpper(o.Namespace) + "_CPP"
		if o.Mode == ModeStatusCodes {
			guard += "_NOEXCEPTIONS"
		}
		o.HeaderGuard = guard
	}
	return o, nil
}
