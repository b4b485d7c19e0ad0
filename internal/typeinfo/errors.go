package typeinfo

import (
	"errors"
	"fmt"
	"strings"

	"github.com/okra-platform/stitch/internal/language"
)

var (
	// Resolution errors
	ErrUnknownField       = errors.New("unknown field")
	ErrUnknownArgument    = errors.New("unknown argument")
	ErrUnknownInputField  = errors.New("unknown input field")
	ErrUnknownType        = errors.New("unknown type")
	ErrMissingRootType    = errors.New("no output type to resolve against")
	ErrNotFieldsContainer = errors.New("type has no selectable fields")
	ErrMissingContext     = errors.New("node recorded outside of a field or argument")

	// Input errors
	ErrNilNode         = errors.New("node cannot be nil")
	ErrNilSchema       = errors.New("schema cannot be nil")
	ErrUnsupportedNode = errors.New("node kind cannot be recorded")

	// Table errors
	ErrDuplicateID   = errors.New("identifier already recorded")
	ErrUntrackedTag  = errors.New("tag has no table entry")
	ErrOrphanedEntry = errors.New("table entry is not attached to any node")
	ErrUnknownIDKind = errors.New("unknown identifier generator")
)

// ResolutionError describes a lookup that failed while recording. It
// unwraps to one of the resolution sentinels above.
type ResolutionError struct {
	Err    error         // sentinel describing the failure
	Kind   language.Kind // kind of the node being resolved
	Name   string        // name that failed to resolve
	Parent string        // type or field the lookup ran against
	Path   []string      // path of the node within the recorded tree
}

// Error implements the error interface
func (e *ResolutionError) Error() string {
	var b strings.Builder
	b.WriteString(e.Err.Error())
	if e.Name != "" {
		fmt.Fprintf(&b, " %q", e.Name)
	}
	if e.Parent != "" {
		fmt.Fprintf(&b, " on %s", e.Parent)
	}
	if len(e.Path) > 0 {
		fmt.Fprintf(&b, " at %s", strings.Join(e.Path, "."))
	}
	return b.String()
}

func (e *ResolutionError) Unwrap() error {
	return e.Err
}
