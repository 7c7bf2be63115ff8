package provision

import (
	"fmt"
	"regexp"

	"github.com/dbkit-go/dbprovision/dburl"
)

var _ error = &NotImplementedError{}

// NotImplementedError is returned by hook defaults for operations that a
// backend must explicitly opt into. Backends without an override must fail
// loudly rather than silently no-op.
type NotImplementedError struct {
	Op  string
	URL *dburl.URL
}

func (e *NotImplementedError) Error() string {
	return fmt.Sprintf("provision: no %s routine for %s", e.Op, e.URL)
}

var identRe = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)

// CheckIdent validates a follower identifier before it is used as a database
// name. Backends interpolate idents into DDL statements, so only plain
// identifier characters are allowed.
func CheckIdent(ident string) error {
	if !identRe.MatchString(ident) {
		return fmt.Errorf("provision: invalid follower ident %q", ident)
	}
	return nil
}
