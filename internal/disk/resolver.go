package disk

import (
	"fmt"
	"path/filepath"
	"strings"
	"unicode"
)

const maxComponentLen = 255

// Resolver maps (appSource, referenceObjID, name) to a storage path under Root.
// Inputs must have passed ValidateComponent; Resolve does no checking itself.
type Resolver struct {
	Root string
}

// NewResolver returns a Resolver rooted at the cleaned root directory.
func NewResolver(root string) Resolver {
	return Resolver{Root: filepath.Clean(root)}
}

// Resolve returns Root/appSource/referenceObjID/name.
func (r Resolver) Resolve(appSource, referenceObjID, name string) string {
	return filepath.Join(r.Root, appSource, referenceObjID, name)
}

// Dir returns the directory holding every file of appSource/referenceObjID.
func (r Resolver) Dir(appSource, referenceObjID string) string {
	return filepath.Join(r.Root, appSource, referenceObjID)
}

// ValidateComponent checks that s is usable as exactly one path segment.
// Segments may not be empty, start with a dot, or contain separators or
// control characters, which keeps Resolve injective.
func ValidateComponent(s string) error {
	switch {
	case s == "":
		return fmt.Errorf("%w: empty", ErrInvalidComponent)
	case len(s) > maxComponentLen:
		return fmt.Errorf("%w: longer than %d bytes", ErrInvalidComponent, maxComponentLen)
	case strings.HasPrefix(s, "."):
		return fmt.Errorf("%w: %q starts with a dot", ErrInvalidComponent, s)
	}
	for _, c := range s {
		if c == '/' || c == '\\' || unicode.IsControl(c) {
			return fmt.Errorf("%w: %q contains %q", ErrInvalidComponent, s, c)
		}
	}
	return nil
}
