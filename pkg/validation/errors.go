package validation

import "errors"

// Error taxonomy shared by every engine. Callers wrap these with context via
// fmt.Errorf("%w: ...") and test for them with errors.Is.
var (
	// ErrInvalidArgument marks malformed or out-of-range numeric parameters.
	ErrInvalidArgument = errors.New("invalid argument")

	// ErrMissingConfiguration marks a mandatory configuration field that is absent.
	ErrMissingConfiguration = errors.New("missing configuration")

	// ErrMissingResource marks a referenced rate table or series file that could
	// not be found. Callers degrade to a documented default instead of failing.
	ErrMissingResource = errors.New("missing resource")
)
