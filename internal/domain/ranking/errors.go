package ranking

import "errors"

// ErrUnsupportedDiscipline is returned for a round or group whose discipline
// tag has no scorer. It signals a configuration fault; no default applies.
var ErrUnsupportedDiscipline = errors.New("unsupported discipline")
