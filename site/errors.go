package site

import "errors"

// ErrNoLogo signals that no logo is configured or it could not be loaded.
var ErrNoLogo = errors.New("logo not available")
