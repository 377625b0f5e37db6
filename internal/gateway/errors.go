package gateway

import "errors"

// ErrValidation reports malformed caller input, detected before any network
// activity.
var ErrValidation = errors.New("invalid input")
