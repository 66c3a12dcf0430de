package utils

import "errors"

var (
	ErrUnauthenticated     = errors.New("unauthenticated")
	ErrForbidden           = errors.New("insufficient access level")
	ErrValidation          = errors.New("validation failed")
	ErrExperienceNotFound  = errors.New("experience not found")
	ErrPlaceNotFound       = errors.New("place not found")
	ErrImageTooLarge       = errors.New("image exceeds size ceiling")
	ErrUpstream            = errors.New("upstream service error")
	ErrTimeout             = errors.New("step timed out")
	ErrDatabaseError       = errors.New("database error")
	ErrPromptMissing       = errors.New("experience has no prompt")
	ErrImageGeneration     = errors.New("image generation failed")
	ErrGeocoderUnavailable = errors.New("geocoder not configured")
	ErrAddressNotFound     = errors.New("address not found")
	ErrAlreadyAnnounced    = errors.New("place already announced")
)

// IsAny reports whether err matches any of targets.
func IsAny(err error, targets ...error) bool {
	for _, t := range targets {
		if errors.Is(err, t) {
			return true
		}
	}
	return false
}
