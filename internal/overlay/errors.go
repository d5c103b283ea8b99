package overlay

import (
	"errors"
	"fmt"
)

// ErrMissingLandmark is matched by every MissingLandmarkError.
var ErrMissingLandmark = errors.New("missing landmark")

// MissingLandmarkError reports the landmark that prevented the overlay from being built.
// The frame should be skipped; nothing of the skeleton is drawn for it.
type MissingLandmarkError struct {
	Landmark LandmarkType
}

func (e *MissingLandmarkError) Error() string {
	return fmt.Sprintf("missing landmark: %s", e.Landmark)
}

// Is lets errors.Is(err, ErrMissingLandmark) match.
func (e *MissingLandmarkError) Is(target error) bool {
	return target == ErrMissingLandmark
}
