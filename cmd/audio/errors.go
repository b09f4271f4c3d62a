package audio

import "errors"

var (
	ErrRampSuperseded    = errors.New("volume ramp superseded by a newer ramp")
	ErrNothingLoaded     = errors.New("no track loaded")
	ErrUnsupportedFormat = errors.New("unsupported audio format")
	ErrAudioUnavailable  = errors.New("audio playback not available in this build")
)
