package domain

import "errors"

var (
	ErrStreamNotFound     = errors.New("live stream not found")
	ErrInvalidStreamID    = errors.New("invalid live stream id")
	ErrStreamNotReady     = errors.New("permanent stream not ready")
	ErrAlreadyInitialized = errors.New("permanent stream already initialized")
	ErrNoPlaybackID       = errors.New("live stream has no playback id")
)
