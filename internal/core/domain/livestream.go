package domain

import (
	"time"
)

type LiveStreamID string

// LiveStreamStatus is reported by the remote platform. Values other than
// the constants below are passed through verbatim.
type LiveStreamStatus string

const (
	StatusIdle     LiveStreamStatus = "idle"
	StatusActive   LiveStreamStatus = "active"
	StatusDisabled LiveStreamStatus = "disabled"
)

type PlaybackPolicy string

const (
	PlaybackPolicyPublic PlaybackPolicy = "public"
	PlaybackPolicySigned PlaybackPolicy = "signed"
)

type LatencyMode string

const (
	LatencyModeLow      LatencyMode = "low"
	LatencyModeReduced  LatencyMode = "reduced"
	LatencyModeStandard LatencyMode = "standard"
)

type PlaybackID struct {
	ID     string
	Policy PlaybackPolicy
}

// LiveStream is a local view of a resource owned by the remote platform.
// It goes stale as soon as it is returned.
type LiveStream struct {
	ID              LiveStreamID
	Status          LiveStreamStatus
	PlaybackIDs     []PlaybackID
	StreamKey       string
	IngestURL       string
	LatencyMode     LatencyMode
	ReconnectWindow time.Duration
	CreatedAt       time.Time
}

// FirstPlaybackID returns the first playback id or "" if the stream has none.
func (s *LiveStream) FirstPlaybackID() string {
	if s == nil || len(s.PlaybackIDs) == 0 {
		return ""
	}
	return s.PlaybackIDs[0].ID
}

func (s *LiveStream) IsActive() bool {
	return s != nil && s.Status == StatusActive
}

// CreateParams are the settings sent when a live stream is created.
type CreateParams struct {
	PlaybackPolicy         PlaybackPolicy
	NewAssetPlaybackPolicy PlaybackPolicy
	LatencyMode            LatencyMode
	ReconnectWindow        time.Duration
}

// DefaultCreateParams returns public playback, low latency and a 60 second
// reconnect window.
func DefaultCreateParams() CreateParams {
	return CreateParams{
		PlaybackPolicy:         PlaybackPolicyPublic,
		NewAssetPlaybackPolicy: PlaybackPolicyPublic,
		LatencyMode:            LatencyModeLow,
		ReconnectWindow:        60 * time.Second,
	}
}
