package mux

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"muxlive/internal/core/domain"
)

type createLiveStreamRequest struct {
	PlaybackPolicy   []string          `json:"playback_policy"`
	NewAssetSettings *newAssetSettings `json:"new_asset_settings,omitempty"`
	LatencyMode      string            `json:"latency_mode,omitempty"`
	ReconnectWindow  float64           `json:"reconnect_window"`
}

type newAssetSettings struct {
	PlaybackPolicy []string `json:"playback_policy"`
}

type playbackIDPayload struct {
	ID     string `json:"id"`
	Policy string `json:"policy"`
}

type liveStreamPayload struct {
	ID              string              `json:"id"`
	Status          string              `json:"status"`
	StreamKey       string              `json:"stream_key"`
	PlaybackIDs     []playbackIDPayload `json:"playback_ids"`
	LatencyMode     string              `json:"latency_mode"`
	ReconnectWindow float64             `json:"reconnect_window"`
	CreatedAt       string              `json:"created_at"`
}

type liveStreamEnvelope struct {
	Data liveStreamPayload `json:"data"`
}

type errorEnvelope struct {
	Error struct {
		Type     string   `json:"type"`
		Messages []string `json:"messages"`
	} `json:"error"`
}

// APIError is a non-2xx answer from the platform.
type APIError struct {
	StatusCode int
	Type       string
	Messages   []string
}

func (e *APIError) Error() string {
	msg := strings.Join(e.Messages, "; ")
	switch {
	case e.Type != "" && msg != "":
		return fmt.Sprintf("mux: %d %s: %s", e.StatusCode, e.Type, msg)
	case e.Type != "":
		return fmt.Sprintf("mux: %d %s", e.StatusCode, e.Type)
	default:
		return fmt.Sprintf("mux: unexpected status %d", e.StatusCode)
	}
}

func newCreateRequest(p domain.CreateParams) createLiveStreamRequest {
	req := createLiveStreamRequest{
		PlaybackPolicy:  []string{string(p.PlaybackPolicy)},
		LatencyMode:     string(p.LatencyMode),
		ReconnectWindow: p.ReconnectWindow.Seconds(),
	}
	if p.NewAssetPlaybackPolicy != "" {
		req.NewAssetSettings = &newAssetSettings{
			PlaybackPolicy: []string{string(p.NewAssetPlaybackPolicy)},
		}
	}
	return req
}

func (p liveStreamPayload) toDomain(ingestURL string) *domain.LiveStream {
	ls := &domain.LiveStream{
		ID:              domain.LiveStreamID(p.ID),
		Status:          domain.LiveStreamStatus(p.Status),
		StreamKey:       p.StreamKey,
		LatencyMode:     domain.LatencyMode(p.LatencyMode),
		ReconnectWindow: time.Duration(p.ReconnectWindow * float64(time.Second)),
	}
	if p.StreamKey != "" {
		ls.IngestURL = ingestURL
	}
	for _, pb := range p.PlaybackIDs {
		ls.PlaybackIDs = append(ls.PlaybackIDs, domain.PlaybackID{
			ID:     pb.ID,
			Policy: domain.PlaybackPolicy(pb.Policy),
		})
	}
	if secs, err := strconv.ParseInt(p.CreatedAt, 10, 64); err == nil {
		ls.CreatedAt = time.Unix(secs, 0).UTC()
	}
	return ls
}
