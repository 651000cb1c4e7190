package http

import (
	stderrors "errors"
	"io"
	"net/http"

	"muxlive/internal/core/domain"
	"muxlive/internal/core/ports"
	"muxlive/pkg/errors"

	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
)

type LiveStreamHandler struct {
	service   ports.LiveStreamService
	permanent ports.PermanentStream
}

// NewLiveStreamHandler serves ad-hoc creation and, when permanent is non-nil,
// the permanent stream's status routes.
func NewLiveStreamHandler(service ports.LiveStreamService, permanent ports.PermanentStream) *LiveStreamHandler {
	return &LiveStreamHandler{
		service:   service,
		permanent: permanent,
	}
}

func (h *LiveStreamHandler) SetupRoutes(router gin.IRoutes) {
	router.POST("/create-live-stream", h.CreateLiveStream)
	if h.permanent == nil {
		return
	}
	router.GET("/api/mux-live-status", h.GetLiveStatus)
	router.GET("/stream-info", h.GetStreamInfo)
}

type createResponse struct {
	PlaybackID string `json:"playbackId"`
}

type statusResponse struct {
	IsActive   bool   `json:"isActive"`
	Status     string `json:"status"`
	PlaybackID string `json:"playbackId"`
	Type       string `json:"type,omitempty"`
}

type streamInfoResponse struct {
	LiveStreamID string `json:"liveStreamId"`
	PlaybackID   string `json:"playbackId"`
	Status       string `json:"status"`
}

// CreateLiveStream accepts an optional JSON body, which is parsed but unused.
func (h *LiveStreamHandler) CreateLiveStream(c *gin.Context) {
	if c.ContentType() == binding.MIMEJSON {
		var body map[string]interface{}
		if err := c.ShouldBindJSON(&body); err != nil && !stderrors.Is(err, io.EOF) {
			c.Error(errors.NewInvalidInputError("Request body must be valid JSON").WithContext("details", err.Error()))
			return
		}
	}

	stream, err := h.service.CreateAdHoc(c.Request.Context())
	if err != nil {
		c.Error(errors.NewRemoteError(err, "Failed to create stream"))
		return
	}

	c.JSON(http.StatusOK, createResponse{PlaybackID: stream.FirstPlaybackID()})
}

// GetLiveStatus always asks the platform; the type query parameter is echoed
// back and otherwise ignored.
func (h *LiveStreamHandler) GetLiveStatus(c *gin.Context) {
	stream, err := h.service.FetchPermanentStatus(c.Request.Context())
	if stderrors.Is(err, domain.ErrStreamNotReady) {
		h.notReady(c)
		return
	}
	if err != nil {
		c.Error(errors.NewRemoteError(err, "Failed to fetch stream status"))
		return
	}

	c.JSON(http.StatusOK, statusResponse{
		IsActive:   stream.IsActive(),
		Status:     string(stream.Status),
		PlaybackID: stream.FirstPlaybackID(),
		Type:       c.Query("type"),
	})
}

// GetStreamInfo reports the cached permanent stream without contacting the
// platform, so status may be stale.
func (h *LiveStreamHandler) GetStreamInfo(c *gin.Context) {
	r := h.permanent.Readiness()
	if !r.IsReady() {
		h.notReady(c)
		return
	}

	c.JSON(http.StatusOK, streamInfoResponse{
		LiveStreamID: string(r.Stream.ID),
		PlaybackID:   r.Stream.FirstPlaybackID(),
		Status:       string(r.Stream.Status),
	})
}

func (h *LiveStreamHandler) notReady(c *gin.Context) {
	r := h.permanent.Readiness()

	appErr := errors.NewServiceUnavailableError("Stream not ready, please retry later").
		WithContext("state", r.State.String())
	if r.State == domain.StateFailed {
		appErr.Message = "Stream initialization failed"
		appErr.WithContext("reason", r.Reason)
	} else {
		c.Header("Retry-After", "5")
	}
	c.Error(appErr)
}
