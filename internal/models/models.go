package models

import "time"

// LiveState is the application's vocabulary for a video's live availability.
type LiveState string

const (
	LiveStateIdle     LiveState = "idle"
	LiveStateStarting LiveState = "starting"
	LiveStateLive     LiveState = "live"
	LiveStateStopping LiveState = "stopping"
	LiveStateStopped  LiveState = "stopped"
)

// Upload states for the non-live half of a video's lifecycle.
const (
	UploadStatePending    = "pending"
	UploadStateProcessing = "processing"
	UploadStateError      = "error"
	UploadStateReady      = "ready"
)

// Video is the durable record for a piece of video content. The live channel
// backing it is provisioned and run by an external encoding service; LiveInfo
// holds the references needed to reach that service and LiveState mirrors the
// channel's last confirmed status.
type Video struct {
	ID          string    `json:"id"`
	Title       string    `json:"title"`
	Description string    `json:"description,omitempty"`
	UploadState string    `json:"uploadState"`
	LiveState   LiveState `json:"liveState,omitempty"`
	LiveInfo    *LiveInfo `json:"liveInfo,omitempty"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
}

// LiveInfo records the externally provisioned resources backing a live video.
type LiveInfo struct {
	MediaLive    MediaLiveInfo    `json:"medialive"`
	MediaPackage MediaPackageInfo `json:"mediapackage"`
}

// MediaLiveInfo identifies the encoding channel and its RTMP inputs.
type MediaLiveInfo struct {
	InputID        string   `json:"inputId,omitempty"`
	InputEndpoints []string `json:"inputEndpoints,omitempty"`
	ChannelID      string   `json:"channelId"`
}

// MediaPackageInfo identifies the packaging channel and its playback endpoints.
type MediaPackageInfo struct {
	ChannelID string            `json:"channelId,omitempty"`
	Endpoints map[string]string `json:"endpoints,omitempty"`
}

// ChannelID returns the encoding channel id for the video, or "" when the
// video has no live channel provisioned.
func (v Video) ChannelID() string {
	if v.LiveInfo == nil {
		return ""
	}
	return v.LiveInfo.MediaLive.ChannelID
}
