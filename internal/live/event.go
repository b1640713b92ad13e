// Package live reconciles channel lifecycle notifications from the external
// encoding service with the durable state of the videos that own those
// channels.
package live

// StateChangeEvent is the envelope delivered by the notifier for channel
// state changes. Only Detail is consumed; the remaining fields ride along for
// logging and diagnostics.
type StateChangeEvent struct {
	Version    string            `json:"version,omitempty"`
	ID         string            `json:"id,omitempty"`
	DetailType string            `json:"detail-type,omitempty"`
	Source     string            `json:"source,omitempty"`
	Account    string            `json:"account,omitempty"`
	Time       string            `json:"time,omitempty"`
	Region     string            `json:"region,omitempty"`
	Resources  []string          `json:"resources,omitempty"`
	Detail     StateChangeDetail `json:"detail"`
}

// StateChangeDetail carries the channel reference and its new raw state.
type StateChangeDetail struct {
	ChannelARN string `json:"channel_arn"`
	State      string `json:"state"`
	Message    string `json:"message,omitempty"`
	Pipeline   string `json:"pipeline,omitempty"`
}
