// Package medialive talks to the external live encoding service: it parses
// channel references, normalizes channel states into the application's live
// vocabulary, and exposes lookup and control clients for the service's REST
// surface.
package medialive

import (
	"context"
	"strings"
)

// ChannelDescriptor is the subset of channel metadata this service reads.
// Name is composed as <videoID>_<suffix>; only the first segment is
// semantically significant here.
type ChannelDescriptor struct {
	ID    string `json:"id"`
	ARN   string `json:"arn,omitempty"`
	Name  string `json:"name"`
	State string `json:"state,omitempty"`
}

// ChannelLookup fetches descriptive metadata for a channel on demand.
type ChannelLookup interface {
	DescribeChannel(ctx context.Context, channelID string) (ChannelDescriptor, error)
}

// ChannelControl drives the lifecycle of an existing channel.
type ChannelControl interface {
	StartChannel(ctx context.Context, channelID string) error
	StopChannel(ctx context.Context, channelID string) error
}

// VideoIDFromChannelName derives the owning video id from a channel name of
// the form <videoID>_<suffix>. A name without an underscore is already a bare
// video id.
func VideoIDFromChannelName(name string) string {
	return strings.SplitN(name, "_", 2)[0]
}
