package live

import (
	"context"
	"errors"
	"testing"

	"lumen-live/internal/medialive"
	"lumen-live/internal/models"
)

type fakeLookup struct {
	descriptor medialive.ChannelDescriptor
	err        error
	calls      int
	lastID     string
}

func (f *fakeLookup) DescribeChannel(_ context.Context, channelID string) (medialive.ChannelDescriptor, error) {
	f.calls++
	f.lastID = channelID
	return f.descriptor, f.err
}

type fakePublisher struct {
	err        error
	calls      int
	lastVideo  string
	lastStatus models.LiveState
}

func (f *fakePublisher) PublishLiveState(_ context.Context, videoID string, status models.LiveState) (PublishResult, error) {
	f.calls++
	f.lastVideo = videoID
	f.lastStatus = status
	if f.err != nil {
		return PublishResult{}, f.err
	}
	return PublishResult{VideoID: videoID, Status: status}, nil
}

func runningEvent() StateChangeEvent {
	return StateChangeEvent{
		DetailType: "MediaLive Channel State Change",
		Source:     "aws.medialive",
		Detail: StateChangeDetail{
			ChannelARN: "arn:aws:medialive:eu-west-1:account_id:channel:1234567",
			State:      "RUNNING",
		},
	}
}

func TestHandlePublishesLiveForRunning(t *testing.T) {
	t.Parallel()

	lookup := &fakeLookup{descriptor: medialive.ChannelDescriptor{ID: "1234567", Name: "video-id_stamp"}}
	publisher := &fakePublisher{}
	handler := NewHandler(lookup, publisher, nil)

	result, err := handler.Handle(context.Background(), runningEvent())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if lookup.lastID != "1234567" {
		t.Fatalf("expected lookup for channel 1234567, got %q", lookup.lastID)
	}
	if publisher.lastVideo != "video-id" {
		t.Fatalf("expected publish for video-id, got %q", publisher.lastVideo)
	}
	if publisher.lastStatus != models.LiveStateLive {
		t.Fatalf("expected live, got %q", publisher.lastStatus)
	}
	if result.VideoID != "video-id" || result.Status != models.LiveStateLive {
		t.Fatalf("unexpected result %+v", result)
	}
}

func TestHandlePublishesStoppedForStopped(t *testing.T) {
	t.Parallel()

	lookup := &fakeLookup{descriptor: medialive.ChannelDescriptor{ID: "1234567", Name: "video-id_stamp"}}
	publisher := &fakePublisher{}
	handler := NewHandler(lookup, publisher, nil)

	event := runningEvent()
	event.Detail.State = "STOPPED"

	result, err := handler.Handle(context.Background(), event)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.Status != models.LiveStateStopped {
		t.Fatalf("expected stopped, got %q", result.Status)
	}
}

func TestHandleRejectsUnsupportedStateBeforeAnyCall(t *testing.T) {
	t.Parallel()

	lookup := &fakeLookup{descriptor: medialive.ChannelDescriptor{Name: "video-id_stamp"}}
	publisher := &fakePublisher{}
	handler := NewHandler(lookup, publisher, nil)

	event := runningEvent()
	event.Detail.State = "STARTING"

	_, err := handler.Handle(context.Background(), event)
	if err == nil {
		t.Fatal("expected error for STARTING")
	}
	var unsupported *medialive.UnsupportedStateError
	if !errors.As(err, &unsupported) {
		t.Fatalf("expected UnsupportedStateError, got %T", err)
	}
	if lookup.calls != 0 {
		t.Fatalf("expected no lookup for unsupported state, got %d calls", lookup.calls)
	}
	if publisher.calls != 0 {
		t.Fatalf("expected no publish for unsupported state, got %d calls", publisher.calls)
	}
}

func TestHandleRejectsMalformedReferenceBeforeLookup(t *testing.T) {
	t.Parallel()

	lookup := &fakeLookup{}
	publisher := &fakePublisher{}
	handler := NewHandler(lookup, publisher, nil)

	event := runningEvent()
	event.Detail.ChannelARN = "arn:aws:medialive:eu-west-1:account_id:input:1234567"

	_, err := handler.Handle(context.Background(), event)
	var malformed *medialive.MalformedReferenceError
	if !errors.As(err, &malformed) {
		t.Fatalf("expected MalformedReferenceError, got %v", err)
	}
	if lookup.calls != 0 {
		t.Fatalf("expected no lookup for malformed reference, got %d calls", lookup.calls)
	}
}

func TestHandlePropagatesLookupFailure(t *testing.T) {
	t.Parallel()

	lookupErr := errors.New("describe channel 1234567: status 500")
	lookup := &fakeLookup{err: lookupErr}
	publisher := &fakePublisher{}
	handler := NewHandler(lookup, publisher, nil)

	_, err := handler.Handle(context.Background(), runningEvent())
	if !errors.Is(err, lookupErr) {
		t.Fatalf("expected lookup error to propagate, got %v", err)
	}
	if publisher.calls != 0 {
		t.Fatalf("expected no publish after lookup failure, got %d calls", publisher.calls)
	}
}

func TestHandleWrapsPublishFailure(t *testing.T) {
	t.Parallel()

	publishErr := errors.New("store unavailable")
	lookup := &fakeLookup{descriptor: medialive.ChannelDescriptor{Name: "video-id_stamp"}}
	publisher := &fakePublisher{err: publishErr}
	handler := NewHandler(lookup, publisher, nil)

	_, err := handler.Handle(context.Background(), runningEvent())
	var wrapped *PublishError
	if !errors.As(err, &wrapped) {
		t.Fatalf("expected PublishError, got %v", err)
	}
	if wrapped.VideoID != "video-id" {
		t.Fatalf("expected video-id on the wrapper, got %q", wrapped.VideoID)
	}
	if !errors.Is(err, publishErr) {
		t.Fatalf("expected cause to stay reachable, got %v", err)
	}
}
