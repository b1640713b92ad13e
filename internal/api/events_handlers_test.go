package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"lumen-live/internal/live"
	"lumen-live/internal/medialive"
	"lumen-live/internal/models"
	"lumen-live/internal/observability/metrics"
	"lumen-live/internal/storage"
)

const testEventToken = "webhook-secret"

type stubLookup struct {
	descriptor medialive.ChannelDescriptor
	err        error
}

func (s stubLookup) DescribeChannel(context.Context, string) (medialive.ChannelDescriptor, error) {
	return s.descriptor, s.err
}

func newEventHandler(t *testing.T, lookup medialive.ChannelLookup, store storage.Repository) *Handler {
	t.Helper()
	handler := NewHandler(store, nil, live.NewHandler(lookup, live.StorePublisher{Store: store}, nil))
	handler.EventToken = testEventToken
	handler.Metrics = metrics.New()
	return handler
}

func seedVideoStore(t *testing.T) storage.Repository {
	t.Helper()
	store, err := storage.NewJSONRepository("")
	if err != nil {
		t.Fatalf("new storage: %v", err)
	}
	_, err = store.CreateVideo(context.Background(), storage.CreateVideoParams{
		ID:    "video-id",
		Title: "Town hall",
		LiveInfo: &models.LiveInfo{
			MediaLive: models.MediaLiveInfo{ChannelID: "1234567"},
		},
	})
	if err != nil {
		t.Fatalf("seed video: %v", err)
	}
	return store
}

func eventBody(arn, state string) string {
	return fmt.Sprintf(`{"detail-type":"MediaLive Channel State Change","source":"aws.medialive","detail":{"channel_arn":%q,"state":%q,"pipeline":"0"}}`, arn, state)
}

func postEvent(handler *Handler, token, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, "/api/events/medialive", strings.NewReader(body))
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rr := httptest.NewRecorder()
	handler.MediaLiveEvent(rr, req)
	return rr
}

func TestMediaLiveEventPublishesState(t *testing.T) {
	t.Parallel()

	store := seedVideoStore(t)
	lookup := stubLookup{descriptor: medialive.ChannelDescriptor{ID: "1234567", Name: "video-id_stamp"}}
	handler := newEventHandler(t, lookup, store)

	rr := postEvent(handler, testEventToken, eventBody("arn:aws:medialive:eu-west-1:account_id:channel:1234567", "RUNNING"))
	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rr.Code, rr.Body.String())
	}

	var result live.PublishResult
	if err := json.Unmarshal(rr.Body.Bytes(), &result); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if result.VideoID != "video-id" || result.Status != models.LiveStateLive {
		t.Fatalf("unexpected result %+v", result)
	}

	video, err := store.GetVideo(context.Background(), "video-id")
	if err != nil {
		t.Fatalf("get video: %v", err)
	}
	if video.LiveState != models.LiveStateLive {
		t.Fatalf("expected live, got %q", video.LiveState)
	}

	if got := handler.Metrics.LifecycleEventCount("RUNNING", "published"); got != 1 {
		t.Fatalf("expected one published event observed, got %d", got)
	}
}

func TestMediaLiveEventRejectsBadToken(t *testing.T) {
	t.Parallel()

	handler := newEventHandler(t, stubLookup{}, seedVideoStore(t))

	rr := postEvent(handler, "wrong-token", eventBody("arn:aws:medialive:eu-west-1:account_id:channel:1234567", "RUNNING"))
	if rr.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", rr.Code)
	}

	rr = postEvent(handler, "", eventBody("arn:aws:medialive:eu-west-1:account_id:channel:1234567", "RUNNING"))
	if rr.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 without token, got %d", rr.Code)
	}
}

func TestMediaLiveEventAcceptsQueryToken(t *testing.T) {
	t.Parallel()

	store := seedVideoStore(t)
	lookup := stubLookup{descriptor: medialive.ChannelDescriptor{Name: "video-id_stamp"}}
	handler := newEventHandler(t, lookup, store)

	body := eventBody("arn:aws:medialive:eu-west-1:account_id:channel:1234567", "STOPPED")
	req := httptest.NewRequest(http.MethodPost, "/api/events/medialive?token="+testEventToken, strings.NewReader(body))
	rr := httptest.NewRecorder()
	handler.MediaLiveEvent(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rr.Code, rr.Body.String())
	}
}

func TestMediaLiveEventRejectsUnsupportedState(t *testing.T) {
	t.Parallel()

	handler := newEventHandler(t, stubLookup{}, seedVideoStore(t))

	rr := postEvent(handler, testEventToken, eventBody("arn:aws:medialive:eu-west-1:account_id:channel:1234567", "STARTING"))
	if rr.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rr.Code)
	}
	if !strings.Contains(rr.Body.String(), "Expected status are RUNNING and STOPPED. STARTING received") {
		t.Fatalf("expected validation message in body, got %s", rr.Body.String())
	}
	if got := handler.Metrics.LifecycleEventCount("STARTING", "error"); got != 1 {
		t.Fatalf("expected one error event observed, got %d", got)
	}
}

func TestMediaLiveEventRejectsMalformedReference(t *testing.T) {
	t.Parallel()

	handler := newEventHandler(t, stubLookup{}, seedVideoStore(t))

	rr := postEvent(handler, testEventToken, eventBody("arn:aws:mediapackage:eu-west-1:account_id:channel:1234567", "RUNNING"))
	if rr.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d: %s", rr.Code, rr.Body.String())
	}
}

func TestMediaLiveEventUnknownVideoIs404(t *testing.T) {
	t.Parallel()

	store := seedVideoStore(t)
	lookup := stubLookup{descriptor: medialive.ChannelDescriptor{Name: "other-video_stamp"}}
	handler := newEventHandler(t, lookup, store)

	rr := postEvent(handler, testEventToken, eventBody("arn:aws:medialive:eu-west-1:account_id:channel:1234567", "RUNNING"))
	if rr.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d: %s", rr.Code, rr.Body.String())
	}
}

type failingPublisher struct {
	err error
}

func (p failingPublisher) PublishLiveState(context.Context, string, models.LiveState) (live.PublishResult, error) {
	return live.PublishResult{}, p.err
}

func TestMediaLiveEventPublishFailureIs500(t *testing.T) {
	t.Parallel()

	lookup := stubLookup{descriptor: medialive.ChannelDescriptor{Name: "video-id_stamp"}}
	events := live.NewHandler(lookup, failingPublisher{err: errors.New("disk full")}, nil)
	handler := NewHandler(seedVideoStore(t), nil, events)
	handler.EventToken = testEventToken
	handler.Metrics = metrics.New()

	rr := postEvent(handler, testEventToken, eventBody("arn:aws:medialive:eu-west-1:account_id:channel:1234567", "RUNNING"))
	if rr.Code != http.StatusInternalServerError {
		t.Fatalf("expected 500 for a failed state write, got %d: %s", rr.Code, rr.Body.String())
	}
}

func TestMediaLiveEventLookupFailureIs502(t *testing.T) {
	t.Parallel()

	handler := newEventHandler(t, stubLookup{err: fmt.Errorf("describe channel: status 500")}, seedVideoStore(t))

	rr := postEvent(handler, testEventToken, eventBody("arn:aws:medialive:eu-west-1:account_id:channel:1234567", "RUNNING"))
	if rr.Code != http.StatusBadGateway {
		t.Fatalf("expected 502, got %d", rr.Code)
	}
}

func TestMediaLiveEventRequiresPost(t *testing.T) {
	t.Parallel()

	handler := newEventHandler(t, stubLookup{}, seedVideoStore(t))

	req := httptest.NewRequest(http.MethodGet, "/api/events/medialive", nil)
	rr := httptest.NewRecorder()
	handler.MediaLiveEvent(rr, req)
	if rr.Code != http.StatusMethodNotAllowed {
		t.Fatalf("expected 405, got %d", rr.Code)
	}
}

func TestMediaLiveEventWithoutHandlerIs503(t *testing.T) {
	t.Parallel()

	handler := NewHandler(seedVideoStore(t), nil, nil)
	handler.EventToken = testEventToken
	handler.Metrics = metrics.New()

	rr := postEvent(handler, testEventToken, eventBody("arn:aws:medialive:eu-west-1:account_id:channel:1234567", "RUNNING"))
	if rr.Code != http.StatusServiceUnavailable {
		t.Fatalf("expected 503, got %d", rr.Code)
	}
}
