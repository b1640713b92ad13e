package medialive

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func TestDescribeChannelDecodesDescriptor(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			t.Fatalf("expected GET, got %s", r.Method)
		}
		if r.URL.Path != "/prod/channels/1234567" {
			t.Fatalf("unexpected path %q", r.URL.Path)
		}
		if got := r.Header.Get("Authorization"); got != "Bearer secret" {
			t.Fatalf("expected bearer auth, got %q", got)
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"id":"1234567","arn":"arn:aws:medialive:eu-west-1:account_id:channel:1234567","name":"video-id_stamp","state":"RUNNING"}`))
	}))
	defer server.Close()

	client, err := NewClient(ClientConfig{BaseURL: server.URL, Token: "secret"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	descriptor, err := client.DescribeChannel(context.Background(), "1234567")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if descriptor.Name != "video-id_stamp" {
		t.Fatalf("expected channel name, got %q", descriptor.Name)
	}
	if descriptor.State != "RUNNING" {
		t.Fatalf("expected RUNNING, got %q", descriptor.State)
	}
}

func TestDescribeChannelSurfacesErrorDetail(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "channel missing", http.StatusNotFound)
	}))
	defer server.Close()

	client, err := NewClient(ClientConfig{BaseURL: server.URL})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	_, err = client.DescribeChannel(context.Background(), "unknown")
	if err == nil {
		t.Fatal("expected error for missing channel")
	}
	if !strings.Contains(err.Error(), "channel missing") {
		t.Fatalf("expected response detail in error, got %q", err.Error())
	}
}

func TestStartAndStopChannelPostActions(t *testing.T) {
	t.Parallel()

	var paths []string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			t.Fatalf("expected POST, got %s", r.Method)
		}
		paths = append(paths, r.URL.Path)
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	client, err := NewClient(ClientConfig{BaseURL: server.URL})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if err := client.StartChannel(context.Background(), "42"); err != nil {
		t.Fatalf("start channel: %v", err)
	}
	if err := client.StopChannel(context.Background(), "42"); err != nil {
		t.Fatalf("stop channel: %v", err)
	}

	if len(paths) != 2 || paths[0] != "/prod/channels/42/start" || paths[1] != "/prod/channels/42/stop" {
		t.Fatalf("unexpected action paths %v", paths)
	}
}

func TestClientRequiresChannelID(t *testing.T) {
	t.Parallel()

	client, err := NewClient(ClientConfig{BaseURL: "http://127.0.0.1:1"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if _, err := client.DescribeChannel(context.Background(), ""); err == nil {
		t.Fatal("expected error for empty channel id")
	}
	if err := client.StartChannel(context.Background(), " "); err == nil {
		t.Fatal("expected error for blank channel id")
	}
}

func TestNewClientRequiresBaseURL(t *testing.T) {
	t.Parallel()

	if _, err := NewClient(ClientConfig{}); err == nil {
		t.Fatal("expected error for missing base URL")
	}
}
