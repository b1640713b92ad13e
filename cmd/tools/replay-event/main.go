// Command replay-event delivers a channel lifecycle event to a running
// server, either from a captured JSON file or synthesized from flags. It is
// used to exercise the webhook without the upstream notifier.
package main

import (
	"bytes"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
	"time"

	"lumen-live/internal/live"
)

func main() {
	var (
		serverURL  string
		token      string
		filePath   string
		channelARN string
		state      string
		timeout    time.Duration
	)

	flag.StringVar(&serverURL, "url", "http://127.0.0.1:8080", "Base URL of the video API")
	flag.StringVar(&token, "token", "", "Shared webhook token")
	flag.StringVar(&filePath, "file", "", "Path to a captured event JSON file")
	flag.StringVar(&channelARN, "channel-arn", "", "Channel ARN to synthesize an event for")
	flag.StringVar(&state, "state", "", "Raw channel state (RUNNING or STOPPED)")
	flag.DurationVar(&timeout, "timeout", 10*time.Second, "Request timeout")
	flag.Parse()

	payload, err := buildPayload(filePath, channelARN, state)
	if err != nil {
		fatalf("%v", err)
	}

	url := strings.TrimRight(serverURL, "/") + "/api/events/medialive"
	req, err := http.NewRequest(http.MethodPost, url, bytes.NewReader(payload))
	if err != nil {
		fatalf("build request: %v", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if strings.TrimSpace(token) != "" {
		req.Header.Set("Authorization", "Bearer "+strings.TrimSpace(token))
	}

	client := &http.Client{Timeout: timeout}
	resp, err := client.Do(req)
	if err != nil {
		fatalf("deliver event: %v", err)
	}
	defer resp.Body.Close()

	body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
	if resp.StatusCode != http.StatusOK {
		fatalf("server rejected event: status %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}
	fmt.Printf("Event accepted: %s\n", strings.TrimSpace(string(body)))
}

func buildPayload(filePath, channelARN, state string) ([]byte, error) {
	if filePath != "" {
		payload, err := os.ReadFile(filePath)
		if err != nil {
			return nil, fmt.Errorf("read event file: %w", err)
		}
		return payload, nil
	}

	if strings.TrimSpace(channelARN) == "" || strings.TrimSpace(state) == "" {
		return nil, fmt.Errorf("either --file or both --channel-arn and --state must be provided")
	}

	event := live.StateChangeEvent{
		Version:    "0",
		DetailType: "MediaLive Channel State Change",
		Source:     "aws.medialive",
		Time:       time.Now().UTC().Format(time.RFC3339),
		Detail: live.StateChangeDetail{
			ChannelARN: strings.TrimSpace(channelARN),
			State:      strings.ToUpper(strings.TrimSpace(state)),
		},
	}
	payload, err := json.Marshal(event)
	if err != nil {
		return nil, fmt.Errorf("encode event: %w", err)
	}
	return payload, nil
}

func fatalf(format string, args ...any) {
	fmt.Fprintf(os.Stderr, format+"\n", args...)
	os.Exit(1)
}
