package medialive

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

const defaultClientTimeout = 10 * time.Second

// ClientConfig configures the HTTP client for the encoding service REST API.
type ClientConfig struct {
	BaseURL    string
	Token      string
	Timeout    time.Duration
	HTTPClient *http.Client
}

// Client implements ChannelLookup and ChannelControl against the encoding
// service's REST surface.
type Client struct {
	config ClientConfig
}

// NewClient validates the configuration and returns a REST client.
func NewClient(cfg ClientConfig) (*Client, error) {
	if strings.TrimSpace(cfg.BaseURL) == "" {
		return nil, fmt.Errorf("medialive: base URL is required")
	}
	return &Client{config: cfg}, nil
}

func (c *Client) httpClient() *http.Client {
	if c.config.HTTPClient != nil {
		return c.config.HTTPClient
	}
	timeout := c.config.Timeout
	if timeout <= 0 {
		timeout = defaultClientTimeout
	}
	return &http.Client{Timeout: timeout}
}

func (c *Client) channelURL(channelID string, parts ...string) string {
	base := strings.TrimRight(c.config.BaseURL, "/")
	url := fmt.Sprintf("%s/prod/channels/%s", base, channelID)
	if len(parts) > 0 {
		url = url + "/" + strings.Join(parts, "/")
	}
	return url
}

func (c *Client) authorize(req *http.Request) {
	if token := strings.TrimSpace(c.config.Token); token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
}

type describeChannelResponse struct {
	ID    string `json:"id"`
	ARN   string `json:"arn"`
	Name  string `json:"name"`
	State string `json:"state"`
}

// DescribeChannel fetches channel metadata. Failures are returned to the
// caller untranslated beyond operation context; there is no retry here.
func (c *Client) DescribeChannel(ctx context.Context, channelID string) (ChannelDescriptor, error) {
	if strings.TrimSpace(channelID) == "" {
		return ChannelDescriptor{}, fmt.Errorf("medialive: channel id is required")
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.channelURL(channelID), nil)
	if err != nil {
		return ChannelDescriptor{}, err
	}
	c.authorize(req)

	resp, err := c.httpClient().Do(req)
	if err != nil {
		return ChannelDescriptor{}, fmt.Errorf("describe channel %s: %w", channelID, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
		return ChannelDescriptor{}, fmt.Errorf("describe channel %s: %s", channelID, statusDetail(resp))
	}

	var payload describeChannelResponse
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return ChannelDescriptor{}, fmt.Errorf("decode channel %s: %w", channelID, err)
	}
	if payload.ID == "" {
		payload.ID = channelID
	}
	return ChannelDescriptor{
		ID:    payload.ID,
		ARN:   payload.ARN,
		Name:  payload.Name,
		State: payload.State,
	}, nil
}

// StartChannel asks the encoding service to start the channel. The call is
// accepted asynchronously; the settled state arrives later as a lifecycle
// notification.
func (c *Client) StartChannel(ctx context.Context, channelID string) error {
	return c.postAction(ctx, channelID, "start")
}

// StopChannel asks the encoding service to stop the channel.
func (c *Client) StopChannel(ctx context.Context, channelID string) error {
	return c.postAction(ctx, channelID, "stop")
}

func (c *Client) postAction(ctx context.Context, channelID, action string) error {
	if strings.TrimSpace(channelID) == "" {
		return fmt.Errorf("medialive: channel id is required")
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.channelURL(channelID, action), nil)
	if err != nil {
		return err
	}
	c.authorize(req)

	resp, err := c.httpClient().Do(req)
	if err != nil {
		return fmt.Errorf("%s channel %s: %w", action, channelID, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
		return fmt.Errorf("%s channel %s: %s", action, channelID, statusDetail(resp))
	}
	io.Copy(io.Discard, resp.Body)
	return nil
}

// Ping verifies that the encoding service is reachable by listing channels.
func (c *Client) Ping(ctx context.Context) error {
	url := strings.TrimRight(c.config.BaseURL, "/") + "/prod/channels"
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return err
	}
	c.authorize(req)

	resp, err := c.httpClient().Do(req)
	if err != nil {
		return fmt.Errorf("ping channel service: %w", err)
	}
	defer resp.Body.Close()
	io.Copy(io.Discard, resp.Body)

	if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
		return fmt.Errorf("ping channel service: status %d", resp.StatusCode)
	}
	return nil
}

func statusDetail(resp *http.Response) string {
	body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
	detail := strings.TrimSpace(string(body))
	if detail == "" {
		return fmt.Sprintf("status %d", resp.StatusCode)
	}
	return fmt.Sprintf("status %d: %s", resp.StatusCode, detail)
}
