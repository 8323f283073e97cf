package cartesiaclient

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/GregMSThompson/swift-sage/internal/dto"
)

const (
	DefaultBaseURL = "https://api.cartesia.ai"
	DefaultModel   = "sonic-english"
	DefaultVoiceID = "79a125e8-cd45-4c13-8a67-188112f4dd22"

	apiVersion = "2024-06-30"
	sampleRate = 24000
	encoding   = "pcm_f32le"
)

type HTTPStatusError struct {
	StatusCode int
	URL        string
	Body       string
}

func (e *HTTPStatusError) Error() string {
	return fmt.Sprintf("cartesia: unexpected status %d from %s: %s", e.StatusCode, e.URL, e.Body)
}

func (e *HTTPStatusError) HTTPStatusCode() int {
	return e.StatusCode
}

type Client struct {
	baseURL    string
	apiKey     string
	model      string
	voiceID    string
	httpClient *http.Client
}

type Option func(*Client)

func WithBaseURL(baseURL string) Option {
	return func(c *Client) {
		if baseURL = strings.TrimSpace(baseURL); baseURL != "" {
			c.baseURL = baseURL
		}
	}
}

func WithHTTPClient(httpClient *http.Client) Option {
	return func(c *Client) { c.httpClient = httpClient }
}

func WithModel(model string) Option {
	return func(c *Client) {
		if model != "" {
			c.model = model
		}
	}
}

func WithVoiceID(id string) Option {
	return func(c *Client) {
		if id != "" {
			c.voiceID = id
		}
	}
}

func NewClient(apiKey string, opts ...Option) (*Client, error) {
	apiKey = strings.TrimSpace(apiKey)
	if apiKey == "" {
		return nil, fmt.Errorf("cartesia: api key must not be empty")
	}
	c := &Client{
		baseURL:    DefaultBaseURL,
		apiKey:     apiKey,
		model:      DefaultModel,
		voiceID:    DefaultVoiceID,
		httpClient: &http.Client{Timeout: 60 * time.Second},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

type ttsRequest struct {
	ModelID      string       `json:"model_id"`
	Transcript   string       `json:"transcript"`
	Voice        voice        `json:"voice"`
	OutputFormat outputFormat `json:"output_format"`
}

type voice struct {
	Mode string `json:"mode"`
	ID   string `json:"id"`
}

type outputFormat struct {
	Container  string `json:"container"`
	Encoding   string `json:"encoding"`
	SampleRate int    `json:"sample_rate"`
}

// Synthesize posts text to /tts/bytes and returns the raw PCM body unread.
// The caller must close it.
func (c *Client) Synthesize(ctx context.Context, text string) (io.ReadCloser, dto.AudioFormat, error) {
	format := dto.AudioFormat{Encoding: encoding, SampleRate: sampleRate}

	body, err := json.Marshal(ttsRequest{
		ModelID:    c.model,
		Transcript: text,
		Voice:      voice{Mode: "id", ID: c.voiceID},
		OutputFormat: outputFormat{
			Container:  "raw",
			Encoding:   encoding,
			SampleRate: sampleRate,
		},
	})
	if err != nil {
		return nil, format, fmt.Errorf("cartesia: marshal request: %w", err)
	}

	url := strings.TrimRight(c.baseURL, "/") + "/tts/bytes"
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return nil, format, fmt.Errorf("cartesia: create request: %w", err)
	}
	req.Header.Set("Cartesia-Version", apiVersion)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-API-Key", c.apiKey)

	// The body is streamed to the caller; only ctx bounds it.
	httpClient := http.DefaultClient
	if c.httpClient != nil {
		streaming := *c.httpClient
		streaming.Timeout = 0
		httpClient = &streaming
	}
	res, err := httpClient.Do(req)
	if err != nil {
		return nil, format, fmt.Errorf("cartesia: request failed: %w", err)
	}
	if res.StatusCode < 200 || res.StatusCode >= 300 {
		defer func() { _ = res.Body.Close() }()
		buf, _ := io.ReadAll(io.LimitReader(res.Body, 4096))
		return nil, format, &HTTPStatusError{
			StatusCode: res.StatusCode,
			URL:        url,
			Body:       strings.TrimSpace(string(buf)),
		}
	}
	return res.Body, format, nil
}
