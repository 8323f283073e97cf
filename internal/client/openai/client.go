package openaiclient

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"strings"
	"time"

	"github.com/GregMSThompson/swift-sage/internal/dto"
)

const (
	OpenAIBaseURL = "https://api.openai.com/v1"
	GroqBaseURL   = "https://api.groq.com/openai/v1"

	speechSampleRate = 24000
)

// HTTPStatusError captures non-2xx upstream responses.
type HTTPStatusError struct {
	StatusCode int
	URL        string
	Body       string
}

func (e *HTTPStatusError) Error() string {
	return fmt.Sprintf("unexpected status %d from %s: %s", e.StatusCode, e.URL, e.Body)
}

func (e *HTTPStatusError) HTTPStatusCode() int {
	return e.StatusCode
}

// Client speaks the OpenAI wire protocol. Groq exposes the same endpoints
// under its own base URL.
type Client struct {
	name               string
	baseURL            string
	apiKey             string
	httpClient         *http.Client
	chatModel          string
	transcriptionModel string
	speechModel        string
	voice              string
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
	return func(c *Client) {
		c.httpClient = httpClient
	}
}

func WithChatModel(model string) Option {
	return func(c *Client) { c.chatModel = model }
}

func WithTranscriptionModel(model string) Option {
	return func(c *Client) { c.transcriptionModel = model }
}

func WithSpeechModel(model string) Option {
	return func(c *Client) { c.speechModel = model }
}

func WithVoice(voice string) Option {
	return func(c *Client) { c.voice = voice }
}

// NewClient builds a client. name labels errors and logs ("groq", "openai").
func NewClient(name, apiKey string, opts ...Option) (*Client, error) {
	apiKey = strings.TrimSpace(apiKey)
	if apiKey == "" {
		return nil, fmt.Errorf("%s: api key must not be empty", name)
	}
	c := &Client{
		name:               name,
		baseURL:            OpenAIBaseURL,
		apiKey:             apiKey,
		httpClient:         &http.Client{Timeout: 60 * time.Second},
		chatModel:          "gpt-4o-mini",
		transcriptionModel: "whisper-1",
		speechModel:        "gpt-4o-mini-tts",
		voice:              "alloy",
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

func (c *Client) Name() string { return c.name }

func (c *Client) endpoint(path string) string {
	base := strings.TrimRight(c.baseURL, "/")
	if base == "" {
		base = OpenAIBaseURL
	}
	return base + path
}

type chatRequest struct {
	Model      string        `json:"model"`
	Messages   []chatMessage `json:"messages"`
	Tools      []chatTool    `json:"tools,omitempty"`
	ToolChoice string        `json:"tool_choice,omitempty"`
}

type chatMessage struct {
	Role       string         `json:"role"`
	Content    *string        `json:"content"`
	ToolCalls  []chatToolCall `json:"tool_calls,omitempty"`
	ToolCallID string         `json:"tool_call_id,omitempty"`
	Name       string         `json:"name,omitempty"`
}

type chatToolCall struct {
	ID       string           `json:"id"`
	Type     string           `json:"type"`
	Function chatFunctionCall `json:"function"`
}

type chatFunctionCall struct {
	Name      string `json:"name"`
	Arguments string `json:"arguments"`
}

type chatTool struct {
	Type     string       `json:"type"`
	Function chatFunction `json:"function"`
}

type chatFunction struct {
	Name        string          `json:"name"`
	Description string          `json:"description,omitempty"`
	Parameters  *dto.ToolSchema `json:"parameters,omitempty"`
}

type chatResponse struct {
	Choices []struct {
		Message      chatMessage `json:"message"`
		FinishReason string      `json:"finish_reason"`
	} `json:"choices"`
}

// Complete issues one chat completion. Tools are advertised with automatic
// tool choice only when req.Tools is non-empty.
func (c *Client) Complete(ctx context.Context, req dto.ChatRequest) (dto.ChatResponse, error) {
	model := req.Model
	if model == "" {
		model = c.chatModel
	}
	if model == "" {
		return dto.ChatResponse{}, fmt.Errorf("%s: chat model is required", c.name)
	}

	payload := chatRequest{
		Model:    model,
		Messages: toChatMessages(req.Messages),
	}
	if len(req.Tools) > 0 {
		payload.Tools = toChatTools(req.Tools)
		payload.ToolChoice = "auto"
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return dto.ChatResponse{}, fmt.Errorf("%s: marshal chat request: %w", c.name, err)
	}

	url := c.endpoint("/chat/completions")
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return dto.ChatResponse{}, fmt.Errorf("%s: create chat request: %w", c.name, err)
	}
	httpReq.Header.Set("Content-Type", "application/json")

	raw, err := c.doJSONRequest(httpReq, url)
	if err != nil {
		return dto.ChatResponse{}, fmt.Errorf("%s: chat request failed: %w", c.name, err)
	}

	var resp chatResponse
	if err := json.Unmarshal(raw, &resp); err != nil {
		return dto.ChatResponse{}, fmt.Errorf("%s: decode chat response: %w", c.name, err)
	}
	if len(resp.Choices) == 0 {
		return dto.ChatResponse{}, fmt.Errorf("%s: no choices in chat response", c.name)
	}

	msg := resp.Choices[0].Message
	out := dto.ChatResponse{}
	if msg.Content != nil {
		out.Text = *msg.Content
	}
	for _, tc := range msg.ToolCalls {
		out.ToolCalls = append(out.ToolCalls, dto.ToolInvocation{
			ID:        tc.ID,
			Name:      tc.Function.Name,
			Arguments: json.RawMessage(tc.Function.Arguments),
		})
	}
	return out, nil
}

func toChatMessages(msgs []dto.ChatMessage) []chatMessage {
	out := make([]chatMessage, 0, len(msgs))
	for _, m := range msgs {
		cm := chatMessage{
			Role:       string(m.Role),
			ToolCallID: m.ToolCallID,
			Name:       m.Name,
		}
		// Assistant turns that only call tools carry a null content.
		if m.Content != "" || len(m.ToolCalls) == 0 {
			content := m.Content
			cm.Content = &content
		}
		for _, tc := range m.ToolCalls {
			args := string(tc.Arguments)
			if strings.TrimSpace(args) == "" {
				args = "{}"
			}
			cm.ToolCalls = append(cm.ToolCalls, chatToolCall{
				ID:       tc.ID,
				Type:     "function",
				Function: chatFunctionCall{Name: tc.Name, Arguments: args},
			})
		}
		out = append(out, cm)
	}
	return out
}

func toChatTools(tools []dto.ToolDescriptor) []chatTool {
	out := make([]chatTool, 0, len(tools))
	for _, t := range tools {
		params := t.Parameters
		if params == nil {
			params = &dto.ToolSchema{Type: "object"}
		}
		out = append(out, chatTool{
			Type: "function",
			Function: chatFunction{
				Name:        t.Name,
				Description: t.Description,
				Parameters:  params,
			},
		})
	}
	return out
}

type transcriptionResponse struct {
	Text string `json:"text"`
}

// Transcribe uploads one audio clip to /audio/transcriptions and returns the
// transcript untrimmed.
func (c *Client) Transcribe(ctx context.Context, audio io.Reader, filename string) (string, error) {
	if filename == "" {
		filename = "audio.webm"
	}

	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	part, err := mw.CreateFormFile("file", filename)
	if err != nil {
		return "", fmt.Errorf("%s: create form file: %w", c.name, err)
	}
	if _, err := io.Copy(part, audio); err != nil {
		return "", fmt.Errorf("%s: copy audio: %w", c.name, err)
	}
	if err := mw.WriteField("model", c.transcriptionModel); err != nil {
		return "", fmt.Errorf("%s: write model field: %w", c.name, err)
	}
	if err := mw.WriteField("response_format", "json"); err != nil {
		return "", fmt.Errorf("%s: write format field: %w", c.name, err)
	}
	if err := mw.Close(); err != nil {
		return "", fmt.Errorf("%s: close multipart body: %w", c.name, err)
	}

	url := c.endpoint("/audio/transcriptions")
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, &body)
	if err != nil {
		return "", fmt.Errorf("%s: create transcription request: %w", c.name, err)
	}
	req.Header.Set("Content-Type", mw.FormDataContentType())

	raw, err := c.doJSONRequest(req, url)
	if err != nil {
		return "", fmt.Errorf("%s: transcription request failed: %w", c.name, err)
	}

	var resp transcriptionResponse
	if err := json.Unmarshal(raw, &resp); err != nil {
		return "", fmt.Errorf("%s: decode transcription response: %w", c.name, err)
	}
	return resp.Text, nil
}

type speechRequest struct {
	Model          string `json:"model"`
	Input          string `json:"input"`
	Voice          string `json:"voice"`
	ResponseFormat string `json:"response_format"`
}

// Synthesize requests raw 16-bit little-endian PCM at 24 kHz from
// /audio/speech. The returned body is streamed and must be closed.
func (c *Client) Synthesize(ctx context.Context, text string) (io.ReadCloser, dto.AudioFormat, error) {
	format := dto.AudioFormat{Encoding: "pcm_s16le", SampleRate: speechSampleRate}

	body, err := json.Marshal(speechRequest{
		Model:          c.speechModel,
		Input:          text,
		Voice:          c.voice,
		ResponseFormat: "pcm",
	})
	if err != nil {
		return nil, format, fmt.Errorf("%s: marshal speech request: %w", c.name, err)
	}

	url := c.endpoint("/audio/speech")
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return nil, format, fmt.Errorf("%s: create speech request: %w", c.name, err)
	}
	req.Header.Set("Content-Type", "application/json")

	res, err := c.doStream(req)
	if err != nil {
		return nil, format, fmt.Errorf("%s: speech request failed: %w", c.name, err)
	}
	if err := checkStatus(res, url); err != nil {
		return nil, format, fmt.Errorf("%s: speech request failed: %w", c.name, err)
	}
	return res.Body, format, nil
}

func (c *Client) do(req *http.Request) (*http.Response, error) {
	req.Header.Set("Authorization", "Bearer "+c.apiKey)
	httpClient := c.httpClient
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	return httpClient.Do(req)
}

// doStream sends req without the client-wide timeout, which would otherwise
// cut a long audio body off mid-read. The request context bounds it instead.
func (c *Client) doStream(req *http.Request) (*http.Response, error) {
	req.Header.Set("Authorization", "Bearer "+c.apiKey)
	httpClient := http.DefaultClient
	if c.httpClient != nil {
		streaming := *c.httpClient
		streaming.Timeout = 0
		httpClient = &streaming
	}
	return httpClient.Do(req)
}

func (c *Client) doJSONRequest(req *http.Request, url string) ([]byte, error) {
	res, err := c.do(req)
	if err != nil {
		return nil, err
	}
	defer func() { _ = res.Body.Close() }()

	if err := checkStatus(res, url); err != nil {
		return nil, err
	}

	buf, err := io.ReadAll(io.LimitReader(res.Body, 4<<20))
	if err != nil {
		return nil, fmt.Errorf("read response body: %w", err)
	}
	return buf, nil
}

// checkStatus closes the body and returns an HTTPStatusError for non-2xx
// responses.
func checkStatus(res *http.Response, url string) error {
	if res.StatusCode >= 200 && res.StatusCode < 300 {
		return nil
	}
	defer func() { _ = res.Body.Close() }()
	buf, _ := io.ReadAll(io.LimitReader(res.Body, 4096))
	return &HTTPStatusError{
		StatusCode: res.StatusCode,
		URL:        url,
		Body:       strings.TrimSpace(string(buf)),
	}
}

