package services

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/GregMSThompson/swift-sage/internal/dto"
	"github.com/GregMSThompson/swift-sage/internal/errs"
	"github.com/GregMSThompson/swift-sage/pkg/logger"
)

const FallbackReply = "I'm sorry, I'm not sure how to help with that."

// ChatClient is one language-understanding provider.
type ChatClient interface {
	Complete(ctx context.Context, req dto.ChatRequest) (dto.ChatResponse, error)
}

type toolCatalog interface {
	DescribeAll() []dto.ToolDescriptor
}

type toolExecutor interface {
	Execute(ctx context.Context, inv dto.ToolInvocation) dto.ToolResult
}

type conversationService struct {
	catalog  toolCatalog
	executor toolExecutor
	timeout  time.Duration
	clockNow func() time.Time
}

func NewConversationService(catalog toolCatalog, executor toolExecutor, timeout time.Duration) *conversationService {
	return &conversationService{
		catalog:  catalog,
		executor: executor,
		timeout:  timeout,
		clockNow: time.Now,
	}
}

// Converse runs the two-phase protocol: one completion with the tool catalog,
// then, only if tools were requested, sequential tool dispatch and one more
// completion without the catalog. Tool side effects are not undone when a
// later step fails.
func (s *conversationService) Converse(ctx context.Context, provider dto.LLMProvider, client ChatClient, in dto.ConversationInput) (dto.ConversationResult, error) {
	result := dto.ConversationResult{}
	log := logger.FromContext(ctx)

	if err := ValidateHistory(in.History); err != nil {
		return result, err
	}

	messages := make([]dto.ChatMessage, 0, len(in.History)+4)
	messages = append(messages, dto.ChatMessage{Role: dto.RoleSystem, Content: systemPrompt(s.clockNow(), in.Client)})
	messages = append(messages, in.History...)
	messages = append(messages, dto.ChatMessage{Role: dto.RoleUser, Content: in.Utterance})

	if logger.IsDebugEnabled(ctx) {
		log.Debug("conversation started", "history", len(in.History), "utterance", in.Utterance)
	}

	first, err := s.complete(ctx, provider, client, dto.ChatRequest{
		Messages: messages,
		Tools:    s.catalog.DescribeAll(),
	})
	result.ProviderCalls++
	if err != nil {
		return result, err
	}

	if len(first.ToolCalls) == 0 {
		result.Reply = replyOrFallback(first.Text)
		log.Info("conversation completed", "provider_calls", result.ProviderCalls)
		return result, nil
	}

	calls := withCallIDs(first.ToolCalls)
	messages = append(messages, dto.ChatMessage{
		Role:      dto.RoleAssistant,
		Content:   first.Text,
		ToolCalls: calls,
	})

	// Strictly sequential and in emitted order: later calls may depend on
	// the side effects of earlier ones.
	for _, inv := range calls {
		if err := ctx.Err(); err != nil {
			return result, providerError(string(provider), "request cancelled during tool dispatch", err)
		}
		start := s.clockNow()
		res := s.executor.Execute(ctx, inv)
		result.Executions = append(result.Executions, dto.ToolExecution{
			Invocation: inv,
			Result:     res,
			Duration:   s.clockNow().Sub(start),
		})
		messages = append(messages, dto.ChatMessage{
			Role:       dto.RoleTool,
			Content:    res.Content,
			ToolCallID: inv.ID,
			Name:       inv.Name,
		})
	}

	final, err := s.complete(ctx, provider, client, dto.ChatRequest{Messages: messages})
	result.ProviderCalls++
	if err != nil {
		return result, err
	}

	result.Reply = replyOrFallback(final.Text)
	log.Info("conversation completed",
		"provider_calls", result.ProviderCalls,
		"tools", len(result.Executions))
	return result, nil
}

func (s *conversationService) complete(ctx context.Context, provider dto.LLMProvider, client ChatClient, req dto.ChatRequest) (dto.ChatResponse, error) {
	if s.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.timeout)
		defer cancel()
	}
	resp, err := client.Complete(ctx, req)
	if err != nil {
		return resp, providerError(string(provider), "language provider request failed", err)
	}
	return resp, nil
}

// ValidateHistory checks prior turns: only user, assistant and tool roles,
// and every tool turn must answer a call id emitted by an earlier assistant
// turn.
func ValidateHistory(history []dto.ChatMessage) error {
	seen := make(map[string]bool)
	for i, msg := range history {
		switch msg.Role {
		case dto.RoleUser:
		case dto.RoleAssistant:
			for _, call := range msg.ToolCalls {
				if call.ID == "" || call.Name == "" {
					return errs.NewValidationError(fmt.Sprintf("message %d: tool calls need an id and a name", i))
				}
				seen[call.ID] = true
			}
		case dto.RoleTool:
			if !seen[msg.ToolCallID] {
				return errs.NewValidationError(fmt.Sprintf("message %d: tool_call_id %q does not match an earlier assistant tool call", i, msg.ToolCallID))
			}
		default:
			return errs.NewValidationError(fmt.Sprintf("message %d: unsupported role %q", i, msg.Role))
		}
	}
	return nil
}

func withCallIDs(calls []dto.ToolInvocation) []dto.ToolInvocation {
	out := make([]dto.ToolInvocation, len(calls))
	for i, call := range calls {
		if call.ID == "" {
			call.ID = fmt.Sprintf("call_%d", i+1)
		}
		out[i] = call
	}
	return out
}

func replyOrFallback(text string) string {
	if strings.TrimSpace(text) == "" {
		return FallbackReply
	}
	return text
}

type statusCoder interface {
	HTTPStatusCode() int
}

// providerError classifies a provider fault. Timeouts, cancellations,
// throttling and upstream 5xx are transient.
func providerError(service, message string, err error) *errs.ExternalServiceError {
	transient := errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled)
	var sc statusCoder
	if errors.As(err, &sc) {
		code := sc.HTTPStatusCode()
		transient = transient || code == http.StatusTooManyRequests || code >= http.StatusInternalServerError
	}
	return errs.NewExternalServiceError(service, message, transient, err)
}
