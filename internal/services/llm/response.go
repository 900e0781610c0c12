package llm

import (
	"fmt"
	"strings"
)

type completionRequest struct {
	Model          string         `json:"model"`
	Messages       []message      `json:"messages"`
	Temperature    float64        `json:"temperature"`
	ResponseFormat responseFormat `json:"response_format"`
}

type responseFormat struct {
	Type string `json:"type"`
}

type message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type completionResponse struct {
	Choices []choice `json:"choices"`
	Error   *struct {
		Message string `json:"message"`
	} `json:"error"`
}

// choice tolerates providers that answer with the streaming "delta" shape,
// the legacy "text" field, or tool call arguments instead of message content.
type choice struct {
	Message      replyMessage `json:"message"`
	Delta        replyMessage `json:"delta"`
	Text         string       `json:"text"`
	FinishReason string       `json:"finish_reason"`
}

type replyMessage struct {
	Content   string `json:"content"`
	Refusal   string `json:"refusal"`
	ToolCalls []struct {
		Function struct {
			Arguments string `json:"arguments"`
		} `json:"function"`
	} `json:"tool_calls"`
}

func (m replyMessage) toolArguments() string {
	for _, call := range m.ToolCalls {
		if args := strings.TrimSpace(call.Function.Arguments); args != "" {
			return args
		}
	}
	return ""
}

// content returns the first non-empty payload across choices and the first
// finish reason reported.
func (r completionResponse) content() (string, string) {
	finish := ""
	for _, ch := range r.Choices {
		if finish == "" {
			finish = strings.TrimSpace(ch.FinishReason)
		}
		for _, candidate := range []string{
			ch.Message.Content,
			ch.Delta.Content,
			ch.Text,
			ch.Message.toolArguments(),
			ch.Delta.toolArguments(),
		} {
			if trimmed := strings.TrimSpace(candidate); trimmed != "" {
				return trimmed, finish
			}
		}
	}
	return "", finish
}

func (r completionResponse) refusal() string {
	for _, ch := range r.Choices {
		if refusal := strings.TrimSpace(ch.Message.Refusal); refusal != "" {
			return refusal
		}
		if refusal := strings.TrimSpace(ch.Delta.Refusal); refusal != "" {
			return refusal
		}
	}
	return ""
}

// EmptyContentError reports a successful response without usable content.
type EmptyContentError struct {
	Op           string
	FinishReason string
	Refusal      string
	Snippet      string
}

func (e *EmptyContentError) Error() string {
	return fmt.Sprintf("%s: empty content (finish_reason=%q refusal=%q body=%s)", e.Op, e.FinishReason, e.Refusal, e.Snippet)
}

// snippet flattens and truncates a payload for error messages.
func snippet(s string) string {
	flat := strings.Join(strings.Fields(s), " ")
	if flat == "" {
		return "<empty>"
	}
	const limit = 160
	if r := []rune(flat); len(r) > limit {
		return string(r[:limit]) + "..."
	}
	return flat
}
