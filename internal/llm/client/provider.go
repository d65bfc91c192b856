package client

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/schema"
)

// CompletionRequest is a single prompt to send to a provider.
type CompletionRequest struct {
	Prompt       string
	SystemPrompt string
	// ModelHint overrides the provider's configured model for this call when set.
	ModelHint string
}

// Completion is the provider's full text answer.
type Completion struct {
	Text        string
	Model       string
	TotalTokens *int
}

// Provider performs one non-streaming completion call.
type Provider interface {
	Name() string
	Complete(ctx context.Context, req CompletionRequest) (*Completion, error)
}

// ProviderError reports an upstream failure or an unusable response.
type ProviderError struct {
	Provider string
	Status   int
	Reason   string
	Err      error
}

func (e *ProviderError) Error() string {
	if e.Status != 0 {
		return fmt.Sprintf("%s API error (%d): %s", e.Provider, e.Status, e.Reason)
	}
	return fmt.Sprintf("%s API error: %s", e.Provider, e.Reason)
}

func (e *ProviderError) Unwrap() error {
	return e.Err
}

var statusPattern = regexp.MustCompile(`status code:?\s*(\d{3})`)

func statusFromError(err error) int {
	m := statusPattern.FindStringSubmatch(err.Error())
	if m == nil {
		return 0
	}
	code, _ := strconv.Atoi(m[1])
	return code
}

// ChatModelProvider adapts an eino chat model to Provider.
type ChatModelProvider struct {
	name    string
	apiName string
	model   model.BaseChatModel
}

func NewChatModelProvider(name, apiName string, m model.BaseChatModel) *ChatModelProvider {
	return &ChatModelProvider{name: name, apiName: apiName, model: m}
}

func (p *ChatModelProvider) Name() string {
	return p.name
}

func (p *ChatModelProvider) Complete(ctx context.Context, req CompletionRequest) (*Completion, error) {
	if strings.TrimSpace(req.Prompt) == "" {
		return nil, fmt.Errorf("prompt is required")
	}
	system := req.SystemPrompt
	if system == "" {
		system = SystemPrompt()
	}

	apiName := p.apiName
	var opts []model.Option
	if hint := strings.TrimSpace(req.ModelHint); hint != "" {
		apiName = hint
		opts = append(opts, model.WithModel(hint))
	}

	msg, err := p.model.Generate(ctx, []*schema.Message{
		schema.SystemMessage(system),
		schema.UserMessage(req.Prompt),
	}, opts...)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, ctxErr
		}
		return nil, &ProviderError{Provider: p.name, Status: statusFromError(err), Reason: err.Error(), Err: err}
	}
	if msg == nil {
		return nil, &ProviderError{Provider: p.name, Reason: "malformed response: no message returned"}
	}

	out := &Completion{Text: msg.Content, Model: apiName}
	if meta := msg.ResponseMeta; meta != nil && meta.Usage != nil && meta.Usage.TotalTokens > 0 {
		total := meta.Usage.TotalTokens
		out.TotalTokens = &total
	}
	return out, nil
}

// IsProviderError reports whether err came from an upstream model call.
func IsProviderError(err error) bool {
	var pe *ProviderError
	return errors.As(err, &pe)
}
