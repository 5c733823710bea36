package agent

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/okayama-daiki/sensei/internal/observability"
	"github.com/okayama-daiki/sensei/internal/schema"
	"github.com/okayama-daiki/sensei/internal/store"
	"github.com/okayama-daiki/sensei/internal/tools"
	"github.com/tmc/langchaingo/llms"
)

// Context identifies the caller of a conversation turn. It is shown to the
// model on every submission but never written into the session history.
type Context struct {
	StudentID string
}

// History is the orchestrator's view of session state: an append-only,
// causally ordered sequence of turns per session.
type History interface {
	AppendTurn(sessionID string, turn store.Turn) error
	Turns(sessionID string) ([]store.Turn, error)
}

// Failure conditions recovered into degraded answers. They never cross the
// Converse boundary.
var (
	ErrUnknownTool            = errors.New("unknown tool")
	ErrToolCallBudgetExceeded = errors.New("tool-call budget exceeded")
	ErrModelTransport         = errors.New("model transport failure")
)

const (
	DefaultMaxToolSteps = 10
	DefaultMaxRetries   = 3
	DefaultRetryBackoff = 500 * time.Millisecond
)

// Professor answers questions about online graph-exploration algorithms. It
// mediates between user input, the model, and the lookup tools, and always
// terminates a turn with a well-formed structured answer.
type Professor struct {
	Model    llms.Model
	Registry *tools.Registry
	History  History
	Prompts  *PromptManager
	Logger   *observability.Logger

	// Tunables; zero values are replaced with the defaults by NewProfessor.
	MaxToolSteps int
	MaxRetries   int
	RetryBackoff time.Duration
}

func NewProfessor(model llms.Model, registry *tools.Registry, history History, prompts *PromptManager, logger *observability.Logger) *Professor {
	return &Professor{
		Model:        model,
		Registry:     registry,
		History:      history,
		Prompts:      prompts,
		Logger:       logger,
		MaxToolSteps: DefaultMaxToolSteps,
		MaxRetries:   DefaultMaxRetries,
		RetryBackoff: DefaultRetryBackoff,
	}
}

// Converse runs one conversation turn: it appends the user turn, queries the
// model, dispatches any tool calls it requests, and returns the validated
// structured answer. Every model-side failure (transport errors, unknown
// tools, malformed output, runaway tool loops) is recovered into a degraded
// answer; the error return is non-nil only when the session history itself
// cannot be read or written.
func (p *Professor) Converse(ctx context.Context, sessionID string, student Context, input string) (schema.Answer, error) {
	if err := p.History.AppendTurn(sessionID, store.Turn{Role: store.RoleUser, Content: input}); err != nil {
		return schema.Answer{}, fmt.Errorf("append user turn: %w", err)
	}

	messages, err := p.buildMessages(sessionID, student)
	if err != nil {
		return schema.Answer{}, fmt.Errorf("load session history: %w", err)
	}

	llmTools := p.descriptors()

	for step := 0; step < p.maxToolSteps(); step++ {
		resp, err := p.generate(ctx, sessionID, messages, llmTools)
		if err != nil {
			return p.finishDegraded(ctx, sessionID, "the language model could not be reached")
		}

		choice := resp.Choices[0]
		p.Logger.LogLLM(sessionID, choice.Content, choice.ToolCalls)
		p.logCost(sessionID, choice.GenerationInfo)

		// Record the assistant's move in the in-turn transcript. Tool call
		// parts must precede the tool responses on the wire.
		var assistantParts []llms.ContentPart
		if choice.Content != "" {
			assistantParts = append(assistantParts, llms.TextContent{Text: choice.Content})
		}
		for _, tc := range choice.ToolCalls {
			assistantParts = append(assistantParts, tc)
		}
		messages = append(messages, llms.MessageContent{
			Role:  llms.ChatMessageTypeAI,
			Parts: assistantParts,
		})

		// No tool calls: this is the terminal answer for the turn.
		if len(choice.ToolCalls) == 0 {
			ans, perr := schema.Parse(choice.Content)
			if perr != nil {
				p.Logger.LogSchemaViolation(sessionID, choice.Content, perr.Error())
				ans = schema.Sentinel("")
			}
			if err := p.History.AppendTurn(sessionID, store.Turn{Role: store.RoleAssistant, Content: ans.Explanation}); err != nil {
				return schema.Answer{}, fmt.Errorf("append assistant turn: %w", err)
			}
			return ans, nil
		}

		for _, tc := range choice.ToolCalls {
			name := tc.FunctionCall.Name
			tool := p.Registry.Get(name)
			if tool == nil {
				p.Logger.LogDegraded(sessionID, fmt.Sprintf("%v: %s", ErrUnknownTool, name))
				return p.finishDegraded(ctx, sessionID, fmt.Sprintf("the model requested an unknown tool %q", name))
			}

			p.Logger.LogToolCall(sessionID, name, tc.FunctionCall.Arguments)
			result, terr := tool.Execute(ctx, tc.FunctionCall.Arguments)
			if terr != nil {
				result = fmt.Sprintf("Error: %v", terr)
			}
			p.Logger.LogToolResult(sessionID, name, result)

			if err := p.History.AppendTurn(sessionID, store.Turn{
				Role:       store.RoleTool,
				ToolName:   name,
				ToolArgs:   tc.FunctionCall.Arguments,
				ToolResult: result,
			}); err != nil {
				return schema.Answer{}, fmt.Errorf("append tool turn: %w", err)
			}

			messages = append(messages, llms.MessageContent{
				Role: llms.ChatMessageTypeTool,
				Parts: []llms.ContentPart{
					llms.ToolCallResponse{
						ToolCallID: tc.ID,
						Name:       name,
						Content:    result,
					},
				},
			})
		}
	}

	p.Logger.LogDegraded(sessionID, ErrToolCallBudgetExceeded.Error())
	return p.finishDegraded(ctx, sessionID, "the tool-call budget for this turn was exhausted")
}

// generate queries the model with bounded retries and doubling backoff.
func (p *Professor) generate(ctx context.Context, sessionID string, messages []llms.MessageContent, llmTools []llms.Tool) (*llms.ContentResponse, error) {
	backoff := p.retryBackoff()
	var lastErr error

	for attempt := 1; attempt <= p.maxRetries(); attempt++ {
		resp, err := p.Model.GenerateContent(ctx, messages,
			llms.WithTools(llmTools),
			llms.WithTemperature(0),
		)
		if err == nil && len(resp.Choices) == 0 {
			err = errors.New("model returned no choices")
		}
		if err == nil {
			return resp, nil
		}

		lastErr = err
		p.Logger.LogRetry(sessionID, attempt, err.Error())

		if attempt < p.maxRetries() {
			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-time.After(backoff):
			}
			backoff *= 2
		}
	}
	return nil, fmt.Errorf("%w: %v", ErrModelTransport, lastErr)
}

// buildMessages assembles the model submission: system prompt with the
// output-format directive, the caller context, then the session history.
// Persisted tool turns are replayed as compact AI-role text since providers
// reject bare tool messages without their originating tool-call ids; the
// live turn uses full tool-call plumbing.
func (p *Professor) buildMessages(sessionID string, student Context) ([]llms.MessageContent, error) {
	systemPrompt := p.Prompts.GetSystemPrompt() + "\n\n" + schema.Instructions()

	messages := []llms.MessageContent{
		{
			Role:  llms.ChatMessageTypeSystem,
			Parts: []llms.ContentPart{llms.TextPart(systemPrompt)},
		},
	}
	if student.StudentID != "" {
		messages = append(messages, llms.MessageContent{
			Role:  llms.ChatMessageTypeSystem,
			Parts: []llms.ContentPart{llms.TextPart("学生ID: " + student.StudentID)},
		})
	}

	turns, err := p.History.Turns(sessionID)
	if err != nil {
		return nil, err
	}

	for _, turn := range turns {
		switch turn.Role {
		case store.RoleUser:
			messages = append(messages, llms.MessageContent{
				Role:  llms.ChatMessageTypeHuman,
				Parts: []llms.ContentPart{llms.TextPart(turn.Content)},
			})
		case store.RoleAssistant:
			messages = append(messages, llms.MessageContent{
				Role:  llms.ChatMessageTypeAI,
				Parts: []llms.ContentPart{llms.TextPart(turn.Content)},
			})
		case store.RoleTool:
			rendered := fmt.Sprintf("[ツール %s(%s) の結果]\n%s", turn.ToolName, turn.ToolArgs, turn.ToolResult)
			messages = append(messages, llms.MessageContent{
				Role:  llms.ChatMessageTypeAI,
				Parts: []llms.ContentPart{llms.TextPart(rendered)},
			})
		}
	}
	return messages, nil
}

func (p *Professor) descriptors() []llms.Tool {
	var llmTools []llms.Tool
	for _, name := range p.Registry.Names() {
		t := p.Registry.Get(name)
		llmTools = append(llmTools, llms.Tool{
			Type: "function",
			Function: &llms.FunctionDefinition{
				Name:        t.Name(),
				Description: t.Description(),
				Parameters:  t.Parameters(),
			},
		})
	}
	return llmTools
}

// finishDegraded closes the turn with a sentinel answer so the caller always
// receives a well-formed response and the session stays usable.
func (p *Professor) finishDegraded(ctx context.Context, sessionID, reason string) (schema.Answer, error) {
	ans := schema.Sentinel(reason)
	if err := p.History.AppendTurn(sessionID, store.Turn{Role: store.RoleAssistant, Content: ans.Explanation}); err != nil {
		return schema.Answer{}, fmt.Errorf("append assistant turn: %w", err)
	}
	return ans, nil
}

func (p *Professor) logCost(sessionID string, info map[string]any) {
	prompt, ok1 := info["PromptTokens"].(int)
	completion, ok2 := info["CompletionTokens"].(int)
	if ok1 && ok2 {
		p.Logger.LogCost(sessionID, prompt, completion)
	}
}

func (p *Professor) maxToolSteps() int {
	if p.MaxToolSteps > 0 {
		return p.MaxToolSteps
	}
	return DefaultMaxToolSteps
}

func (p *Professor) maxRetries() int {
	if p.MaxRetries > 0 {
		return p.MaxRetries
	}
	return DefaultMaxRetries
}

func (p *Professor) retryBackoff() time.Duration {
	if p.RetryBackoff > 0 {
		return p.RetryBackoff
	}
	return DefaultRetryBackoff
}
