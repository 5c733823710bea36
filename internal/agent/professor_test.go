package agent

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"strings"
	"testing"
	"time"

	"github.com/okayama-daiki/sensei/internal/observability"
	"github.com/okayama-daiki/sensei/internal/store"
	"github.com/okayama-daiki/sensei/internal/tools"
	"github.com/tmc/langchaingo/llms"
)

// scriptedModel replays a fixed sequence of responses/errors. When the
// script runs out it repeats the last entry, which makes "always requests a
// tool call" models trivial to express.
type scriptedModel struct {
	script []scriptStep
	calls  int
	seen   [][]llms.MessageContent
}

type scriptStep struct {
	resp *llms.ContentResponse
	err  error
}

func (m *scriptedModel) GenerateContent(ctx context.Context, messages []llms.MessageContent, options ...llms.CallOption) (*llms.ContentResponse, error) {
	m.seen = append(m.seen, messages)
	idx := m.calls
	if idx >= len(m.script) {
		idx = len(m.script) - 1
	}
	m.calls++
	step := m.script[idx]
	return step.resp, step.err
}

func (m *scriptedModel) Call(ctx context.Context, prompt string, options ...llms.CallOption) (string, error) {
	return "", errors.New("not implemented")
}

func toolCallStep(name, args string) scriptStep {
	return scriptStep{resp: &llms.ContentResponse{
		Choices: []*llms.ContentChoice{{
			ToolCalls: []llms.ToolCall{{
				ID:   "call-1",
				Type: "function",
				FunctionCall: &llms.FunctionCall{
					Name:      name,
					Arguments: args,
				},
			}},
		}},
	}}
}

func finalStep(answer any) scriptStep {
	raw, _ := json.Marshal(answer)
	return scriptStep{resp: &llms.ContentResponse{
		Choices: []*llms.ContentChoice{{Content: string(raw)}},
	}}
}

func rawFinalStep(content string) scriptStep {
	return scriptStep{resp: &llms.ContentResponse{
		Choices: []*llms.ContentChoice{{Content: content}},
	}}
}

func newTestProfessor(t *testing.T, model llms.Model) (*Professor, *store.HistoryStore) {
	t.Helper()

	history, err := store.NewHistoryStore(":memory:")
	if err != nil {
		t.Fatalf("NewHistoryStore failed: %v", err)
	}
	t.Cleanup(func() { history.Close() })

	registry := tools.NewRegistry()
	registry.Register(tools.NewAlgorithmInfoTool())
	registry.Register(tools.NewComplexityAnalysisTool())

	p := NewProfessor(model, registry, history, NewPromptManager(""), observability.NewLoggerWithWriter(io.Discard))
	p.RetryBackoff = time.Millisecond
	return p, history
}

func TestConverse_ToolRoundTrip(t *testing.T) {
	model := &scriptedModel{script: []scriptStep{
		toolCallStep("get_algorithm_info", `{"algorithm_name": "k-server"}`),
		finalStep(map[string]string{
			"explanation":      "k-server問題はオンラインアルゴリズムの代表的な問題です。",
			"related_concepts": "競合比、Work Function Algorithm",
		}),
	}}
	p, history := newTestProfessor(t, model)

	ans, err := p.Converse(context.Background(), "s1", Context{StudentID: "1"}, "k-server問題について教えて")
	if err != nil {
		t.Fatalf("Converse failed: %v", err)
	}
	if ans.Explanation == "" {
		t.Error("explanation must be non-empty")
	}
	if ans.RelatedConcepts == nil {
		t.Error("related_concepts should be carried through")
	}

	turns, err := history.Turns("s1")
	if err != nil {
		t.Fatal(err)
	}
	if len(turns) != 3 {
		t.Fatalf("got %d turns, want 3 (user, tool, assistant)", len(turns))
	}
	if turns[0].Role != store.RoleUser || turns[1].Role != store.RoleTool || turns[2].Role != store.RoleAssistant {
		t.Errorf("unexpected turn roles: %v %v %v", turns[0].Role, turns[1].Role, turns[2].Role)
	}
	if !strings.Contains(turns[1].ToolResult, "k-サーバー問題") {
		t.Errorf("tool turn must record the lookup result, got %q", turns[1].ToolResult)
	}
	if turns[2].Content != ans.Explanation {
		t.Error("assistant turn must record the final explanation")
	}
}

func TestConverse_DirectAnswer(t *testing.T) {
	model := &scriptedModel{script: []scriptStep{
		finalStep(map[string]string{"explanation": "BFSは幅優先探索です。"}),
	}}
	p, history := newTestProfessor(t, model)

	ans, err := p.Converse(context.Background(), "s1", Context{}, "BFSとは？")
	if err != nil {
		t.Fatalf("Converse failed: %v", err)
	}
	if ans.Explanation != "BFSは幅優先探索です。" {
		t.Errorf("unexpected explanation: %q", ans.Explanation)
	}
	if ans.NextSteps != nil || ans.RelatedConcepts != nil {
		t.Error("absent optional fields must be nil")
	}

	n, _ := history.TurnCount("s1")
	if n != 2 {
		t.Errorf("got %d turns, want 2 (user, assistant)", n)
	}
}

func TestConverse_SchemaViolation(t *testing.T) {
	model := &scriptedModel{script: []scriptStep{
		rawFinalStep("plain prose, not the requested JSON"),
	}}
	p, history := newTestProfessor(t, model)

	ans, err := p.Converse(context.Background(), "s1", Context{}, "question")
	if err != nil {
		t.Fatalf("schema violations must not surface as errors: %v", err)
	}
	if !strings.Contains(ans.Explanation, "Unable to provide a structured response") {
		t.Errorf("expected sentinel answer, got %q", ans.Explanation)
	}

	// The session stays usable for subsequent turns.
	model.script = []scriptStep{finalStep(map[string]string{"explanation": "recovered"})}
	model.calls = 0
	ans, err = p.Converse(context.Background(), "s1", Context{}, "next question")
	if err != nil || ans.Explanation != "recovered" {
		t.Errorf("subsequent turn should proceed normally, got %q err %v", ans.Explanation, err)
	}

	n, _ := history.TurnCount("s1")
	if n != 4 {
		t.Errorf("got %d turns, want 4", n)
	}
}

func TestConverse_UnknownTool(t *testing.T) {
	model := &scriptedModel{script: []scriptStep{
		toolCallStep("get_weather", `{"city": "Okayama"}`),
	}}
	p, history := newTestProfessor(t, model)

	ans, err := p.Converse(context.Background(), "s1", Context{}, "question")
	if err != nil {
		t.Fatalf("unknown tool must not surface as an error: %v", err)
	}
	if !strings.Contains(ans.Explanation, "get_weather") {
		t.Errorf("degraded answer should name the unknown tool, got %q", ans.Explanation)
	}
	if model.calls != 1 {
		t.Errorf("loop must terminate after the unknown tool, model called %d times", model.calls)
	}

	turns, _ := history.Turns("s1")
	if len(turns) != 2 || turns[1].Role != store.RoleAssistant {
		t.Errorf("expected user + assistant turns, got %+v", turns)
	}
}

func TestConverse_ToolCallBudget(t *testing.T) {
	// A model that never stops requesting tool calls.
	model := &scriptedModel{script: []scriptStep{
		toolCallStep("get_algorithm_info", `{"algorithm_name": "BFS"}`),
	}}
	p, history := newTestProfessor(t, model)
	p.MaxToolSteps = 3

	ans, err := p.Converse(context.Background(), "s1", Context{}, "question")
	if err != nil {
		t.Fatalf("budget exhaustion must not surface as an error: %v", err)
	}
	if !strings.Contains(ans.Explanation, "budget") {
		t.Errorf("degraded answer should mention the exhausted budget, got %q", ans.Explanation)
	}
	if model.calls != 3 {
		t.Errorf("model called %d times, want 3", model.calls)
	}

	// user + 3 tool turns + assistant.
	n, _ := history.TurnCount("s1")
	if n != 5 {
		t.Errorf("got %d turns, want 5", n)
	}
}

func TestConverse_TransportRetry(t *testing.T) {
	transient := errors.New("connection reset")
	model := &scriptedModel{script: []scriptStep{
		{err: transient},
		{err: transient},
		finalStep(map[string]string{"explanation": "ok after retries"}),
	}}
	p, _ := newTestProfessor(t, model)

	ans, err := p.Converse(context.Background(), "s1", Context{}, "question")
	if err != nil {
		t.Fatalf("Converse failed: %v", err)
	}
	if ans.Explanation != "ok after retries" {
		t.Errorf("unexpected explanation: %q", ans.Explanation)
	}
	if model.calls != 3 {
		t.Errorf("model called %d times, want 3", model.calls)
	}
}

func TestConverse_TransportExhausted(t *testing.T) {
	model := &scriptedModel{script: []scriptStep{
		{err: errors.New("connection reset")},
	}}
	p, history := newTestProfessor(t, model)
	p.MaxRetries = 2

	ans, err := p.Converse(context.Background(), "s1", Context{}, "question")
	if err != nil {
		t.Fatalf("transport exhaustion must not surface as an error: %v", err)
	}
	if !strings.Contains(ans.Explanation, "could not be reached") {
		t.Errorf("expected transport degradation, got %q", ans.Explanation)
	}
	if model.calls != 2 {
		t.Errorf("model called %d times, want 2", model.calls)
	}

	n, _ := history.TurnCount("s1")
	if n != 2 {
		t.Errorf("got %d turns, want 2", n)
	}
}

func TestConverse_ContextNotPersisted(t *testing.T) {
	model := &scriptedModel{script: []scriptStep{
		finalStep(map[string]string{"explanation": "ok"}),
	}}
	p, history := newTestProfessor(t, model)

	_, err := p.Converse(context.Background(), "s1", Context{StudentID: "student-42"}, "question")
	if err != nil {
		t.Fatal(err)
	}

	// The context record reaches the model...
	var found bool
	for _, msg := range model.seen[0] {
		if msg.Role != llms.ChatMessageTypeSystem {
			continue
		}
		for _, part := range msg.Parts {
			if text, ok := part.(llms.TextContent); ok && strings.Contains(text.Text, "student-42") {
				found = true
			}
		}
	}
	if !found {
		t.Error("student context must be submitted to the model")
	}

	// ...but never enters the session history.
	turns, _ := history.Turns("s1")
	for _, turn := range turns {
		if strings.Contains(turn.Content, "student-42") {
			t.Errorf("context leaked into history: %+v", turn)
		}
	}
}

func TestConverse_HistoryReplayAcrossTurns(t *testing.T) {
	model := &scriptedModel{script: []scriptStep{
		toolCallStep("get_algorithm_info", `{"algorithm_name": "BFS"}`),
		finalStep(map[string]string{"explanation": "first answer"}),
	}}
	p, _ := newTestProfessor(t, model)

	if _, err := p.Converse(context.Background(), "s1", Context{}, "first question"); err != nil {
		t.Fatal(err)
	}

	model.script = []scriptStep{finalStep(map[string]string{"explanation": "second answer"})}
	model.calls = 0
	model.seen = nil
	if _, err := p.Converse(context.Background(), "s1", Context{}, "second question"); err != nil {
		t.Fatal(err)
	}

	// The second submission replays the first turn's exchange, including a
	// rendering of the tool result.
	var sawFirstQuestion, sawToolResult bool
	for _, msg := range model.seen[0] {
		for _, part := range msg.Parts {
			text, ok := part.(llms.TextContent)
			if !ok {
				continue
			}
			if strings.Contains(text.Text, "first question") {
				sawFirstQuestion = true
			}
			if strings.Contains(text.Text, "幅優先探索") {
				sawToolResult = true
			}
		}
	}
	if !sawFirstQuestion {
		t.Error("prior user turn missing from replayed history")
	}
	if !sawToolResult {
		t.Error("prior tool turn missing from replayed history")
	}
}
