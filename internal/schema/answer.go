// Package schema defines the structured response contract the professor
// agent guarantees to its callers: every turn ends in an Answer with a
// non-empty explanation, regardless of what the model produced.
package schema

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
)

// ErrSchemaViolation reports model output that does not satisfy the answer
// contract. It never escapes the agent; callers recover it into Sentinel.
var ErrSchemaViolation = errors.New("schema violation")

// Answer is the terminal output shape of a conversation turn. Explanation is
// required and non-empty. The optional fields use pointers so "absent" and
// "present but empty" remain distinguishable to the caller.
type Answer struct {
	Explanation     string  `json:"explanation"`
	NextSteps       *string `json:"next_steps,omitempty"`
	RelatedConcepts *string `json:"related_concepts,omitempty"`
}

// Parse validates the model's raw terminal output against the answer
// contract. Markdown code fences around the JSON body are tolerated since
// models frequently add them despite instructions.
func Parse(raw string) (Answer, error) {
	body := stripFences(raw)
	if body == "" {
		return Answer{}, fmt.Errorf("%w: empty output", ErrSchemaViolation)
	}

	var ans Answer
	if err := json.Unmarshal([]byte(body), &ans); err != nil {
		return Answer{}, fmt.Errorf("%w: %v", ErrSchemaViolation, err)
	}
	if strings.TrimSpace(ans.Explanation) == "" {
		return Answer{}, fmt.Errorf("%w: explanation is required and must be non-empty", ErrSchemaViolation)
	}
	return ans, nil
}

// Sentinel builds the degraded Answer substituted when a turn cannot produce
// a valid structured response. The reason is appended for the user when
// non-empty.
func Sentinel(reason string) Answer {
	explanation := "Unable to provide a structured response."
	if reason != "" {
		explanation += " (" + reason + ")"
	}
	return Answer{Explanation: explanation}
}

// Instructions is appended to the system prompt to direct the model's final
// output. langchaingo's tool-calling chat path has no response_format
// binding, so the contract is prompt-directed here and enforced by Parse.
func Instructions() string {
	return strings.TrimSpace(`
最終回答は必ず次のJSON形式のみで出力してください（コードフェンスや余分なテキストは不要）：
{
  "explanation": "教授としての説明（必須）",
  "next_steps": "推奨される次のステップや参考文献（任意）",
  "related_concepts": "関連する専門用語や概念（任意）"
}
任意フィールドは該当する内容がない場合は省略してください。
`)
}

func stripFences(s string) string {
	s = strings.TrimSpace(s)
	if !strings.HasPrefix(s, "```") {
		return s
	}
	s = strings.TrimPrefix(s, "```")
	// Drop an optional language tag on the fence line.
	if i := strings.IndexByte(s, '\n'); i >= 0 {
		s = s[i+1:]
	}
	s = strings.TrimSuffix(strings.TrimSpace(s), "```")
	return strings.TrimSpace(s)
}
