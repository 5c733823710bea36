package tools

import (
	"context"
	"fmt"
)

// ComplexityAnalysisTool serves competitive-ratio and complexity results for
// a fixed set of online problem classes. Same lookup policy as
// AlgorithmInfoTool: exact keys, fallback message for everything else.
type ComplexityAnalysisTool struct {
	table map[string]string
}

func NewComplexityAnalysisTool() *ComplexityAnalysisTool {
	return &ComplexityAnalysisTool{
		table: map[string]string{
			"online_shortest_path": `
オンライン最短路問題の解析：
- オフライン最適：事前に全情報を知っている場合の最短路
- オンライン：辺の重みや存在が逐次的に判明
- 競合比：最悪ケースでのオンライン/オフライン比
- 主要結果：一般グラフではΩ(n)の下界
- 改善：特殊なグラフ構造（木、平面グラフ）で競合比改善可能
`,
			"paging": `
ページング問題の解析：
- 問題：k個のページをキャッシュに保持、ページフォルト最小化
- LRU（Least Recently Used）：k競合
- FIFO（First In First Out）：k競合
- 下界：どんな決定性アルゴリズムもk競合
- ランダム化：Marking Algorithmで O(log k)競合比
`,
			"metrical_task_system": `
距離空間タスクシステム（MTS）：
- k-サーバー問題の一般化
- 状態空間と遷移コストが与えられる
- Work Function Algorithm：2k-1競合
- ランダム化：O(log² k log n)競合比達成可能
- 応用：スケジューリング、動的最適化
`,
		},
	}
}

func (t *ComplexityAnalysisTool) Name() string {
	return "get_complexity_analysis"
}

func (t *ComplexityAnalysisTool) Description() string {
	return "Returns complexity and competitive ratio analysis for the problem type (online_shortest_path, paging, metrical_task_system)."
}

func (t *ComplexityAnalysisTool) Parameters() map[string]any {
	return map[string]any{
		"type": "object",
		"properties": map[string]any{
			"problem_type": map[string]any{
				"type":        "string",
				"description": "The problem class to analyze, e.g. \"paging\"",
			},
		},
		"required": []string{"problem_type"},
	}
}

// Lookup returns the stored analysis for problemType, or a fallback message
// naming the missing key.
func (t *ComplexityAnalysisTool) Lookup(problemType string) string {
	if analysis, ok := t.table[problemType]; ok {
		return analysis
	}
	return fmt.Sprintf("%sの解析情報は登録されていません。", problemType)
}

func (t *ComplexityAnalysisTool) Execute(ctx context.Context, input string) (string, error) {
	key, err := decodeStringArg(input, "problem_type")
	if err != nil {
		return "", fmt.Errorf("invalid input: %w", err)
	}
	return t.Lookup(key), nil
}
