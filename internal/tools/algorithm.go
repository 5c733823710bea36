package tools

import (
	"context"
	"fmt"
)

// AlgorithmInfoTool serves reference summaries for the graph-exploration
// algorithms covered by the course. The table is fixed at construction and
// keys are matched exactly (case-sensitive); there is no fuzzy matching.
type AlgorithmInfoTool struct {
	table map[string]string
}

func NewAlgorithmInfoTool() *AlgorithmInfoTool {
	return &AlgorithmInfoTool{
		table: map[string]string{
			"BFS": `
幅優先探索（Breadth-First Search）：
- 概要：グラフを層ごとに探索するアルゴリズム
- 時間計算量：O(V + E)（V=頂点数、E=辺数）
- 空間計算量：O(V)
- 特徴：最短経路を保証（重みなしグラフ）
- 実装：キューを使用
`,
			"DFS": `
深さ優先探索（Depth-First Search）：
- 概要：グラフを深く掘り下げながら探索
- 時間計算量：O(V + E)
- 空間計算量：O(V)（再帰スタック）
- 特徴：トポロジカルソート、強連結成分分解に使用
- 実装：スタックまたは再帰を使用
`,
			"A*": `
A*探索アルゴリズム：
- 概要：ヒューリスティック関数を用いた最短経路探索
- 時間計算量：O(b^d)（b=分岐係数、d=深さ）
- 評価関数：f(n) = g(n) + h(n)（g=実コスト、h=ヒューリスティック）
- 特徴：許容的ヒューリスティックで最適解保証
- 応用：ナビゲーション、ゲームAI
`,
			"k-server": `
k-サーバー問題：
- 概要：k個のサーバーで要求点を効率的にカバーする
- 競合比：最悪ケースでのオンライン/オフライン性能比
- 下界：k（どんなアルゴリズムでもk以上）
- 主要アルゴリズム：Greedy（2k-1競合）、Work Function Algorithm
- 応用：キャッシング、リソース配置
`,
		},
	}
}

func (t *AlgorithmInfoTool) Name() string {
	return "get_algorithm_info"
}

func (t *AlgorithmInfoTool) Description() string {
	return "Returns detailed information about the specified algorithm (BFS, DFS, A*, k-server)."
}

func (t *AlgorithmInfoTool) Parameters() map[string]any {
	return map[string]any{
		"type": "object",
		"properties": map[string]any{
			"algorithm_name": map[string]any{
				"type":        "string",
				"description": "The name of the algorithm to look up, e.g. \"BFS\"",
			},
		},
		"required": []string{"algorithm_name"},
	}
}

// Lookup returns the stored summary for name, or a fallback message naming
// the missing key. Lookup never fails.
func (t *AlgorithmInfoTool) Lookup(name string) string {
	if info, ok := t.table[name]; ok {
		return info
	}
	return fmt.Sprintf("申し訳ありません。%sの情報は登録されていません。", name)
}

func (t *AlgorithmInfoTool) Execute(ctx context.Context, input string) (string, error) {
	key, err := decodeStringArg(input, "algorithm_name")
	if err != nil {
		return "", fmt.Errorf("invalid input: %w", err)
	}
	return t.Lookup(key), nil
}
