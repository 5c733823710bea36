package agent

import (
	"log"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

// defaultSystemPrompt is used when no prompts directory is configured or the
// directory holds no prompt files.
const defaultSystemPrompt = `あなたはオンライングラフ探索の専門家である教授です。

以下のツールを使えます：
- get_algorithm_info: アルゴリズムの詳細情報を取得
- get_complexity_analysis: 計算量や競合比の解析結果を取得
`

// PromptManager composes the system prompt from the .md files of a directory,
// so the professor's persona can be tuned without rebuilding. professor.md
// always comes first; the rest follow alphabetically.
type PromptManager struct {
	Directory string
}

func NewPromptManager(dir string) *PromptManager {
	return &PromptManager{Directory: dir}
}

func (pm *PromptManager) GetSystemPrompt() string {
	if pm.Directory == "" {
		return defaultSystemPrompt
	}

	files, err := os.ReadDir(pm.Directory)
	if err != nil {
		return defaultSystemPrompt
	}

	sort.Slice(files, func(i, j int) bool {
		if files[i].Name() == "professor.md" {
			return true
		}
		if files[j].Name() == "professor.md" {
			return false
		}
		return files[i].Name() < files[j].Name()
	})

	var contents []string
	for _, f := range files {
		if f.IsDir() || !strings.HasSuffix(f.Name(), ".md") {
			continue
		}
		path := filepath.Join(pm.Directory, f.Name())
		data, err := os.ReadFile(path)
		if err != nil {
			log.Printf("Warning: Failed to read prompt file %s: %v", path, err)
			continue
		}
		contents = append(contents, strings.TrimSpace(string(data)))
	}

	if len(contents) == 0 {
		return defaultSystemPrompt
	}
	return strings.Join(contents, "\n\n---\n\n")
}
