package agent

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestPromptManager_GetSystemPrompt(t *testing.T) {
	tempDir := t.TempDir()

	files := map[string]string{
		"professor.md": "Professor Persona",
		"style.md":     "Style Content",
		"domain.md":    "Domain Content",
		"notes.txt":    "Ignored Content",
	}

	for name, content := range files {
		err := os.WriteFile(filepath.Join(tempDir, name), []byte(content), 0644)
		if err != nil {
			t.Fatal(err)
		}
	}

	pm := NewPromptManager(tempDir)
	prompt := pm.GetSystemPrompt()

	for _, part := range []string{"Professor Persona", "Style Content", "Domain Content"} {
		if !strings.Contains(prompt, part) {
			t.Errorf("Prompt missing expected part: %s", part)
		}
	}
	if strings.Contains(prompt, "Ignored Content") {
		t.Error("non-markdown files must be skipped")
	}

	// professor.md must lead, the rest alphabetical.
	if strings.Index(prompt, "Professor Persona") >= strings.Index(prompt, "Domain Content") {
		t.Error("professor.md should come first")
	}
	if strings.Index(prompt, "Domain Content") >= strings.Index(prompt, "Style Content") {
		t.Error("remaining files should be in alphabetical order")
	}
}

func TestPromptManager_DefaultFallback(t *testing.T) {
	pm := NewPromptManager("")
	prompt := pm.GetSystemPrompt()
	if !strings.Contains(prompt, "オンライングラフ探索") {
		t.Errorf("default prompt missing persona: %q", prompt)
	}

	pm = NewPromptManager(filepath.Join(t.TempDir(), "missing"))
	if pm.GetSystemPrompt() != prompt {
		t.Error("missing directory should fall back to the default prompt")
	}

	empty := t.TempDir()
	pm = NewPromptManager(empty)
	if pm.GetSystemPrompt() != prompt {
		t.Error("empty directory should fall back to the default prompt")
	}
}
