package services

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/zuma-code/chat-and-prompt-management/internal/models"
)

// GenerateSnippet renders a prompt as an editor-pasteable comment block.
// Output depends only on the prompt fields, so identical input gives
// identical bytes.
func GenerateSnippet(prompt models.Prompt) string {
	description := prompt.Description
	if description == "" {
		description = "No description"
	}
	return fmt.Sprintf(`// ChatPrompt Manager - %s
// %s
// Tags: %s
// Usage: %d times

/*
%s
*/`, prompt.Title, description, strings.Join([]string(prompt.Tags), ", "), prompt.UsageCount, prompt.Content)
}

// WorkspaceConfig builds the editor workspace configuration object for a
// prompt list: one entry per prompt with a synthesized keybinding, plus
// static auto-complete and integration settings.
func (s *CursorService) WorkspaceConfig(prompts []models.Prompt) map[string]interface{} {
	entries := make([]map[string]interface{}, 0, len(prompts))
	for _, prompt := range prompts {
		var categoryName string
		if prompt.Category != nil {
			categoryName = prompt.Category.Name
		}
		entries = append(entries, map[string]interface{}{
			"id":          prompt.ID,
			"title":       prompt.Title,
			"description": prompt.Description,
			"content":     prompt.Content,
			"tags":        []string(prompt.Tags),
			"category":    categoryName,
			"keybinding":  "ctrl+shift+p " + slugify(prompt.Title),
		})
	}

	return map[string]interface{}{
		"chatprompt.prompts": entries,
		"chatprompt.autoComplete": map[string]interface{}{
			"enabled":           true,
			"triggerCharacters": []string{"@", "#"},
		},
		"chatprompt.integration": map[string]interface{}{
			"apiEndpoint": s.appURL,
			"syncEnabled": true,
		},
	}
}

var slugWhitespace = regexp.MustCompile(`\s+`)

// slugify replaces each whitespace run with a dash; edge whitespace keeps
// its dash rather than being stripped.
func slugify(title string) string {
	return slugWhitespace.ReplaceAllString(strings.ToLower(title), "-")
}
