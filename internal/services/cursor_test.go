package services

import (
	"context"
	"encoding/json"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"

	"github.com/zuma-code/chat-and-prompt-management/internal/models"
	"github.com/zuma-code/chat-and-prompt-management/internal/testutil"
)

func TestCursorExport(t *testing.T) {
	db := testutil.OpenTestDB(t)
	svc := NewCursorService(db, "http://localhost:3000")
	owner := seedUser(t, db, "owner@example.com")

	category := models.PromptCategory{Name: "Coding"}
	if err := db.Create(&category).Error; err != nil {
		t.Fatalf("seed category: %v", err)
	}

	conv := seedConversation(t, db, &models.Conversation{
		UserID: owner, Title: "Refactor plan", Description: "step by step",
		Tags: datatypes.NewJSONSlice([]string{"go"}),
	})
	seedConversation(t, db, &models.Conversation{
		UserID: owner, Title: "Gone", Status: models.ConversationStatusDeleted,
	})

	// Inserted newest-first to prove the export re-orders chronologically.
	first := time.Date(2026, 5, 1, 9, 0, 0, 0, time.UTC)
	second := time.Date(2026, 5, 1, 9, 5, 0, 0, time.UTC)
	for _, m := range []models.Message{
		{ConversationID: conv.ID, Role: "assistant", Content: "reply", CreatedAt: second},
		{ConversationID: conv.ID, Role: "user", Content: "question", CreatedAt: first},
	} {
		if err := db.Create(&m).Error; err != nil {
			t.Fatalf("seed message: %v", err)
		}
	}

	seedPrompt(t, db, &models.Prompt{
		UserID: &owner, CategoryID: &category.ID,
		Title: "Review", Content: "Review this diff",
		Tags: datatypes.NewJSONSlice([]string{"review"}), UsageCount: 3,
	})

	doc, err := svc.Export(context.Background(), owner)
	if err != nil {
		t.Fatalf("export: %v", err)
	}

	if doc.Version != ExportFormatVersion {
		t.Fatalf("version = %q, want %q", doc.Version, ExportFormatVersion)
	}
	if len(doc.Conversations) != 1 {
		t.Fatalf("exported %d conversations, want 1 (deleted excluded)", len(doc.Conversations))
	}
	exported := doc.Conversations[0]
	if exported.Title != "Refactor plan" || len(exported.Messages) != 2 {
		t.Fatalf("exported conversation = %+v", exported)
	}
	if exported.Messages[0].Role != "user" || exported.Messages[1].Role != "assistant" {
		t.Fatalf("messages not in chronological order: %+v", exported.Messages)
	}
	if len(exported.Tags) != 1 || exported.Tags[0] != "go" {
		t.Fatalf("exported tags = %v", exported.Tags)
	}

	if len(doc.Prompts) != 1 {
		t.Fatalf("exported %d prompts, want 1", len(doc.Prompts))
	}
	prompt := doc.Prompts[0]
	if prompt.Category != "Coding" {
		t.Fatalf("category denormalized to %q, want Coding", prompt.Category)
	}
	if prompt.UsageCount != 3 {
		t.Fatalf("usage count = %d, want 3", prompt.UsageCount)
	}
}

func TestCursorImportRoundTrip(t *testing.T) {
	db := testutil.OpenTestDB(t)
	svc := NewCursorService(db, "http://localhost:3000")
	owner := seedUser(t, db, "importer@example.com")

	category := models.PromptCategory{Name: "Coding"}
	if err := db.Create(&category).Error; err != nil {
		t.Fatalf("seed category: %v", err)
	}

	ts := time.Date(2026, 4, 2, 8, 0, 0, 0, time.UTC)
	data := CursorImportData{
		Conversations: []ImportConversation{{
			Title:       "Imported talk",
			Description: "from elsewhere",
			Tags:        []string{"imported"},
			Messages: []ImportMessage{
				{Role: "user", Content: "hello", Timestamp: &ts},
				{Role: "assistant", Content: "hi"},
			},
		}},
		Prompts: []ImportPrompt{{
			Title: "Imported prompt", Content: "do the thing",
			Category: "coding", Tags: []string{"x"},
		}},
	}

	result := svc.Import(context.Background(), owner, data)
	if result.Conversations != 1 || result.Prompts != 1 {
		t.Fatalf("result = %+v", result)
	}
	if len(result.Errors) != 0 {
		t.Fatalf("unexpected errors: %v", result.Errors)
	}

	var conv models.Conversation
	if err := db.First(&conv, "user_id = ? AND title = ?", owner, "Imported talk").Error; err != nil {
		t.Fatalf("imported conversation missing: %v", err)
	}
	var messages []models.Message
	if err := db.Where("conversation_id = ?", conv.ID).Order("created_at ASC").Find(&messages).Error; err != nil {
		t.Fatalf("load messages: %v", err)
	}
	if len(messages) != 2 {
		t.Fatalf("imported %d messages, want 2", len(messages))
	}
	if !messages[0].CreatedAt.Equal(ts) {
		t.Fatalf("timestamp not preserved: %v", messages[0].CreatedAt)
	}
	if messages[1].CreatedAt.IsZero() {
		t.Fatalf("missing timestamp must default to import time")
	}

	var prompt models.Prompt
	if err := db.First(&prompt, "user_id = ? AND title = ?", owner, "Imported prompt").Error; err != nil {
		t.Fatalf("imported prompt missing: %v", err)
	}
	if prompt.IsPublic {
		t.Fatalf("imported prompts must always be private")
	}
	if prompt.CategoryID == nil || *prompt.CategoryID != category.ID {
		t.Fatalf("category %q not matched case-insensitively", "coding")
	}
}

func TestCursorExportImportRoundTrip(t *testing.T) {
	db := testutil.OpenTestDB(t)
	svc := NewCursorService(db, "http://localhost:3000")
	source := seedUser(t, db, "source@example.com")
	target := seedUser(t, db, "target@example.com")

	category := models.PromptCategory{Name: "Coding"}
	if err := db.Create(&category).Error; err != nil {
		t.Fatalf("seed category: %v", err)
	}

	conv := seedConversation(t, db, &models.Conversation{
		UserID: source, Title: "Pairing notes", Description: "live session",
		Tags: datatypes.NewJSONSlice([]string{"go", "review"}),
	})
	first := time.Date(2026, 6, 1, 10, 0, 0, 0, time.UTC)
	second := time.Date(2026, 6, 1, 10, 3, 0, 0, time.UTC)
	for _, m := range []models.Message{
		{ConversationID: conv.ID, Role: "user", Content: "can you review this?", CreatedAt: first},
		{ConversationID: conv.ID, Role: "assistant", Content: "sure, paste it", CreatedAt: second},
	} {
		if err := db.Create(&m).Error; err != nil {
			t.Fatalf("seed message: %v", err)
		}
	}
	seedPrompt(t, db, &models.Prompt{
		UserID: &source, CategoryID: &category.ID,
		Title: "Review checklist", Content: "Walk the diff top to bottom",
		Tags: datatypes.NewJSONSlice([]string{"review"}), IsPublic: true,
	})

	ctx := context.Background()

	doc, err := svc.Export(ctx, source)
	if err != nil {
		t.Fatalf("export: %v", err)
	}
	// Round-trip through the wire format so a field-name drift between the
	// export and import document types cannot hide.
	raw, err := json.Marshal(doc)
	if err != nil {
		t.Fatalf("marshal export: %v", err)
	}
	var data CursorImportData
	if err := json.Unmarshal(raw, &data); err != nil {
		t.Fatalf("unmarshal into import document: %v", err)
	}

	result := svc.Import(ctx, target, data)
	if result.Conversations != 1 || result.Prompts != 1 {
		t.Fatalf("result = %+v", result)
	}
	if len(result.Errors) != 0 {
		t.Fatalf("unexpected errors: %v", result.Errors)
	}

	var copied models.Conversation
	if err := db.First(&copied, "user_id = ?", target).Error; err != nil {
		t.Fatalf("copied conversation missing: %v", err)
	}
	if copied.Title != "Pairing notes" || copied.Description != "live session" {
		t.Fatalf("copied conversation = %+v", copied)
	}
	if len(copied.Tags) != 2 || copied.Tags[0] != "go" || copied.Tags[1] != "review" {
		t.Fatalf("copied tags = %v", copied.Tags)
	}

	var messages []models.Message
	if err := db.Where("conversation_id = ?", copied.ID).Order("created_at ASC").Find(&messages).Error; err != nil {
		t.Fatalf("load copied messages: %v", err)
	}
	if len(messages) != 2 {
		t.Fatalf("copied %d messages, want 2", len(messages))
	}
	if messages[0].Role != "user" || !messages[0].CreatedAt.Equal(first) {
		t.Fatalf("first message = %+v", messages[0])
	}
	if messages[1].Role != "assistant" || !messages[1].CreatedAt.Equal(second) {
		t.Fatalf("second message = %+v", messages[1])
	}

	var prompt models.Prompt
	if err := db.First(&prompt, "user_id = ?", target).Error; err != nil {
		t.Fatalf("copied prompt missing: %v", err)
	}
	if prompt.IsPublic {
		t.Fatalf("re-imported prompt must come back private")
	}
	if prompt.CategoryID == nil || *prompt.CategoryID != category.ID {
		t.Fatalf("category name %q did not resolve on import", "Coding")
	}
}

func TestCursorImportPartialFailure(t *testing.T) {
	db := testutil.OpenTestDB(t)
	svc := NewCursorService(db, "http://localhost:3000")
	owner := seedUser(t, db, "importer@example.com")

	data := CursorImportData{
		Prompts: []ImportPrompt{
			{Title: "First", Content: "a"},
			{Title: "", Content: "b"}, // violates the non-empty title constraint
			{Title: "Third", Content: "c"},
		},
	}

	result := svc.Import(context.Background(), owner, data)
	if result.Prompts != 2 {
		t.Fatalf("imported %d prompts, want 2", result.Prompts)
	}
	if len(result.Errors) != 1 {
		t.Fatalf("errors = %v, want exactly one", result.Errors)
	}
	if !strings.HasPrefix(result.Errors[0], `Failed to import prompt ""`) {
		t.Fatalf("error = %q", result.Errors[0])
	}

	var count int64
	if err := db.Model(&models.Prompt{}).Where("user_id = ?", owner).Count(&count).Error; err != nil {
		t.Fatalf("count prompts: %v", err)
	}
	if count != 2 {
		t.Fatalf("%d prompts persisted, want the records around the failure", count)
	}
}

func TestCursorImportUnknownCategoryIsNotAnError(t *testing.T) {
	db := testutil.OpenTestDB(t)
	svc := NewCursorService(db, "http://localhost:3000")
	owner := seedUser(t, db, "importer@example.com")

	result := svc.Import(context.Background(), owner, CursorImportData{
		Prompts: []ImportPrompt{{Title: "Loose", Content: "body", Category: "no-such-category"}},
	})
	if result.Prompts != 1 || len(result.Errors) != 0 {
		t.Fatalf("result = %+v", result)
	}

	var prompt models.Prompt
	if err := db.First(&prompt, "user_id = ?", owner).Error; err != nil {
		t.Fatalf("load prompt: %v", err)
	}
	if prompt.CategoryID != nil {
		t.Fatalf("unknown category must import as uncategorized")
	}
}

func TestCursorImportConversationFailureKeepsDocumentOrder(t *testing.T) {
	db := testutil.OpenTestDB(t)
	svc := NewCursorService(db, "http://localhost:3000")
	owner := seedUser(t, db, "importer@example.com")

	result := svc.Import(context.Background(), owner, CursorImportData{
		Conversations: []ImportConversation{{Title: ""}},
		Prompts:       []ImportPrompt{{Title: "", Content: "x"}},
	})
	if result.Conversations != 0 || result.Prompts != 0 {
		t.Fatalf("result = %+v", result)
	}
	if len(result.Errors) != 2 {
		t.Fatalf("errors = %v, want one per failed record", result.Errors)
	}
	if !strings.HasPrefix(result.Errors[0], `Failed to import conversation ""`) {
		t.Fatalf("conversation errors must come first: %v", result.Errors)
	}
	if !strings.HasPrefix(result.Errors[1], `Failed to import prompt ""`) {
		t.Fatalf("prompt error missing or out of order: %v", result.Errors)
	}
}

func TestGenerateSnippet(t *testing.T) {
	prompt := models.Prompt{
		ID:          uuid.New(),
		Title:       "Code Review",
		Description: "Thorough review checklist",
		Content:     "Review the following diff.",
		Tags:        datatypes.NewJSONSlice([]string{"review", "golang"}),
		UsageCount:  4,
	}

	want := "// ChatPrompt Manager - Code Review\n" +
		"// Thorough review checklist\n" +
		"// Tags: review, golang\n" +
		"// Usage: 4 times\n" +
		"\n" +
		"/*\n" +
		"Review the following diff.\n" +
		"*/"
	if got := GenerateSnippet(prompt); got != want {
		t.Fatalf("snippet mismatch:\n%s\n---\nwant:\n%s", got, want)
	}

	prompt.Description = ""
	if got := GenerateSnippet(prompt); !strings.Contains(got, "// No description\n") {
		t.Fatalf("empty description must render the placeholder:\n%s", got)
	}
}

func TestWorkspaceConfig(t *testing.T) {
	svc := NewCursorService(nil, "http://app.example.com")

	prompts := []models.Prompt{{
		ID:      uuid.New(),
		Title:   "Code Review Helper",
		Content: "Review this",
		Tags:    datatypes.NewJSONSlice([]string{"review"}),
	}}

	cfg := svc.WorkspaceConfig(prompts)

	entries, ok := cfg["chatprompt.prompts"].([]map[string]interface{})
	if !ok || len(entries) != 1 {
		t.Fatalf("prompt entries = %#v", cfg["chatprompt.prompts"])
	}
	if kb := entries[0]["keybinding"]; kb != "ctrl+shift+p code-review-helper" {
		t.Fatalf("keybinding = %v", kb)
	}

	autoComplete, ok := cfg["chatprompt.autoComplete"].(map[string]interface{})
	if !ok || autoComplete["enabled"] != true {
		t.Fatalf("autoComplete = %#v", cfg["chatprompt.autoComplete"])
	}
	triggers, ok := autoComplete["triggerCharacters"].([]string)
	if !ok || len(triggers) != 2 || triggers[0] != "@" || triggers[1] != "#" {
		t.Fatalf("triggerCharacters = %#v", autoComplete["triggerCharacters"])
	}

	integration, ok := cfg["chatprompt.integration"].(map[string]interface{})
	if !ok || integration["apiEndpoint"] != "http://app.example.com" || integration["syncEnabled"] != true {
		t.Fatalf("integration = %#v", cfg["chatprompt.integration"])
	}
}

func TestWorkspaceConfigKeybindingSlug(t *testing.T) {
	svc := NewCursorService(nil, "http://app.example.com")

	prompts := []models.Prompt{
		{ID: uuid.New(), Title: "Tab\tand  spaces", Content: "x"},
		{ID: uuid.New(), Title: " Padded title ", Content: "x"},
	}
	entries := svc.WorkspaceConfig(prompts)["chatprompt.prompts"].([]map[string]interface{})

	if kb := entries[0]["keybinding"]; kb != "ctrl+shift+p tab-and-spaces" {
		t.Fatalf("keybinding = %v", kb)
	}
	// Edge whitespace collapses to a dash, not to nothing.
	if kb := entries[1]["keybinding"]; kb != "ctrl+shift+p -padded-title-" {
		t.Fatalf("keybinding = %v", kb)
	}
}

func TestCursorSync(t *testing.T) {
	db := testutil.OpenTestDB(t)
	svc := NewCursorService(db, "http://localhost:3000")
	owner := seedUser(t, db, "owner@example.com")
	seedPrompt(t, db, &models.Prompt{UserID: &owner, Title: "Synced", Content: "body"})

	result := svc.Sync(context.Background(), owner)
	if !result.Success {
		t.Fatalf("sync failed: %s", result.Message)
	}

	payload, ok := result.Data.(map[string]interface{})
	if !ok {
		t.Fatalf("sync data = %#v", result.Data)
	}
	doc, ok := payload["export"].(*CursorExportFormat)
	if !ok || len(doc.Prompts) != 1 {
		t.Fatalf("sync export = %#v", payload["export"])
	}
	if _, ok := payload["config"].(map[string]interface{}); !ok {
		t.Fatalf("sync config = %#v", payload["config"])
	}
}
