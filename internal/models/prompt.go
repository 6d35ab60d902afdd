package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

type Prompt struct {
	ID          uuid.UUID                   `gorm:"type:uuid;primaryKey" json:"id"`
	UserID      *uuid.UUID                  `gorm:"type:uuid;index" json:"user_id,omitempty"` // nil for system templates
	CategoryID  *uuid.UUID                  `gorm:"type:uuid;index" json:"category_id,omitempty"`
	Category    *PromptCategory             `gorm:"foreignKey:CategoryID" json:"category,omitempty"`
	Title       string                      `gorm:"not null;check:chk_prompts_title,title <> ''" json:"title"`
	Content     string                      `gorm:"type:text;not null;check:chk_prompts_content,content <> ''" json:"content"`
	Description string                      `gorm:"type:text" json:"description,omitempty"`
	Tags        datatypes.JSONSlice[string] `gorm:"type:jsonb" json:"tags"`
	IsPublic    bool                        `gorm:"default:false;index" json:"is_public"`
	UsageCount  int64                       `gorm:"default:0" json:"usage_count"`
	CreatedAt   time.Time                   `json:"created_at"`
	UpdatedAt   time.Time                   `json:"updated_at"`
}

func (p *Prompt) BeforeCreate(tx *gorm.DB) error {
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	return nil
}

type PromptCategory struct {
	ID          uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	Name        string    `gorm:"not null;uniqueIndex" json:"name"`
	Description string    `gorm:"type:text" json:"description,omitempty"`
	Color       string    `gorm:"default:'#6366f1'" json:"color"`
	CreatedAt   time.Time `json:"created_at"`
}

func (c *PromptCategory) BeforeCreate(tx *gorm.DB) error {
	if c.ID == uuid.Nil {
		c.ID = uuid.New()
	}
	return nil
}

type PromptUsage struct {
	ID             uuid.UUID  `gorm:"type:uuid;primaryKey" json:"id"`
	PromptID       uuid.UUID  `gorm:"type:uuid;not null;index" json:"prompt_id"`
	UserID         uuid.UUID  `gorm:"type:uuid;not null;index" json:"user_id"`
	ConversationID *uuid.UUID `gorm:"type:uuid" json:"conversation_id,omitempty"`
	UsedAt         time.Time  `gorm:"not null" json:"used_at"`
}

func (u *PromptUsage) BeforeCreate(tx *gorm.DB) error {
	if u.ID == uuid.Nil {
		u.ID = uuid.New()
	}
	if u.UsedAt.IsZero() {
		u.UsedAt = time.Now()
	}
	return nil
}
