package models

import (
	"time"

	"gorm.io/gorm"
)

// User represents a user of the Genome AI dashboard
type User struct {
	ID        uint           `json:"id" gorm:"primarykey"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `json:"-" gorm:"index"`

	// Basic user information
	Username     string `json:"username" gorm:"uniqueIndex;not null"`
	Email        string `json:"email" gorm:"uniqueIndex;not null"`
	PasswordHash string `json:"-" gorm:"not null"`
	FullName     string `json:"full_name"`
	AvatarURL    string `json:"avatar_url"`

	// Account status
	IsActive bool `json:"is_active" gorm:"default:true"`
	IsAdmin  bool `json:"is_admin" gorm:"default:false"`

	// Subscription tier
	SubscriptionType string `json:"subscription_type" gorm:"default:'free'"` // free, pro, enterprise

	// Usage tracking for AI services
	MonthlyAIRequests int     `json:"monthly_ai_requests" gorm:"default:0"`
	MonthlyAICost     float64 `json:"monthly_ai_cost" gorm:"default:0.0"`

	// Relationships
	ChatSessions  []ChatSession  `json:"chat_sessions" gorm:"foreignKey:UserID"`
	GenomeReports []GenomeReport `json:"genome_reports" gorm:"foreignKey:UserID"`
}

// ChatMessage is a single role-tagged message inside a chat session.
// Stored inline on the session as a JSON array, never as its own table.
type ChatMessage struct {
	ID        string    `json:"id"`
	Role      string    `json:"role"` // user, assistant
	Content   string    `json:"content"`
	ImageURL  string    `json:"image_url,omitempty"`
	Timestamp time.Time `json:"timestamp"`
}

// ChatSession represents one brand-strategist conversation.
// The server-side row is the single source of truth for the transcript.
type ChatSession struct {
	ID        string         `json:"id" gorm:"primarykey;type:varchar(36)"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `json:"-" gorm:"index"`

	UserID      uint          `json:"user_id" gorm:"not null;index"`
	BrandHandle string        `json:"brand_handle" gorm:"not null"`
	Platform    string        `json:"platform"` // Instagram, Twitter/X
	Messages    []ChatMessage `json:"messages" gorm:"serializer:json"`
}

// GenomeReport is a write-once brand analysis report
type GenomeReport struct {
	ID        uint           `json:"id" gorm:"primarykey"`
	CreatedAt time.Time      `json:"created_at"`
	DeletedAt gorm.DeletedAt `json:"-" gorm:"index"`

	UserID     uint   `json:"user_id" gorm:"not null;index"`
	BrandInput string `json:"brand_input" gorm:"not null"`

	BrandDNA        map[string]interface{} `json:"brand_dna" gorm:"serializer:json"`
	Competitors     map[string]interface{} `json:"competitors" gorm:"serializer:json"`
	GrowthRoadmap   map[string]interface{} `json:"growth_roadmap" gorm:"serializer:json"`
	ContentStrategy map[string]interface{} `json:"content_strategy" gorm:"serializer:json"`

	Status string `json:"status" gorm:"default:'completed'"`
	PDFURL string `json:"pdf_url"`
}

// AdGeneration is one discovered-ads + variations run
type AdGeneration struct {
	ID        uint           `json:"id" gorm:"primarykey"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `json:"-" gorm:"index"`

	UserID              uint   `json:"user_id" gorm:"not null;index"`
	Keyword             string `json:"keyword" gorm:"not null"`
	CompanyName         string `json:"company_name" gorm:"not null"`
	BusinessDescription string `json:"business_description"`

	Status  string                 `json:"status" gorm:"default:'completed'"` // pending, processing, completed, failed
	Results map[string]interface{} `json:"results" gorm:"serializer:json"`
	PDFURL  string                 `json:"pdf_url"`
}

// AdIntelligenceReport stores the markdown intelligence report
type AdIntelligenceReport struct {
	ID        uint           `json:"id" gorm:"primarykey"`
	CreatedAt time.Time      `json:"created_at"`
	DeletedAt gorm.DeletedAt `json:"-" gorm:"index"`

	UserID             uint   `json:"user_id" gorm:"not null;index"`
	CompanyName        string `json:"company_name" gorm:"not null"`
	ProductDescription string `json:"product_description" gorm:"not null"`
	TargetAudience     string `json:"target_audience"`
	CompetitorCount    int    `json:"competitor_count" gorm:"default:3"`
	ReportMarkdown     string `json:"report_markdown" gorm:"type:text"`
}

// CompanyProfile holds the one free-form business profile per user.
// Upserted on each save, unique on user id.
type CompanyProfile struct {
	ID        uint      `json:"id" gorm:"primarykey"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	UserID  uint                   `json:"user_id" gorm:"not null;uniqueIndex"`
	Profile map[string]interface{} `json:"profile" gorm:"serializer:json"`
}

// ExecutedStrategy is a persisted snapshot of one orchestrated strategy
type ExecutedStrategy struct {
	ID        uint           `json:"id" gorm:"primarykey"`
	CreatedAt time.Time      `json:"created_at"`
	DeletedAt gorm.DeletedAt `json:"-" gorm:"index"`

	UserID           uint                     `json:"user_id" gorm:"not null;index"`
	Prompt           string                   `json:"prompt" gorm:"type:text"`
	SelectedStrategy string                   `json:"selected_strategy"`
	StrategyDetails  map[string]interface{}   `json:"strategy_details" gorm:"serializer:json"`
	ApprovalItems    []map[string]interface{} `json:"approval_items" gorm:"serializer:json"`
	Agents           []map[string]interface{} `json:"agents" gorm:"serializer:json"`
	ExecutionPhases  []map[string]interface{} `json:"execution_phases" gorm:"serializer:json"`

	TotalBudgetImpact string    `json:"total_budget_impact"`
	HeadcountImpact   string    `json:"headcount_impact"`
	Status            string    `json:"status" gorm:"default:'active'"`
	ExecutedAt        time.Time `json:"executed_at"`

	Tasks []StrategyTask `json:"tasks" gorm:"foreignKey:StrategyID"`
}

// Strategy task status values
const (
	TaskStatusPending    = "pending"
	TaskStatusInProgress = "in_progress"
	TaskStatusCompleted  = "completed"
)

// ValidTaskStatus reports whether s is one of the three task states
func ValidTaskStatus(s string) bool {
	return s == TaskStatusPending || s == TaskStatusInProgress || s == TaskStatusCompleted
}

// StrategyTask is one activity row exploded from an executed strategy's phases
type StrategyTask struct {
	ID        uint           `json:"id" gorm:"primarykey"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `json:"-" gorm:"index"`

	UserID      uint       `json:"user_id" gorm:"not null;index"`
	StrategyID  uint       `json:"strategy_id" gorm:"not null;index"`
	PhaseNumber int        `json:"phase_number"`
	PhaseName   string     `json:"phase_name"`
	Activity    string     `json:"activity" gorm:"not null"`
	Status      string     `json:"status" gorm:"default:'pending'"` // pending, in_progress, completed
	DueDate     *time.Time `json:"due_date"`
}

// AuditLog records notable user actions for the audit trail
type AuditLog struct {
	ID        uint      `json:"id" gorm:"primarykey"`
	CreatedAt time.Time `json:"created_at"`

	UserID       uint                   `json:"user_id" gorm:"index"`
	Action       string                 `json:"action" gorm:"not null;index"`
	ResourceType string                 `json:"resource_type"`
	ResourceID   string                 `json:"resource_id"`
	Details      map[string]interface{} `json:"details" gorm:"serializer:json"`
}
