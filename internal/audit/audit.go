// Package audit records who did what to which resource. Entries go
// through the persist side-channel so audit writes never slow a request.
package audit

import (
	"genome-ai/internal/persist"
	"genome-ai/pkg/models"
)

// Actions recorded in the audit trail
const (
	ActionStrategyExecuted = "strategy_executed"
	ActionProfileSaved     = "profile_saved"
	ActionReportGenerated  = "report_generated"
	ActionTaskUpdated      = "task_updated"
)

// Service writes audit log entries
type Service struct {
	writer *persist.Writer
}

// NewService creates an audit service backed by the persist writer
func NewService(writer *persist.Writer) *Service {
	return &Service{writer: writer}
}

// Record queues one audit entry
func (s *Service) Record(userID uint, action, resourceType, resourceID string, details map[string]interface{}) {
	entry := &models.AuditLog{
		UserID:       userID,
		Action:       action,
		ResourceType: resourceType,
		ResourceID:   resourceID,
		Details:      details,
	}
	s.writer.Save("audit_log", entry)
}
