package notifications

import "github.com/zACIID/investing-echo-chambers/internal/models"

// NotificationInterface defines the contract for run-report notifications
type NotificationInterface interface {
	SendRunReport(report *models.RunReport) error
}
