// util/notification_service.go

package util

import (
	"context"

	"go.uber.org/zap"

	logger "github.com/asinfra/adconsole/logging"
	"github.com/asinfra/adconsole/model"
)

type NotificationService struct {
	// Candidate home for a message queue client once one is provisioned
}

func NewNotificationService() *NotificationService {
	return &NotificationService{}
}

func (n *NotificationService) NotifyUserChange(ctx context.Context, changeType string, user model.User) error {
	logger.Info("Notifying user change",
		zap.String("changeType", changeType),
		zap.String("userID", user.ID),
		zap.String("samAccountName", user.SAMAccountName))
	return nil
}

func (n *NotificationService) NotifyGroupChange(ctx context.Context, changeType string, group model.Group) error {
	logger.Info("Notifying group change",
		zap.String("changeType", changeType),
		zap.String("groupID", group.ID),
		zap.String("groupName", group.Name))
	return nil
}

func (n *NotificationService) NotifyDeviceChange(ctx context.Context, changeType string, device model.Device) error {
	logger.Info("Notifying device change",
		zap.String("changeType", changeType),
		zap.String("deviceID", device.ID),
		zap.String("hostname", device.Hostname))
	return nil
}

// NotifyAdmins flags operations that warrant operator attention, such as a
// domain switch or an account unlock.
func (n *NotificationService) NotifyAdmins(ctx context.Context, message string) error {
	logger.Info("Notifying admins", zap.String("message", message))
	return nil
}

func (n *NotificationService) SendEmail(ctx context.Context, recipient, subject, body string) error {
	// The body may carry sensitive material; only the envelope is logged.
	logger.Info("Sending email",
		zap.String("recipient", recipient),
		zap.String("subject", subject))
	return nil
}
