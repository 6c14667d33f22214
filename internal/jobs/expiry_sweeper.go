package jobs

import (
	"context"

	"github.com/hms-platform/notification-service/internal/services"
	"github.com/sirupsen/logrus"
)

// ExpirySweeper removes notifications whose expiry has passed.
type ExpirySweeper struct {
	NotificationService *services.NotificationService
}

func NewExpirySweeper(notifService *services.NotificationService) *ExpirySweeper {
	return &ExpirySweeper{NotificationService: notifService}
}

// Run performs one sweep.
func (s *ExpirySweeper) Run(ctx context.Context) error {
	if err := s.NotificationService.DeleteExpiredNotifications(ctx); err != nil {
		return err
	}
	logrus.Info("Expired notification sweep completed")
	return nil
}
