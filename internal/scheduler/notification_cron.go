package cron

import (
	"context"

	"github.com/hms-platform/notification-service/internal/jobs"
	"github.com/robfig/cron/v3"
	"github.com/sirupsen/logrus"
)

// StartNotificationCronJobs schedules the periodic maintenance work.
// Listings already filter out expired notifications; the hourly sweep only
// keeps the collection from accumulating dead documents.
func StartNotificationCronJobs(sweeper *jobs.ExpirySweeper) {
	c := cron.New()

	c.AddFunc("@hourly", func() {
		if err := sweeper.Run(context.Background()); err != nil {
			logrus.WithError(err).Error("Expired notification sweep failed")
		}
	})

	c.Start()
}
