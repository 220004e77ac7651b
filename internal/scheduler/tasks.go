// Package scheduler runs the periodic background scans over asynq: alert
// generation, nudges, and snooze wake-ups.
package scheduler

import (
	"github.com/hibiken/asynq"
)

const TaskAlertScan = "alerts.scan"

const TaskNudgeScan = "nudges.scan"

const TaskNotificationWake = "notifications.wake"

func NewAlertScanTask() *asynq.Task {
	return asynq.NewTask(TaskAlertScan, nil)
}

func NewNudgeScanTask() *asynq.Task {
	return asynq.NewTask(TaskNudgeScan, nil)
}

func NewNotificationWakeTask() *asynq.Task {
	return asynq.NewTask(TaskNotificationWake, nil)
}
