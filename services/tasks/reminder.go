package tasks

import (
	"encoding/json"
	"time"

	"github.com/block-integration-api/tutorial-webchat/models"
	"github.com/hibiken/asynq"
)

const TypeAppointmentReminder = "reminder:appointment"

func NewAppointmentReminderTask(payload models.ReminderPayload, fireAt time.Time) (*asynq.Task, []asynq.Option, error) {
	b, err := json.Marshal(payload)
	if err != nil {
		return nil, nil, err
	}
	task := asynq.NewTask(TypeAppointmentReminder, b)
	opts := []asynq.Option{
		asynq.ProcessAt(fireAt),
		asynq.TaskID("reminder:" + payload.CorrelationID),
		asynq.MaxRetry(3),
	}

	return task, opts, nil
}
