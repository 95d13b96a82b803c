package scheduler

import (
	"encoding/json"

	"github.com/hibiken/asynq"
)

const TaskQuotaReset = "quotas.reset"

type QuotaResetPayload struct {
	UserID string `json:"userId"`
}

func NewQuotaResetTask(payload QuotaResetPayload) (*asynq.Task, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskQuotaReset, data), nil
}

func ParseQuotaResetPayload(task *asynq.Task) (QuotaResetPayload, error) {
	var payload QuotaResetPayload
	if err := json.Unmarshal(task.Payload(), &payload); err != nil {
		return QuotaResetPayload{}, err
	}
	return payload, nil
}
