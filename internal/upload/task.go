package upload

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/hibiken/asynq"
)

// TaskForwardArtwork is the task type for forwarding buyer artwork to the
// print collaborator.
const TaskForwardArtwork = "upload:forward_artwork"

// QueueUploads is the asynq queue artwork forwards run on.
const QueueUploads = "uploads"

// ForwardPayload carries one artwork file to the worker. Data is the raw file
// content; asynq stores the payload in Redis until a worker picks it up.
type ForwardPayload struct {
	SessionID   uuid.UUID `json:"sessionId"`
	ProductID   uuid.UUID `json:"productId"`
	Filename    string    `json:"filename"`
	ContentType string    `json:"contentType"`
	Data        []byte    `json:"data"`
}

// NewForwardTask builds the forwarding task. Forwards are fire-and-forget: a
// failed handoff is logged and counted, never retried, so a broken
// collaborator cannot pile up duplicate submissions.
func NewForwardTask(p ForwardPayload) (*asynq.Task, error) {
	payload, err := json.Marshal(p)
	if err != nil {
		return nil, fmt.Errorf("marshal forward payload: %w", err)
	}
	return asynq.NewTask(TaskForwardArtwork, payload,
		asynq.Queue(QueueUploads),
		asynq.MaxRetry(0),
		asynq.Timeout(2*time.Minute),
	), nil
}
