package amqp

import (
	"encoding/json"
	"time"
)

// ImageCleanupMessage asks the worker to remove a batch image file that is no
// longer referenced, after a batch was deleted or its image replaced.
type ImageCleanupMessage struct {
	Path      string    `json:"path"`
	BatchID   int64     `json:"batch_id"`
	Timestamp time.Time `json:"timestamp"`
}

func NewImageCleanupMessage(path string, batchID int64) *ImageCleanupMessage {
	return &ImageCleanupMessage{
		Path:      path,
		BatchID:   batchID,
		Timestamp: time.Now().UTC(),
	}
}

func (m *ImageCleanupMessage) ToJSON() ([]byte, error) {
	return json.Marshal(m)
}

func ImageCleanupMessageFromJSON(data []byte) (*ImageCleanupMessage, error) {
	var msg ImageCleanupMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, err
	}
	return &msg, nil
}
