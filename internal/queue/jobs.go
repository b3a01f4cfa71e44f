package queue

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/hibiken/asynq"
)

const (
	// IndexCertificateTask is scheduled after every upload so the match
	// corpus is built off the request path.
	IndexCertificateTask = "certificate:index"
)

// IndexPayload tells the worker which certificate to index and where its raw
// document lives.
type IndexPayload struct {
	CertificateID string `json:"certificate_id"`
	ObjectKey     string `json:"object_key"`
	FileType      string `json:"file_type"`
}

// EnqueueIndex enqueues a certificate indexing job.
func EnqueueIndex(ctx context.Context, client *asynq.Client, payload IndexPayload) error {
	data, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal payload: %w", err)
	}
	task := asynq.NewTask(IndexCertificateTask, data)
	if _, err := client.EnqueueContext(ctx, task, asynq.MaxRetry(5)); err != nil {
		return fmt.Errorf("enqueue index task: %w", err)
	}
	return nil
}
