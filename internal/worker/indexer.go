package worker

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/hibiken/asynq"
	"github.com/sirupsen/logrus"

	"github.com/dharanvel/certvault/internal/extract"
	"github.com/dharanvel/certvault/internal/match"
	"github.com/dharanvel/certvault/internal/queue"
	"github.com/dharanvel/certvault/internal/repository"
	"github.com/dharanvel/certvault/internal/s3storage"
)

// Indexer is plugged into the asynq worker loop. It rebuilds the normalized
// match-corpus text for uploaded certificates.
type Indexer struct {
	repo  *repository.CertificateRepository
	store *s3storage.Storage
	log   *logrus.Logger
}

// NewIndexer constructs a worker processor.
func NewIndexer(repo *repository.CertificateRepository, store *s3storage.Storage, log *logrus.Logger) *Indexer {
	return &Indexer{repo: repo, store: store, log: log}
}

// Handler registers the index job handler.
func (i *Indexer) Handler() *asynq.ServeMux {
	mux := asynq.NewServeMux()
	mux.HandleFunc(queue.IndexCertificateTask, i.handleIndex)
	return mux
}

func (i *Indexer) handleIndex(ctx context.Context, task *asynq.Task) error {
	var payload queue.IndexPayload
	if err := json.Unmarshal(task.Payload(), &payload); err != nil {
		return fmt.Errorf("decode payload: %w", err)
	}
	text, err := i.certificateText(ctx, payload)
	if err != nil {
		i.log.WithError(err).WithField("certificate_id", payload.CertificateID).Error("index failed")
		return err
	}
	normalized := match.NormalizeText(text)
	if err := i.repo.SetNormalizedText(ctx, payload.CertificateID, normalized); err != nil {
		i.log.WithError(err).WithField("certificate_id", payload.CertificateID).Error("store corpus text failed")
		return err
	}
	i.log.WithFields(logrus.Fields{
		"certificate_id": payload.CertificateID,
		"corpus_bytes":   len(normalized),
	}).Info("certificate indexed")
	return nil
}

// certificateText re-extracts text from the stored PDF so the corpus is
// rebuilt from the authoritative object; non-PDF uploads fall back to the
// text captured at upload time.
func (i *Indexer) certificateText(ctx context.Context, payload queue.IndexPayload) (string, error) {
	if payload.FileType == "application/pdf" {
		data, err := i.store.DownloadCertificate(ctx, payload.ObjectKey)
		if err != nil {
			return "", err
		}
		text, err := extract.TextFromPDF(data)
		if err != nil {
			return "", err
		}
		return text, nil
	}
	cert, err := i.repo.Get(ctx, payload.CertificateID)
	if err != nil {
		return "", err
	}
	return cert.ExtractedText, nil
}
