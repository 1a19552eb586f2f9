// Package service manages dispute evidence: files a party uploads to back
// their contestation, stored in object storage with metadata in Postgres.
package service

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/thimothe-das/fixeo-sub001/internal/adapters/storage"
	"github.com/thimothe-das/fixeo-sub001/internal/disputes/repository"
	"github.com/thimothe-das/fixeo-sub001/internal/requests/domain"
	"github.com/thimothe-das/fixeo-sub001/platform/apperr"
	"github.com/thimothe-das/fixeo-sub001/platform/logger"

	"github.com/google/uuid"
)

// DisputeStore is the persistence surface the evidence service needs.
type DisputeStore interface {
	GetByID(ctx context.Context, id uuid.UUID) (*repository.Dispute, error)
	ListByRequest(ctx context.Context, requestID uuid.UUID) ([]repository.Dispute, error)
	AddEvidence(ctx context.Context, e *repository.Evidence) error
	ListEvidence(ctx context.Context, disputeID uuid.UUID) ([]repository.Evidence, error)
}

// Service handles dispute reads and evidence files.
type Service struct {
	store   DisputeStore
	objects storage.Service
	bucket  string
	log     *logger.Logger
}

// New creates the disputes service. bucket is where evidence objects live.
func New(store DisputeStore, objects storage.Service, bucket string, log *logger.Logger) *Service {
	return &Service{store: store, objects: objects, bucket: bucket, log: log}
}

// GetDispute returns a dispute by ID.
func (s *Service) GetDispute(ctx context.Context, id uuid.UUID) (*repository.Dispute, error) {
	return s.store.GetByID(ctx, id)
}

// ListByRequest returns a request's disputes.
func (s *Service) ListByRequest(ctx context.Context, requestID uuid.UUID) ([]repository.Dispute, error) {
	return s.store.ListByRequest(ctx, requestID)
}

// UploadEvidence stores one evidence file for an open dispute. Evidence on a
// resolved dispute is refused; the record is closed.
func (s *Service) UploadEvidence(ctx context.Context, disputeID uuid.UUID, uploadedBy domain.Actor, fileName, contentType string, reader io.Reader, size int64) (*repository.Evidence, error) {
	dispute, err := s.store.GetByID(ctx, disputeID)
	if err != nil {
		return nil, err
	}
	if dispute.ResolvedAt != nil {
		return nil, apperr.Conflict("dispute is resolved, no further evidence accepted")
	}
	if uploadedBy != domain.ActorClient && uploadedBy != domain.ActorArtisan {
		return nil, apperr.Forbidden("only the parties can submit evidence")
	}
	if err := s.objects.ValidateContentType(contentType); err != nil {
		return nil, apperr.Wrap(apperr.KindValidation, "unsupported evidence file type", err)
	}
	if err := s.objects.ValidateFileSize(size); err != nil {
		return nil, apperr.Wrap(apperr.KindValidation, "evidence file too large", err)
	}

	folder := fmt.Sprintf("%s/%s", dispute.ServiceRequestID, disputeID)
	fileKey, err := s.objects.UploadFile(ctx, s.bucket, folder, fileName, contentType, reader, size)
	if err != nil {
		return nil, apperr.Wrap(apperr.KindValidation, "evidence upload rejected", err)
	}

	evidence := &repository.Evidence{
		ID:          uuid.New(),
		DisputeID:   disputeID,
		FileKey:     fileKey,
		FileName:    fileName,
		ContentType: contentType,
		SizeBytes:   size,
		UploadedBy:  string(uploadedBy),
		CreatedAt:   time.Now(),
	}
	if err := s.store.AddEvidence(ctx, evidence); err != nil {
		// The object is orphaned if this fails; best effort cleanup.
		if delErr := s.objects.DeleteObject(ctx, s.bucket, fileKey); delErr != nil {
			s.log.Warn("evidence_cleanup_failed", "file_key", fileKey, "error", delErr.Error())
		}
		return nil, err
	}
	return evidence, nil
}

// ListEvidence returns a dispute's evidence with presigned download URLs.
func (s *Service) ListEvidence(ctx context.Context, disputeID uuid.UUID) ([]repository.Evidence, []string, error) {
	evidence, err := s.store.ListEvidence(ctx, disputeID)
	if err != nil {
		return nil, nil, err
	}
	urls := make([]string, 0, len(evidence))
	for _, e := range evidence {
		presigned, err := s.objects.GenerateDownloadURL(ctx, s.bucket, e.FileKey)
		if err != nil {
			return nil, nil, err
		}
		urls = append(urls, presigned.URL)
	}
	return evidence, urls, nil
}
