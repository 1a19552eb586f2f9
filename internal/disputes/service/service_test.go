package service

import (
	"context"
	"io"
	"strings"
	"testing"
	"time"

	"github.com/thimothe-das/fixeo-sub001/internal/adapters/storage"
	"github.com/thimothe-das/fixeo-sub001/internal/disputes/repository"
	"github.com/thimothe-das/fixeo-sub001/internal/requests/domain"
	"github.com/thimothe-das/fixeo-sub001/platform/apperr"
	"github.com/thimothe-das/fixeo-sub001/platform/logger"

	"github.com/google/uuid"
)

type fakeStore struct {
	disputes map[uuid.UUID]*repository.Dispute
	evidence []repository.Evidence
}

func (f *fakeStore) GetByID(ctx context.Context, id uuid.UUID) (*repository.Dispute, error) {
	if d, ok := f.disputes[id]; ok {
		return d, nil
	}
	return nil, apperr.NotFound("dispute not found")
}

func (f *fakeStore) ListByRequest(ctx context.Context, requestID uuid.UUID) ([]repository.Dispute, error) {
	var out []repository.Dispute
	for _, d := range f.disputes {
		if d.ServiceRequestID == requestID {
			out = append(out, *d)
		}
	}
	return out, nil
}

func (f *fakeStore) AddEvidence(ctx context.Context, e *repository.Evidence) error {
	f.evidence = append(f.evidence, *e)
	return nil
}

func (f *fakeStore) ListEvidence(ctx context.Context, disputeID uuid.UUID) ([]repository.Evidence, error) {
	var out []repository.Evidence
	for _, e := range f.evidence {
		if e.DisputeID == disputeID {
			out = append(out, e)
		}
	}
	return out, nil
}

type fakeObjects struct {
	uploaded []string
	deleted  []string
}

func (f *fakeObjects) UploadFile(ctx context.Context, bucket, folder, fileName, contentType string, reader io.Reader, size int64) (string, error) {
	key := folder + "/" + fileName
	f.uploaded = append(f.uploaded, key)
	return key, nil
}

func (f *fakeObjects) GenerateUploadURL(ctx context.Context, bucket, folder, fileName, contentType string, sizeBytes int64) (*storage.PresignedURL, error) {
	return &storage.PresignedURL{URL: "https://objects.test/put"}, nil
}

func (f *fakeObjects) GenerateDownloadURL(ctx context.Context, bucket, fileKey string) (*storage.PresignedURL, error) {
	return &storage.PresignedURL{URL: "https://objects.test/" + fileKey, FileKey: fileKey}, nil
}

func (f *fakeObjects) DeleteObject(ctx context.Context, bucket, fileKey string) error {
	f.deleted = append(f.deleted, fileKey)
	return nil
}

func (f *fakeObjects) EnsureBucketExists(ctx context.Context, bucket string) error { return nil }
func (f *fakeObjects) ValidateContentType(contentType string) error                { return nil }
func (f *fakeObjects) ValidateFileSize(sizeBytes int64) error                      { return nil }

func newFixture(open bool) (*Service, *fakeStore, uuid.UUID) {
	store := &fakeStore{disputes: make(map[uuid.UUID]*repository.Dispute)}
	d := &repository.Dispute{
		ID:               uuid.New(),
		ServiceRequestID: uuid.New(),
		RaisedBy:         string(domain.ActorClient),
		CreatedAt:        time.Now(),
	}
	if !open {
		now := time.Now()
		res := "settled"
		d.Resolution = &res
		d.ResolvedAt = &now
	}
	store.disputes[d.ID] = d
	svc := New(store, &fakeObjects{}, "dispute-evidence", logger.New("development"))
	return svc, store, d.ID
}

func TestUploadEvidence(t *testing.T) {
	svc, store, disputeID := newFixture(true)

	e, err := svc.UploadEvidence(context.Background(), disputeID, domain.ActorArtisan,
		"site-photo.jpg", "image/jpeg", strings.NewReader("bytes"), 5)
	if err != nil {
		t.Fatalf("upload: %v", err)
	}
	if e.UploadedBy != string(domain.ActorArtisan) {
		t.Errorf("expected uploader recorded, got %s", e.UploadedBy)
	}
	if len(store.evidence) != 1 || store.evidence[0].FileKey != e.FileKey {
		t.Errorf("expected evidence metadata persisted")
	}
}

func TestUploadEvidenceRejectedOnResolvedDispute(t *testing.T) {
	svc, _, disputeID := newFixture(false)

	_, err := svc.UploadEvidence(context.Background(), disputeID, domain.ActorClient,
		"late.pdf", "application/pdf", strings.NewReader("bytes"), 5)
	if !apperr.IsKind(err, apperr.KindConflict) {
		t.Fatalf("expected conflict for resolved dispute, got %v", err)
	}
}

func TestUploadEvidenceOnlyParties(t *testing.T) {
	svc, _, disputeID := newFixture(true)

	_, err := svc.UploadEvidence(context.Background(), disputeID, domain.ActorAdmin,
		"x.pdf", "application/pdf", strings.NewReader("bytes"), 5)
	if !apperr.IsKind(err, apperr.KindForbidden) {
		t.Fatalf("expected forbidden for non-party, got %v", err)
	}
}

func TestListEvidenceReturnsDownloadURLs(t *testing.T) {
	svc, _, disputeID := newFixture(true)
	if _, err := svc.UploadEvidence(context.Background(), disputeID, domain.ActorClient,
		"a.png", "image/png", strings.NewReader("bytes"), 5); err != nil {
		t.Fatalf("upload: %v", err)
	}

	evidence, urls, err := svc.ListEvidence(context.Background(), disputeID)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(evidence) != 1 || len(urls) != 1 {
		t.Fatalf("expected one evidence entry with a URL, got %d/%d", len(evidence), len(urls))
	}
	if !strings.HasPrefix(urls[0], "https://objects.test/") {
		t.Errorf("expected presigned URL, got %s", urls[0])
	}
}
