package photo

import (
	"bytes"
	"context"
	"fmt"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/google/uuid"

	"github.com/woundtrack/ehr-api/internal/model"
	"github.com/woundtrack/ehr-api/internal/repository"
	"github.com/woundtrack/ehr-api/internal/service/audit"
)

// ObjectStore is the minimal object-storage surface the photo and signature
// services need. Backed by S3 in production.
type ObjectStore interface {
	Put(ctx context.Context, key string, data []byte, contentType string) error
	PresignGet(ctx context.Context, key string, expiry time.Duration) (string, error)
}

type S3Store struct {
	client  *s3.Client
	presign *s3.PresignClient
	bucket  string
}

func NewS3Store(client *s3.Client, bucket string) *S3Store {
	return &S3Store{
		client:  client,
		presign: s3.NewPresignClient(client),
		bucket:  bucket,
	}
}

func (s *S3Store) Put(ctx context.Context, key string, data []byte, contentType string) error {
	_, err := s.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(s.bucket),
		Key:         aws.String(key),
		Body:        bytes.NewReader(data),
		ContentType: aws.String(contentType),
	})
	if err != nil {
		return fmt.Errorf("failed to put object %s: %w", key, err)
	}
	return nil
}

func (s *S3Store) PresignGet(ctx context.Context, key string, expiry time.Duration) (string, error) {
	req, err := s.presign.PresignGetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
	}, s3.WithPresignExpires(expiry))
	if err != nil {
		return "", fmt.Errorf("failed to presign object %s: %w", key, err)
	}
	return req.URL, nil
}

const downloadURLExpiry = 15 * time.Minute

type Service struct {
	repo      repository.PhotoRepository
	woundRepo repository.WoundRepository
	storage   ObjectStore
	auditor   *audit.Service
}

func NewService(repo repository.PhotoRepository, woundRepo repository.WoundRepository, storage ObjectStore, auditor *audit.Service) *Service {
	return &Service{repo: repo, woundRepo: woundRepo, storage: storage, auditor: auditor}
}

// Upload stores a wound photo and its metadata row.
func (s *Service) Upload(ctx context.Context, actor *model.TokenClaims, woundID uuid.UUID, visitID *uuid.UUID, data []byte, contentType string) (*model.WoundPhoto, error) {
	if len(data) == 0 {
		return nil, fmt.Errorf("photo payload is empty")
	}
	wound, err := s.woundRepo.Get(ctx, woundID)
	if err != nil {
		return nil, fmt.Errorf("failed to get wound: %w", err)
	}

	id := uuid.New()
	key := fmt.Sprintf("wounds/%s/%s/%s", wound.TenantID, woundID, id)
	if err := s.storage.Put(ctx, key, data, contentType); err != nil {
		return nil, err
	}

	p := &model.WoundPhoto{
		ID:          id,
		WoundID:     woundID,
		VisitID:     visitID,
		ObjectKey:   key,
		ContentType: contentType,
		SizeBytes:   int64(len(data)),
		CapturedBy:  actor.UserID,
		CapturedAt:  time.Now(),
	}
	if err := s.repo.Create(ctx, p); err != nil {
		return nil, fmt.Errorf("failed to save photo metadata: %w", err)
	}

	s.auditor.Log(ctx, actor.UserID, actor.TenantID, "upload_photo", "wound", woundID, &audit.LogOptions{
		Metadata: map[string]interface{}{"photo_id": id, "size": p.SizeBytes},
	})
	return p, nil
}

// DownloadURL returns a short-lived presigned URL for the photo.
func (s *Service) DownloadURL(ctx context.Context, id uuid.UUID) (string, error) {
	p, err := s.repo.Get(ctx, id)
	if err != nil {
		return "", fmt.Errorf("failed to get photo: %w", err)
	}
	return s.storage.PresignGet(ctx, p.ObjectKey, downloadURLExpiry)
}

func (s *Service) ListByWound(ctx context.Context, woundID uuid.UUID) ([]*model.WoundPhoto, error) {
	photos, err := s.repo.ListByWound(ctx, woundID)
	if err != nil {
		return nil, fmt.Errorf("failed to list photos: %w", err)
	}
	return photos, nil
}
