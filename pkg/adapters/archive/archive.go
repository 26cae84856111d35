// Package archive uploads finished transcripts to S3-compatible object storage.
package archive

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"path"
	"strings"
	"sync"
	"time"

	"github.com/aretw0/lodge/pkg/domain"
	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
)

// Config points at the bucket.
type Config struct {
	Endpoint  string
	Region    string
	AccessKey string
	SecretKey string
	Bucket    string
	UseSSL    bool
	Prefix    string
}

// objectStore is the subset of *minio.Client the archiver needs.
type objectStore interface {
	BucketExists(ctx context.Context, bucket string) (bool, error)
	MakeBucket(ctx context.Context, bucket string, opts minio.MakeBucketOptions) error
	PutObject(ctx context.Context, bucket, key string, r io.Reader, size int64, opts minio.PutObjectOptions) (minio.UploadInfo, error)
}

// Document is the JSON object written per completed session.
type Document struct {
	SessionID       string                      `json:"sessionId"`
	UserID          string                      `json:"userId,omitempty"`
	CreatedAt       time.Time                   `json:"createdAt"`
	ClosedAt        *time.Time                  `json:"closedAt,omitempty"`
	InitialCriteria map[string]any              `json:"initialCriteria,omitempty"`
	Result          *domain.FinalizationPayload `json:"result"`
}

// Archiver implements ports.Finalizer by writing one object per session.
type Archiver struct {
	client   objectStore
	bucket   string
	region   string
	prefix   string
	initOnce sync.Once
	initErr  error
}

// New builds an Archiver backed by minio-go.
func New(cfg Config) (*Archiver, error) {
	endpoint := strings.TrimSpace(cfg.Endpoint)
	if endpoint == "" {
		return nil, fmt.Errorf("archive endpoint is required")
	}
	bucket := strings.TrimSpace(cfg.Bucket)
	if bucket == "" {
		return nil, fmt.Errorf("archive bucket is required")
	}
	region := strings.TrimSpace(cfg.Region)
	if region == "" {
		region = "us-east-1"
	}

	client, err := minio.New(endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(strings.TrimSpace(cfg.AccessKey), strings.TrimSpace(cfg.SecretKey), ""),
		Secure: cfg.UseSSL,
		Region: region,
	})
	if err != nil {
		return nil, fmt.Errorf("init archive client: %w", err)
	}
	return newWithClient(client, bucket, region, cfg.Prefix), nil
}

func newWithClient(client objectStore, bucket, region, prefix string) *Archiver {
	if prefix == "" {
		prefix = "transcripts"
	}
	return &Archiver{client: client, bucket: bucket, region: region, prefix: prefix}
}

func (a *Archiver) ensureBucket(ctx context.Context) error {
	a.initOnce.Do(func() {
		exists, err := a.client.BucketExists(ctx, a.bucket)
		if err != nil {
			a.initErr = err
			return
		}
		if exists {
			return
		}
		a.initErr = a.client.MakeBucket(ctx, a.bucket, minio.MakeBucketOptions{Region: a.region})
	})
	return a.initErr
}

// Finalize uploads the transcript document for session.
func (a *Archiver) Finalize(ctx context.Context, session *domain.Session, payload *domain.FinalizationPayload) error {
	if err := a.ensureBucket(ctx); err != nil {
		return fmt.Errorf("ensure bucket: %w", err)
	}

	doc := Document{
		SessionID:       session.ID,
		UserID:          session.UserID,
		CreatedAt:       session.CreatedAt,
		ClosedAt:        session.ClosedAt,
		InitialCriteria: session.InitialCriteria,
		Result:          payload,
	}
	body, err := json.Marshal(doc)
	if err != nil {
		return fmt.Errorf("failed to encode transcript: %w", err)
	}

	key := ObjectKey(a.prefix, session)
	_, err = a.client.PutObject(ctx, a.bucket, key, bytes.NewReader(body), int64(len(body)), minio.PutObjectOptions{
		ContentType: "application/json",
	})
	if err != nil {
		return fmt.Errorf("failed to upload %s: %w", key, err)
	}
	return nil
}

// ObjectKey partitions transcripts by creation day: prefix/YYYY/MM/DD/<id>.json.
func ObjectKey(prefix string, session *domain.Session) string {
	return path.Join(prefix, session.CreatedAt.UTC().Format("2006/01/02"), session.ID+".json")
}
