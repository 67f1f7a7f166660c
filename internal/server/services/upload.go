package services

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	v4 "github.com/aws/aws-sdk-go-v2/aws/signer/v4"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/dmitrijs2005/gophdrive/internal/common"
	"github.com/dmitrijs2005/gophdrive/internal/logging"
	sc "github.com/dmitrijs2005/gophdrive/internal/server/config"
	"github.com/dmitrijs2005/gophdrive/internal/server/models"
	"github.com/google/uuid"
)

var (
	loadDefaultAWSConfig = config.LoadDefaultConfig

	newS3ClientFromConfig = func(cfg aws.Config, optFns ...func(*s3.Options)) *s3.Client {
		return s3.NewFromConfig(cfg, optFns...)
	}

	newS3PresignClient = func(c *s3.Client) *s3.PresignClient {
		return s3.NewPresignClient(c)
	}

	presignPutObject = func(pc *s3.PresignClient, ctx context.Context, in *s3.PutObjectInput, optFns ...func(*s3.PresignOptions)) (*v4.PresignedHTTPRequest, error) {
		return pc.PresignPutObject(ctx, in, optFns...)
	}
)

// UploadService hands out presigned PUT URLs so clients can push file bytes
// straight to the blob store before registering them with CreateFile.
type UploadService struct {
	config *sc.Config
	logger logging.Logger
	now    func() time.Time
}

func NewUploadService(config *sc.Config, l logging.Logger) *UploadService {
	return &UploadService{
		config: config,
		logger: l.With("module", "upload"),
		now:    func() time.Time { return time.Now().UTC() },
	}
}

// StorageKey builds a fresh object key under the owner's prefix.
func StorageKey(ownerID string, d time.Time) string {
	return fmt.Sprintf("users/%s/%d/%02d/%02d/%v", ownerID, d.Year(), d.Month(), d.Day(), uuid.New())
}

func (s *UploadService) getPresignClient(ctx context.Context) (*s3.PresignClient, error) {
	cfg, err := loadDefaultAWSConfig(ctx,
		config.WithRegion(s.config.S3Region),
		config.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(
			s.config.S3RootUser,
			s.config.S3RootPassword,
			"",
		)))
	if err != nil {
		return nil, err
	}

	client := newS3ClientFromConfig(cfg, func(o *s3.Options) {
		o.BaseEndpoint = aws.String(s.config.S3BaseEndpoint)
		o.UsePathStyle = true
	})

	return newS3PresignClient(client), nil
}

// UploadParams reserves a storage key for ownerID and presigns a PUT for it.
// The returned FileURL is what CreateFile later expects as the location.
func (s *UploadService) UploadParams(ctx context.Context, ownerID string) (*models.UploadTicket, error) {
	if ownerID == "" {
		return nil, common.ErrorUnauthorized
	}

	presignClient, err := s.getPresignClient(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to build presign client: %w", err)
	}

	now := s.now()
	bucket := s.config.S3Bucket
	key := StorageKey(ownerID, now)
	validity := s.config.UploadURLValidity

	req, err := presignPutObject(presignClient, ctx, &s3.PutObjectInput{
		Bucket: &bucket,
		Key:    &key,
	}, s3.WithPresignExpires(validity))
	if err != nil {
		s.logger.Error(ctx, "presign put failed", "owner_id", ownerID, "error", err)
		return nil, fmt.Errorf("failed to presign upload: %w", err)
	}

	return &models.UploadTicket{
		Key:       key,
		UploadURL: req.URL,
		FileURL:   strings.TrimRight(s.config.S3BaseEndpoint, "/") + "/" + bucket + "/" + key,
		ExpiresAt: now.Add(validity),
	}, nil
}
