package storage

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
)

// ErrNotConfigured is returned when MINIO_ENDPOINT is not set
var ErrNotConfigured = errors.New("object storage not configured")

var Client *minio.Client
var BucketName string

// Init connects to MinIO from MINIO_* variables and creates the bucket if needed
func Init(ctx context.Context) error {
	endpoint := os.Getenv("MINIO_ENDPOINT")
	if endpoint == "" {
		return ErrNotConfigured
	}

	accessKey := os.Getenv("MINIO_ACCESS_KEY")
	secretKey := os.Getenv("MINIO_SECRET_KEY")

	BucketName = os.Getenv("MINIO_BUCKET")
	if BucketName == "" {
		BucketName = "problem-images"
	}

	useSSL := os.Getenv("MINIO_USE_SSL") == "true"

	client, err := minio.New(endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(accessKey, secretKey, ""),
		Secure: useSSL,
	})
	if err != nil {
		return fmt.Errorf("failed to create MinIO client: %w", err)
	}

	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	exists, err := client.BucketExists(ctx, BucketName)
	if err != nil {
		return fmt.Errorf("failed to check bucket: %w", err)
	}
	if !exists {
		if err := client.MakeBucket(ctx, BucketName, minio.MakeBucketOptions{}); err != nil {
			return fmt.Errorf("failed to create bucket %s: %w", BucketName, err)
		}
	}

	Client = client
	return nil
}

// Enabled reports whether Init succeeded
func Enabled() bool {
	return Client != nil
}

// Ping checks that the bucket is reachable
func Ping(ctx context.Context) error {
	if Client == nil {
		return ErrNotConfigured
	}
	_, err := Client.BucketExists(ctx, BucketName)
	return err
}

// UploadSourceImage stores the uploaded problem image of a run.
// Path format: runs/YYYY/MM/{runID}{ext}
func UploadSourceImage(ctx context.Context, runID string, data []byte, contentType string) (string, error) {
	if Client == nil {
		return "", ErrNotConfigured
	}

	objectName := ObjectName(runID, contentType, time.Now())
	_, err := Client.PutObject(ctx, BucketName, objectName, bytes.NewReader(data), int64(len(data)), minio.PutObjectOptions{
		ContentType: contentType,
	})
	if err != nil {
		return "", fmt.Errorf("failed to upload image: %w", err)
	}

	return fmt.Sprintf("%s/%s", BucketName, objectName), nil
}

// ObjectName builds the object key of a run's source image
func ObjectName(runID, contentType string, now time.Time) string {
	return fmt.Sprintf("runs/%d/%02d/%s%s", now.Year(), now.Month(), runID, GetFileExtension(contentType))
}

// GetPresignedURL generates a presigned URL for viewing an image
func GetPresignedURL(ctx context.Context, objectPath string) (string, error) {
	if Client == nil {
		return "", ErrNotConfigured
	}
	url, err := Client.PresignedGetObject(ctx, BucketName, trimBucket(objectPath), 24*time.Hour, nil)
	if err != nil {
		return "", fmt.Errorf("failed to generate presigned URL: %w", err)
	}

	return url.String(), nil
}

// DeleteImage removes an image from storage
func DeleteImage(ctx context.Context, objectPath string) error {
	if Client == nil {
		return ErrNotConfigured
	}
	return Client.RemoveObject(ctx, BucketName, trimBucket(objectPath), minio.RemoveObjectOptions{})
}

// trimBucket removes the bucket prefix if present
func trimBucket(objectPath string) string {
	return strings.TrimPrefix(objectPath, BucketName+"/")
}

// GetFileExtension extracts file extension from content type
func GetFileExtension(contentType string) string {
	switch contentType {
	case "image/jpeg":
		return ".jpg"
	case "image/png":
		return ".png"
	case "image/gif":
		return ".gif"
	case "image/webp":
		return ".webp"
	case "image/bmp":
		return ".bmp"
	case "image/tiff":
		return ".tiff"
	default:
		return ".bin"
	}
}
