// Package storage handles S3 object transfer for s3:// referenced
// requests, with optional AES-256-GCM encryption at rest.
package storage

import (
	"bytes"
	"context"
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"crypto/sha256"
	"fmt"
	"io"
	"strings"

	awscfg "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/feature/s3/manager"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/rs/zerolog/log"
	"golang.org/x/crypto/pbkdf2"
)

const (
	gcmMagic       = "GCM1"
	gcmSaltLen     = 16
	pbkdf2Iters    = 100000
	pbkdf2KeyBytes = 32
)

// S3Client wraps the AWS SDK for the object operations this service
// needs: download a source object, upload a result archive.
type S3Client struct {
	client   *s3.Client
	uploader *manager.Uploader
	bucket   string
}

// NewS3Client creates a client bound to bucket using the default AWS
// config chain (region/credentials from env).
func NewS3Client(ctx context.Context, bucket string) (*S3Client, error) {
	cfg, err := awscfg.LoadDefaultConfig(ctx)
	if err != nil {
		return nil, fmt.Errorf("load aws config: %w", err)
	}
	cli := s3.NewFromConfig(cfg)
	return &S3Client{client: cli, uploader: manager.NewUploader(cli), bucket: bucket}, nil
}

// ParseRef splits an s3://bucket/key reference.
func ParseRef(ref string) (bucket, key string, err error) {
	path := strings.TrimPrefix(ref, "s3://")
	slash := strings.Index(path, "/")
	if slash <= 0 || slash == len(path)-1 {
		return "", "", fmt.Errorf("invalid s3 url: %s", ref)
	}
	return path[:slash], path[slash+1:], nil
}

// Download fetches the object at key. A non-empty password decrypts
// objects stored with the encrypted-at-rest convention; plain objects
// pass through untouched.
func (s *S3Client) Download(ctx context.Context, key, password string) ([]byte, error) {
	out, err := s.client.GetObject(ctx, &s3.GetObjectInput{Bucket: &s.bucket, Key: &key})
	if err != nil {
		return nil, fmt.Errorf("s3 get %s: %w", key, err)
	}
	defer out.Body.Close()

	data, err := io.ReadAll(out.Body)
	if err != nil {
		return nil, fmt.Errorf("s3 read %s: %w", key, err)
	}

	if password != "" && bytes.HasPrefix(data, []byte(gcmMagic)) {
		plain, err := decryptGCM(data, password)
		if err != nil {
			return nil, fmt.Errorf("decrypt %s: %w", key, err)
		}
		data = plain
	}

	log.Debug().Str("bucket", s.bucket).Str("key", key).Int("bytes", len(data)).Msg("downloaded s3 object")
	return data, nil
}

// Upload stores data at key. A non-empty password encrypts the object
// with AES-256-GCM under a PBKDF2-derived key before upload.
func (s *S3Client) Upload(ctx context.Context, key string, data []byte, contentType, password string, meta map[string]string) error {
	if password != "" {
		enc, err := encryptGCM(data, password)
		if err != nil {
			return fmt.Errorf("encrypt %s: %w", key, err)
		}
		data = enc
	}

	_, err := s.uploader.Upload(ctx, &s3.PutObjectInput{
		Bucket:      &s.bucket,
		Key:         &key,
		Body:        bytes.NewReader(data),
		ContentType: &contentType,
		Metadata:    meta,
	})
	if err != nil {
		return fmt.Errorf("s3 upload %s: %w", key, err)
	}

	log.Info().Str("bucket", s.bucket).Str("key", key).Int("bytes", len(data)).Msg("uploaded s3 object")
	return nil
}

// encryptGCM produces magic || salt || nonce || ciphertext.
func encryptGCM(data []byte, password string) ([]byte, error) {
	salt := make([]byte, gcmSaltLen)
	if _, err := rand.Read(salt); err != nil {
		return nil, err
	}
	gcm, err := newGCM(password, salt)
	if err != nil {
		return nil, err
	}
	nonce := make([]byte, gcm.NonceSize())
	if _, err := rand.Read(nonce); err != nil {
		return nil, err
	}

	out := make([]byte, 0, len(gcmMagic)+len(salt)+len(nonce)+len(data)+gcm.Overhead())
	out = append(out, gcmMagic...)
	out = append(out, salt...)
	out = append(out, nonce...)
	return gcm.Seal(out, nonce, data, nil), nil
}

func decryptGCM(data []byte, password string) ([]byte, error) {
	data = data[len(gcmMagic):]
	if len(data) < gcmSaltLen {
		return nil, fmt.Errorf("encrypted object too short")
	}
	salt, data := data[:gcmSaltLen], data[gcmSaltLen:]
	gcm, err := newGCM(password, salt)
	if err != nil {
		return nil, err
	}
	if len(data) < gcm.NonceSize() {
		return nil, fmt.Errorf("encrypted object too short")
	}
	nonce, ciphertext := data[:gcm.NonceSize()], data[gcm.NonceSize():]
	return gcm.Open(nil, nonce, ciphertext, nil)
}

func newGCM(password string, salt []byte) (cipher.AEAD, error) {
	key := pbkdf2.Key([]byte(password), salt, pbkdf2Iters, pbkdf2KeyBytes, sha256.New)
	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, err
	}
	return cipher.NewGCM(block)
}
