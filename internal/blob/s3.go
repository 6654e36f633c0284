package blob

import (
	"bytes"
	"context"
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"crypto/sha256"
	"errors"
	"fmt"
	"io"

	"github.com/aws/aws-sdk-go-v2/aws"
	awscfg "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/rs/zerolog/log"
	"golang.org/x/crypto/pbkdf2"
)

// gcmMagic tags payloads encrypted with the password-derived AES-GCM
// framing: magic(8) + salt(16) + nonce(12) + ciphertext+tag.
const gcmMagic = "GCM3NCR0"

// S3Store keeps payloads in an S3 bucket. When password is non-empty,
// payloads are encrypted at rest with AES-GCM and a PBKDF2-derived key.
type S3Store struct {
	client   *s3.Client
	bucket   string
	prefix   string
	password string
}

// NewS3Store loads the default AWS config and returns a store over the
// given bucket. keyPrefix namespaces this service's objects.
func NewS3Store(ctx context.Context, bucket, keyPrefix, password string) (*S3Store, error) {
	cfg, err := awscfg.LoadDefaultConfig(ctx)
	if err != nil {
		return nil, fmt.Errorf("load AWS config: %w", err)
	}
	return &S3Store{
		client:   s3.NewFromConfig(cfg),
		bucket:   bucket,
		prefix:   keyPrefix,
		password: password,
	}, nil
}

func (s *S3Store) objectKey(key string) string {
	if s.prefix == "" {
		return key
	}
	return s.prefix + "/" + key
}

func (s *S3Store) Put(ctx context.Context, key string, data []byte) error {
	payload := data
	if s.password != "" {
		enc, err := encryptGCM(data, s.password)
		if err != nil {
			return fmt.Errorf("encrypt payload: %w", err)
		}
		payload = enc
	}
	_, err := s.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(s.bucket),
		Key:         aws.String(s.objectKey(key)),
		Body:        bytes.NewReader(payload),
		ContentType: aws.String("application/octet-stream"),
	})
	if err != nil {
		return fmt.Errorf("s3 put %s: %w", key, err)
	}
	log.Debug().Str("key", key).Int("size", len(data)).Bool("encrypted", s.password != "").Msg("stored payload in S3")
	return nil
}

func (s *S3Store) Get(ctx context.Context, key string) ([]byte, error) {
	out, err := s.client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(s.objectKey(key)),
	})
	if err != nil {
		var nsk interface{ ErrorCode() string }
		if errors.As(err, &nsk) && nsk.ErrorCode() == "NoSuchKey" {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("s3 get %s: %w", key, err)
	}
	defer out.Body.Close()
	data, err := io.ReadAll(out.Body)
	if err != nil {
		return nil, fmt.Errorf("read s3 object: %w", err)
	}
	if len(data) >= len(gcmMagic) && string(data[:len(gcmMagic)]) == gcmMagic {
		if s.password == "" {
			return nil, fmt.Errorf("payload %s is encrypted but no password configured", key)
		}
		return decryptGCM(data, s.password)
	}
	return data, nil
}

func (s *S3Store) Delete(ctx context.Context, key string) error {
	_, err := s.client.DeleteObject(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(s.objectKey(key)),
	})
	if err != nil {
		return fmt.Errorf("s3 delete %s: %w", key, err)
	}
	return nil
}

func (s *S3Store) DeletePrefix(ctx context.Context, prefix string) error {
	full := s.objectKey(prefix) + "/"
	var token *string
	for {
		page, err := s.client.ListObjectsV2(ctx, &s3.ListObjectsV2Input{
			Bucket:            aws.String(s.bucket),
			Prefix:            aws.String(full),
			ContinuationToken: token,
		})
		if err != nil {
			return fmt.Errorf("s3 list %s: %w", prefix, err)
		}
		for _, obj := range page.Contents {
			if _, err := s.client.DeleteObject(ctx, &s3.DeleteObjectInput{
				Bucket: aws.String(s.bucket),
				Key:    obj.Key,
			}); err != nil {
				return fmt.Errorf("s3 delete %s: %w", aws.ToString(obj.Key), err)
			}
		}
		if page.NextContinuationToken == nil {
			return nil
		}
		token = page.NextContinuationToken
	}
}

func deriveKey(password string, salt []byte) []byte {
	return pbkdf2.Key([]byte(password), salt, 100000, 32, sha256.New)
}

// encryptGCM frames plaintext as magic(8) + salt(16) + nonce(12) + sealed.
func encryptGCM(plaintext []byte, password string) ([]byte, error) {
	salt := make([]byte, 16)
	if _, err := rand.Read(salt); err != nil {
		return nil, err
	}
	block, err := aes.NewCipher(deriveKey(password, salt))
	if err != nil {
		return nil, err
	}
	gcm, err := cipher.NewGCM(block)
	if err != nil {
		return nil, err
	}
	nonce := make([]byte, gcm.NonceSize())
	if _, err := rand.Read(nonce); err != nil {
		return nil, err
	}
	out := make([]byte, 0, len(gcmMagic)+len(salt)+len(nonce)+len(plaintext)+gcm.Overhead())
	out = append(out, gcmMagic...)
	out = append(out, salt...)
	out = append(out, nonce...)
	return gcm.Seal(out, nonce, plaintext, nil), nil
}

func decryptGCM(data []byte, password string) ([]byte, error) {
	if len(data) < 8+16+12+16 {
		return nil, fmt.Errorf("encrypted payload too short: %d bytes", len(data))
	}
	salt := data[8:24]
	nonce := data[24:36]
	sealed := data[36:]
	block, err := aes.NewCipher(deriveKey(password, salt))
	if err != nil {
		return nil, err
	}
	gcm, err := cipher.NewGCM(block)
	if err != nil {
		return nil, err
	}
	plaintext, err := gcm.Open(nil, nonce, sealed, nil)
	if err != nil {
		return nil, fmt.Errorf("payload decryption failed: %w", err)
	}
	return plaintext, nil
}
