// Package media uploads user images to S3-compatible object storage.
package media

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/dmitrijs2005/vidhub/internal/filex"
	"github.com/dmitrijs2005/vidhub/internal/logging"
	"github.com/google/uuid"
)

// UploadResult describes a stored object.
type UploadResult struct {
	Key         string
	URL         string
	ContentType string
	Size        int64
}

// Store moves a local temp file into durable storage.
//
// Store returns (nil, nil) for an empty path. The local file is removed
// whether or not the upload succeeds.
type Store interface {
	Store(ctx context.Context, localPath string) (*UploadResult, error)
}

type S3Config struct {
	AccessKey string
	SecretKey string
	Bucket    string
	Region    string
	Endpoint  string
	// PublicURL is the base the object key is appended to in UploadResult.URL.
	PublicURL string
}

type objectPutter interface {
	PutObject(ctx context.Context, in *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
}

// test seams
var (
	loadDefaultAWSConfig  = config.LoadDefaultConfig
	newS3ClientFromConfig = s3.NewFromConfig
)

type S3Store struct {
	client    objectPutter
	bucket    string
	publicURL string
	logger    logging.Logger
	now       func() time.Time
}

func NewS3Store(ctx context.Context, cfg S3Config, logger logging.Logger) (*S3Store, error) {
	awsCfg, err := loadDefaultAWSConfig(ctx,
		config.WithRegion(cfg.Region),
		config.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(cfg.AccessKey, cfg.SecretKey, "")),
	)
	if err != nil {
		return nil, fmt.Errorf("load aws config: %w", err)
	}

	client := newS3ClientFromConfig(awsCfg, func(o *s3.Options) {
		if cfg.Endpoint != "" {
			o.BaseEndpoint = aws.String(cfg.Endpoint)
		}
		o.UsePathStyle = true
	})

	return &S3Store{
		client:    client,
		bucket:    cfg.Bucket,
		publicURL: strings.TrimRight(cfg.PublicURL, "/"),
		logger:    logger.With("module", "media"),
		now:       time.Now,
	}, nil
}

func (s *S3Store) Store(ctx context.Context, localPath string) (*UploadResult, error) {
	if localPath == "" {
		return nil, nil
	}
	defer filex.Discard(localPath)

	f, err := os.Open(localPath)
	if err != nil {
		return nil, fmt.Errorf("open upload: %w", err)
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return nil, fmt.Errorf("stat upload: %w", err)
	}

	format, err := DetectImage(f)
	if err != nil {
		return nil, err
	}
	if _, err := f.Seek(0, io.SeekStart); err != nil {
		return nil, fmt.Errorf("rewind upload: %w", err)
	}

	key := ObjectKey(s.now(), format.Ext)

	_, err = s.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:        aws.String(s.bucket),
		Key:           aws.String(key),
		Body:          f,
		ContentType:   aws.String(format.MIME),
		ContentLength: aws.Int64(info.Size()),
	})
	if err != nil {
		s.logger.Error(ctx, "upload failed", "key", key, "error", err)
		return nil, fmt.Errorf("put object: %w", err)
	}

	s.logger.Debug(ctx, "uploaded", "key", key, "bytes", info.Size())

	return &UploadResult{
		Key:         key,
		URL:         s.publicURL + "/" + key,
		ContentType: format.MIME,
		Size:        info.Size(),
	}, nil
}

// ObjectKey builds "avatars/YYYY/MM/DD/<uuid><ext>".
func ObjectKey(t time.Time, ext string) string {
	return fmt.Sprintf("avatars/%04d/%02d/%02d/%s%s", t.Year(), t.Month(), t.Day(), uuid.NewString(), ext)
}
