package storage

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/feature/s3/manager"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

const (
	// FolderVideos is the S3 prefix for video objects.
	FolderVideos = "videos"
	// FolderThumbnails is the S3 prefix for thumbnail images.
	FolderThumbnails = "thumbnails"
)

// MediaKind selects validation rules and the key prefix for an upload.
type MediaKind string

const (
	KindVideo     MediaKind = "video"
	KindThumbnail MediaKind = "thumbnail"
)

// ErrUnsupportedMedia is returned when the file extension does not match the media kind.
var ErrUnsupportedMedia = errors.New("unsupported media type")

var (
	videoExtensions = map[string]string{
		".mp4":  "video/mp4",
		".mov":  "video/quicktime",
		".webm": "video/webm",
		".mkv":  "video/x-matroska",
	}
	imageExtensions = map[string]string{
		".jpg":  "image/jpeg",
		".jpeg": "image/jpeg",
		".png":  "image/png",
		".webp": "image/webp",
		".gif":  "image/gif",
	}
)

// MediaObject describes a durably stored upload.
type MediaObject struct {
	URL             string  `json:"url"`
	Key             string  `json:"key"`
	ContentType     string  `json:"content_type"`
	Size            int64   `json:"size"`
	DurationSeconds float64 `json:"duration"`
}

// DurationProber extracts the playback duration of a local media file.
type DurationProber interface {
	Duration(ctx context.Context, localPath string) (float64, error)
}

// S3Config holds S3 client configuration.
type S3Config struct {
	Region          string
	AccessKeyID     string
	SecretAccessKey string
	MediaBucket     string
}

// S3 is the media store: it uploads local files to the media bucket and reports their metadata.
type S3 struct {
	client   *s3.Client
	uploader *manager.Uploader
	prober   DurationProber
	cfg      S3Config
	logger   *zap.Logger
}

// NewS3 creates an S3 client using credentials from config or the default AWS credential chain.
func NewS3(ctx context.Context, cfg S3Config, prober DurationProber, logger *zap.Logger) (*S3, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.MediaBucket == "" {
		return nil, errors.New("media bucket not configured")
	}
	opts := []func(*config.LoadOptions) error{
		config.WithRegion(cfg.Region),
	}
	if cfg.AccessKeyID != "" && cfg.SecretAccessKey != "" {
		opts = append(opts, config.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(
			cfg.AccessKeyID, cfg.SecretAccessKey, "",
		)))
		logger.Info("S3 client using static credentials", zap.String("region", cfg.Region), zap.String("bucket", cfg.MediaBucket))
	} else {
		logger.Warn("S3 client using default credential chain (AWS_ACCESS_KEY_ID/AWS_SECRET_ACCESS_KEY not set)")
	}
	awsCfg, err := config.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("load aws config: %w", err)
	}
	client := s3.NewFromConfig(awsCfg)
	uploader := manager.NewUploader(client, func(u *manager.Uploader) {
		u.PartSize = 8 * 1024 * 1024
	})
	return &S3{
		client:   client,
		uploader: uploader,
		prober:   prober,
		cfg:      cfg,
		logger:   logger,
	}, nil
}

// ContentTypeFor returns the MIME type for filename if it is allowed for kind.
func ContentTypeFor(kind MediaKind, filename string) (string, error) {
	ext := strings.ToLower(filepath.Ext(filename))
	table := imageExtensions
	if kind == KindVideo {
		table = videoExtensions
	}
	ct, ok := table[ext]
	if !ok {
		return "", fmt.Errorf("%w: %s %q", ErrUnsupportedMedia, kind, ext)
	}
	return ct, nil
}

// ObjectKey returns a fresh object key: videos/{uuid}.mp4 or thumbnails/{uuid}.jpg.
func ObjectKey(kind MediaKind, filename string) string {
	folder := FolderThumbnails
	if kind == KindVideo {
		folder = FolderVideos
	}
	return path.Join(folder, uuid.New().String()+strings.ToLower(filepath.Ext(filename)))
}

// PublicObjectURL returns the public URL for an object in the media bucket.
func (s *S3) PublicObjectURL(key string) string {
	return fmt.Sprintf("https://%s.s3.%s.amazonaws.com/%s", s.cfg.MediaBucket, s.cfg.Region, key)
}

// Store uploads the file at localPath and returns its durable URL. Videos are probed for
// their duration before the upload starts. Nothing is retried here.
func (s *S3) Store(ctx context.Context, localPath string, kind MediaKind) (*MediaObject, error) {
	contentType, err := ContentTypeFor(kind, localPath)
	if err != nil {
		return nil, err
	}
	f, err := os.Open(localPath)
	if err != nil {
		return nil, fmt.Errorf("open upload: %w", err)
	}
	defer f.Close()
	info, err := f.Stat()
	if err != nil {
		return nil, fmt.Errorf("stat upload: %w", err)
	}

	obj := &MediaObject{
		Key:         ObjectKey(kind, localPath),
		ContentType: contentType,
		Size:        info.Size(),
	}
	if kind == KindVideo && s.prober != nil {
		obj.DurationSeconds, err = s.prober.Duration(ctx, localPath)
		if err != nil {
			return nil, fmt.Errorf("probe duration: %w", err)
		}
	}

	size := info.Size()
	_, err = s.uploader.Upload(ctx, &s3.PutObjectInput{
		Bucket:        aws.String(s.cfg.MediaBucket),
		Key:           aws.String(obj.Key),
		Body:          f,
		ContentType:   aws.String(contentType),
		ContentLength: &size,
		ACL:           types.ObjectCannedACLPublicRead,
	})
	if err != nil {
		return nil, fmt.Errorf("upload: %w", err)
	}
	obj.URL = s.PublicObjectURL(obj.Key)
	s.logger.Info("media stored", zap.String("key", obj.Key), zap.String("kind", string(kind)), zap.Int64("size", obj.Size))
	return obj, nil
}

// DeleteObject removes an object from the media bucket. Missing objects are not an error.
func (s *S3) DeleteObject(ctx context.Context, key string) error {
	_, err := s.client.DeleteObject(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(s.cfg.MediaBucket),
		Key:    aws.String(key),
	})
	if err != nil {
		return fmt.Errorf("delete object %s: %w", key, err)
	}
	return nil
}
