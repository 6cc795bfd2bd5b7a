package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/awserr"
	"github.com/aws/aws-sdk-go/aws/credentials"
	"github.com/aws/aws-sdk-go/aws/session"
	"github.com/aws/aws-sdk-go/service/s3"
	"github.com/aws/aws-sdk-go/service/s3/s3iface"

	"pictor/internal/config"
	"pictor/internal/imaging"
	"pictor/internal/services"
)

const (
	metaWidth  = "width"
	metaHeight = "height"
)

// Client is the derivative store gateway: uploads, listings and
// dimension lookups against a single S3 bucket.
type Client struct {
	bucket string
	s3     s3iface.S3API
}

// New builds a client from storage configuration.
func New(cfg config.Storage) (*Client, error) {
	if cfg.Bucket == "" {
		return nil, services.Wrap(services.ErrConfiguration, "storage", "new", "bucket is not configured", nil)
	}
	if cfg.Region == "" {
		return nil, services.Wrap(services.ErrConfiguration, "storage", "new", "region is not configured", nil)
	}

	awsCfg := aws.NewConfig().WithRegion(cfg.Region)
	if cfg.AccessKeyID != "" {
		awsCfg = awsCfg.WithCredentials(
			credentials.NewStaticCredentials(cfg.AccessKeyID, cfg.SecretAccessKey, ""))
	}
	if cfg.Endpoint != "" {
		// Non-AWS endpoints (minio, localstack) need path-style addressing.
		awsCfg = awsCfg.WithEndpoint(cfg.Endpoint).WithS3ForcePathStyle(true)
	}

	sess, err := session.NewSession(awsCfg)
	if err != nil {
		return nil, services.Wrap(services.ErrConfiguration, "storage", "new", "create aws session", err)
	}
	return &Client{bucket: cfg.Bucket, s3: s3.New(sess)}, nil
}

// NewWithAPI wires an explicit S3 API, used by tests.
func NewWithAPI(bucket string, api s3iface.S3API) *Client {
	return &Client{bucket: bucket, s3: api}
}

// Upload stores a local file under key with the given content type and
// object metadata.
func (c *Client) Upload(ctx context.Context, localPath, key, contentType string, metadata map[string]string) error {
	f, err := os.Open(localPath)
	if err != nil {
		return services.Wrap(services.ErrValidation, "storage", "upload", localPath, err)
	}
	defer f.Close()

	input := &s3.PutObjectInput{
		Bucket: aws.String(c.bucket),
		Key:    aws.String(key),
		Body:   f,
	}
	if contentType != "" {
		input.ContentType = aws.String(contentType)
	}
	if len(metadata) > 0 {
		input.Metadata = make(map[string]*string, len(metadata))
		for k, v := range metadata {
			input.Metadata[k] = aws.String(v)
		}
	}

	if _, err := c.s3.PutObjectWithContext(ctx, input); err != nil {
		return services.Wrap(services.ErrExternalTool, "storage", "upload",
			fmt.Sprintf("put %s/%s", c.bucket, key), err)
	}
	return nil
}

// List returns the object keys under prefix in lexical order.
func (c *Client) List(ctx context.Context, prefix string) ([]string, error) {
	var keys []string
	input := &s3.ListObjectsV2Input{
		Bucket: aws.String(c.bucket),
		Prefix: aws.String(prefix),
	}
	err := c.s3.ListObjectsV2PagesWithContext(ctx, input,
		func(page *s3.ListObjectsV2Output, _ bool) bool {
			for _, obj := range page.Contents {
				keys = append(keys, aws.StringValue(obj.Key))
			}
			return true
		})
	if err != nil {
		return nil, services.Wrap(services.ErrExternalTool, "storage", "list",
			fmt.Sprintf("list %s/%s", c.bucket, prefix), err)
	}
	sort.Strings(keys)
	return keys, nil
}

// Exists reports whether an object is already stored under key.
func (c *Client) Exists(ctx context.Context, key string) (bool, error) {
	_, err := c.s3.HeadObjectWithContext(ctx, &s3.HeadObjectInput{
		Bucket: aws.String(c.bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		if isNotFound(err) {
			return false, nil
		}
		return false, services.Wrap(services.ErrExternalTool, "storage", "exists",
			fmt.Sprintf("head %s/%s", c.bucket, key), err)
	}
	return true, nil
}

// Download fetches an object into localPath.
func (c *Client) Download(ctx context.Context, key, localPath string) error {
	out, err := c.s3.GetObjectWithContext(ctx, &s3.GetObjectInput{
		Bucket: aws.String(c.bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		if isNotFound(err) {
			return services.Wrap(services.ErrNotFound, "storage", "download",
				fmt.Sprintf("no object %s/%s", c.bucket, key), nil)
		}
		return services.Wrap(services.ErrExternalTool, "storage", "download",
			fmt.Sprintf("get %s/%s", c.bucket, key), err)
	}
	defer out.Body.Close()

	f, err := os.Create(localPath)
	if err != nil {
		return services.Wrap(services.ErrValidation, "storage", "download", localPath, err)
	}
	defer f.Close()

	if _, err := io.Copy(f, out.Body); err != nil {
		os.Remove(localPath)
		return services.Wrap(services.ErrExternalTool, "storage", "download",
			fmt.Sprintf("get %s/%s", c.bucket, key), err)
	}
	return nil
}

// Dimensions returns the pixel width and height of a stored JP2. The
// object's width/height metadata is authoritative when present;
// otherwise the object is downloaded, measured, and its metadata
// rewritten in place so the next call is a header read.
func (c *Client) Dimensions(ctx context.Context, key string) (int, int, error) {
	head, err := c.s3.HeadObjectWithContext(ctx, &s3.HeadObjectInput{
		Bucket: aws.String(c.bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		if isNotFound(err) {
			return 0, 0, services.Wrap(services.ErrNotFound, "storage", "dimensions",
				fmt.Sprintf("no object %s/%s", c.bucket, key), nil)
		}
		return 0, 0, services.Wrap(services.ErrExternalTool, "storage", "dimensions",
			fmt.Sprintf("head %s/%s", c.bucket, key), err)
	}

	if w, h, ok := dimensionsFromMetadata(head.Metadata); ok {
		return w, h, nil
	}

	tmp, err := os.CreateTemp("", "pictor-dims-*"+filepath.Ext(key))
	if err != nil {
		return 0, 0, services.Wrap(services.ErrExternalTool, "storage", "dimensions", "create temp file", err)
	}
	tmpPath := tmp.Name()
	tmp.Close()
	defer os.Remove(tmpPath)

	if err := c.Download(ctx, key, tmpPath); err != nil {
		return 0, 0, err
	}
	w, h, err := imaging.JP2Dimensions(tmpPath)
	if err != nil {
		return 0, 0, services.Wrap(services.ErrValidation, "storage", "dimensions", key, err)
	}

	if err := c.writeBackDimensions(ctx, key, head, w, h); err != nil {
		return 0, 0, err
	}
	return w, h, nil
}

// writeBackDimensions replaces the object's metadata with a copy that
// includes the measured dimensions.
func (c *Client) writeBackDimensions(ctx context.Context, key string, head *s3.HeadObjectOutput, w, h int) error {
	metadata := make(map[string]*string, len(head.Metadata)+2)
	for k, v := range head.Metadata {
		metadata[k] = v
	}
	metadata[metaWidth] = aws.String(strconv.Itoa(w))
	metadata[metaHeight] = aws.String(strconv.Itoa(h))

	input := &s3.CopyObjectInput{
		Bucket:            aws.String(c.bucket),
		Key:               aws.String(key),
		CopySource:        aws.String(c.bucket + "/" + key),
		Metadata:          metadata,
		MetadataDirective: aws.String(s3.MetadataDirectiveReplace),
	}
	if head.ContentType != nil {
		input.ContentType = head.ContentType
	}
	if _, err := c.s3.CopyObjectWithContext(ctx, input); err != nil {
		return services.Wrap(services.ErrExternalTool, "storage", "dimensions",
			fmt.Sprintf("cache dimensions on %s/%s", c.bucket, key), err)
	}
	return nil
}

// dimensionsFromMetadata pulls width/height out of object metadata,
// tolerating the SDK's header-key canonicalization.
func dimensionsFromMetadata(metadata map[string]*string) (int, int, bool) {
	lookup := func(name string) (int, bool) {
		for k, v := range metadata {
			if strings.EqualFold(k, name) && v != nil {
				n, err := strconv.Atoi(*v)
				if err != nil || n <= 0 {
					return 0, false
				}
				return n, true
			}
		}
		return 0, false
	}
	w, okW := lookup(metaWidth)
	h, okH := lookup(metaHeight)
	return w, h, okW && okH
}

func isNotFound(err error) bool {
	var aerr awserr.Error
	if errors.As(err, &aerr) {
		switch aerr.Code() {
		case s3.ErrCodeNoSuchKey, "NotFound":
			return true
		}
	}
	return false
}
