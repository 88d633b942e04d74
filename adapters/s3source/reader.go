// Package s3source reads CSV and XLSX dataset files from S3 compatible object
// storage. Refs look like "s3://bucket/path/risk_data.csv".
package s3source

import (
	"context"
	"errors"
	"fmt"
	"path"
	"strings"
	"time"

	"esgdash/adapters/tabular"
	"esgdash/domain/table"
	"esgdash/internal"
	apperrors "esgdash/internal/errors"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
)

const scheme = "s3://"

// Config selects the region and an optional custom endpoint (MinIO etc.)
type Config struct {
	Region    string
	Endpoint  string
	PathStyle bool
}

// ObjectGetter is the subset of the S3 client the reader needs
type ObjectGetter interface {
	GetObject(ctx context.Context, in *s3.GetObjectInput, optFns ...func(*s3.Options)) (*s3.GetObjectOutput, error)
}

// Reader implements ports.SourceReader for s3:// refs
type Reader struct {
	client ObjectGetter
	logger *internal.Logger
}

// NewClient builds an S3 client from the default AWS credential chain
func NewClient(ctx context.Context, cfg Config) (*s3.Client, error) {
	region := cfg.Region
	if region == "" {
		region = "us-east-1"
	}
	awsCfg, err := config.LoadDefaultConfig(ctx, config.WithRegion(region))
	if err != nil {
		return nil, apperrors.Wrap(err, "failed to load AWS config")
	}
	return s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		if cfg.PathStyle {
			o.UsePathStyle = true
		}
		if cfg.Endpoint != "" {
			o.BaseEndpoint = aws.String(cfg.Endpoint)
		}
	}), nil
}

// NewReader creates a reader over client
func NewReader(client ObjectGetter, logger *internal.Logger) *Reader {
	if logger == nil {
		logger = internal.DefaultLogger
	}
	return &Reader{client: client, logger: logger}
}

// Accepts takes s3:// refs
func (r *Reader) Accepts(ref string) bool {
	return strings.HasPrefix(ref, scheme)
}

// Read downloads the object and parses it by extension. XLSX refs may name a
// sheet with a "#Sheet" suffix.
func (r *Reader) Read(ctx context.Context, ref string) (*table.Table, error) {
	bucket, key, sheet, err := ParseRef(ref)
	if err != nil {
		return nil, err
	}

	start := time.Now()
	out, err := r.client.GetObject(ctx, &s3.GetObjectInput{Bucket: &bucket, Key: &key})
	if err != nil {
		var noKey *types.NoSuchKey
		var noBucket *types.NoSuchBucket
		if errors.As(err, &noKey) || errors.As(err, &noBucket) {
			return nil, apperrors.SourceMissing(ref, err)
		}
		return nil, apperrors.ExternalServiceError("s3", err)
	}
	defer out.Body.Close()

	name := tabular.TableName(key)
	var t *table.Table
	if strings.EqualFold(path.Ext(key), ".xlsx") {
		t, err = tabular.ParseXLSX(out.Body, name, sheet)
	} else {
		t, err = tabular.ParseCSV(out.Body, name)
	}
	if err != nil {
		return nil, apperrors.SourceMalformed(ref, err)
	}

	r.logger.Debug("[S3Reader] %s read in %.2fms (%d rows)", ref, float64(time.Since(start).Nanoseconds())/1e6, t.Len())
	return t, nil
}

// ParseRef splits "s3://bucket/key#Sheet" into its parts
func ParseRef(ref string) (bucket, key, sheet string, err error) {
	rest := strings.TrimPrefix(ref, scheme)
	if rest == ref {
		return "", "", "", apperrors.InvalidInput(fmt.Sprintf("not an s3 ref: %q", ref))
	}
	if i := strings.LastIndex(rest, "#"); i > 0 {
		rest, sheet = rest[:i], rest[i+1:]
	}
	bucket, key, ok := strings.Cut(rest, "/")
	if !ok || bucket == "" || key == "" {
		return "", "", "", apperrors.InvalidInput(fmt.Sprintf("s3 ref %q needs a bucket and a key", ref))
	}
	return bucket, key, sheet, nil
}

