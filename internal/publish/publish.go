// Package publish uploads build outputs to S3-compatible object storage.
package publish

import (
	"context"
	"fmt"
	"mime"
	"path"
	"path/filepath"
	"strings"
	"sync"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
	"github.com/specialistvlad/shadergrid/internal/ctxlog"
	"github.com/specialistvlad/shadergrid/internal/graph"
	"github.com/specialistvlad/shadergrid/internal/project"
	"golang.org/x/sync/errgroup"
)

const defaultRegion = "us-east-1"

// ArtifactPrefix is the key segment artifacts are stored under.
const ArtifactPrefix = "shaders"

// ObjectStore is the subset of the minio client the publisher needs.
type ObjectStore interface {
	BucketExists(ctx context.Context, bucketName string) (bool, error)
	MakeBucket(ctx context.Context, bucketName string, opts minio.MakeBucketOptions) error
	FPutObject(ctx context.Context, bucketName, objectName, filePath string, opts minio.PutObjectOptions) (minio.UploadInfo, error)
}

// Object is one local file and the key it is stored under.
type Object struct {
	Path string
	Key  string
}

// Publisher uploads the outputs of a graph.
type Publisher struct {
	client ObjectStore
	cfg    project.PublishConfig

	bucketMu    sync.Mutex
	bucketReady bool
}

// New creates a publisher backed by a minio client for cfg.
func New(cfg *project.PublishConfig) (*Publisher, error) {
	endpoint := strings.TrimSpace(cfg.Endpoint)
	if endpoint == "" {
		return nil, fmt.Errorf("s3 endpoint is required")
	}
	if strings.TrimSpace(cfg.Bucket) == "" {
		return nil, fmt.Errorf("s3 bucket is required")
	}
	region := strings.TrimSpace(cfg.Region)
	if region == "" {
		region = defaultRegion
	}

	client, err := minio.New(endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.AccessKey, cfg.SecretKey, ""),
		Secure: cfg.UseSSL,
		Region: region,
	})
	if err != nil {
		return nil, fmt.Errorf("init s3 client: %w", err)
	}

	c := *cfg
	c.Region = region
	return NewWithClient(client, &c), nil
}

// NewWithClient creates a publisher over an existing client.
func NewWithClient(client ObjectStore, cfg *project.PublishConfig) *Publisher {
	c := *cfg
	if c.Parallelism <= 0 {
		c.Parallelism = project.DefaultParallelism
	}
	return &Publisher{client: client, cfg: c}
}

// Objects lists what a publish of g uploads for the named project: the table
// header and source, then every artifact in graph order.
func (p *Publisher) Objects(name string, g *graph.Graph) []Object {
	root := path.Join(p.cfg.Prefix, name)
	var objs []Object
	for _, out := range g.Table().Outputs {
		objs = append(objs, Object{Path: out.Path, Key: path.Join(root, filepath.Base(out.Path))})
	}
	for _, a := range g.Artifacts() {
		objs = append(objs, Object{Path: a.Path, Key: path.Join(root, ArtifactPrefix, filepath.Base(a.Path))})
	}
	return objs
}

// ensureBucket creates the bucket if it is missing. Only success is
// remembered, so a transient failure is retried on the next call.
func (p *Publisher) ensureBucket(ctx context.Context) error {
	p.bucketMu.Lock()
	defer p.bucketMu.Unlock()
	if p.bucketReady {
		return nil
	}
	exists, err := p.client.BucketExists(ctx, p.cfg.Bucket)
	if err != nil {
		return err
	}
	if !exists {
		ctxlog.FromContext(ctx).Info("Creating bucket.", "bucket", p.cfg.Bucket)
		if err := p.client.MakeBucket(ctx, p.cfg.Bucket, minio.MakeBucketOptions{Region: p.cfg.Region}); err != nil {
			return err
		}
	}
	p.bucketReady = true
	return nil
}

// Publish uploads every object of g with bounded parallelism. The first
// failure cancels the remaining uploads.
func (p *Publisher) Publish(ctx context.Context, name string, g *graph.Graph) ([]Object, error) {
	logger := ctxlog.FromContext(ctx).With("bucket", p.cfg.Bucket, "project", name)

	if err := p.ensureBucket(ctx); err != nil {
		return nil, fmt.Errorf("ensure bucket %s: %w", p.cfg.Bucket, err)
	}

	objs := p.Objects(name, g)
	eg, egCtx := errgroup.WithContext(ctx)
	eg.SetLimit(p.cfg.Parallelism)

	for _, obj := range objs {
		eg.Go(func() error {
			info, err := p.client.FPutObject(egCtx, p.cfg.Bucket, obj.Key, obj.Path, minio.PutObjectOptions{
				ContentType: contentType(obj.Path),
			})
			if err != nil {
				return fmt.Errorf("upload %s to %s: %w", obj.Path, obj.Key, err)
			}
			logger.Debug("Uploaded object.", "key", obj.Key, "size", info.Size)
			return nil
		})
	}
	if err := eg.Wait(); err != nil {
		return nil, err
	}

	logger.Info("☁️ Published build outputs.", "objects", len(objs))
	return objs, nil
}

func contentType(p string) string {
	switch filepath.Ext(p) {
	case ".h", ".hpp":
		return "text/x-c-header"
	case ".cpp", ".cc":
		return "text/x-c++src"
	}
	if ct := mime.TypeByExtension(filepath.Ext(p)); ct != "" {
		return ct
	}
	return "application/octet-stream"
}
