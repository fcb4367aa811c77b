package routesrc

import (
	"context"
	stderrors "errors"
	"io"
	"os"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"

	"github.com/vango-dev/outlet/internal/errors"
	"github.com/vango-dev/outlet/pkg/router"
)

// Source yields a route config tree.
type Source interface {
	Load(ctx context.Context) ([]*router.RouteConfig, error)
	String() string
}

// File reads routes from the local filesystem.
type File struct {
	Path string
}

// Load implements Source.
func (f File) Load(ctx context.Context) ([]*router.RouteConfig, error) {
	format, err := FormatOf(f.Path)
	if err != nil {
		return nil, err
	}
	data, err := os.ReadFile(f.Path)
	if err != nil {
		return nil, errors.New("R210").WithSource(f.Path).Wrap(err)
	}
	routes, err := Parse(data, format)
	if err != nil {
		return nil, withSource(err, f.Path)
	}
	return routes, nil
}

func (f File) String() string { return f.Path }

// GetObjectAPI is the part of *s3.Client the S3 source uses.
type GetObjectAPI interface {
	GetObject(ctx context.Context, in *s3.GetObjectInput, optFns ...func(*s3.Options)) (*s3.GetObjectOutput, error)
}

// S3 reads routes from an S3 object.
type S3 struct {
	Client GetObjectAPI
	Bucket string
	Key    string
}

// Load implements Source.
func (s S3) Load(ctx context.Context) ([]*router.RouteConfig, error) {
	format, err := FormatOf(s.Key)
	if err != nil {
		return nil, err
	}
	out, err := s.Client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(s.Bucket),
		Key:    aws.String(s.Key),
	})
	if err != nil {
		return nil, errors.New("R210").WithSource(s.String()).Wrap(err)
	}
	defer out.Body.Close()

	data, err := io.ReadAll(out.Body)
	if err != nil {
		return nil, errors.New("R210").WithSource(s.String()).Wrap(err)
	}
	routes, err := Parse(data, format)
	if err != nil {
		return nil, withSource(err, s.String())
	}
	return routes, nil
}

func (s S3) String() string { return "s3://" + s.Bucket + "/" + s.Key }

// S3Options configures the client Open builds for s3:// URIs.
type S3Options struct {
	Region       string
	Endpoint     string
	UsePathStyle bool
}

// NewS3Client builds an S3 client from static options. Credentials come
// from AWS_ACCESS_KEY_ID, AWS_SECRET_ACCESS_KEY and AWS_SESSION_TOKEN;
// without them requests are sent anonymously, which suits public buckets.
func NewS3Client(o S3Options) *s3.Client {
	region := o.Region
	if region == "" {
		region = os.Getenv("AWS_REGION")
	}
	if region == "" {
		region = "us-east-1"
	}

	opts := s3.Options{
		Region:       region,
		UsePathStyle: o.UsePathStyle,
	}
	if o.Endpoint != "" {
		opts.BaseEndpoint = aws.String(o.Endpoint)
	}
	if id, secret := os.Getenv("AWS_ACCESS_KEY_ID"), os.Getenv("AWS_SECRET_ACCESS_KEY"); id != "" && secret != "" {
		creds := aws.Credentials{
			AccessKeyID:     id,
			SecretAccessKey: secret,
			SessionToken:    os.Getenv("AWS_SESSION_TOKEN"),
			Source:          "Environment",
		}
		opts.Credentials = aws.NewCredentialsCache(aws.CredentialsProviderFunc(
			func(context.Context) (aws.Credentials, error) { return creds, nil },
		))
	}
	return s3.New(opts)
}

// Option configures Open.
type Option func(*openOptions)

type openOptions struct {
	client GetObjectAPI
	s3     S3Options
}

// WithS3Client sets the client for s3:// sources.
func WithS3Client(c GetObjectAPI) Option {
	return func(o *openOptions) { o.client = c }
}

// WithS3Options sets the options used to build an S3 client when none is
// given.
func WithS3Options(s S3Options) Option {
	return func(o *openOptions) { o.s3 = s }
}

// Open resolves a source URI.
func Open(uri string, opts ...Option) (Source, error) {
	var o openOptions
	for _, opt := range opts {
		opt(&o)
	}

	if rest, ok := strings.CutPrefix(uri, "s3://"); ok {
		bucket, key, found := strings.Cut(rest, "/")
		if !found || bucket == "" || key == "" {
			return nil, errors.New("R211").WithDetail("s3 URIs look like s3://bucket/key").WithSource(uri)
		}
		if _, err := FormatOf(key); err != nil {
			return nil, err
		}
		client := o.client
		if client == nil {
			client = NewS3Client(o.s3)
		}
		return S3{Client: client, Bucket: bucket, Key: key}, nil
	}

	if strings.Contains(uri, "://") {
		return nil, errors.New("R211").WithSource(uri)
	}
	if _, err := FormatOf(uri); err != nil {
		return nil, err
	}
	return File{Path: uri}, nil
}

// Load opens uri and loads it.
func Load(ctx context.Context, uri string, opts ...Option) ([]*router.RouteConfig, error) {
	src, err := Open(uri, opts...)
	if err != nil {
		return nil, err
	}
	return src.Load(ctx)
}

func withSource(err error, source string) error {
	var coded *errors.Error
	if stderrors.As(err, &coded) && coded.Source == "" {
		coded.Source = source
	}
	return err
}
