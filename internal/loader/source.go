package loader

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"strings"
	"time"
)

// Source yields the raw snapshot document
type Source interface {
	Fetch(ctx context.Context) (io.ReadCloser, error)
	String() string
}

// SourceOptions configures the transports behind NewSource
type SourceOptions struct {
	HTTPClient  *http.Client
	HTTPTimeout time.Duration
	S3Region    string
	S3Endpoint  string
}

// NewSource picks a Source from the URI scheme: http(s)://, s3://bucket/key,
// file:// or a plain path.
func NewSource(ctx context.Context, uri string, opts SourceOptions) (Source, error) {
	if uri == "" {
		return nil, fmt.Errorf("snapshot source is empty")
	}
	u, err := url.Parse(uri)
	if err != nil || u.Scheme == "" || len(u.Scheme) == 1 {
		// bare paths, including Windows drive letters
		return NewFileSource(uri), nil
	}

	switch strings.ToLower(u.Scheme) {
	case "http", "https":
		return NewHTTPSource(uri, opts.HTTPClient, opts.HTTPTimeout), nil
	case "s3":
		return NewS3Source(ctx, u.Host, strings.TrimPrefix(u.Path, "/"), opts.S3Region, opts.S3Endpoint)
	case "file":
		path := u.Path
		if u.Host != "" {
			path = u.Host + u.Path
		}
		return NewFileSource(path), nil
	default:
		return nil, fmt.Errorf("unsupported snapshot source scheme %q", u.Scheme)
	}
}

// FileSource reads the snapshot from the local filesystem
type FileSource struct {
	path string
}

// NewFileSource creates a FileSource for path
func NewFileSource(path string) *FileSource {
	return &FileSource{path: path}
}

// Fetch opens the file
func (s *FileSource) Fetch(ctx context.Context) (io.ReadCloser, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return os.Open(s.path)
}

func (s *FileSource) String() string {
	return s.path
}
