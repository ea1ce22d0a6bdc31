// Package loader fetches the dashboard snapshot and turns it into a validated
// dataset. A load either yields a complete dataset or a *LoadError.
package loader

import (
	"context"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"golang.org/x/crypto/blake2b"
	"golang.org/x/sync/singleflight"

	"shortwatch/pkg/contracts/domain"
)

const (
	// DefaultMaxBytes caps the snapshot size
	DefaultMaxBytes = 32 << 20
	// DefaultTimeout bounds a shared load independently of its callers
	DefaultTimeout = 2 * time.Minute
)

// Snapshot is a successfully loaded dataset plus where and when it came from
type Snapshot struct {
	Dataset     *domain.Dataset
	Fingerprint string
	Source      string
	LoadedAt    time.Time
	Size        int
}

// Options tunes a Loader
type Options struct {
	// SkipSchema disables the JSON schema check. Struct validation still runs.
	SkipSchema bool
	MaxBytes   int64
	Timeout    time.Duration
	Now        func() time.Time
}

// Loader turns a Source into Snapshots. Concurrent Load calls share one fetch.
type Loader struct {
	source   Source
	validate *validator.Validate
	logger   *slog.Logger
	opts     Options
	group    singleflight.Group
}

// New creates a Loader for src
func New(src Source, logger *slog.Logger, opts Options) *Loader {
	if logger == nil {
		logger = slog.Default()
	}
	if opts.MaxBytes <= 0 {
		opts.MaxBytes = DefaultMaxBytes
	}
	if opts.Timeout <= 0 {
		opts.Timeout = DefaultTimeout
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	return &Loader{
		source:   src,
		validate: validator.New(validator.WithRequiredStructEnabled()),
		logger:   logger.With(slog.String("component", "loader")),
		opts:     opts,
	}
}

// Source returns the configured source
func (l *Loader) Source() Source {
	return l.source
}

// Load fetches, checks and decodes the snapshot. Every error it returns is a
// *LoadError and matches ErrLoadFailure.
//
// The shared load is detached from the caller that started it, so a
// cancelled caller returns early without failing the others.
func (l *Loader) Load(ctx context.Context) (*Snapshot, error) {
	ch := l.group.DoChan("load", func() (interface{}, error) {
		loadCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), l.opts.Timeout)
		defer cancel()
		return l.load(loadCtx)
	})

	select {
	case <-ctx.Done():
		return nil, newLoadError(OpFetch, l.source, ctx.Err())
	case res := <-ch:
		if res.Shared {
			l.logger.Debug("Snapshot load shared with concurrent caller")
		}
		if res.Err != nil {
			return nil, res.Err
		}
		return res.Val.(*Snapshot), nil
	}
}

func (l *Loader) load(ctx context.Context) (*Snapshot, error) {
	start := l.opts.Now()
	l.logger.Info("Loading dashboard snapshot", slog.String("source", l.source.String()))

	raw, err := l.fetch(ctx)
	if err != nil {
		return nil, err
	}

	if !l.opts.SkipSchema {
		if err := checkSchema(raw); err != nil {
			return nil, newLoadError(OpSchema, l.source, err)
		}
	}

	var ds domain.Dataset
	if err := json.Unmarshal(raw, &ds); err != nil {
		return nil, newLoadError(OpDecode, l.source, err)
	}

	if err := l.validate.Struct(&ds); err != nil {
		return nil, newLoadError(OpValidate, l.source, describeValidation(err))
	}

	sum := blake2b.Sum256(raw)
	snap := &Snapshot{
		Dataset:     &ds,
		Fingerprint: hex.EncodeToString(sum[:]),
		Source:      l.source.String(),
		LoadedAt:    l.opts.Now(),
		Size:        len(raw),
	}

	l.logger.Info("Dashboard snapshot loaded",
		slog.String("source", snap.Source),
		slog.Int("items", len(ds.Items)),
		slog.Int("bytes", snap.Size),
		slog.String("fingerprint", snap.Fingerprint[:12]),
		slog.Duration("duration", snap.LoadedAt.Sub(start)))

	return snap, nil
}

func (l *Loader) fetch(ctx context.Context) ([]byte, error) {
	rc, err := l.source.Fetch(ctx)
	if err != nil {
		return nil, newLoadError(OpFetch, l.source, err)
	}
	defer rc.Close()

	raw, err := io.ReadAll(io.LimitReader(rc, l.opts.MaxBytes+1))
	if err != nil {
		return nil, newLoadError(OpRead, l.source, err)
	}
	if int64(len(raw)) > l.opts.MaxBytes {
		return nil, newLoadError(OpRead, l.source, fmt.Errorf("snapshot exceeds %d bytes", l.opts.MaxBytes))
	}
	return raw, nil
}

// describeValidation flattens validator errors into one readable error
func describeValidation(err error) error {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return err
	}
	msgs := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		field := strings.TrimPrefix(fe.Namespace(), "Dataset.")
		if fe.Param() != "" {
			msgs = append(msgs, fmt.Sprintf("%s failed %s=%s", field, fe.Tag(), fe.Param()))
		} else {
			msgs = append(msgs, fmt.Sprintf("%s failed %s", field, fe.Tag()))
		}
	}
	return fmt.Errorf("invalid dataset: %s", strings.Join(msgs, "; "))
}
