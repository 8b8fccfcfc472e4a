// Package history persists completed calculations.
//
// Every backend keeps entries newest-first and evicts the oldest once the
// limit (at most MaxEntries) is reached.
package history

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/cespare/xxhash/v2"
	"github.com/spf13/afero"

	"github.com/codefionn/tapcalc/internal/logger"
)

// MaxEntries is the hard cap on stored entries.
const MaxEntries = 100

// ErrClosed is returned by operations on a closed store.
var ErrClosed = errors.New("history store closed")

// Entry is one completed calculation.
type Entry struct {
	ID         string    `json:"id"`
	Expression string    `json:"expression"`
	Result     string    `json:"result"`
	Timestamp  time.Time `json:"timestamp"`
}

// Store is the history persistence contract.
type Store interface {
	Append(expression, result string) error
	// LoadAll returns the entries newest first.
	LoadAll() ([]Entry, error)
	Clear() error
	Close() error
}

// EntryID derives a stable identifier from an entry's content and time.
func EntryID(expression, result string, ts time.Time) string {
	h := xxhash.New()
	_, _ = h.WriteString(expression)
	_, _ = h.WriteString("\x00")
	_, _ = h.WriteString(result)
	_, _ = h.WriteString("\x00")
	_, _ = h.WriteString(strconv.FormatInt(ts.UnixNano(), 10))
	return fmt.Sprintf("%016x", h.Sum64())
}

// NowFunc returns the current time.
type NowFunc func() time.Time

type options struct {
	limit int
	now   NowFunc
	fs    afero.Fs
	log   *logger.Logger
}

// Option configures a store.
type Option func(*options)

// WithLimit caps the number of stored entries. Values outside 1..MaxEntries
// are clamped.
func WithLimit(n int) Option {
	return func(o *options) { o.limit = n }
}

// WithNowFunc sets the clock used for entry timestamps.
func WithNowFunc(now NowFunc) Option {
	return func(o *options) { o.now = now }
}

// WithFs sets the filesystem of the file backend.
func WithFs(fs afero.Fs) Option {
	return func(o *options) { o.fs = fs }
}

// WithLogger sets the store logger.
func WithLogger(l *logger.Logger) Option {
	return func(o *options) { o.log = l }
}

func buildOptions(opts []Option) options {
	o := options{
		limit: MaxEntries,
		now:   time.Now,
	}
	for _, opt := range opts {
		opt(&o)
	}
	o.limit = clampLimit(o.limit)
	if o.fs == nil {
		o.fs = afero.NewOsFs()
	}
	if o.log == nil {
		o.log = logger.Global().WithPrefix("history")
	}
	return o
}

func clampLimit(n int) int {
	switch {
	case n < 1:
		return 1
	case n > MaxEntries:
		return MaxEntries
	}
	return n
}

func (o options) newEntry(expression, result string) Entry {
	ts := o.now()
	return Entry{
		ID:         EntryID(expression, result, ts),
		Expression: expression,
		Result:     result,
		Timestamp:  ts,
	}
}

// Backend names accepted by Open.
const (
	BackendSQLite = "sqlite"
	BackendBolt   = "bolt"
	BackendFile   = "file"
	BackendMemory = "memory"
)

// Open creates a store for the named backend. path is ignored by the
// memory backend.
func Open(backend, path string, opts ...Option) (Store, error) {
	switch strings.ToLower(backend) {
	case BackendSQLite, "":
		return OpenSQLite(path, opts...)
	case BackendBolt, "bbolt":
		return OpenBolt(path, opts...)
	case BackendFile, "json":
		return OpenFile(path, opts...)
	case BackendMemory:
		return NewMemory(opts...), nil
	}
	return nil, fmt.Errorf("unknown history backend %q", backend)
}
