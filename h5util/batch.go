package h5util

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/google/uuid"
)

// batch stages the outputs of one operation. Every destination is first
// written to a hidden file in its own directory; commit renames them all
// into place, abort removes them.
type batch struct {
	log    *slog.Logger
	staged []staged
}

type staged struct {
	tmp string
	dst string
}

func newBatch(log *slog.Logger) *batch {
	return &batch{log: log}
}

// stage returns a fresh staging path for dst.
func (b *batch) stage(dst string) string {
	dir, base := filepath.Split(dst)
	tmp := filepath.Join(dir, fmt.Sprintf(".%s.%s.tmp", base, uuid.NewString()))
	b.staged = append(b.staged, staged{tmp: tmp, dst: dst})
	return tmp
}

// stageCopy stages dst with a copy of its current contents, or with no
// file at all if dst does not exist yet.
func (b *batch) stageCopy(dst string) (string, error) {
	tmp := b.stage(dst)
	src, err := os.Open(dst)
	if errors.Is(err, os.ErrNotExist) {
		return tmp, nil
	}
	if err != nil {
		return "", err
	}
	defer src.Close()

	out, err := os.OpenFile(tmp, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
	if err != nil {
		return "", err
	}
	if _, err := io.Copy(out, src); err != nil {
		out.Close()
		return "", fmt.Errorf("copying %s: %w", dst, err)
	}
	return tmp, out.Close()
}

// commit renames staged files over their destinations in staging order.
func (b *batch) commit() error {
	for i, s := range b.staged {
		if _, err := os.Stat(s.tmp); errors.Is(err, os.ErrNotExist) {
			continue
		}
		if err := os.Rename(s.tmp, s.dst); err != nil {
			b.staged = b.staged[i:]
			b.abort()
			return fmt.Errorf("moving %s into place: %w", s.dst, err)
		}
		b.log.Debug("wrote output", "file", s.dst)
	}
	b.staged = nil
	return nil
}

// abort removes every staged file.
func (b *batch) abort() {
	for _, s := range b.staged {
		if err := os.Remove(s.tmp); err != nil && !errors.Is(err, os.ErrNotExist) {
			b.log.Warn("removing staged file", "file", s.tmp, "err", err)
		}
	}
	b.staged = nil
}

// finish commits the batch when err is nil and aborts it otherwise.
func (b *batch) finish(err error) error {
	if err != nil {
		b.abort()
		return err
	}
	return b.commit()
}
