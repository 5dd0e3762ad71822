package filesystem

import (
	"context"
	"io"
	"path/filepath"

	"github.com/marpio/gallery"
	"github.com/spf13/afero"
)

type fsBackend struct {
	fs afero.Fs
}

func New(fs afero.Fs) gallery.Storage {
	return &fsBackend{fs: fs}
}

func (b *fsBackend) NewReader(ctx context.Context, fileName string) (io.ReadCloser, error) {
	f, err := b.fs.Open(fileName)
	if err != nil {
		return nil, err
	}
	return f, nil
}

// NewWriter truncates fileName. Errors opening the file are reported by
// Write and Close of the returned writer.
func (b *fsBackend) NewWriter(ctx context.Context, fileName string) io.WriteCloser {
	if dir := filepath.Dir(fileName); dir != "." {
		if err := b.fs.MkdirAll(dir, 0755); err != nil {
			return errWriter{err}
		}
	}
	f, err := b.fs.Create(fileName)
	if err != nil {
		return errWriter{err}
	}
	return f
}

func (b *fsBackend) Delete(ctx context.Context, fileName string) error {
	if err := b.fs.Remove(fileName); err != nil {
		return err
	}
	return nil
}

func (b *fsBackend) Exists(ctx context.Context, fileName string) bool {
	e, err := afero.Exists(b.fs, fileName)
	if err != nil {
		// unknown state; let the read report the error
		return true
	}
	return e
}

type errWriter struct {
	err error
}

func (w errWriter) Write(p []byte) (int, error) { return 0, w.err }

func (w errWriter) Close() error { return w.err }
