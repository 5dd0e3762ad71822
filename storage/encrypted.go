package storage

import (
	"context"
	"errors"
	"io"

	"github.com/marpio/gallery"
	"github.com/marpio/gallery/crypto"
)

// NewEncrypted wraps b so that every object is stored as a sequence of
// independently sealed blocks of crpt.BlockSize() bytes.
func NewEncrypted(b gallery.Storage, c crypto.Service) gallery.Storage {
	return &es{backend: b, crpt: c}
}

type es struct {
	backend gallery.Storage
	crpt    crypto.Service
}

type reader struct {
	rd      io.ReadCloser
	buf     []byte
	r       int
	err     error
	bufSize int
	crpt    crypto.Service
}

func (b *es) NewReader(ctx context.Context, path string) (io.ReadCloser, error) {
	bufSize := b.crpt.NonceSize() + b.crpt.BlockSize() + b.crpt.Overhead()
	rd, err := b.backend.NewReader(ctx, path)
	if err != nil {
		return nil, err
	}
	return &reader{
		rd:      rd,
		bufSize: bufSize,
		crpt:    b.crpt,
	}, nil
}

func (b *reader) fill() error {
	sealed := make([]byte, b.bufSize)
	n, err := io.ReadFull(b.rd, sealed)
	switch {
	case err == io.EOF:
		return io.EOF
	case errors.Is(err, io.ErrUnexpectedEOF):
		// last, short block
		b.err = io.EOF
	case err != nil:
		return err
	}
	d, err := b.crpt.Open(sealed[:n])
	if err != nil {
		return err
	}
	b.buf = d
	b.r = 0
	return nil
}

func (b *reader) Read(p []byte) (int, error) {
	if len(p) == 0 {
		return 0, nil
	}
	for b.r == len(b.buf) {
		if b.err != nil {
			return 0, b.err
		}
		if err := b.fill(); err != nil {
			b.err = err
			return 0, err
		}
	}
	// copy as much as we can
	n := copy(p, b.buf[b.r:])
	b.r += n
	return n, nil
}

func (b *reader) Close() error {
	return b.rd.Close()
}

type writer struct {
	err  error
	buf  []byte
	wr   io.WriteCloser
	crpt crypto.Service
}

func (b *es) NewWriter(ctx context.Context, path string) io.WriteCloser {
	return &writer{wr: b.backend.NewWriter(ctx, path), crpt: b.crpt}
}

func (b *writer) Write(p []byte) (int, error) {
	if b.err != nil {
		return 0, b.err
	}
	b.buf = append(b.buf, p...)
	bs := b.crpt.BlockSize()
	for len(b.buf) >= bs {
		if err := b.seal(b.buf[:bs]); err != nil {
			b.err = err
			return 0, err
		}
		b.buf = b.buf[bs:]
	}
	return len(p), nil
}

func (b *writer) seal(block []byte) error {
	encrypted, err := b.crpt.Seal(block)
	if err != nil {
		return err
	}
	n, err := b.wr.Write(encrypted)
	if err != nil {
		return err
	}
	if n < len(encrypted) {
		return io.ErrShortWrite
	}
	return nil
}

func (b *writer) Close() error {
	if b.err == nil && len(b.buf) > 0 {
		b.err = b.seal(b.buf)
		b.buf = nil
	}
	cerr := b.wr.Close()
	if b.err != nil {
		return b.err
	}
	return cerr
}

func (b *es) Exists(ctx context.Context, fileName string) bool {
	return b.backend.Exists(ctx, fileName)
}

func (b *es) Delete(ctx context.Context, fileName string) error {
	return b.backend.Delete(ctx, fileName)
}
