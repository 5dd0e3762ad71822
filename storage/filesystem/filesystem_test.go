package filesystem

import (
	"context"
	"io"
	"os"
	"testing"

	"github.com/spf13/afero"
)

var ctx = context.Background()

func TestWriteReadDelete(t *testing.T) {
	b := New(afero.NewMemMapFs())
	w := b.NewWriter(ctx, "data/database.json")
	if _, err := w.Write([]byte(`{"images":[]}`)); err != nil {
		t.Fatalf("unexpected write error: %v", err)
	}
	if err := w.Close(); err != nil {
		t.Fatalf("unexpected close error: %v", err)
	}
	if !b.Exists(ctx, "data/database.json") {
		t.Fatal("expected the file to exist")
	}
	r, err := b.NewReader(ctx, "data/database.json")
	if err != nil {
		t.Fatal(err)
	}
	got, _ := io.ReadAll(r)
	r.Close()
	if string(got) != `{"images":[]}` {
		t.Errorf("unexpected content: %s", got)
	}
	if err := b.Delete(ctx, "data/database.json"); err != nil {
		t.Fatal(err)
	}
	if b.Exists(ctx, "data/database.json") {
		t.Error("expected the file to be deleted")
	}
}

func TestReadMissing(t *testing.T) {
	b := New(afero.NewMemMapFs())
	if _, err := b.NewReader(ctx, "missing.json"); err == nil {
		t.Error("expected an error reading a missing file")
	}
}

func TestWriterOnReadOnlyFs(t *testing.T) {
	b := New(afero.NewReadOnlyFs(afero.NewMemMapFs()))
	w := b.NewWriter(ctx, "database.json")
	if _, err := w.Write([]byte("x")); err == nil {
		t.Error("expected a write error on a read only fs")
	}
	if err := w.Close(); err == nil {
		t.Error("expected a close error on a read only fs")
	}
}

type statErrFs struct{ afero.Fs }

func (statErrFs) Stat(name string) (os.FileInfo, error) { return nil, os.ErrPermission }

func TestExistsOnStatError(t *testing.T) {
	b := New(statErrFs{afero.NewMemMapFs()})
	if !b.Exists(ctx, "database.json") {
		t.Error("expected a stat error not to be reported as a missing file")
	}
}
