package storage

import (
	"bytes"
	"context"
	"io"
	"math/rand"
	"testing"

	"github.com/marpio/gallery/crypto"
	"github.com/marpio/gallery/storage/filesystem"
	"github.com/spf13/afero"
)

const encKey = "b567ef1d391e8a10d94100faa34b7d28fdab13e3f51f94b8b567ef1d391e8a10"

var ctx context.Context = context.Background()

func TestWriteRead(t *testing.T) {
	afs := afero.NewMemMapFs()
	b := filesystem.New(afs)
	c, err := crypto.NewService(encKey, 0)
	if err != nil {
		t.Fatal(err)
	}
	rs := NewEncrypted(b, c)

	path1 := "path1"
	sizes := []int{0, 10, 1000, 65536, 80000, 131072, 328000, 1234567}
	rnd := rand.New(rand.NewSource(42))
	for _, s := range sizes {
		data := make([]byte, s)
		rnd.Read(data)
		w := rs.NewWriter(ctx, path1)

		io.Copy(w, bytes.NewReader(data[:]))
		if err := w.Close(); err != nil {
			t.Fatalf("error closing writer: %v", err)
		}

		r, _ := rs.NewReader(ctx, path1)
		var dst bytes.Buffer
		_, err := io.Copy(&dst, r)
		if err != nil {
			t.Errorf("error reading from encrypted storage: %v", err.Error())
		}
		r.Close()

		res, _ := afero.ReadFile(afs, path1)
		blockSize := c.BlockSize()
		mult := len(data) / blockSize
		if len(data)%blockSize != 0 {
			mult++
		}
		expectedLen := mult*(c.NonceSize()+c.Overhead()) + len(data)
		actualLen := len(res)
		if actualLen != expectedLen {
			t.Errorf("size %v: expected len of the stored data: %v, actual: %v. data not written or encryption broken.", s, expectedLen, actualLen)
		}

		if !bytes.Equal(data[:], dst.Bytes()) {
			t.Errorf("size %v: read data does not match the written.", s)
		}
	}
}

func TestReadWithWrongKey(t *testing.T) {
	afs := afero.NewMemMapFs()
	c, _ := crypto.NewService(encKey, 0)
	other, _ := crypto.NewService("00"+encKey[2:], 0)

	w := NewEncrypted(filesystem.New(afs), c).NewWriter(ctx, "doc.json")
	w.Write([]byte(`{"images":[]}`))
	w.Close()

	r, err := NewEncrypted(filesystem.New(afs), other).NewReader(ctx, "doc.json")
	if err != nil {
		t.Fatal(err)
	}
	defer r.Close()
	if _, err := io.ReadAll(r); err == nil {
		t.Error("expected an error decrypting with the wrong key")
	}
}
