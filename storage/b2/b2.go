package b2

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/kurin/blazer/b2"
	"github.com/marpio/gallery"
)

var errObjectNotExist = errors.New("b2 object does not exist")

// objects is the subset of bucket calls the backend makes.
type objects interface {
	NewReader(ctx context.Context, name string) io.ReadCloser
	NewWriter(ctx context.Context, name string) io.WriteCloser
	Delete(ctx context.Context, name string) error
	// Attrs returns errObjectNotExist for a missing object.
	Attrs(ctx context.Context, name string) error
}

type bucketObjects struct {
	bucket *b2.Bucket
}

func (o bucketObjects) NewReader(ctx context.Context, name string) io.ReadCloser {
	return o.bucket.Object(name).NewReader(ctx)
}

func (o bucketObjects) NewWriter(ctx context.Context, name string) io.WriteCloser {
	return o.bucket.Object(name).NewWriter(ctx)
}

func (o bucketObjects) Delete(ctx context.Context, name string) error {
	return o.bucket.Object(name).Delete(ctx)
}

func (o bucketObjects) Attrs(ctx context.Context, name string) error {
	_, err := o.bucket.Object(name).Attrs(ctx)
	if b2.IsNotExist(err) {
		return errObjectNotExist
	}
	return err
}

type b2Backend struct {
	objs objects
}

// New connects to the Backblaze B2 bucket bucketName.
func New(ctx context.Context, b2id, b2key, bucketName string) (gallery.Storage, error) {
	client, err := b2.NewClient(ctx, b2id, b2key)
	if err != nil {
		return nil, fmt.Errorf("creating b2 client: %w", err)
	}
	bucket, err := client.Bucket(ctx, bucketName)
	if err != nil {
		return nil, fmt.Errorf("opening b2 bucket %v: %w", bucketName, err)
	}
	return &b2Backend{objs: bucketObjects{bucket: bucket}}, nil
}

func (b *b2Backend) NewReader(ctx context.Context, fileName string) (io.ReadCloser, error) {
	return b.objs.NewReader(ctx, fileName), nil
}

func (b *b2Backend) NewWriter(ctx context.Context, fileName string) io.WriteCloser {
	return b.objs.NewWriter(ctx, fileName)
}

func (b *b2Backend) Delete(ctx context.Context, fileName string) error {
	return b.objs.Delete(ctx, fileName)
}

// Exists is false only for a missing object; any other error reports true
// so the following read surfaces it.
func (b *b2Backend) Exists(ctx context.Context, fileName string) bool {
	err := b.objs.Attrs(ctx, fileName)
	return !errors.Is(err, errObjectNotExist)
}
