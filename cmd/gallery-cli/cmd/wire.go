package cmd

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/apex/log"
	"github.com/marpio/gallery"
	"github.com/marpio/gallery/config"
	"github.com/marpio/gallery/crypto"
	"github.com/marpio/gallery/repository/document"
	"github.com/marpio/gallery/repository/httpsource"
	"github.com/marpio/gallery/repository/logsink"
	"github.com/marpio/gallery/repository/sqlite"
	"github.com/marpio/gallery/storage"
	"github.com/marpio/gallery/storage/b2"
	"github.com/marpio/gallery/storage/filesystem"
	"github.com/marpio/gallery/storage/s3"
	"github.com/marpio/gallery/store"
	"github.com/spf13/afero"
)

const fetchTimeout = 30 * time.Second

func openStorage(ctx context.Context, c *config.Config) (gallery.Storage, error) {
	var (
		rs  gallery.Storage
		err error
	)
	switch c.Storage {
	case config.StorageB2:
		rs, err = b2.New(ctx, c.B2AccountID, c.B2AccountKey, c.B2Bucket)
	case config.StorageS3:
		rs, err = s3.New(ctx, s3.Config{
			Region:    c.S3Region,
			Bucket:    c.S3Bucket,
			Endpoint:  c.S3Endpoint,
			PathStyle: c.S3PathStyle,
		})
	default:
		rs = filesystem.New(afero.NewOsFs())
	}
	if err != nil {
		return nil, err
	}
	if c.EncryptionKey == "" {
		return rs, nil
	}
	cs, err := crypto.NewService(c.EncryptionKey, 0)
	if err != nil {
		return nil, err
	}
	return storage.NewEncrypted(rs, cs), nil
}

func nopCloser() error { return nil }

func openSource(ctx context.Context, c *config.Config) (gallery.Source, func() error, error) {
	switch c.Source {
	case config.SourceDocument:
		rs, err := openStorage(ctx, c)
		if err != nil {
			return nil, nopCloser, err
		}
		return document.New(rs, c.DocumentPath()), nopCloser, nil
	case config.SourceHTTP:
		return httpsource.New(c.SourceURL, &http.Client{Timeout: fetchTimeout}), nopCloser, nil
	case config.SourceSQLite:
		db, err := sqlite.Open(c.SQLitePath)
		if err != nil {
			return nil, nopCloser, err
		}
		return db, db.Close, nil
	}
	return nil, nopCloser, errors.New("unknown source " + c.Source)
}

func openSink(ctx context.Context, c *config.Config, logctx log.Interface) (gallery.Flusher, func() error, error) {
	switch c.Sink {
	case config.SinkDocument:
		rs, err := openStorage(ctx, c)
		if err != nil {
			return nil, nopCloser, err
		}
		return document.New(rs, c.DocumentPath()), nopCloser, nil
	case config.SinkSQLite:
		db, err := sqlite.Open(c.SQLitePath)
		if err != nil {
			return nil, nopCloser, err
		}
		return db, db.Close, nil
	case config.SinkLog:
		return logsink.New(logctx), nopCloser, nil
	}
	return nil, nopCloser, errors.New("unknown sink " + c.Sink)
}

// openStore wires source and sink from c. The returned func releases
// resources held by them.
func openStore(ctx context.Context, c *config.Config, logctx log.Interface) (*store.Store, func() error, error) {
	src, closeSrc, err := openSource(ctx, c)
	if err != nil {
		return nil, nopCloser, err
	}
	sink, closeSink, err := openSink(ctx, c, logctx)
	if err != nil {
		closeSrc()
		return nil, nopCloser, err
	}
	closer := func() error {
		serr := closeSrc()
		if err := closeSink(); err != nil {
			return err
		}
		return serr
	}
	return store.New(src, sink, logctx), closer, nil
}
