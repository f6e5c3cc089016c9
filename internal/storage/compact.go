package storage

import (
	"context"
	"io"
	"log"
	"os"

	"github.com/klauspost/compress/zstd"

	"github.com/admbahm/devinsight/internal/model"
)

// CompressedExt is appended to rotation files after compaction.
const CompressedExt = ".zst"

// Compactor zstd-compresses rotation files as they are closed. It is the
// sole consumer of the store's rotation-event channel and never touches
// the active file. Failures are logged and skipped; the uncompressed
// original is kept whenever compression did not fully succeed.
type Compactor struct {
	events <-chan model.RotationEvent
}

// NewCompactor returns a Compactor reading from the given event channel.
func NewCompactor(events <-chan model.RotationEvent) *Compactor {
	return &Compactor{events: events}
}

// Run compresses closed rotation files until the context is cancelled or
// the event channel is closed.
func (c *Compactor) Run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case ev, ok := <-c.events:
			if !ok {
				return
			}
			if err := CompressFile(ev.Path); err != nil {
				log.Printf("compact %s: %v", ev.Path, err)
			}
		}
	}
}

// CompressFile rewrites path as path.zst and removes the original. The
// original is only removed after the compressed file is fully synced, so
// an interrupted compaction leaves the record sequence intact.
func CompressFile(path string) error {
	src, err := os.Open(path)
	if err != nil {
		return err
	}
	defer src.Close()

	dst, err := os.Create(path + CompressedExt)
	if err != nil {
		return err
	}

	enc, err := zstd.NewWriter(dst)
	if err != nil {
		dst.Close()
		os.Remove(path + CompressedExt)
		return err
	}

	if _, err := io.Copy(enc, src); err != nil {
		enc.Close()
		dst.Close()
		os.Remove(path + CompressedExt)
		return err
	}
	if err := enc.Close(); err != nil {
		dst.Close()
		os.Remove(path + CompressedExt)
		return err
	}
	if err := dst.Close(); err != nil {
		os.Remove(path + CompressedExt)
		return err
	}

	return os.Remove(path)
}
