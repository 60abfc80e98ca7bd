package cloudwriter

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
)

type CloudWriter interface {
	Write(data []byte) (int, error)
	Close() error
}

type CloudWriterFactory interface {
	NewWriter(ctx context.Context, bucket, objectPath string) (CloudWriter, error)
}

// LocalWriterFactory writes objects below a root directory, one folder per bucket.
type LocalWriterFactory struct {
	root string
}

func NewLocalWriterFactory(root string) *LocalWriterFactory {
	return &LocalWriterFactory{root: root}
}

func (f *LocalWriterFactory) NewWriter(ctx context.Context, bucket, objectPath string) (CloudWriter, error) {
	path := filepath.Join(f.root, bucket, filepath.FromSlash(objectPath))
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("unable to create directory for %s: %w", path, err)
	}
	file, err := os.Create(path)
	if err != nil {
		return nil, fmt.Errorf("unable to create %s: %w", path, err)
	}
	return file, nil
}
