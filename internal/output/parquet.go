package output

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"reflect"
	"sync"
	"time"

	"github.com/chrisdamba/brewpos/internal/cloudwriter"
	"github.com/chrisdamba/brewpos/internal/events"
	"github.com/xitongsys/parquet-go-source/local"
	"github.com/xitongsys/parquet-go/source"
	"github.com/xitongsys/parquet-go/writer"
	"go.uber.org/multierr"
	"go.uber.org/zap"
)

type parquetFile struct {
	mu     sync.Mutex
	writer *writer.ParquetWriter
	file   source.ParquetFile
}

// ParquetOutput writes one data.parquet per topic and hourly partition, with
// the schema taken from the topic's event struct.
type ParquetOutput struct {
	mu                 sync.Mutex
	basePath           string
	folder             string
	files              map[string]*parquetFile
	cloudWriterFactory cloudwriter.CloudWriterFactory
	cloudBucketName    string
	logger             *zap.Logger
}

// NewParquetOutput writes locally below basePath unless factory is set, in
// which case files are uploaded to bucket on Close.
func NewParquetOutput(basePath, folder string, factory cloudwriter.CloudWriterFactory, bucket string, logger *zap.Logger) *ParquetOutput {
	if logger == nil {
		logger = zap.NewNop()
	}
	p := &ParquetOutput{
		basePath:           basePath,
		folder:             folder,
		files:              make(map[string]*parquetFile),
		cloudWriterFactory: factory,
		cloudBucketName:    bucket,
		logger:             logger,
	}
	if factory == nil {
		p.cleanup()
	}
	return p
}

func (p *ParquetOutput) WriteMessage(topic string, msg []byte) error {
	_, eventTime, err := decodeEvent(msg)
	if err != nil {
		return err
	}
	row, err := events.New(topic)
	if err != nil {
		return err
	}
	if err := json.Unmarshal(msg, row); err != nil {
		return fmt.Errorf("failed to decode %s event: %w", topic, err)
	}

	key := topic + "/" + partition(eventTime)
	p.mu.Lock()
	pf, ok := p.files[key]
	if !ok {
		pf, err = p.createNewWriter(topic, eventTime, row)
		if err != nil {
			p.mu.Unlock()
			return fmt.Errorf("failed to create new writer: %w", err)
		}
		p.files[key] = pf
	}
	p.mu.Unlock()

	pf.mu.Lock()
	defer pf.mu.Unlock()
	if err := pf.writer.Write(reflect.ValueOf(row).Elem().Interface()); err != nil {
		return fmt.Errorf("failed to write event: %w", err)
	}
	return nil
}

func (p *ParquetOutput) createNewWriter(topic string, eventTime time.Time, prototype interface{}) (*parquetFile, error) {
	var fw source.ParquetFile
	if p.cloudWriterFactory != nil {
		cw, err := p.cloudWriterFactory.NewWriter(context.Background(), p.cloudBucketName, objectPath(p.folder, topic, eventTime, "data.parquet"))
		if err != nil {
			return nil, fmt.Errorf("failed to create cloud file writer: %w", err)
		}
		fw = NewCloudParquetFile(cw)
	} else {
		fullPath := filepath.Join(p.basePath, p.folder, topic, filepath.FromSlash(partition(eventTime)))
		if err := os.MkdirAll(fullPath, os.ModePerm); err != nil {
			return nil, err
		}
		var err error
		fw, err = local.NewLocalFileWriter(filepath.Join(fullPath, "data.parquet"))
		if err != nil {
			return nil, fmt.Errorf("failed to create local file writer: %w", err)
		}
	}

	pw, err := writer.NewParquetWriter(fw, prototype, 4)
	if err != nil {
		fw.Close()
		return nil, fmt.Errorf("failed to create ParquetWriter: %w", err)
	}
	return &parquetFile{writer: pw, file: fw}, nil
}

// cleanup removes parquet files left by an earlier run.
func (p *ParquetOutput) cleanup() {
	fullPath := filepath.Join(p.basePath, p.folder)
	err := filepath.Walk(fullPath, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if !info.IsDir() && filepath.Ext(path) == ".parquet" {
			return os.Remove(path)
		}
		return nil
	})
	if err != nil && !os.IsNotExist(err) {
		p.logger.Warn("error cleaning up parquet files", zap.Error(err))
	}
}

// Close finishes every file's footer and closes it.
func (p *ParquetOutput) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()

	var err error
	for key, pf := range p.files {
		pf.mu.Lock()
		if stopErr := pf.writer.WriteStop(); stopErr != nil {
			p.logger.Error("error closing parquet writer", zap.String("key", key), zap.Error(stopErr))
			err = multierr.Append(err, stopErr)
		}
		if closeErr := pf.file.Close(); closeErr != nil {
			p.logger.Error("error closing parquet file", zap.String("key", key), zap.Error(closeErr))
			err = multierr.Append(err, closeErr)
		}
		pf.mu.Unlock()
		delete(p.files, key)
	}
	return err
}

// CloudParquetFile adapts a write-only cloud object to parquet's file interface.
type CloudParquetFile struct {
	cloudWriter cloudwriter.CloudWriter
	offset      int64
}

func NewCloudParquetFile(cloudWriter cloudwriter.CloudWriter) *CloudParquetFile {
	return &CloudParquetFile{cloudWriter: cloudWriter}
}

// Open and Create hand back the same object, which exists once written.
func (c *CloudParquetFile) Open(name string) (source.ParquetFile, error)   { return c, nil }
func (c *CloudParquetFile) Create(name string) (source.ParquetFile, error) { return c, nil }

func (c *CloudParquetFile) Seek(offset int64, whence int) (int64, error) {
	switch whence {
	case io.SeekStart:
		c.offset = offset
	case io.SeekCurrent:
		c.offset += offset
	case io.SeekEnd:
		return 0, fmt.Errorf("seek from end not supported for cloud storage")
	}
	return c.offset, nil
}

func (c *CloudParquetFile) Read(p []byte) (int, error) {
	return 0, fmt.Errorf("read not supported for cloud storage")
}

func (c *CloudParquetFile) Write(p []byte) (int, error) {
	n, err := c.cloudWriter.Write(p)
	c.offset += int64(n)
	return n, err
}

func (c *CloudParquetFile) Close() error {
	return c.cloudWriter.Close()
}
