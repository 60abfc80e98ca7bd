package output

import (
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"sync"

	"go.uber.org/multierr"
)

type csvFile struct {
	file    *os.File
	writer  *csv.Writer
	headers []string
}

type CSVOutput struct {
	mu       sync.Mutex
	basePath string
	folder   string
	files    map[string]*csvFile
}

func NewCSVOutput(basePath, folder string) *CSVOutput {
	return &CSVOutput{
		basePath: basePath,
		folder:   folder,
		files:    make(map[string]*csvFile),
	}
}

// WriteMessage adds a row to data.csv in the event's partition. The header is
// the sorted key set of the first event written to that file.
func (c *CSVOutput) WriteMessage(topic string, msg []byte) error {
	event, eventTime, err := decodeEvent(msg)
	if err != nil {
		return err
	}
	fullPath := filepath.Join(c.basePath, c.folder, topic, filepath.FromSlash(partition(eventTime)))
	fileKey := topic + "/" + partition(eventTime)

	c.mu.Lock()
	defer c.mu.Unlock()
	f, ok := c.files[fileKey]
	if !ok {
		if err := os.MkdirAll(fullPath, os.ModePerm); err != nil {
			return err
		}
		file, err := os.Create(filepath.Join(fullPath, "data.csv"))
		if err != nil {
			return err
		}
		f = &csvFile{file: file, writer: csv.NewWriter(file), headers: headers(event)}
		c.files[fileKey] = f
		if err := f.writer.Write(f.headers); err != nil {
			return err
		}
	}

	row := make([]string, len(f.headers))
	for i, h := range f.headers {
		if v, ok := event[h]; ok && v != nil {
			row[i] = fmt.Sprintf("%v", v)
		}
	}
	if err := f.writer.Write(row); err != nil {
		return err
	}
	f.writer.Flush()
	return f.writer.Error()
}

func headers(event map[string]interface{}) []string {
	keys := make([]string, 0, len(event))
	for k := range event {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func (c *CSVOutput) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	var err error
	for key, f := range c.files {
		f.writer.Flush()
		err = multierr.Combine(err, f.writer.Error(), f.file.Close())
		delete(c.files, key)
	}
	return err
}
