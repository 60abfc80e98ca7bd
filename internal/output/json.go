package output

import (
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"go.uber.org/multierr"
)

type JSONOutput struct {
	mu       sync.Mutex
	basePath string
	folder   string
	files    map[string]*os.File
}

func NewJSONOutput(basePath, folder string) *JSONOutput {
	return &JSONOutput{
		basePath: basePath,
		folder:   folder,
		files:    make(map[string]*os.File),
	}
}

// WriteMessage appends the message as one line of data.json in the event's
// hourly partition.
func (j *JSONOutput) WriteMessage(topic string, msg []byte) error {
	_, eventTime, err := decodeEvent(msg)
	if err != nil {
		return err
	}
	fullPath := filepath.Join(j.basePath, j.folder, topic, filepath.FromSlash(partition(eventTime)))
	fileKey := topic + "/" + partition(eventTime)

	j.mu.Lock()
	defer j.mu.Unlock()
	file, ok := j.files[fileKey]
	if !ok {
		if err := os.MkdirAll(fullPath, os.ModePerm); err != nil {
			return err
		}
		file, err = os.Create(filepath.Join(fullPath, "data.json"))
		if err != nil {
			return err
		}
		j.files[fileKey] = file
	}

	if _, err := file.Write(msg); err != nil {
		return fmt.Errorf("failed to write %s: %w", fileKey, err)
	}
	_, err = file.WriteString("\n")
	return err
}

func (j *JSONOutput) Close() error {
	j.mu.Lock()
	defer j.mu.Unlock()
	var err error
	for key, file := range j.files {
		err = multierr.Append(err, file.Close())
		delete(j.files, key)
	}
	return err
}
