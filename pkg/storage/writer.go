package storage

import (
	"bufio"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"

	errs "jirascraper/pkg/errors"
	"jirascraper/pkg/logger"
	"jirascraper/pkg/models"
)

// Writer appends issue records to a line-delimited JSON file. On open it
// scans the existing file, drops a trailing partial line left by a
// crash, and indexes the keys already present so a resumed run can skip
// records it has written before. Every append is synced to disk before
// it is acknowledged.
type Writer struct {
	path   string
	file   *os.File
	keys   map[string]struct{}
	logger logger.Logger
}

// OpenWriter opens (or creates) the output file at path
func OpenWriter(path string, log logger.Logger) (*Writer, error) {
	if log == nil {
		log = logger.GetLogger()
	}

	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, errs.Newf(errs.KindIO, "failed to create output directory: %v", err)
	}

	file, err := os.OpenFile(path, os.O_RDWR|os.O_CREATE, 0644)
	if err != nil {
		return nil, errs.Newf(errs.KindIO, "failed to open output file: %v", err)
	}

	w := &Writer{
		path:   path,
		file:   file,
		keys:   make(map[string]struct{}),
		logger: log,
	}

	if err := w.recover(); err != nil {
		file.Close()
		return nil, err
	}

	return w, nil
}

// recover scans existing records, indexes their keys and truncates any
// trailing bytes that do not form a complete line.
func (w *Writer) recover() error {
	reader := bufio.NewReader(w.file)

	var validLen int64
	var partial bool

	for {
		line, err := reader.ReadBytes('\n')
		if err == io.EOF {
			if len(line) > 0 {
				partial = true
			}
			break
		}
		if err != nil {
			return errs.Newf(errs.KindIO, "failed to scan output file: %v", err)
		}

		validLen += int64(len(line))

		var rec struct {
			Key string `json:"key"`
		}
		if jsonErr := json.Unmarshal(line, &rec); jsonErr == nil && rec.Key != "" {
			w.keys[rec.Key] = struct{}{}
		}
	}

	if partial {
		w.logger.WarnWithFields("truncating partial trailing line in output file", map[string]interface{}{
			"path":   w.path,
			"offset": validLen,
		})
		if err := w.file.Truncate(validLen); err != nil {
			return errs.Newf(errs.KindIO, "failed to truncate output file: %v", err)
		}
	}

	if _, err := w.file.Seek(0, io.SeekEnd); err != nil {
		return errs.Newf(errs.KindIO, "failed to seek output file: %v", err)
	}

	if len(w.keys) > 0 {
		w.logger.InfoWithFields("indexed existing output records", map[string]interface{}{
			"path":    w.path,
			"records": len(w.keys),
		})
	}

	return nil
}

// Append writes one record as a JSON line and syncs it to disk. The
// record's key is added to the index.
func (w *Writer) Append(record models.IssueRecord) error {
	data, err := json.Marshal(record)
	if err != nil {
		return errs.Newf(errs.KindMalformed, "failed to marshal record %s: %v", record.Key, err)
	}

	data = append(data, '\n')
	if _, err := w.file.Write(data); err != nil {
		return errs.Newf(errs.KindIO, "failed to write record %s: %v", record.Key, err)
	}
	if err := w.file.Sync(); err != nil {
		return errs.Newf(errs.KindIO, "failed to sync output file: %v", err)
	}

	w.keys[record.Key] = struct{}{}
	return nil
}

// HasKey reports whether a record with the given key is already present
func (w *Writer) HasKey(key string) bool {
	_, ok := w.keys[key]
	return ok
}

// Count returns the number of distinct keys written to the file
func (w *Writer) Count() int {
	return len(w.keys)
}

// Path returns the output file path
func (w *Writer) Path() string {
	return w.path
}

// Close closes the underlying file
func (w *Writer) Close() error {
	if err := w.file.Close(); err != nil {
		return fmt.Errorf("failed to close output file: %w", err)
	}
	return nil
}
