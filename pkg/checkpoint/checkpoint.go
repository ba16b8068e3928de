package checkpoint

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"jirascraper/pkg/logger"
)

// Checkpoint is the durable record of scraping progress for one project.
// LastPageOffset is the offset of the last page whose records were
// persisted; LastIssueKey is the key of the last issue flushed to the
// output dataset ("" before anything was written); TotalFetched counts
// issues written across all runs.
type Checkpoint struct {
	LastPageOffset int
	LastIssueKey   string
	TotalFetched   int
	UpdatedAt      time.Time
}

// checkpointJSON is the on-disk schema. last_issue_key serializes as
// null until the first issue has been written.
type checkpointJSON struct {
	LastPageOffset int        `json:"last_page_offset"`
	LastIssueKey   *string    `json:"last_issue_key"`
	TotalFetched   int        `json:"total_fetched"`
	UpdatedAt      *time.Time `json:"updated_at,omitempty"`
}

// MarshalJSON implements json.Marshaler
func (c Checkpoint) MarshalJSON() ([]byte, error) {
	out := checkpointJSON{
		LastPageOffset: c.LastPageOffset,
		TotalFetched:   c.TotalFetched,
	}
	if c.LastIssueKey != "" {
		out.LastIssueKey = &c.LastIssueKey
	}
	if !c.UpdatedAt.IsZero() {
		out.UpdatedAt = &c.UpdatedAt
	}
	return json.Marshal(out)
}

// UnmarshalJSON implements json.Unmarshaler
func (c *Checkpoint) UnmarshalJSON(data []byte) error {
	var in checkpointJSON
	if err := json.Unmarshal(data, &in); err != nil {
		return err
	}
	c.LastPageOffset = in.LastPageOffset
	c.TotalFetched = in.TotalFetched
	c.LastIssueKey = ""
	if in.LastIssueKey != nil {
		c.LastIssueKey = *in.LastIssueKey
	}
	c.UpdatedAt = time.Time{}
	if in.UpdatedAt != nil {
		c.UpdatedAt = *in.UpdatedAt
	}
	return nil
}

// Store handles checkpoint persistence for a single checkpoint file
type Store struct {
	path   string
	logger logger.Logger
}

// NewStore creates a checkpoint store backed by the given file path
func NewStore(path string, log logger.Logger) *Store {
	if log == nil {
		log = logger.GetLogger()
	}
	return &Store{path: path, logger: log}
}

// Path returns the checkpoint file path
func (s *Store) Path() string {
	return s.path
}

// Load reads the checkpoint from disk. A missing file yields the zero
// checkpoint; a corrupted file is logged and also yields the zero
// checkpoint so a fresh run can proceed.
func (s *Store) Load() (*Checkpoint, error) {
	data, err := os.ReadFile(s.path)
	if err != nil {
		if os.IsNotExist(err) {
			return &Checkpoint{}, nil
		}
		return nil, fmt.Errorf("failed to read checkpoint file: %w", err)
	}

	var cp Checkpoint
	if err := json.Unmarshal(data, &cp); err != nil {
		s.logger.WarnWithFields("corrupted checkpoint, starting fresh", map[string]interface{}{
			"path":  s.path,
			"error": err.Error(),
		})
		return &Checkpoint{}, nil
	}

	s.logger.InfoWithFields("checkpoint loaded", map[string]interface{}{
		"path":             s.path,
		"last_page_offset": cp.LastPageOffset,
		"last_issue_key":   cp.LastIssueKey,
		"total_fetched":    cp.TotalFetched,
	})

	return &cp, nil
}

// Save persists the checkpoint atomically: the new state is written to a
// temporary file, synced, then renamed over the old one. A crash leaves
// either the previous checkpoint or the new one, never a torn write.
func (s *Store) Save(cp *Checkpoint) error {
	cp.UpdatedAt = time.Now().UTC()

	if dir := filepath.Dir(s.path); dir != "" && dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("failed to create checkpoint directory: %w", err)
		}
	}

	tempPath := s.path + ".tmp"
	file, err := os.Create(tempPath)
	if err != nil {
		return fmt.Errorf("failed to create temporary checkpoint file: %w", err)
	}

	encoder := json.NewEncoder(file)
	encoder.SetIndent("", "  ")
	if err := encoder.Encode(cp); err != nil {
		file.Close()
		os.Remove(tempPath)
		return fmt.Errorf("failed to encode checkpoint: %w", err)
	}

	if err := file.Sync(); err != nil {
		file.Close()
		os.Remove(tempPath)
		return fmt.Errorf("failed to sync checkpoint file: %w", err)
	}

	if err := file.Close(); err != nil {
		os.Remove(tempPath)
		return fmt.Errorf("failed to close checkpoint file: %w", err)
	}

	if err := os.Rename(tempPath, s.path); err != nil {
		os.Remove(tempPath)
		return fmt.Errorf("failed to replace checkpoint file: %w", err)
	}

	s.logger.DebugWithFields("checkpoint saved", map[string]interface{}{
		"path":             s.path,
		"last_page_offset": cp.LastPageOffset,
		"last_issue_key":   cp.LastIssueKey,
		"total_fetched":    cp.TotalFetched,
	})

	return nil
}

// Delete removes the checkpoint file
func (s *Store) Delete() error {
	if err := os.Remove(s.path); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("failed to delete checkpoint: %w", err)
	}
	return nil
}

// Exists checks if a checkpoint file exists
func (s *Store) Exists() bool {
	_, err := os.Stat(s.path)
	return err == nil
}
