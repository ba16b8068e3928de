package validate

import (
	"bufio"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"

	errs "jirascraper/pkg/errors"
	"jirascraper/pkg/logger"
	"jirascraper/pkg/models"
)

// requiredMetadataKeys must be present in every record's metadata for
// the record to count as valid
var requiredMetadataKeys = []string{
	models.MetaTitle,
	models.MetaDescription,
	models.MetaPriority,
	models.MetaIssueType,
	models.MetaReporter,
	models.MetaCreated,
	models.MetaTrainingTask,
}

// maxReportedErrors caps the error list carried in a report
const maxReportedErrors = 50

// Report holds validation statistics for one dataset file
type Report struct {
	Path          string
	TotalLines    int
	ValidLines    int
	InvalidLines  int
	DuplicateKeys int
	MissingFields map[string]int
	TrainingTasks map[string]int
	Projects      map[string]int
	Errors        []string
}

// Valid reports whether every line in the file passed validation
func (r *Report) Valid() bool {
	return r.InvalidLines == 0 && r.DuplicateKeys == 0
}

// SuccessRate is the fraction of valid lines as a percentage
func (r *Report) SuccessRate() float64 {
	if r.TotalLines == 0 {
		return 0
	}
	return float64(r.ValidLines) / float64(r.TotalLines) * 100
}

// File validates a single JSONL dataset file
func File(path string, log logger.Logger) (*Report, error) {
	if log == nil {
		log = logger.GetLogger()
	}

	report := &Report{
		Path:          path,
		MissingFields: make(map[string]int),
		TrainingTasks: make(map[string]int),
		Projects:      make(map[string]int),
	}

	file, err := os.Open(path)
	if err != nil {
		return nil, errs.Newf(errs.KindIO, "failed to open %s: %v", path, err)
	}
	defer file.Close()

	seen := make(map[string]struct{})

	scanner := bufio.NewScanner(file)
	scanner.Buffer(make([]byte, 0, 64*1024), 16*1024*1024)

	lineNum := 0
	for scanner.Scan() {
		lineNum++
		report.TotalLines++

		line := scanner.Bytes()
		if len(line) == 0 {
			report.InvalidLines++
			report.addError(fmt.Sprintf("line %d: empty line", lineNum))
			continue
		}

		var record models.IssueRecord
		if err := json.Unmarshal(line, &record); err != nil {
			report.InvalidLines++
			report.addError(fmt.Sprintf("line %d: invalid JSON: %v", lineNum, err))
			continue
		}

		missing := missingFields(&record)
		if len(missing) > 0 {
			report.InvalidLines++
			for _, field := range missing {
				report.MissingFields[field]++
			}
			report.addError(fmt.Sprintf("line %d: missing fields %v", lineNum, missing))
			continue
		}

		if _, dup := seen[record.Key]; dup {
			report.DuplicateKeys++
			report.addError(fmt.Sprintf("line %d: duplicate key %s", lineNum, record.Key))
		}
		seen[record.Key] = struct{}{}

		report.ValidLines++
		if task, ok := record.Metadata[models.MetaTrainingTask].(string); ok {
			report.TrainingTasks[task]++
		}
		report.Projects[record.Project]++
	}

	if err := scanner.Err(); err != nil {
		return nil, errs.Newf(errs.KindIO, "failed to read %s: %v", path, err)
	}

	log.InfoWithFields("validated dataset file", map[string]interface{}{
		"path":    path,
		"total":   report.TotalLines,
		"valid":   report.ValidLines,
		"invalid": report.InvalidLines,
	})

	return report, nil
}

// Directory validates every *.jsonl file under dir, sorted by name
func Directory(dir string, log logger.Logger) ([]*Report, error) {
	matches, err := filepath.Glob(filepath.Join(dir, "*.jsonl"))
	if err != nil {
		return nil, errs.Newf(errs.KindIO, "failed to list %s: %v", dir, err)
	}
	if len(matches) == 0 {
		return nil, errs.Newf(errs.KindFatal, "no .jsonl files found in %s", dir)
	}
	sort.Strings(matches)

	var reports []*Report
	for _, path := range matches {
		report, err := File(path, log)
		if err != nil {
			return reports, err
		}
		reports = append(reports, report)
	}
	return reports, nil
}

func missingFields(record *models.IssueRecord) []string {
	var missing []string

	if record.Key == "" {
		missing = append(missing, "key")
	}
	if record.Project == "" {
		missing = append(missing, "project")
	}
	if record.Status == "" {
		missing = append(missing, "status")
	}
	if record.Metadata == nil {
		missing = append(missing, "metadata")
		return missing
	}
	for _, key := range requiredMetadataKeys {
		if _, ok := record.Metadata[key]; !ok {
			missing = append(missing, "metadata."+key)
		}
	}

	return missing
}

func (r *Report) addError(msg string) {
	if len(r.Errors) < maxReportedErrors {
		r.Errors = append(r.Errors, msg)
	}
}
