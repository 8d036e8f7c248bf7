package storage

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/valter-silva-au/doer/pkg/models"
)

// Header is the label row written at the top of every task file. Its first
// field doubles as the marker used to skip stray header rows on load.
var Header = []string{"id", "description", "tags", "due", "created_at", "priority", "status"}

const headerToken = "id"

// ErrRecordMalformed is returned for rows that cannot be turned into a task.
var ErrRecordMalformed = errors.New("malformed record")

// RecordError describes a single rejected row.
type RecordError struct {
	Line   int
	Reason string
}

func (e *RecordError) Error() string {
	if e.Line > 0 {
		return fmt.Sprintf("line %d: %s: %s", e.Line, ErrRecordMalformed, e.Reason)
	}
	return fmt.Sprintf("%s: %s", ErrRecordMalformed, e.Reason)
}

func (e *RecordError) Is(target error) bool {
	return target == ErrRecordMalformed
}

// EncodeTask converts a task to its ordered field list.
func EncodeTask(t models.Task) []string {
	return []string{
		strconv.Itoa(t.ID),
		t.Description,
		strings.Join(t.Tags, ","),
		t.Due.Format(models.DateLayout),
		strconv.FormatInt(t.CreatedAt.Unix(), 10),
		t.Priority.String(),
		t.Status.String(),
	}
}

// IsSkippable reports whether a row is a header row or carries no data.
func IsSkippable(record []string) bool {
	if len(record) == 0 {
		return true
	}
	if strings.TrimSpace(record[0]) == headerToken {
		return true
	}
	for _, f := range record {
		if strings.TrimSpace(f) != "" {
			return false
		}
	}
	return true
}

// DecodeRecord parses a data row. Bad priority, status, due, or created_at
// values fall back to defaults; only a short row or an unusable id rejects
// the record.
func DecodeRecord(record []string) (models.Task, error) {
	if len(record) < len(Header) {
		return models.Task{}, &RecordError{Reason: fmt.Sprintf("expected %d fields, got %d", len(Header), len(record))}
	}

	id, err := strconv.Atoi(strings.TrimSpace(record[0]))
	if err != nil || id <= 0 {
		return models.Task{}, &RecordError{Reason: fmt.Sprintf("invalid id %q", record[0])}
	}

	due, err := time.Parse(models.DateLayout, strings.TrimSpace(record[3]))
	if err != nil {
		due = models.SentinelDue
	}

	created := time.Unix(0, 0).UTC()
	if secs, err := strconv.ParseInt(strings.TrimSpace(record[4]), 10, 64); err == nil {
		created = time.Unix(secs, 0).UTC()
	}

	priority, _ := models.ParsePriority(record[5])
	status, _ := models.ParseStatus(record[6])

	return models.Task{
		ID:          id,
		Description: record[1],
		Tags:        splitTags(record[2]),
		Due:         due,
		CreatedAt:   created,
		Priority:    priority,
		Status:      status,
	}, nil
}

var lineEndings = strings.NewReplacer("\r\n", "\n", "\r", "\n")

// NormalizeText rewrites CRLF and lone CR line endings as LF. The record
// reader folds CRLF inside quoted fields to LF, so only LF survives a save.
func NormalizeText(s string) string {
	return lineEndings.Replace(s)
}

// splitTags splits the comma-joined tag field. Tags containing commas are
// not representable in this format.
func splitTags(field string) []string {
	var tags []string
	for _, part := range strings.Split(field, ",") {
		if tag := strings.TrimSpace(part); tag != "" {
			tags = append(tags, tag)
		}
	}
	return tags
}
