package ingest

import (
	"errors"
	"fmt"
	"strings"

	"docsummary-backend/internal/documents"
)

// ErrValidation marks a malformed upload request.
var ErrValidation = errors.New("validation error")

// File is one uploaded file held in memory.
type File struct {
	Name    string
	Content []byte
}

// Stage names the pipeline step a file failed in.
type Stage string

const (
	StageExtract   Stage = "extract"
	StageSummarize Stage = "summarize"
	StageArchive   Stage = "archive"
	StagePersist   Stage = "persist"
)

// Policy decides what happens to the rest of a request when one file fails.
type Policy string

const (
	// PolicyAbort writes nothing when any file fails.
	PolicyAbort Policy = "abort"
	// PolicyStop commits the files before the first failure.
	PolicyStop Policy = "stop"
	// PolicyPartial commits every file that succeeded.
	PolicyPartial Policy = "partial"
)

// ParsePolicy accepts abort, stop or partial. Empty means abort.
func ParsePolicy(raw string) (Policy, error) {
	switch p := Policy(strings.ToLower(strings.TrimSpace(raw))); p {
	case "":
		return PolicyAbort, nil
	case PolicyAbort, PolicyStop, PolicyPartial:
		return p, nil
	default:
		return "", fmt.Errorf("unknown failure policy %q", raw)
	}
}

// FileError reports which file failed, where, and why.
type FileError struct {
	Index    int
	Filename string
	Stage    Stage
	Err      error
}

func (e *FileError) Error() string {
	return fmt.Sprintf("file %d (%s): %s: %v", e.Index, e.Filename, e.Stage, e.Err)
}

func (e *FileError) Unwrap() error { return e.Err }

// Outcome is the result of a committed request. Documents are in input order.
type Outcome struct {
	Documents []documents.Document
	Failed    []*FileError
}
