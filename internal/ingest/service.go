package ingest

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"

	"docsummary-backend/internal/documents"
	"docsummary-backend/internal/extract"
	"docsummary-backend/internal/llm"
	"docsummary-backend/internal/shared/metrics"
	"docsummary-backend/internal/shared/telemetry"
	"docsummary-backend/internal/users"
)

const defaultSummarizeTimeout = 60 * time.Second

// UserChecker reports whether a username exists.
type UserChecker interface {
	Exists(ctx context.Context, username string) (bool, error)
}

// ExtractFunc converts file bytes into text.
type ExtractFunc func(ctx context.Context, filename string, content []byte) (string, error)

// Service runs extract, summarize and archive for every file of a request and
// persists the resulting rows in one transaction.
type Service struct {
	Users      UserChecker
	Docs       *documents.Service
	Summarizer llm.Summarizer
	Extract    ExtractFunc

	// Provider labels summarize latency metrics.
	Provider         string
	Policy           Policy
	Concurrency      int
	SummarizeTimeout time.Duration
}

type result struct {
	doc  documents.Document
	key  string
	err  *FileError
	done bool
}

// Ingest processes files for username according to the configured policy.
func (s *Service) Ingest(ctx context.Context, username string, files []File) (Outcome, error) {
	username = strings.TrimSpace(username)
	if username == "" {
		return Outcome{}, fmt.Errorf("%w: username is required", ErrValidation)
	}
	if len(files) == 0 {
		return Outcome{}, fmt.Errorf("%w: at least one file is required", ErrValidation)
	}
	for i, f := range files {
		if strings.TrimSpace(f.Name) == "" {
			return Outcome{}, fmt.Errorf("%w: file %d has no name", ErrValidation, i)
		}
	}

	ok, err := s.Users.Exists(ctx, username)
	if err != nil {
		return Outcome{}, fmt.Errorf("check user: %w", err)
	}
	if !ok {
		return Outcome{}, fmt.Errorf("%w: %s", users.ErrNotFound, username)
	}

	policy := s.Policy
	if policy == "" {
		policy = PolicyAbort
	}
	if policy == PolicyAbort {
		// Reject unsupported files before spending any summarizer calls.
		for i, f := range files {
			if _, err := extract.Format(f.Name); err != nil {
				metrics.IncIngestFailed(string(StageExtract))
				return Outcome{}, &FileError{Index: i, Filename: f.Name, Stage: StageExtract, Err: err}
			}
		}
	}

	results, err := s.run(ctx, username, files, policy)
	if err != nil {
		s.Docs.Discard(context.WithoutCancel(ctx), archivedKeys(results))
		return Outcome{}, err
	}

	var (
		staged  []documents.Document
		failed  []*FileError
		discard []string
	)
	stopped := false
	for _, r := range results {
		switch {
		case stopped:
			if r.key != "" {
				discard = append(discard, r.key)
			}
		case r.err != nil:
			failed = append(failed, r.err)
			if policy == PolicyStop {
				stopped = true
			}
		case r.done:
			staged = append(staged, r.doc)
		}
	}
	if len(staged) == 0 {
		s.Docs.Discard(context.WithoutCancel(ctx), archivedKeys(results))
		if len(failed) > 0 {
			return Outcome{}, failed[0]
		}
		return Outcome{}, fmt.Errorf("%w: no files processed", ErrValidation)
	}

	if err := ctx.Err(); err != nil {
		s.Docs.Discard(context.WithoutCancel(ctx), archivedKeys(results))
		return Outcome{}, err
	}
	committed, err := s.Docs.Commit(ctx, staged)
	if err != nil {
		metrics.IncIngestFailed(string(StagePersist))
		s.Docs.Discard(context.WithoutCancel(ctx), archivedKeys(results))
		if errors.Is(err, documents.ErrUnknownUser) {
			return Outcome{}, fmt.Errorf("%w: %w", users.ErrNotFound, err)
		}
		return Outcome{}, fmt.Errorf("persist documents: %w", err)
	}
	s.Docs.Discard(context.WithoutCancel(ctx), discard)

	metrics.AddDocumentsIngested(len(committed))
	telemetry.Info("ingest.committed", map[string]any{
		"username":  username,
		"committed": len(committed),
		"failed":    len(failed),
		"policy":    string(policy),
	})
	return Outcome{Documents: committed, Failed: failed}, nil
}

// run fills one result slot per file, in input order. Under abort the first
// failure is returned as the error; under stop/partial failures stay in their
// slots.
func (s *Service) run(ctx context.Context, username string, files []File, policy Policy) ([]result, error) {
	results := make([]result, len(files))
	limit := s.Concurrency
	if limit < 1 {
		limit = 1
	}

	if limit == 1 {
		for i, f := range files {
			if err := ctx.Err(); err != nil {
				return results, err
			}
			results[i] = s.process(ctx, username, i, f)
			if fe := results[i].err; fe != nil {
				if err := ctx.Err(); err != nil {
					return results, err
				}
				if policy == PolicyAbort {
					return results, fe
				}
				if policy == PolicyStop {
					break
				}
			}
		}
		return results, nil
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(limit)
	for i, f := range files {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			r := s.process(gctx, username, i, f)
			results[i] = r
			if r.err != nil && policy == PolicyAbort {
				return r.err
			}
			return nil
		})
	}
	err := g.Wait()
	if ctxErr := ctx.Err(); ctxErr != nil {
		return results, ctxErr
	}
	if err != nil {
		var fe *FileError
		if errors.As(err, &fe) {
			return results, firstFailure(results, fe)
		}
		return results, err
	}
	return results, nil
}

// firstFailure prefers the lowest-index failure over whichever goroutine lost
// the race to cancel the group.
func firstFailure(results []result, fallback *FileError) *FileError {
	for _, r := range results {
		if r.err != nil && !errors.Is(r.err.Err, context.Canceled) {
			return r.err
		}
	}
	return fallback
}

func (s *Service) process(ctx context.Context, username string, index int, f File) result {
	fail := func(stage Stage, err error) result {
		metrics.IncIngestFailed(string(stage))
		telemetry.Warn("ingest.file_failed", map[string]any{
			"username": username,
			"index":    index,
			"filename": f.Name,
			"stage":    string(stage),
			"error":    err.Error(),
		})
		return result{err: &FileError{Index: index, Filename: f.Name, Stage: stage, Err: err}}
	}

	extractFn := s.Extract
	if extractFn == nil {
		extractFn = extract.ExtractText
	}
	text, err := extractFn(ctx, f.Name, f.Content)
	if err != nil {
		return fail(StageExtract, err)
	}

	var summary *string
	if strings.TrimSpace(text) != "" {
		out, err := s.summarize(ctx, text)
		if err != nil {
			return fail(StageSummarize, err)
		}
		summary = &out
	}

	key, err := s.Docs.Archive(ctx, username, f.Name, f.Content)
	if err != nil {
		return fail(StageArchive, err)
	}

	return result{
		doc: documents.Document{
			UserID:     username,
			Filename:   f.Name,
			Summary:    summary,
			StorageKey: key,
		},
		key:  key,
		done: true,
	}
}

func (s *Service) summarize(ctx context.Context, text string) (string, error) {
	timeout := s.SummarizeTimeout
	if timeout <= 0 {
		timeout = defaultSummarizeTimeout
	}
	sctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	start := time.Now()
	out, err := s.Summarizer.Summarize(sctx, text)
	if err == nil && strings.TrimSpace(out) == "" {
		err = llm.ErrEmptySummary
	}
	metrics.ObserveSummarize(s.Provider, time.Since(start), err)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return "", ctxErr
		}
		return "", fmt.Errorf("%w: %w", llm.ErrSummarizationFailed, err)
	}
	return strings.TrimSpace(out), nil
}

func archivedKeys(results []result) []string {
	var keys []string
	for _, r := range results {
		if r.key != "" {
			keys = append(keys, r.key)
		}
	}
	return keys
}
