package service

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/haryzobo/quickSubmit/internal/models"
	"github.com/haryzobo/quickSubmit/pkg/config"
)

type publicationLoader interface {
	GetByID(ctx context.Context, id int64) (*models.Publication, error)
}

type submissionFileLister interface {
	ListBySubmission(ctx context.Context, submissionID int64) ([]models.SubmissionFile, error)
}

// SearchIndexService maintains the submission search index in Redis. Writers
// report metadata and file changes as they happen; the changes become visible
// to searchers only after Commit publishes the touched ids on the commit
// channel. Disabled mode turns every call into a no-op.
type SearchIndexService struct {
	client       *redis.Client
	publications publicationLoader
	files        submissionFileLister
	cfg          config.SearchConfig
	logger       *zap.Logger

	mu      sync.Mutex
	pending map[int64]struct{}
}

// NewSearchIndexService builds a SearchIndexService.
func NewSearchIndexService(client *redis.Client, publications publicationLoader, files submissionFileLister, cfg config.SearchConfig, logger *zap.Logger) *SearchIndexService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &SearchIndexService{
		client:       client,
		publications: publications,
		files:        files,
		cfg:          cfg,
		logger:       logger,
		pending:      map[int64]struct{}{},
	}
}

func (s *SearchIndexService) key(submissionID int64) string {
	return fmt.Sprintf("%s:%d", s.cfg.KeyPrefix, submissionID)
}

// MetadataChanged reindexes the searchable metadata of a submission's current
// publication and marks the submission for the next commit.
func (s *SearchIndexService) MetadataChanged(ctx context.Context, submission *models.Submission) error {
	if !s.cfg.Enabled {
		return nil
	}
	if submission.CurrentPublicationID == nil {
		return fmt.Errorf("search index: submission %d has no current publication", submission.ID)
	}

	publication, err := s.publications.GetByID(ctx, *submission.CurrentPublicationID)
	if err != nil {
		return fmt.Errorf("search index: load publication: %w", err)
	}
	if publication == nil {
		return fmt.Errorf("search index: publication %d not found", *submission.CurrentPublicationID)
	}

	authors := make([]string, 0, len(publication.Authors))
	for _, a := range publication.Authors {
		authors = append(authors, a.FullName())
	}

	fields := map[string]interface{}{
		"title":    publication.Title.Get(submission.Locale),
		"abstract": publication.Abstract.Get(submission.Locale),
		"keywords": strings.Join(publication.Keywords, " "),
		"authors":  strings.Join(authors, "; "),
		"locale":   submission.Locale,
		"status":   int(submission.Status),
	}
	if err := s.client.HSet(ctx, s.key(submission.ID), fields).Err(); err != nil {
		return fmt.Errorf("search index: write metadata: %w", err)
	}

	s.markDirty(submission.ID)
	return nil
}

// FilesChanged reindexes the file listing of a submission and marks it for
// the next commit.
func (s *SearchIndexService) FilesChanged(ctx context.Context, submission *models.Submission) error {
	if !s.cfg.Enabled {
		return nil
	}

	files, err := s.files.ListBySubmission(ctx, submission.ID)
	if err != nil {
		return fmt.Errorf("search index: list files: %w", err)
	}

	names := make([]string, 0, len(files))
	for _, f := range files {
		names = append(names, f.Name)
	}
	fields := map[string]interface{}{
		"files":      strings.Join(names, " "),
		"file_count": len(files),
	}
	if err := s.client.HSet(ctx, s.key(submission.ID), fields).Err(); err != nil {
		return fmt.Errorf("search index: write files: %w", err)
	}

	s.markDirty(submission.ID)
	return nil
}

// Commit publishes every pending submission id on the commit channel, making
// the accumulated changes visible. The pending set is cleared even when a
// publish fails part-way; callers retry by reporting the change again.
func (s *SearchIndexService) Commit(ctx context.Context) error {
	if !s.cfg.Enabled {
		return nil
	}

	s.mu.Lock()
	ids := make([]int64, 0, len(s.pending))
	for id := range s.pending {
		ids = append(ids, id)
	}
	s.pending = map[int64]struct{}{}
	s.mu.Unlock()

	for _, id := range ids {
		if err := s.client.Publish(ctx, s.cfg.Channel, fmt.Sprintf("%d", id)).Err(); err != nil {
			return fmt.Errorf("search index: commit submission %d: %w", id, err)
		}
	}
	if len(ids) > 0 {
		s.logger.Debug("search index committed", zap.Int("submissions", len(ids)))
	}
	return nil
}

// Remove drops a submission from the index, used when a draft is cancelled
// after indexing.
func (s *SearchIndexService) Remove(ctx context.Context, submissionID int64) error {
	if !s.cfg.Enabled {
		return nil
	}
	if err := s.client.Del(ctx, s.key(submissionID)).Err(); err != nil {
		return fmt.Errorf("search index: remove submission %d: %w", submissionID, err)
	}
	return nil
}

func (s *SearchIndexService) markDirty(submissionID int64) {
	s.mu.Lock()
	s.pending[submissionID] = struct{}{}
	s.mu.Unlock()
}
