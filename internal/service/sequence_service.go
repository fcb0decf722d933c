package service

import (
	"context"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"
)

// sequenceEnd parks a newly inserted item after every current member of its
// partition without knowing the current maximum. It must never survive a
// resequence pass into user-visible data.
const sequenceEnd int64 = 1<<31 - 1

type articleSequenceStore interface {
	Resequence(ctx context.Context, sectionID, issueID int64) error
}

type sectionOrderStore interface {
	CustomOrderExists(ctx context.Context, issueID int64) (bool, error)
	GetCustomOrder(ctx context.Context, issueID, sectionID int64) (*int64, error)
	InsertCustomOrder(ctx context.Context, issueID, sectionID, seq int64) error
	ResequenceCustomOrders(ctx context.Context, issueID int64) error
}

type sequenceMetrics interface {
	ObserveDBQuery(label string, duration time.Duration)
}

// SequenceService maintains dense, strictly increasing orderings over
// published-article partitions (section × issue) and custom section orders
// (issue). Each partition is serialised through its own lock so two publishes
// racing on the same partition cannot interleave their read-renumber-write.
type SequenceService struct {
	articles articleSequenceStore
	sections sectionOrderStore
	metrics  sequenceMetrics
	logger   *zap.Logger

	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

// NewSequenceService constructs the service.
func NewSequenceService(articles articleSequenceStore, sections sectionOrderStore, metrics sequenceMetrics, logger *zap.Logger) *SequenceService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &SequenceService{
		articles: articles,
		sections: sections,
		metrics:  metrics,
		logger:   logger,
		locks:    map[string]*sync.Mutex{},
	}
}

// EndSentinel returns the placement value meaning "after every current
// member". Callers assign it on insert and must resequence afterwards.
func (s *SequenceService) EndSentinel() int64 {
	return sequenceEnd
}

// ResequenceArticles renumbers the (section, issue) partition into a dense
// 1..N ordering. Idempotent on an already-dense partition.
func (s *SequenceService) ResequenceArticles(ctx context.Context, sectionID, issueID int64) error {
	unlock := s.lockPartition(fmt.Sprintf("articles:%d:%d", sectionID, issueID))
	defer unlock()

	start := time.Now()
	err := s.articles.Resequence(ctx, sectionID, issueID)
	if s.metrics != nil {
		s.metrics.ObserveDBQuery("published_articles_resequence", time.Since(start))
	}
	if err != nil {
		return err
	}
	s.logger.Debug("resequenced published articles",
		zap.Int64("section_id", sectionID), zap.Int64("issue_id", issueID))
	return nil
}

// EnsureCustomSectionOrder lazily creates a custom order entry for the
// section within the issue the first time the section receives a published
// article there, then compacts the issue's whole order list. A no-op when the
// issue does not use custom ordering or the entry already exists.
func (s *SequenceService) EnsureCustomSectionOrder(ctx context.Context, issueID, sectionID int64) error {
	unlock := s.lockPartition(fmt.Sprintf("sections:%d", issueID))
	defer unlock()

	enabled, err := s.sections.CustomOrderExists(ctx, issueID)
	if err != nil {
		return err
	}
	if !enabled {
		return nil
	}

	existing, err := s.sections.GetCustomOrder(ctx, issueID, sectionID)
	if err != nil {
		return err
	}
	if existing != nil {
		return nil
	}

	if err := s.sections.InsertCustomOrder(ctx, issueID, sectionID, sequenceEnd); err != nil {
		return err
	}
	start := time.Now()
	err = s.sections.ResequenceCustomOrders(ctx, issueID)
	if s.metrics != nil {
		s.metrics.ObserveDBQuery("custom_section_orders_resequence", time.Since(start))
	}
	if err != nil {
		return err
	}
	s.logger.Debug("created custom section order",
		zap.Int64("issue_id", issueID), zap.Int64("section_id", sectionID))
	return nil
}

func (s *SequenceService) lockPartition(key string) func() {
	s.mu.Lock()
	lock, ok := s.locks[key]
	if !ok {
		lock = &sync.Mutex{}
		s.locks[key] = lock
	}
	s.mu.Unlock()

	lock.Lock()
	return lock.Unlock
}
