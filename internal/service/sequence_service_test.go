package service

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type articleSequenceStoreStub struct {
	mu    sync.Mutex
	calls [][2]int64
	err   error
}

func (s *articleSequenceStoreStub) Resequence(ctx context.Context, sectionID, issueID int64) error {
	s.mu.Lock()
	s.calls = append(s.calls, [2]int64{sectionID, issueID})
	s.mu.Unlock()
	return s.err
}

type sectionOrderStoreStub struct {
	enabled   bool
	existing  *int64
	getErr    error
	inserted  [][3]int64
	compacted []int64
}

func (s *sectionOrderStoreStub) CustomOrderExists(ctx context.Context, issueID int64) (bool, error) {
	return s.enabled, nil
}

func (s *sectionOrderStoreStub) GetCustomOrder(ctx context.Context, issueID, sectionID int64) (*int64, error) {
	return s.existing, s.getErr
}

func (s *sectionOrderStoreStub) InsertCustomOrder(ctx context.Context, issueID, sectionID, seq int64) error {
	s.inserted = append(s.inserted, [3]int64{issueID, sectionID, seq})
	return nil
}

func (s *sectionOrderStoreStub) ResequenceCustomOrders(ctx context.Context, issueID int64) error {
	s.compacted = append(s.compacted, issueID)
	return nil
}

type sequenceMetricsStub struct {
	mu     sync.Mutex
	labels []string
}

func (s *sequenceMetricsStub) ObserveDBQuery(label string, duration time.Duration) {
	s.mu.Lock()
	s.labels = append(s.labels, label)
	s.mu.Unlock()
}

func TestResequenceArticlesDelegates(t *testing.T) {
	articles := &articleSequenceStoreStub{}
	svc := NewSequenceService(articles, &sectionOrderStoreStub{}, nil, nil)

	require.NoError(t, svc.ResequenceArticles(context.Background(), 2, 3))
	require.NoError(t, svc.ResequenceArticles(context.Background(), 2, 3))
	assert.Equal(t, [][2]int64{{2, 3}, {2, 3}}, articles.calls)
}

func TestResequenceArticlesObservesQueryDuration(t *testing.T) {
	metrics := &sequenceMetricsStub{}
	svc := NewSequenceService(&articleSequenceStoreStub{}, &sectionOrderStoreStub{}, metrics, nil)

	require.NoError(t, svc.ResequenceArticles(context.Background(), 2, 3))
	assert.Equal(t, []string{"published_articles_resequence"}, metrics.labels)
}

func TestEnsureCustomSectionOrderObservesQueryDuration(t *testing.T) {
	metrics := &sequenceMetricsStub{}
	sections := &sectionOrderStoreStub{enabled: true}
	svc := NewSequenceService(&articleSequenceStoreStub{}, sections, metrics, nil)

	require.NoError(t, svc.EnsureCustomSectionOrder(context.Background(), 3, 2))
	assert.Equal(t, []string{"custom_section_orders_resequence"}, metrics.labels)
}

func TestResequenceArticlesPropagatesError(t *testing.T) {
	articles := &articleSequenceStoreStub{err: errors.New("deadlock")}
	svc := NewSequenceService(articles, &sectionOrderStoreStub{}, nil, nil)

	err := svc.ResequenceArticles(context.Background(), 2, 3)
	assert.Error(t, err)
}

func TestResequenceArticlesSerialisesPartition(t *testing.T) {
	articles := &articleSequenceStoreStub{}
	svc := NewSequenceService(articles, &sectionOrderStoreStub{}, nil, nil)

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_ = svc.ResequenceArticles(context.Background(), 2, 3)
		}()
	}
	wg.Wait()

	assert.Len(t, articles.calls, 8)
}

func TestEndSentinelIsStable(t *testing.T) {
	svc := NewSequenceService(&articleSequenceStoreStub{}, &sectionOrderStoreStub{}, nil, nil)
	assert.Equal(t, int64(1<<31-1), svc.EndSentinel())
}

func TestEnsureCustomSectionOrderCreatesEntry(t *testing.T) {
	sections := &sectionOrderStoreStub{enabled: true}
	svc := NewSequenceService(&articleSequenceStoreStub{}, sections, nil, nil)

	require.NoError(t, svc.EnsureCustomSectionOrder(context.Background(), 3, 2))
	require.Len(t, sections.inserted, 1)
	assert.Equal(t, [3]int64{3, 2, 1<<31 - 1}, sections.inserted[0])
	assert.Equal(t, []int64{3}, sections.compacted)
}

func TestEnsureCustomSectionOrderSkipsExistingEntry(t *testing.T) {
	seq := int64(4)
	sections := &sectionOrderStoreStub{enabled: true, existing: &seq}
	svc := NewSequenceService(&articleSequenceStoreStub{}, sections, nil, nil)

	require.NoError(t, svc.EnsureCustomSectionOrder(context.Background(), 3, 2))
	assert.Empty(t, sections.inserted)
	assert.Empty(t, sections.compacted)
}

func TestEnsureCustomSectionOrderSkipsUnorderedIssue(t *testing.T) {
	sections := &sectionOrderStoreStub{enabled: false}
	svc := NewSequenceService(&articleSequenceStoreStub{}, sections, nil, nil)

	require.NoError(t, svc.EnsureCustomSectionOrder(context.Background(), 3, 2))
	assert.Empty(t, sections.inserted)
}
