package service

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/haryzobo/quickSubmit/internal/dto"
	"github.com/haryzobo/quickSubmit/internal/models"
	appErrors "github.com/haryzobo/quickSubmit/pkg/errors"
)

type issueLister interface {
	ListUnpublished(ctx context.Context, journalID int64) ([]models.Issue, error)
	ListPublished(ctx context.Context, journalID int64) ([]models.Issue, error)
}

// IssueOptionsService partitions a journal's issues into the selectable
// groups shown in the form: future (unpublished), current and back issues.
type IssueOptionsService struct {
	issues issueLister
	logger *zap.Logger
	now    func() time.Time
}

// NewIssueOptionsService builds an IssueOptionsService.
func NewIssueOptionsService(issues issueLister, logger *zap.Logger) *IssueOptionsService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &IssueOptionsService{
		issues: issues,
		logger: logger,
		now:    func() time.Time { return time.Now().UTC() },
	}
}

const issueDateLayout = "2006-01-02"

// Build assembles the option groups. Unpublished issues have no publication
// date yet, so they are stamped with today's date as the prefill value. Each
// published issue carries its own date.
func (s *IssueOptionsService) Build(ctx context.Context, journalID int64) (dto.IssueOptionGroups, error) {
	groups := dto.IssueOptionGroups{
		Future: []dto.IssueOption{},
		Back:   []dto.IssueOption{},
		Dates:  map[int64]string{},
	}

	unpublished, err := s.issues.ListUnpublished(ctx, journalID)
	if err != nil {
		return groups, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list unpublished issues")
	}
	today := s.now().Format(issueDateLayout)
	for i := range unpublished {
		issue := &unpublished[i]
		groups.Future = append(groups.Future, dto.IssueOption{ID: issue.ID, Label: issue.Identification()})
		groups.Dates[issue.ID] = today
	}

	published, err := s.issues.ListPublished(ctx, journalID)
	if err != nil {
		return groups, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list published issues")
	}
	for i := range published {
		issue := &published[i]
		option := dto.IssueOption{ID: issue.ID, Label: issue.Identification()}
		if issue.Current && groups.Current == nil {
			groups.Current = &option
		} else {
			groups.Back = append(groups.Back, option)
		}
		if issue.DatePublished != nil {
			groups.Dates[issue.ID] = issue.DatePublished.Format(issueDateLayout)
		}
	}

	return groups, nil
}
