package service

import (
	"context"
	"fmt"
	"path"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/haryzobo/quickSubmit/internal/dto"
	"github.com/haryzobo/quickSubmit/internal/models"
	"github.com/haryzobo/quickSubmit/pkg/config"
	appErrors "github.com/haryzobo/quickSubmit/pkg/errors"
)

type journalStore interface {
	GetByID(ctx context.Context, id int64) (*models.Journal, error)
}

type submissionStore interface {
	GetByID(ctx context.Context, id, journalID int64) (*models.Submission, error)
	Create(ctx context.Context, s *models.Submission) error
	Update(ctx context.Context, s *models.Submission) error
	UpdateLocale(ctx context.Context, id int64, locale string) error
	SetCurrentPublication(ctx context.Context, id, publicationID int64) error
	Delete(ctx context.Context, id int64) error
}

type publicationStore interface {
	Create(ctx context.Context, p *models.Publication) error
	GetByID(ctx context.Context, id int64) (*models.Publication, error)
	UpdateMetadata(ctx context.Context, id int64, title, abstract models.LocalizedText, keywords []string, authors []models.Author) error
}

type sectionStore interface {
	ListTitlesByJournal(ctx context.Context, journalID int64) ([]models.SectionTitle, error)
	GetByID(ctx context.Context, id, journalID int64) (*models.Section, error)
	Exists(ctx context.Context, id, journalID int64) (bool, error)
}

type issueStore interface {
	GetByID(ctx context.Context, id, journalID int64) (*models.Issue, error)
	HasAny(ctx context.Context, journalID int64) (bool, error)
}

type publishedArticleStore interface {
	Create(ctx context.Context, a *models.PublishedArticle) error
}

type stageAssignmentStore interface {
	Create(ctx context.Context, a *models.StageAssignment) error
}

type managerGroupResolver interface {
	FirstManagerGroup(ctx context.Context, userID, journalID int64) (*models.UserGroup, error)
}

type submissionFileStore interface {
	ListGalleys(ctx context.Context, publicationID int64) ([]models.Galley, error)
	LatestRevision(ctx context.Context, fileID int64) (int, error)
	GetByFileRevision(ctx context.Context, fileID int64, revision int) (*models.SubmissionFile, error)
	Create(ctx context.Context, f *models.SubmissionFile) error
}

type fileCopier interface {
	Copy(src, dst string) (string, error)
}

type sequenceAssigner interface {
	EndSentinel() int64
	ResequenceArticles(ctx context.Context, sectionID, issueID int64) error
	EnsureCustomSectionOrder(ctx context.Context, issueID, sectionID int64) error
}

type searchIndexer interface {
	MetadataChanged(ctx context.Context, s *models.Submission) error
	FilesChanged(ctx context.Context, s *models.Submission) error
	Commit(ctx context.Context) error
	Remove(ctx context.Context, submissionID int64) error
}

type issueOptionsBuilder interface {
	Build(ctx context.Context, journalID int64) (dto.IssueOptionGroups, error)
}

// IntakeService owns the quick-submission lifecycle: draft creation, input
// validation, commit and cancellation.
type IntakeService struct {
	journals     journalStore
	submissions  submissionStore
	publications publicationStore
	sections     sectionStore
	issues       issueStore
	published    publishedArticleStore
	assignments  stageAssignmentStore
	groups       managerGroupResolver
	files        submissionFileStore
	storage      fileCopier
	sequences    sequenceAssigner
	search       searchIndexer
	options      issueOptionsBuilder
	cfg          config.IntakeConfig
	validator    *validator.Validate
	logger       *zap.Logger
	now          func() time.Time
}

// IntakeDeps bundles the orchestrator's collaborators.
type IntakeDeps struct {
	Journals     journalStore
	Submissions  submissionStore
	Publications publicationStore
	Sections     sectionStore
	Issues       issueStore
	Published    publishedArticleStore
	Assignments  stageAssignmentStore
	Groups       managerGroupResolver
	Files        submissionFileStore
	Storage      fileCopier
	Sequences    sequenceAssigner
	Search       searchIndexer
	Options      issueOptionsBuilder
}

// NewIntakeService builds an IntakeService with sane defaults.
func NewIntakeService(deps IntakeDeps, cfg config.IntakeConfig, validate *validator.Validate, logger *zap.Logger) *IntakeService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &IntakeService{
		journals:     deps.Journals,
		submissions:  deps.Submissions,
		publications: deps.Publications,
		sections:     deps.Sections,
		issues:       deps.Issues,
		published:    deps.Published,
		assignments:  deps.Assignments,
		groups:       deps.Groups,
		files:        deps.Files,
		storage:      deps.Storage,
		sequences:    deps.Sequences,
		search:       deps.Search,
		options:      deps.Options,
		cfg:          cfg,
		validator:    validate,
		logger:       logger,
		now:          func() time.Time { return time.Now().UTC() },
	}
}

// InitDraft opens a quick-submit session. With a submission id it resumes the
// existing draft, forcing its locale to the working locale and persisting
// that change immediately. Otherwise it creates the draft submission, its
// current publication and the submitter's stage assignment.
func (s *IntakeService) InitDraft(ctx context.Context, req dto.DraftRequest, actor *models.JWTClaims) (*dto.DraftResponse, error) {
	if actor == nil {
		return nil, appErrors.ErrUnauthorized
	}
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid draft payload")
	}

	journal, err := s.journals.GetByID(ctx, req.JournalID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load journal")
	}
	if journal == nil {
		return nil, appErrors.Clone(appErrors.ErrNotFound, "journal not found")
	}

	locale := req.Locale
	if locale == "" {
		locale = s.workingLocale(journal)
	}

	if req.SubmissionID != 0 {
		return s.resumeDraft(ctx, req.SubmissionID, journal, locale)
	}

	sections, err := s.sections.ListTitlesByJournal(ctx, journal.ID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list sections")
	}
	if len(sections) == 0 {
		return nil, appErrors.Clone(appErrors.ErrPreconditionFailed, "journal has no sections configured")
	}
	defaultSectionID := sections[0].ID

	submission := &models.Submission{
		JournalID: journal.ID,
		Locale:    locale,
		Status:    models.StatusQueued,
		StageID:   models.StageSubmission,
		Progress:  1,
		SectionID: defaultSectionID,
	}
	if err := s.submissions.Create(ctx, submission); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create submission")
	}

	publication := &models.Publication{
		SubmissionID: submission.ID,
		Locale:       locale,
		Language:     languageOf(locale),
		SectionID:    defaultSectionID,
		Status:       models.StatusQueued,
	}
	if err := s.publications.Create(ctx, publication); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create publication")
	}
	if err := s.submissions.SetCurrentPublication(ctx, submission.ID, publication.ID); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to link publication")
	}

	var groupID *int64
	group, err := s.groups.FirstManagerGroup(ctx, actor.UserID, journal.ID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to resolve manager group")
	}
	if group != nil {
		groupID = &group.ID
	}
	assignment := &models.StageAssignment{
		SubmissionID: submission.ID,
		UserGroupID:  groupID,
		UserID:       actor.UserID,
	}
	if err := s.assignments.Create(ctx, assignment); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create stage assignment")
	}

	s.logger.Info("quick-submit draft created",
		zap.Int64("submission_id", submission.ID),
		zap.Int64("journal_id", journal.ID),
		zap.Int64("user_id", actor.UserID))

	return &dto.DraftResponse{
		SubmissionID:  submission.ID,
		PublicationID: publication.ID,
		SectionID:     defaultSectionID,
		Locale:        locale,
	}, nil
}

func (s *IntakeService) resumeDraft(ctx context.Context, submissionID int64, journal *models.Journal, locale string) (*dto.DraftResponse, error) {
	submission, err := s.submissions.GetByID(ctx, submissionID, journal.ID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load submission")
	}
	if submission == nil {
		return nil, appErrors.Clone(appErrors.ErrNotFound, "submission not found")
	}
	if err := s.submissions.UpdateLocale(ctx, submission.ID, locale); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update submission locale")
	}

	resp := &dto.DraftResponse{
		SubmissionID: submission.ID,
		SectionID:    submission.SectionID,
		Locale:       locale,
	}
	if submission.CurrentPublicationID != nil {
		resp.PublicationID = *submission.CurrentPublicationID
	}
	return resp, nil
}

// Validate checks the bound form fields against the journal. The only
// cross-field business rule: publishing requires a positive issue id.
func (s *IntakeService) Validate(ctx context.Context, journal *models.Journal, req *dto.QuickSubmitRequest) error {
	if err := s.validator.Struct(req); err != nil {
		return appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid submission payload")
	}

	exists, err := s.sections.Exists(ctx, req.SectionID, journal.ID)
	if err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to verify section")
	}
	if !exists {
		return appErrors.Validation("a valid section is required", map[string]string{"sectionId": "section does not exist in this journal"})
	}

	if !containsLocale(journal.SubmissionLocales(), req.Locale) {
		return appErrors.Validation("unsupported submission locale", map[string]string{"locale": "locale is not accepted for submissions"})
	}

	if req.ArticleStatus == 1 && req.IssueID <= 0 {
		return appErrors.Validation("select an issue", map[string]string{"issueId": "select an issue"})
	}

	return nil
}

// Execute commits the quick submission: metadata, optional publish, galley
// file copy, stage advance, resequencing and search-index notification, in
// that order. Each step must fully succeed before the next begins.
func (s *IntakeService) Execute(ctx context.Context, journalID int64, req dto.QuickSubmitRequest, actor *models.JWTClaims) (*dto.ExecuteResponse, error) {
	if actor == nil {
		return nil, appErrors.ErrUnauthorized
	}

	journal, err := s.journals.GetByID(ctx, journalID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load journal")
	}
	if journal == nil {
		return nil, appErrors.Clone(appErrors.ErrNotFound, "journal not found")
	}

	submission, err := s.submissions.GetByID(ctx, req.SubmissionID, journal.ID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load submission")
	}
	if submission == nil {
		return nil, appErrors.Clone(appErrors.ErrNotFound, "submission not found")
	}
	if submission.CurrentPublicationID == nil {
		return nil, appErrors.Clone(appErrors.ErrPreconditionFailed, "submission has no current publication")
	}

	if err := s.Validate(ctx, journal, &req); err != nil {
		return nil, err
	}

	// Step 1: metadata sub-form.
	if err := s.publications.UpdateMetadata(ctx, *submission.CurrentPublicationID,
		models.LocalizedText(req.Metadata.Title),
		models.LocalizedText(req.Metadata.Abstract),
		req.Metadata.Keywords,
		authorsFromInput(*submission.CurrentPublicationID, req.Metadata.Authors),
	); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to save metadata")
	}

	// Step 2: section from bound input.
	submission.SectionID = req.SectionID

	// Step 3: optional publish.
	var article *models.PublishedArticle
	if req.ArticleStatus == 1 {
		article, err = s.publish(ctx, journal, submission, req)
		if err != nil {
			return nil, err
		}
	}

	// Step 4: copy galley files into the submission file area.
	copied, err := s.copyGalleyFiles(ctx, submission)
	if err != nil {
		return nil, err
	}

	// Step 5: finish the submission flow.
	now := s.now()
	submission.Locale = req.Locale
	submission.StageID = models.StageProduction
	submission.DateSubmitted = &now
	submission.Progress = 0
	submission.DateStatusModified = now

	// Step 6: persist.
	if err := s.submissions.Update(ctx, submission); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update submission")
	}

	// Step 7: restore dense ordering for the touched partitions.
	if article != nil {
		if err := s.sequences.ResequenceArticles(ctx, submission.SectionID, article.IssueID); err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to resequence issue section")
		}
		if err := s.sequences.EnsureCustomSectionOrder(ctx, article.IssueID, submission.SectionID); err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to order issue sections")
		}
	}

	// Step 8: search index contract — metadata, then files, then commit.
	if err := s.search.MetadataChanged(ctx, submission); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to index metadata")
	}
	if err := s.search.FilesChanged(ctx, submission); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to index files")
	}
	if err := s.search.Commit(ctx); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to commit search index")
	}

	s.logger.Info("quick submission committed",
		zap.Int64("submission_id", submission.ID),
		zap.Bool("published", article != nil),
		zap.Int("copied_files", copied))

	return &dto.ExecuteResponse{
		Submission:       submission,
		PublishedArticle: article,
		CopiedFiles:      copied,
	}, nil
}

func (s *IntakeService) publish(ctx context.Context, journal *models.Journal, submission *models.Submission, req dto.QuickSubmitRequest) (*models.PublishedArticle, error) {
	issue, err := s.issues.GetByID(ctx, req.IssueID, journal.ID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load issue")
	}
	if issue == nil {
		return nil, appErrors.Clone(appErrors.ErrNotFound, "issue not found")
	}

	var datePublished *time.Time
	if req.DatePublished != "" {
		parsed, err := time.Parse("2006-01-02", req.DatePublished)
		if err != nil {
			return nil, appErrors.Validation("invalid publication date", map[string]string{"datePublished": "expected YYYY-MM-DD"})
		}
		datePublished = &parsed
	}

	submission.Status = models.StatusPublished
	if req.CopyrightYear > 0 {
		year := req.CopyrightYear
		submission.CopyrightYear = &year
	}
	submission.CopyrightHolder = req.CopyrightHolder
	submission.LicenseURL = req.LicenseURL
	submission.Pages = req.Pages

	article := &models.PublishedArticle{
		ID:            submission.ID,
		IssueID:       issue.ID,
		SectionID:     req.SectionID,
		DatePublished: datePublished,
		Seq:           s.sequences.EndSentinel(),
		AccessStatus:  models.AccessIssueDefault,
	}
	if err := s.published.Create(ctx, article); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create published article")
	}
	return article, nil
}

func (s *IntakeService) copyGalleyFiles(ctx context.Context, submission *models.Submission) (int, error) {
	galleys, err := s.files.ListGalleys(ctx, *submission.CurrentPublicationID)
	if err != nil {
		return 0, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list galleys")
	}

	copied := 0
	for _, galley := range galleys {
		if galley.FileID == nil {
			continue
		}
		revision, err := s.files.LatestRevision(ctx, *galley.FileID)
		if err != nil {
			return copied, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to resolve file revision")
		}
		source, err := s.files.GetByFileRevision(ctx, *galley.FileID, revision)
		if err != nil {
			return copied, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load galley file")
		}
		if source == nil {
			continue
		}

		dst := fmt.Sprintf("submissions/%d/%s%s", submission.ID, uuid.NewString(), path.Ext(source.Name))
		if _, err := s.storage.Copy(source.Path, dst); err != nil {
			return copied, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to copy galley file")
		}

		record := &models.SubmissionFile{
			SubmissionID: submission.ID,
			FileID:       source.FileID,
			Revision:     source.Revision,
			FileStage:    models.FileStageSubmission,
			Name:         source.Name,
			Path:         dst,
			MimeType:     source.MimeType,
		}
		if err := s.files.Create(ctx, record); err != nil {
			return copied, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to record copied file")
		}
		copied++
	}
	return copied, nil
}

// Cancel deletes an abandoned draft. Cancelling a submission that does not
// exist is a no-op, not an error.
func (s *IntakeService) Cancel(ctx context.Context, journalID, submissionID int64, actor *models.JWTClaims) error {
	if actor == nil {
		return appErrors.ErrUnauthorized
	}
	submission, err := s.submissions.GetByID(ctx, submissionID, journalID)
	if err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load submission")
	}
	if submission == nil {
		return nil
	}
	if err := s.submissions.Delete(ctx, submission.ID); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to delete submission")
	}
	// A partially executed draft may already sit in the search index. The
	// row is gone either way, so index removal failures only get logged.
	if err := s.search.Remove(ctx, submission.ID); err != nil {
		s.logger.Warn("failed to remove cancelled draft from search index",
			zap.Int64("submission_id", submissionID), zap.Error(err))
	}
	s.logger.Info("quick-submit draft cancelled", zap.Int64("submission_id", submissionID))
	return nil
}

// FormSupport assembles the display-support data for the form: section and
// issue options, supported locales and the abstract policy of the selected
// section (defaulting to the journal's first section).
func (s *IntakeService) FormSupport(ctx context.Context, journalID, sectionID int64) (*dto.FormSupportResponse, error) {
	journal, err := s.journals.GetByID(ctx, journalID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load journal")
	}
	if journal == nil {
		return nil, appErrors.Clone(appErrors.ErrNotFound, "journal not found")
	}

	sections, err := s.sections.ListTitlesByJournal(ctx, journalID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list sections")
	}

	hasIssues, err := s.issues.HasAny(ctx, journalID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to check issues")
	}

	options, err := s.options.Build(ctx, journalID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to build issue options")
	}

	resp := &dto.FormSupportResponse{
		SectionOptions:   sections,
		HasIssues:        hasIssues,
		IssueOptions:     options,
		SupportedLocales: journal.SubmissionLocales(),
	}

	if sectionID == 0 && len(sections) > 0 {
		sectionID = sections[0].ID
	}
	if sectionID > 0 {
		section, err := s.sections.GetByID(ctx, sectionID, journalID)
		if err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load section")
		}
		if section != nil {
			resp.AbstractWordCount = section.AbstractWordCount
			resp.AbstractsRequired = !section.AbstractsNotRequired
		}
	}

	return resp, nil
}

func authorsFromInput(publicationID int64, inputs []dto.AuthorInput) []models.Author {
	authors := make([]models.Author, 0, len(inputs))
	for i, in := range inputs {
		authors = append(authors, models.Author{
			PublicationID: publicationID,
			GivenName:     in.GivenName,
			FamilyName:    in.FamilyName,
			Email:         in.Email,
			Affiliation:   in.Affiliation,
			Seq:           int64(i + 1),
		})
	}
	return authors
}

func languageOf(locale string) string {
	if len(locale) < 2 {
		return locale
	}
	return strings.ToLower(locale[:2])
}

// workingLocale picks the form's locale when the request omits one: the
// configured intake default when the journal accepts it, otherwise the
// journal's primary locale.
func (s *IntakeService) workingLocale(journal *models.Journal) string {
	if s.cfg.DefaultLocale != "" && containsLocale(journal.SubmissionLocales(), s.cfg.DefaultLocale) {
		return s.cfg.DefaultLocale
	}
	return journal.PrimaryLocale
}

func containsLocale(locales []string, locale string) bool {
	for _, l := range locales {
		if l == locale {
			return true
		}
	}
	return false
}
