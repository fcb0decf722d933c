package service

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/haryzobo/quickSubmit/internal/dto"
	"github.com/haryzobo/quickSubmit/internal/models"
	"github.com/haryzobo/quickSubmit/pkg/config"
	appErrors "github.com/haryzobo/quickSubmit/pkg/errors"
)

type journalStoreStub struct {
	journal *models.Journal
	err     error
}

func (s *journalStoreStub) GetByID(ctx context.Context, id int64) (*models.Journal, error) {
	return s.journal, s.err
}

type submissionStoreStub struct {
	submission *models.Submission
	getErr     error
	createErr  error
	updateErr  error

	created       *models.Submission
	updated       *models.Submission
	localeUpdates []string
	linked        []int64
	deleted       []int64
}

func (s *submissionStoreStub) GetByID(ctx context.Context, id, journalID int64) (*models.Submission, error) {
	return s.submission, s.getErr
}

func (s *submissionStoreStub) Create(ctx context.Context, sub *models.Submission) error {
	if s.createErr != nil {
		return s.createErr
	}
	sub.ID = 10
	s.created = sub
	return nil
}

func (s *submissionStoreStub) Update(ctx context.Context, sub *models.Submission) error {
	if s.updateErr != nil {
		return s.updateErr
	}
	s.updated = sub
	return nil
}

func (s *submissionStoreStub) UpdateLocale(ctx context.Context, id int64, locale string) error {
	s.localeUpdates = append(s.localeUpdates, locale)
	return nil
}

func (s *submissionStoreStub) SetCurrentPublication(ctx context.Context, id, publicationID int64) error {
	s.linked = append(s.linked, publicationID)
	return nil
}

func (s *submissionStoreStub) Delete(ctx context.Context, id int64) error {
	s.deleted = append(s.deleted, id)
	return nil
}

type publicationStoreStub struct {
	publication *models.Publication

	created        *models.Publication
	metadataCalls  int
	metadataTitle  models.LocalizedText
	metadataAuthor []models.Author
}

func (s *publicationStoreStub) Create(ctx context.Context, p *models.Publication) error {
	p.ID = 20
	s.created = p
	return nil
}

func (s *publicationStoreStub) GetByID(ctx context.Context, id int64) (*models.Publication, error) {
	return s.publication, nil
}

func (s *publicationStoreStub) UpdateMetadata(ctx context.Context, id int64, title, abstract models.LocalizedText, keywords []string, authors []models.Author) error {
	s.metadataCalls++
	s.metadataTitle = title
	s.metadataAuthor = authors
	return nil
}

type sectionStoreStub struct {
	titles  []models.SectionTitle
	section *models.Section
	exists  bool
}

func (s *sectionStoreStub) ListTitlesByJournal(ctx context.Context, journalID int64) ([]models.SectionTitle, error) {
	return s.titles, nil
}

func (s *sectionStoreStub) GetByID(ctx context.Context, id, journalID int64) (*models.Section, error) {
	return s.section, nil
}

func (s *sectionStoreStub) Exists(ctx context.Context, id, journalID int64) (bool, error) {
	return s.exists, nil
}

type issueStoreStub struct {
	issue *models.Issue
	has   bool
}

func (s *issueStoreStub) GetByID(ctx context.Context, id, journalID int64) (*models.Issue, error) {
	return s.issue, nil
}

func (s *issueStoreStub) HasAny(ctx context.Context, journalID int64) (bool, error) {
	return s.has, nil
}

type publishedStoreStub struct {
	created *models.PublishedArticle
}

func (s *publishedStoreStub) Create(ctx context.Context, a *models.PublishedArticle) error {
	s.created = a
	return nil
}

type assignmentStoreStub struct {
	created *models.StageAssignment
}

func (s *assignmentStoreStub) Create(ctx context.Context, a *models.StageAssignment) error {
	a.ID = 30
	s.created = a
	return nil
}

type groupResolverStub struct {
	group *models.UserGroup
}

func (s *groupResolverStub) FirstManagerGroup(ctx context.Context, userID, journalID int64) (*models.UserGroup, error) {
	return s.group, nil
}

type fileStoreStub struct {
	galleys   []models.Galley
	revisions map[int64]int
	files     map[int64]*models.SubmissionFile

	created []models.SubmissionFile
}

func (s *fileStoreStub) ListGalleys(ctx context.Context, publicationID int64) ([]models.Galley, error) {
	return s.galleys, nil
}

func (s *fileStoreStub) LatestRevision(ctx context.Context, fileID int64) (int, error) {
	return s.revisions[fileID], nil
}

func (s *fileStoreStub) GetByFileRevision(ctx context.Context, fileID int64, revision int) (*models.SubmissionFile, error) {
	return s.files[fileID], nil
}

func (s *fileStoreStub) Create(ctx context.Context, f *models.SubmissionFile) error {
	s.created = append(s.created, *f)
	return nil
}

type copierStub struct {
	copies [][2]string
	err    error
}

func (s *copierStub) Copy(src, dst string) (string, error) {
	if s.err != nil {
		return "", s.err
	}
	s.copies = append(s.copies, [2]string{src, dst})
	return dst, nil
}

type sequenceStub struct {
	calls           *[]string
	resequenced     [][2]int64
	sectionsOrdered [][2]int64
	resequenceErr   error
}

func (s *sequenceStub) EndSentinel() int64 { return 1<<31 - 1 }

func (s *sequenceStub) ResequenceArticles(ctx context.Context, sectionID, issueID int64) error {
	if s.resequenceErr != nil {
		return s.resequenceErr
	}
	if s.calls != nil {
		*s.calls = append(*s.calls, "resequence")
	}
	s.resequenced = append(s.resequenced, [2]int64{sectionID, issueID})
	return nil
}

func (s *sequenceStub) EnsureCustomSectionOrder(ctx context.Context, issueID, sectionID int64) error {
	if s.calls != nil {
		*s.calls = append(*s.calls, "section-order")
	}
	s.sectionsOrdered = append(s.sectionsOrdered, [2]int64{issueID, sectionID})
	return nil
}

type indexerStub struct {
	calls       *[]string
	metadataErr error
	filesErr    error
	commitErr   error
	removeErr   error
	removed     []int64
}

func (s *indexerStub) MetadataChanged(ctx context.Context, sub *models.Submission) error {
	if s.metadataErr != nil {
		return s.metadataErr
	}
	if s.calls != nil {
		*s.calls = append(*s.calls, "metadata")
	}
	return nil
}

func (s *indexerStub) FilesChanged(ctx context.Context, sub *models.Submission) error {
	if s.filesErr != nil {
		return s.filesErr
	}
	if s.calls != nil {
		*s.calls = append(*s.calls, "files")
	}
	return nil
}

func (s *indexerStub) Commit(ctx context.Context) error {
	if s.commitErr != nil {
		return s.commitErr
	}
	if s.calls != nil {
		*s.calls = append(*s.calls, "commit")
	}
	return nil
}

func (s *indexerStub) Remove(ctx context.Context, submissionID int64) error {
	if s.removeErr != nil {
		return s.removeErr
	}
	s.removed = append(s.removed, submissionID)
	return nil
}

type optionsBuilderStub struct {
	groups dto.IssueOptionGroups
}

func (s *optionsBuilderStub) Build(ctx context.Context, journalID int64) (dto.IssueOptionGroups, error) {
	return s.groups, nil
}

type intakeFixture struct {
	cfg         config.IntakeConfig
	journals    *journalStoreStub
	submissions *submissionStoreStub
	pubs        *publicationStoreStub
	sections    *sectionStoreStub
	issues      *issueStoreStub
	published   *publishedStoreStub
	assignments *assignmentStoreStub
	groups      *groupResolverStub
	files       *fileStoreStub
	copier      *copierStub
	sequences   *sequenceStub
	indexer     *indexerStub
	options     *optionsBuilderStub
	calls       []string
}

func newIntakeFixture() *intakeFixture {
	f := &intakeFixture{
		journals: &journalStoreStub{journal: &models.Journal{
			ID:               1,
			PrimaryLocale:    "en_US",
			SupportedLocales: []string{"en_US", "fr_CA"},
		}},
		submissions: &submissionStoreStub{},
		pubs:        &publicationStoreStub{},
		sections: &sectionStoreStub{
			titles: []models.SectionTitle{{ID: 2, Title: "Articles"}, {ID: 5, Title: "Reviews"}},
			exists: true,
		},
		issues:      &issueStoreStub{issue: &models.Issue{ID: 3, JournalID: 1, Published: true}, has: true},
		published:   &publishedStoreStub{},
		assignments: &assignmentStoreStub{},
		groups:      &groupResolverStub{},
		files:       &fileStoreStub{revisions: map[int64]int{}, files: map[int64]*models.SubmissionFile{}},
		copier:      &copierStub{},
		options:     &optionsBuilderStub{},
	}
	f.sequences = &sequenceStub{calls: &f.calls}
	f.indexer = &indexerStub{calls: &f.calls}
	return f
}

func (f *intakeFixture) service() *IntakeService {
	return NewIntakeService(IntakeDeps{
		Journals:     f.journals,
		Submissions:  f.submissions,
		Publications: f.pubs,
		Sections:     f.sections,
		Issues:       f.issues,
		Published:    f.published,
		Assignments:  f.assignments,
		Groups:       f.groups,
		Files:        f.files,
		Storage:      f.copier,
		Sequences:    f.sequences,
		Search:       f.indexer,
		Options:      f.options,
	}, f.cfg, nil, nil)
}

func managerClaims() *models.JWTClaims {
	return &models.JWTClaims{UserID: 7, Role: models.RoleManager}
}

func validRequest() dto.QuickSubmitRequest {
	return dto.QuickSubmitRequest{
		SubmissionID:  10,
		SectionID:     2,
		ArticleStatus: 0,
		Locale:        "en_US",
		Metadata: dto.SubmissionMetadata{
			Title: map[string]string{"en_US": "A Study"},
		},
	}
}

func draftSubmission() *models.Submission {
	pubID := int64(20)
	return &models.Submission{
		ID:                   10,
		JournalID:            1,
		Locale:               "en_US",
		Status:               models.StatusQueued,
		StageID:              models.StageSubmission,
		Progress:             1,
		SectionID:            2,
		CurrentPublicationID: &pubID,
	}
}

func TestInitDraftCreatesSubmissionPublicationAndAssignment(t *testing.T) {
	f := newIntakeFixture()
	groupID := int64(40)
	f.groups.group = &models.UserGroup{ID: groupID, RoleID: models.RoleIDManager}
	svc := f.service()

	resp, err := svc.InitDraft(context.Background(), dto.DraftRequest{JournalID: 1}, managerClaims())
	require.NoError(t, err)

	require.NotNil(t, f.submissions.created)
	assert.Equal(t, models.StatusQueued, f.submissions.created.Status)
	assert.Equal(t, models.StageSubmission, f.submissions.created.StageID)
	assert.Equal(t, 1, f.submissions.created.Progress)
	assert.Equal(t, int64(2), f.submissions.created.SectionID)

	require.NotNil(t, f.pubs.created)
	assert.Equal(t, int64(10), f.pubs.created.SubmissionID)
	assert.Equal(t, []int64{20}, f.submissions.linked)

	require.NotNil(t, f.assignments.created)
	require.NotNil(t, f.assignments.created.UserGroupID)
	assert.Equal(t, groupID, *f.assignments.created.UserGroupID)
	assert.Equal(t, int64(7), f.assignments.created.UserID)

	assert.Equal(t, int64(10), resp.SubmissionID)
	assert.Equal(t, int64(20), resp.PublicationID)
	assert.Equal(t, "en_US", resp.Locale)
}

func TestInitDraftWithoutManagerGroup(t *testing.T) {
	f := newIntakeFixture()
	svc := f.service()

	_, err := svc.InitDraft(context.Background(), dto.DraftRequest{JournalID: 1}, managerClaims())
	require.NoError(t, err)
	require.NotNil(t, f.assignments.created)
	assert.Nil(t, f.assignments.created.UserGroupID)
}

func TestInitDraftUsesConfiguredDefaultLocale(t *testing.T) {
	f := newIntakeFixture()
	f.cfg = config.IntakeConfig{DefaultLocale: "fr_CA"}
	svc := f.service()

	resp, err := svc.InitDraft(context.Background(), dto.DraftRequest{JournalID: 1}, managerClaims())
	require.NoError(t, err)
	assert.Equal(t, "fr_CA", resp.Locale)
	assert.Equal(t, "fr_CA", f.submissions.created.Locale)
}

func TestInitDraftIgnoresUnsupportedDefaultLocale(t *testing.T) {
	f := newIntakeFixture()
	f.cfg = config.IntakeConfig{DefaultLocale: "de_DE"}
	svc := f.service()

	resp, err := svc.InitDraft(context.Background(), dto.DraftRequest{JournalID: 1}, managerClaims())
	require.NoError(t, err)
	assert.Equal(t, "en_US", resp.Locale)
}

func TestInitDraftResumeForcesLocale(t *testing.T) {
	f := newIntakeFixture()
	f.submissions.submission = draftSubmission()
	svc := f.service()

	resp, err := svc.InitDraft(context.Background(), dto.DraftRequest{JournalID: 1, SubmissionID: 10, Locale: "fr_CA"}, managerClaims())
	require.NoError(t, err)
	assert.Equal(t, []string{"fr_CA"}, f.submissions.localeUpdates)
	assert.Equal(t, "fr_CA", resp.Locale)
	assert.Nil(t, f.submissions.created)
}

func TestInitDraftUnknownJournal(t *testing.T) {
	f := newIntakeFixture()
	f.journals.journal = nil
	svc := f.service()

	_, err := svc.InitDraft(context.Background(), dto.DraftRequest{JournalID: 99}, managerClaims())
	require.Error(t, err)
	appErr := appErrors.FromError(err)
	assert.Equal(t, appErrors.ErrNotFound.Code, appErr.Code)
}

func TestValidatePublishRequiresIssue(t *testing.T) {
	f := newIntakeFixture()
	svc := f.service()

	req := validRequest()
	req.ArticleStatus = 1
	req.IssueID = 0

	err := svc.Validate(context.Background(), f.journals.journal, &req)
	require.Error(t, err)
	appErr := appErrors.FromError(err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErr.Code)
	assert.Contains(t, appErr.Fields, "issueId")
}

func TestValidateUnpublishedWithoutIssuePasses(t *testing.T) {
	f := newIntakeFixture()
	svc := f.service()

	req := validRequest()
	err := svc.Validate(context.Background(), f.journals.journal, &req)
	require.NoError(t, err)
}

func TestValidateRejectsUnknownSection(t *testing.T) {
	f := newIntakeFixture()
	f.sections.exists = false
	svc := f.service()

	req := validRequest()
	err := svc.Validate(context.Background(), f.journals.journal, &req)
	require.Error(t, err)
	appErr := appErrors.FromError(err)
	assert.Contains(t, appErr.Fields, "sectionId")
}

func TestValidateRejectsUnsupportedLocale(t *testing.T) {
	f := newIntakeFixture()
	svc := f.service()

	req := validRequest()
	req.Locale = "de_DE"
	err := svc.Validate(context.Background(), f.journals.journal, &req)
	require.Error(t, err)
	appErr := appErrors.FromError(err)
	assert.Contains(t, appErr.Fields, "locale")
}

func TestExecuteUnpublishedSubmission(t *testing.T) {
	f := newIntakeFixture()
	f.submissions.submission = draftSubmission()
	svc := f.service()

	resp, err := svc.Execute(context.Background(), 1, validRequest(), managerClaims())
	require.NoError(t, err)

	assert.Nil(t, resp.PublishedArticle)
	assert.Nil(t, f.published.created)
	assert.Empty(t, f.sequences.resequenced)

	require.NotNil(t, f.submissions.updated)
	assert.Equal(t, models.StatusQueued, f.submissions.updated.Status)
	assert.Equal(t, models.StageProduction, f.submissions.updated.StageID)
	assert.Equal(t, 0, f.submissions.updated.Progress)
	require.NotNil(t, f.submissions.updated.DateSubmitted)

	assert.Equal(t, 1, f.pubs.metadataCalls)
	assert.Equal(t, []string{"metadata", "files", "commit"}, f.calls)
}

func TestExecutePublishedSubmission(t *testing.T) {
	f := newIntakeFixture()
	f.submissions.submission = draftSubmission()
	svc := f.service()

	req := validRequest()
	req.ArticleStatus = 1
	req.IssueID = 3
	req.DatePublished = "2024-06-01"
	req.CopyrightHolder = "Press"
	req.CopyrightYear = 2024
	req.Pages = "1-20"

	resp, err := svc.Execute(context.Background(), 1, req, managerClaims())
	require.NoError(t, err)

	require.NotNil(t, resp.PublishedArticle)
	assert.Equal(t, int64(10), resp.PublishedArticle.ID)
	assert.Equal(t, int64(3), resp.PublishedArticle.IssueID)
	assert.Equal(t, int64(1<<31-1), resp.PublishedArticle.Seq)
	assert.Equal(t, models.AccessIssueDefault, resp.PublishedArticle.AccessStatus)
	require.NotNil(t, resp.PublishedArticle.DatePublished)
	assert.Equal(t, "2024-06-01", resp.PublishedArticle.DatePublished.Format("2006-01-02"))

	assert.Equal(t, models.StatusPublished, f.submissions.updated.Status)
	assert.Equal(t, "Press", f.submissions.updated.CopyrightHolder)
	require.NotNil(t, f.submissions.updated.CopyrightYear)
	assert.Equal(t, 2024, *f.submissions.updated.CopyrightYear)

	assert.Equal(t, [][2]int64{{2, 3}}, f.sequences.resequenced)
	assert.Equal(t, [][2]int64{{3, 2}}, f.sequences.sectionsOrdered)
	assert.Equal(t, []string{"metadata", "files", "commit"}, f.calls[len(f.calls)-3:])
}

func TestExecutePublishRejectsBadDate(t *testing.T) {
	f := newIntakeFixture()
	f.submissions.submission = draftSubmission()
	svc := f.service()

	req := validRequest()
	req.ArticleStatus = 1
	req.IssueID = 3
	req.DatePublished = "June 1st"

	_, err := svc.Execute(context.Background(), 1, req, managerClaims())
	require.Error(t, err)
	appErr := appErrors.FromError(err)
	assert.Contains(t, appErr.Fields, "datePublished")
}

func TestExecuteCopiesGalleyFilesSkippingEmpty(t *testing.T) {
	f := newIntakeFixture()
	f.submissions.submission = draftSubmission()
	fileID := int64(50)
	f.files.galleys = []models.Galley{
		{ID: 1, PublicationID: 20, FileID: nil},
		{ID: 2, PublicationID: 20, FileID: &fileID},
	}
	f.files.revisions[fileID] = 2
	f.files.files[fileID] = &models.SubmissionFile{
		ID: 60, SubmissionID: 10, FileID: fileID, Revision: 2,
		FileStage: models.FileStageGalley, Name: "article.pdf", Path: "galleys/article.pdf", MimeType: "application/pdf",
	}
	svc := f.service()

	resp, err := svc.Execute(context.Background(), 1, validRequest(), managerClaims())
	require.NoError(t, err)

	assert.Equal(t, 1, resp.CopiedFiles)
	require.Len(t, f.copier.copies, 1)
	assert.Equal(t, "galleys/article.pdf", f.copier.copies[0][0])

	require.Len(t, f.files.created, 1)
	assert.Equal(t, models.FileStageSubmission, f.files.created[0].FileStage)
	assert.Equal(t, fileID, f.files.created[0].FileID)
}

func TestExecuteIndexerErrorPropagates(t *testing.T) {
	f := newIntakeFixture()
	f.submissions.submission = draftSubmission()
	f.indexer.filesErr = errors.New("redis down")
	svc := f.service()

	_, err := svc.Execute(context.Background(), 1, validRequest(), managerClaims())
	require.Error(t, err)
	assert.NotContains(t, f.calls, "commit")
}

func TestExecuteUnknownSubmission(t *testing.T) {
	f := newIntakeFixture()
	svc := f.service()

	_, err := svc.Execute(context.Background(), 1, validRequest(), managerClaims())
	require.Error(t, err)
	appErr := appErrors.FromError(err)
	assert.Equal(t, appErrors.ErrNotFound.Code, appErr.Code)
}

func TestCancelDeletesDraft(t *testing.T) {
	f := newIntakeFixture()
	f.submissions.submission = draftSubmission()
	svc := f.service()

	err := svc.Cancel(context.Background(), 1, 10, managerClaims())
	require.NoError(t, err)
	assert.Equal(t, []int64{10}, f.submissions.deleted)
	assert.Equal(t, []int64{10}, f.indexer.removed)
}

func TestCancelMissingSubmissionIsNoOp(t *testing.T) {
	f := newIntakeFixture()
	svc := f.service()

	err := svc.Cancel(context.Background(), 1, 99, managerClaims())
	require.NoError(t, err)
	assert.Empty(t, f.submissions.deleted)
	assert.Empty(t, f.indexer.removed)
}

func TestCancelSucceedsWhenIndexRemovalFails(t *testing.T) {
	f := newIntakeFixture()
	f.submissions.submission = draftSubmission()
	f.indexer.removeErr = errors.New("redis down")
	svc := f.service()

	err := svc.Cancel(context.Background(), 1, 10, managerClaims())
	require.NoError(t, err)
	assert.Equal(t, []int64{10}, f.submissions.deleted)
}

func TestFormSupportDefaultsToFirstSection(t *testing.T) {
	f := newIntakeFixture()
	f.sections.section = &models.Section{ID: 2, AbstractWordCount: 250, AbstractsNotRequired: false}
	svc := f.service()

	resp, err := svc.FormSupport(context.Background(), 1, 0)
	require.NoError(t, err)
	assert.Len(t, resp.SectionOptions, 2)
	assert.True(t, resp.HasIssues)
	assert.Equal(t, 250, resp.AbstractWordCount)
	assert.True(t, resp.AbstractsRequired)
	assert.Equal(t, []string{"en_US", "fr_CA"}, resp.SupportedLocales)
}
