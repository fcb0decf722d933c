package service

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/haryzobo/quickSubmit/internal/dto"
	"github.com/haryzobo/quickSubmit/internal/models"
	"github.com/haryzobo/quickSubmit/internal/repository"
	appErrors "github.com/haryzobo/quickSubmit/pkg/errors"
	"github.com/haryzobo/quickSubmit/pkg/export"
	"github.com/haryzobo/quickSubmit/pkg/jobs"
	"github.com/haryzobo/quickSubmit/pkg/storage"
)

type exportJobStore interface {
	Create(ctx context.Context, job *models.ExportJob) error
	GetByID(ctx context.Context, id string) (*models.ExportJob, error)
	Update(ctx context.Context, id string, params repository.UpdateExportJobParams) error
}

type tocIssueStore interface {
	GetByID(ctx context.Context, id, journalID int64) (*models.Issue, error)
}

type tocLister interface {
	ListTOC(ctx context.Context, issueID int64) ([]repository.TOCEntry, error)
}

type exportDispatcher interface {
	Enqueue(job jobs.Job) error
}

type exportFileStorage interface {
	Save(filename string, data []byte) (string, error)
	Open(filename string) (*os.File, error)
	Delete(filename string) error
	CleanupOlderThan(ttl time.Duration) ([]string, error)
}

type exportMetrics interface {
	RecordExportJob(format, status string)
	ObserveDBQuery(label string, duration time.Duration)
}

// ExportServiceConfig tunes the export pipeline.
type ExportServiceConfig struct {
	APIPrefix  string
	ResultTTL  time.Duration
	MaxRetries int
}

// ExportDownload aggregates resolved download data.
type ExportDownload struct {
	File      *os.File
	Filename  string
	Format    models.ExportFormat
	ExpiresAt time.Time
}

// ExportService runs asynchronous issue table-of-contents exports: it queues
// jobs, renders the TOC to CSV or PDF, stores the file and hands out signed
// download URLs.
type ExportService struct {
	repo    exportJobStore
	issues  tocIssueStore
	toc     tocLister
	queue   exportDispatcher
	storage exportFileStorage
	signer  *storage.SignedURLSigner
	csv     *export.CSVExporter
	pdf     *export.PDFExporter
	metrics exportMetrics
	logger  *zap.Logger
	cfg     ExportServiceConfig
}

// NewExportService constructs the export service.
func NewExportService(repo exportJobStore, issues tocIssueStore, toc tocLister, queue exportDispatcher, fs exportFileStorage, signer *storage.SignedURLSigner, metrics exportMetrics, logger *zap.Logger, cfg ExportServiceConfig) *ExportService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.ResultTTL <= 0 {
		cfg.ResultTTL = 24 * time.Hour
	}
	if cfg.MaxRetries <= 0 {
		cfg.MaxRetries = 3
	}
	return &ExportService{
		repo:    repo,
		issues:  issues,
		toc:     toc,
		queue:   queue,
		storage: fs,
		signer:  signer,
		csv:     export.NewCSVExporter(),
		pdf:     export.NewPDFExporter(),
		metrics: metrics,
		logger:  logger,
		cfg:     cfg,
	}
}

// CreateJob validates the request, persists the job row and enqueues it.
func (s *ExportService) CreateJob(ctx context.Context, journalID, issueID int64, req dto.ExportRequest, actor *models.JWTClaims) (*dto.ExportJobResponse, error) {
	if actor == nil {
		return nil, appErrors.ErrUnauthorized
	}
	if req.Format != models.ExportFormatCSV && req.Format != models.ExportFormatPDF {
		return nil, appErrors.Clone(appErrors.ErrValidation, "unsupported export format")
	}

	issue, err := s.issues.GetByID(ctx, issueID, journalID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load issue")
	}
	if issue == nil {
		return nil, appErrors.Clone(appErrors.ErrNotFound, "issue not found")
	}

	job := &models.ExportJob{
		ID:        uuid.NewString(),
		IssueID:   issue.ID,
		Format:    req.Format,
		Status:    models.ExportStatusQueued,
		CreatedBy: actor.UserID,
	}
	if err := s.repo.Create(ctx, job); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create export job")
	}

	if err := s.queue.Enqueue(jobs.Job{ID: job.ID, Type: "issue_toc"}); err != nil {
		failed := models.ExportStatusFailed
		msg := "failed to enqueue job"
		now := time.Now().UTC()
		_ = s.repo.Update(ctx, job.ID, repository.UpdateExportJobParams{
			Status:       &failed,
			ErrorMessage: &msg,
			FinishedAt:   &now,
		})
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to enqueue export job")
	}

	return &dto.ExportJobResponse{ID: job.ID, Status: job.Status}, nil
}

// GetStatus exposes job state to clients. Managers see only their own jobs;
// admins see everything. Done jobs carry a fresh signed download URL.
func (s *ExportService) GetStatus(ctx context.Context, id string, actor *models.JWTClaims) (*dto.ExportStatusResponse, error) {
	if actor == nil {
		return nil, appErrors.ErrUnauthorized
	}
	job, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load export job")
	}
	if job == nil {
		return nil, appErrors.Clone(appErrors.ErrNotFound, "export job not found")
	}
	if actor.Role != models.RoleAdmin && job.CreatedBy != actor.UserID {
		return nil, appErrors.ErrForbidden
	}

	resp := &dto.ExportStatusResponse{
		ID:     job.ID,
		Status: job.Status,
	}
	if job.ErrorMessage != nil && *job.ErrorMessage != "" {
		resp.ErrorMessage = job.ErrorMessage
	}
	if job.Status == models.ExportStatusDone && job.FilePath != nil {
		token, expiresAt, err := s.signer.Generate(job.ID, *job.FilePath)
		if err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to sign download url")
		}
		url := fmt.Sprintf("%s/exports/download/%s", strings.TrimRight(s.cfg.APIPrefix, "/"), token)
		resp.DownloadURL = &url
		resp.ExpiresAt = &expiresAt
	}
	return resp, nil
}

// ResolveDownload validates a signed token and opens the stored export file.
func (s *ExportService) ResolveDownload(ctx context.Context, token string) (*ExportDownload, error) {
	jobID, relPath, expiresAt, err := s.signer.Parse(token, false)
	if err != nil {
		return nil, appErrors.Clone(appErrors.ErrForbidden, "invalid or expired download token")
	}
	job, err := s.repo.GetByID(ctx, jobID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load export job")
	}
	if job == nil {
		return nil, appErrors.Clone(appErrors.ErrNotFound, "export job not found")
	}
	if job.Status != models.ExportStatusDone || job.FilePath == nil || *job.FilePath != relPath {
		return nil, appErrors.Clone(appErrors.ErrForbidden, "export not available")
	}
	file, err := s.storage.Open(relPath)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to open export file")
	}
	return &ExportDownload{
		File:      file,
		Filename:  filepath.Base(relPath),
		Format:    job.Format,
		ExpiresAt: expiresAt,
	}, nil
}

// Handle processes a queued export job. It is wired as the jobs.Queue
// handler.
func (s *ExportService) Handle(ctx context.Context, job jobs.Job) error {
	record, err := s.repo.GetByID(ctx, job.ID)
	if err != nil {
		return err
	}
	if record == nil {
		return fmt.Errorf("export job %s not found", job.ID)
	}

	processing := models.ExportStatusProcessing
	started := time.Now().UTC()
	if err := s.repo.Update(ctx, job.ID, repository.UpdateExportJobParams{
		Status:    &processing,
		StartedAt: &started,
	}); err != nil {
		return err
	}

	relPath, err := s.render(ctx, record)
	if err != nil {
		msg := err.Error()
		if job.Attempt >= s.cfg.MaxRetries {
			failed := models.ExportStatusFailed
			now := time.Now().UTC()
			if updateErr := s.repo.Update(ctx, job.ID, repository.UpdateExportJobParams{
				Status:       &failed,
				ErrorMessage: &msg,
				FinishedAt:   &now,
			}); updateErr != nil {
				s.logger.Warn("failed to mark export job failed", zap.String("job_id", job.ID), zap.Error(updateErr))
			}
			if s.metrics != nil {
				s.metrics.RecordExportJob(string(record.Format), "failed")
			}
		} else {
			queued := models.ExportStatusQueued
			if updateErr := s.repo.Update(ctx, job.ID, repository.UpdateExportJobParams{
				Status:       &queued,
				ErrorMessage: &msg,
			}); updateErr != nil {
				s.logger.Warn("failed to requeue export job", zap.String("job_id", job.ID), zap.Error(updateErr))
			}
		}
		return err
	}

	done := models.ExportStatusDone
	now := time.Now().UTC()
	clear := ""
	if err := s.repo.Update(ctx, job.ID, repository.UpdateExportJobParams{
		Status:       &done,
		FilePath:     &relPath,
		ErrorMessage: &clear,
		FinishedAt:   &now,
	}); err != nil {
		s.logger.Warn("failed to mark export job done", zap.String("job_id", job.ID), zap.Error(err))
		return err
	}
	if s.metrics != nil {
		s.metrics.RecordExportJob(string(record.Format), "done")
	}
	return nil
}

// StartCleanup boots a goroutine purging expired export files.
func (s *ExportService) StartCleanup(ctx context.Context, interval time.Duration) {
	if interval <= 0 {
		return
	}
	ticker := time.NewTicker(interval)
	go func() {
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				if removed, err := s.storage.CleanupOlderThan(s.cfg.ResultTTL); err != nil {
					s.logger.Warn("export cleanup failed", zap.Error(err))
				} else if len(removed) > 0 {
					s.logger.Info("export files cleaned up", zap.Int("removed", len(removed)))
				}
			}
		}
	}()
}

func (s *ExportService) render(ctx context.Context, record *models.ExportJob) (string, error) {
	start := time.Now()
	entries, err := s.toc.ListTOC(ctx, record.IssueID)
	if s.metrics != nil {
		s.metrics.ObserveDBQuery("published_articles_list_toc", time.Since(start))
	}
	if err != nil {
		return "", fmt.Errorf("load toc: %w", err)
	}

	headers := []string{"Seq", "Title", "Pages"}
	groups := groupBySection(entries)
	title := fmt.Sprintf("Issue %d Table of Contents", record.IssueID)

	var payload []byte
	switch record.Format {
	case models.ExportFormatCSV:
		payload, err = s.csv.Render(flattenGroups(groups))
	case models.ExportFormatPDF:
		payload, err = s.pdf.RenderGrouped(groups, headers, title)
	default:
		err = fmt.Errorf("unsupported format %s", record.Format)
	}
	if err != nil {
		return "", err
	}

	filename := fmt.Sprintf("issue_%d_toc_%s.%s", record.IssueID, time.Now().UTC().Format("20060102_150405"), record.Format)
	return s.storage.Save(filename, payload)
}

func groupBySection(entries []repository.TOCEntry) []export.Group {
	var groups []export.Group
	for _, entry := range entries {
		row := map[string]string{
			"Section": entry.SectionTitle,
			"Seq":     fmt.Sprintf("%d", entry.Seq),
			"Title":   entry.Title.Get(entry.Locale),
			"Pages":   entry.Pages,
		}
		if len(groups) == 0 || groups[len(groups)-1].Title != entry.SectionTitle {
			groups = append(groups, export.Group{Title: entry.SectionTitle})
		}
		last := len(groups) - 1
		groups[last].Rows = append(groups[last].Rows, row)
	}
	return groups
}

func flattenGroups(groups []export.Group) export.Dataset {
	dataset := export.Dataset{Headers: []string{"Section", "Seq", "Title", "Pages"}}
	for _, group := range groups {
		dataset.Rows = append(dataset.Rows, group.Rows...)
	}
	return dataset
}
