package worker

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"time"

	"github.com/rs/zerolog"

	"github.com/subir-ghosh-au26/Manthan-2025/internal/db"
	"github.com/subir-ghosh-au26/Manthan-2025/internal/excel"
	"github.com/subir-ghosh-au26/Manthan-2025/internal/model"
	"github.com/subir-ghosh-au26/Manthan-2025/internal/storage"
)

// MessageSource feeds raw job messages and takes back the ones that failed.
type MessageSource interface {
	Consume(ctx context.Context, handler func(ctx context.Context, data []byte) error) error
	DeadLetter(ctx context.Context, message string)
}

// ImportWorker turns uploaded spreadsheets of paper forms into stored
// feedback.
type ImportWorker struct {
	repo       db.Repository
	storage    storage.Storage
	parser     excel.ParsingStrategy
	source     MessageSource
	workerPool *WorkerPool
	now        func() time.Time
	log        zerolog.Logger
}

func NewImportWorker(
	repo db.Repository,
	storage storage.Storage,
	parser excel.ParsingStrategy,
	source MessageSource,
	workerCount int,
	log zerolog.Logger,
) *ImportWorker {
	log = log.With().Str("component", "import-worker").Logger()
	return &ImportWorker{
		repo:       repo,
		storage:    storage,
		parser:     parser,
		source:     source,
		workerPool: NewWorkerPool(workerCount, log),
		now:        time.Now,
		log:        log,
	}
}

// Run consumes jobs until ctx is cancelled, then waits for accepted jobs to
// finish before returning.
func (w *ImportWorker) Run(ctx context.Context) error {
	w.log.Info().Msg("Starting import worker")

	w.workerPool.Start(ctx)
	err := w.source.Consume(ctx, w.handleMessage)

	w.log.Info().Msg("Stopping import worker")
	w.workerPool.Stop()
	return err
}

func (w *ImportWorker) handleMessage(ctx context.Context, data []byte) error {
	var job model.ImportJob
	if err := json.Unmarshal(data, &job); err != nil {
		w.log.Error().Err(err).Msg("Failed to unmarshal import job")
		return err
	}

	w.log.Info().Str("import_id", job.ImportID).Str("s3_path", job.S3Path).Msg("Processing import job")

	message := string(data)
	err := w.workerPool.Submit(ctx, func(ctx context.Context) error {
		if err := w.ProcessImport(ctx, job); err != nil {
			w.source.DeadLetter(ctx, message)
			return err
		}
		return nil
	})
	if err != nil {
		// Shutting down with the job already popped; the caller dead-letters it.
		w.markFailed(context.WithoutCancel(ctx), job.ImportID, "import worker shut down before processing")
		return fmt.Errorf("failed to schedule import %s: %w", job.ImportID, err)
	}
	return nil
}

func (w *ImportWorker) markFailed(ctx context.Context, importID, reason string) {
	if err := w.repo.UpdateImportStatus(ctx, importID, model.ImportStatusParsedFail, 0, &reason); err != nil {
		w.log.Error().Err(err).Str("import_id", importID).Msg("Failed to update import status")
	}
}

// ProcessImport runs one job to completion and records the outcome on the
// import record.
func (w *ImportWorker) ProcessImport(ctx context.Context, job model.ImportJob) error {
	log := w.log.With().Str("import_id", job.ImportID).Logger()

	imported, err := w.importFile(ctx, job, log)
	if err != nil {
		log.Error().Err(err).Msg("Import failed")
		w.markFailed(ctx, job.ImportID, err.Error())
		return err
	}

	if err := w.repo.UpdateImportStatus(ctx, job.ImportID, model.ImportStatusParsedOK, imported, nil); err != nil {
		log.Error().Err(err).Msg("Failed to update import status")
		return err
	}

	log.Info().Int("imported", imported).Msg("Import processed successfully")
	return nil
}

func (w *ImportWorker) importFile(ctx context.Context, job model.ImportJob, log zerolog.Logger) (int, error) {
	exists, err := w.storage.Exists(ctx, job.S3Path)
	if err != nil {
		return 0, fmt.Errorf("failed to check upload: %w", err)
	}
	if !exists {
		return 0, fmt.Errorf("uploaded file %s not found", job.S3Path)
	}

	log.Debug().Msg("Downloading file from S3")
	reader, err := w.storage.Download(ctx, job.S3Path)
	if err != nil {
		return 0, fmt.Errorf("failed to download file: %w", err)
	}
	defer reader.Close()

	data, err := io.ReadAll(reader)
	if err != nil {
		return 0, fmt.Errorf("failed to read file data: %w", err)
	}

	log.Debug().Msg("Parsing Excel file")
	rows, err := w.parser.Parse(ctx, data)
	if err != nil {
		return 0, err
	}

	log.Debug().Int("row_count", len(rows)).Msg("Validating parsed rows")
	if err := w.parser.Validate(ctx, rows); err != nil {
		return 0, err
	}

	now := w.now()
	feedback := make([]*model.Feedback, 0, len(rows))
	for _, row := range rows {
		submittedAt := now
		if row.SubmittedAt != nil {
			submittedAt = *row.SubmittedAt
		}
		feedback = append(feedback, model.FeedbackFromSubmission(row.Submission(), model.SourceImport, submittedAt))
	}

	log.Debug().Msg("Inserting imported feedback")
	if err := w.repo.InsertFeedbackBatch(ctx, feedback); err != nil {
		return 0, fmt.Errorf("failed to insert feedback: %w", err)
	}

	return len(feedback), nil
}
