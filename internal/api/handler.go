package api

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/subir-ghosh-au26/Manthan-2025/internal/analytics"
	"github.com/subir-ghosh-au26/Manthan-2025/internal/auth"
	"github.com/subir-ghosh-au26/Manthan-2025/internal/config"
	"github.com/subir-ghosh-au26/Manthan-2025/internal/db"
	"github.com/subir-ghosh-au26/Manthan-2025/internal/excel"
	"github.com/subir-ghosh-au26/Manthan-2025/internal/model"
	"github.com/subir-ghosh-au26/Manthan-2025/internal/qrcode"
	"github.com/subir-ghosh-au26/Manthan-2025/internal/storage"
	apperrors "github.com/subir-ghosh-au26/Manthan-2025/pkg/errors"
)

// SourceHeader lets a client say where a submission was collected.
const SourceHeader = "X-Feedback-Source"

// JobProducer queues spreadsheet import jobs.
type JobProducer interface {
	EnqueueImportJob(ctx context.Context, job model.ImportJob) error
}

type Handler struct {
	repo     db.Repository
	storage  storage.Storage
	producer JobProducer
	auth     *auth.Authenticator
	exporter *excel.Exporter
	cfg      *config.Config
	now      func() time.Time
	log      zerolog.Logger
}

// NewHandler wires the API. storage and producer may be nil, in which case
// spreadsheet imports are reported as unavailable.
func NewHandler(
	repo db.Repository,
	storage storage.Storage,
	producer JobProducer,
	authenticator *auth.Authenticator,
	cfg *config.Config,
	log zerolog.Logger,
) *Handler {
	log = log.With().Str("component", "api").Logger()

	loc, err := time.LoadLocation(cfg.Export.Timezone)
	if err != nil {
		log.Warn().Err(err).Str("timezone", cfg.Export.Timezone).Msg("Unknown export timezone, using UTC")
		loc = time.UTC
	}

	return &Handler{
		repo:     repo,
		storage:  storage,
		producer: producer,
		auth:     authenticator,
		exporter: excel.NewExporter(cfg.Export.SheetName, loc),
		cfg:      cfg,
		now:      time.Now,
		log:      log,
	}
}

func (h *Handler) HealthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":  "healthy",
		"service": h.cfg.App.Name,
		"version": h.cfg.App.Version,
	})
}

func (h *Handler) SubmitFeedback(c *gin.Context) {
	var sub model.Submission
	if err := c.ShouldBindJSON(&sub); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body"})
		return
	}

	if err := sub.Validate(); err != nil {
		var ve apperrors.ValidationError
		if errors.As(err, &ve) {
			c.JSON(http.StatusBadRequest, gin.H{"error": ve.Message, "field": ve.Field})
			return
		}
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	source := model.SourceWeb
	if model.Source(c.GetHeader(SourceHeader)) == model.SourceKiosk {
		source = model.SourceKiosk
	}

	feedback := model.FeedbackFromSubmission(sub, source, h.now().UTC())
	duplicate, err := h.repo.InsertFeedback(c.Request.Context(), feedback)
	if err != nil {
		h.log.Error().Err(err).Int64("client_id", sub.ID).Msg("Failed to store feedback")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to save feedback"})
		return
	}

	if duplicate {
		h.log.Info().Int64("client_id", sub.ID).Msg("Duplicate submission acknowledged")
		c.JSON(http.StatusOK, model.SubmitResponse{Message: "Success", Duplicate: true})
		return
	}

	h.log.Info().Int64("client_id", sub.ID).Str("source", string(source)).Msg("Feedback stored")
	c.JSON(http.StatusCreated, model.SubmitResponse{Message: "Success"})
}

func (h *Handler) ListFeedback(c *gin.Context) {
	feedback, err := h.repo.ListFeedback(c.Request.Context())
	if err != nil {
		h.log.Error().Err(err).Msg("Failed to list feedback")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
		return
	}

	c.JSON(http.StatusOK, feedback)
}

func (h *Handler) Login(c *gin.Context) {
	var req model.LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body"})
		return
	}

	token, expiresIn, err := h.auth.Login(req.Pin)
	if err != nil {
		if errors.Is(err, apperrors.ErrInvalidCredentials) {
			h.log.Warn().Str("client_ip", c.ClientIP()).Msg("Rejected admin login")
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid PIN"})
			return
		}
		h.log.Error().Err(err).Msg("Failed to issue admin token")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
		return
	}

	c.JSON(http.StatusOK, model.AuthTokenResponse{Token: token, ExpiresIn: expiresIn})
}

func (h *Handler) Metrics(c *gin.Context) {
	feedback, err := h.repo.ListFeedback(c.Request.Context())
	if err != nil {
		h.log.Error().Err(err).Msg("Failed to load feedback for metrics")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
		return
	}

	c.JSON(http.StatusOK, analytics.Compute(feedback))
}

func (h *Handler) Export(c *gin.Context) {
	feedback, err := h.repo.ListFeedback(c.Request.Context())
	if err != nil {
		h.log.Error().Err(err).Msg("Failed to load feedback for export")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
		return
	}

	c.Header("Content-Type", excel.ContentType)
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", h.cfg.Export.FileName))
	c.Status(http.StatusOK)

	if err := h.exporter.Write(c.Writer, feedback); err != nil {
		h.log.Error().Err(err).Msg("Failed to write export workbook")
		return
	}

	h.log.Info().Int("rows", len(feedback)).Msg("Feedback exported")
}

func (h *Handler) QRCode(c *gin.Context) {
	size := 0
	if raw := c.Query("size"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid size"})
			return
		}
		size = parsed
	}

	png, err := qrcode.PNG(h.cfg.Server.PublicFormURL, size)
	if err != nil {
		if errors.Is(err, qrcode.ErrInvalidSize) {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		h.log.Error().Err(err).Msg("Failed to render QR code")
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.Data(http.StatusOK, "image/png", png)
}

func (h *Handler) UploadImport(c *gin.Context) {
	if h.storage == nil || h.producer == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "Imports are not enabled"})
		return
	}

	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, h.cfg.Server.MaxUploadBytes)

	header, err := c.FormFile("file")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Missing file"})
		return
	}
	if !strings.EqualFold(filepath.Ext(header.Filename), ".xlsx") {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Only .xlsx files are accepted"})
		return
	}

	file, err := header.Open()
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Unreadable file"})
		return
	}
	defer file.Close()

	ctx := c.Request.Context()
	importID := uuid.NewString()
	key := storage.ImportKey(importID)
	log := h.log.With().Str("import_id", importID).Str("filename", header.Filename).Logger()

	if err := h.storage.Upload(ctx, key, file, excel.ContentType); err != nil {
		log.Error().Err(err).Msg("Failed to upload import file")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to store file"})
		return
	}

	record := &model.ImportFile{
		ID:     importID,
		S3Path: key,
		Status: model.ImportStatusUploaded,
	}
	if err := h.repo.CreateImport(ctx, record); err != nil {
		log.Error().Err(err).Msg("Failed to create import record")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
		return
	}

	if err := h.producer.EnqueueImportJob(ctx, model.ImportJob{ImportID: importID, S3Path: key}); err != nil {
		log.Error().Err(err).Msg("Failed to enqueue import job")
		msg := "failed to queue import job"
		if updateErr := h.repo.UpdateImportStatus(ctx, importID, model.ImportStatusParsedFail, 0, &msg); updateErr != nil {
			log.Error().Err(updateErr).Msg("Failed to update import status")
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to queue import job"})
		return
	}

	log.Info().Int64("size", header.Size).Msg("Import job enqueued")
	c.JSON(http.StatusAccepted, model.ImportAcceptedResponse{ImportID: importID, Status: record.Status})
}

func (h *Handler) GetImport(c *gin.Context) {
	id := c.Param("id")

	file, err := h.repo.GetImport(c.Request.Context(), id)
	if err != nil {
		if errors.Is(err, apperrors.ErrImportNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Import not found"})
			return
		}
		h.log.Error().Err(err).Str("import_id", id).Msg("Failed to get import")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
		return
	}

	c.JSON(http.StatusOK, model.ImportStatusResponse{
		ImportID:     file.ID,
		Status:       file.Status,
		Imported:     file.Imported,
		ErrorMessage: file.ErrorMessage,
		UpdatedAt:    file.UpdatedAt,
	})
}
