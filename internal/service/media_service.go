package service

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"path"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/noah-isme/referral-api/internal/dto"
	"github.com/noah-isme/referral-api/internal/models"
	appErrors "github.com/noah-isme/referral-api/pkg/errors"
	"github.com/noah-isme/referral-api/pkg/storage"
)

type videoSchools interface {
	FindByID(ctx context.Context, id string) (*models.School, error)
	UpdateVideo(ctx context.Context, id, key, url string) error
}

// MediaConfig tunes video uploads.
type MediaConfig struct {
	KeyPrefix      string
	MaxUploadBytes int64
}

// MediaService stores school videos in object storage and links them to the
// school record.
type MediaService struct {
	schools  videoSchools
	colleges collegeFinder
	store    storage.ObjectStore
	audit    auditRecorder
	metrics  *MetricsService
	logger   *zap.Logger
	cfg      MediaConfig
	now      func() time.Time
}

// NewMediaService constructs a MediaService.
func NewMediaService(schools videoSchools, colleges collegeFinder, store storage.ObjectStore, audit auditRecorder, metrics *MetricsService, logger *zap.Logger, cfg MediaConfig) *MediaService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.KeyPrefix == "" {
		cfg.KeyPrefix = "Videos"
	}
	return &MediaService{
		schools:  schools,
		colleges: colleges,
		store:    store,
		audit:    audit,
		metrics:  metrics,
		logger:   logger,
		cfg:      cfg,
		now:      time.Now,
	}
}

// ObjectKey builds the storage key for an upload received at ts. Two uploads
// of the same filename within one millisecond share a key.
func (s *MediaService) ObjectKey(filename string, ts time.Time) string {
	name := path.Base(strings.ReplaceAll(filename, "\\", "/"))
	if name == "." || name == "/" || name == ".." {
		name = "video"
	}
	return fmt.Sprintf("%s/%d-%s", strings.Trim(s.cfg.KeyPrefix, "/"), ts.UnixMilli(), name)
}

// UploadVideo stores file as the school's video and returns its URL. The
// previous video, if any, is removed once the school points at the new one.
func (s *MediaService) UploadVideo(ctx context.Context, schoolID string, file dto.VideoUpload, actor models.Actor, meta models.RequestMeta) (*dto.UploadVideoResponse, error) {
	if file.Content == nil {
		s.metrics.RecordUpload("rejected", 0)
		return nil, appErrors.Clone(appErrors.ErrBadRequest, "no file uploaded")
	}
	if s.cfg.MaxUploadBytes > 0 && file.Size > s.cfg.MaxUploadBytes {
		s.metrics.RecordUpload("rejected", 0)
		return nil, appErrors.Clone(appErrors.ErrBadRequest, fmt.Sprintf("file exceeds %d bytes", s.cfg.MaxUploadBytes))
	}

	school, err := s.schools.FindByID(ctx, schoolID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "school not found")
		}
		return nil, appErrors.Internal(err, "failed to load school")
	}
	if err := authorizeSchool(ctx, s.colleges, actor, school, false); err != nil {
		return nil, err
	}

	key := s.ObjectKey(file.Filename, s.now())
	if err := s.store.Put(ctx, key, file.Content, file.Size, file.MimeType); err != nil {
		s.metrics.RecordUpload("failed", 0)
		return nil, appErrors.Internal(err, "failed to store video")
	}

	url := s.store.URL(key)
	if err := s.schools.UpdateVideo(ctx, schoolID, key, url); err != nil {
		if delErr := s.DeleteFromStorage(ctx, key); delErr != nil {
			s.logger.Error("orphaned video after failed update", zap.String("key", key), zap.Error(delErr))
		}
		s.metrics.RecordUpload("failed", 0)
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "school not found")
		}
		return nil, appErrors.Internal(err, "failed to link video")
	}

	if school.VideoKey != nil && *school.VideoKey != "" && *school.VideoKey != key {
		if err := s.DeleteFromStorage(ctx, *school.VideoKey); err != nil {
			s.logger.Warn("previous video not removed", zap.String("key", *school.VideoKey))
		}
	}

	s.metrics.RecordUpload("success", file.Size)
	s.recordAudit(ctx, actor, schoolID, key, meta)
	s.logger.Info("video uploaded", zap.String("school_id", schoolID), zap.String("key", key), zap.Int64("size", file.Size))
	return &dto.UploadVideoResponse{Message: "file uploaded successfully", URL: url}, nil
}

// DeleteFromStorage removes an object, logging and returning any failure.
func (s *MediaService) DeleteFromStorage(ctx context.Context, key string) error {
	if err := s.store.Delete(ctx, key); err != nil {
		s.logger.Error("error deleting from storage", zap.String("key", key), zap.Error(err))
		return err
	}
	return nil
}

func (s *MediaService) recordAudit(ctx context.Context, actor models.Actor, schoolID, key string, meta models.RequestMeta) {
	if s.audit == nil {
		return
	}
	role := string(actor.Role)
	payload, _ := json.Marshal(map[string]string{"videoKey": key})
	if err := s.audit.Create(ctx, &models.AuditLog{
		ActorID:    &actor.ID,
		ActorRole:  &role,
		Action:     models.AuditActionVideoUpload,
		Resource:   "school",
		ResourceID: &schoolID,
		NewValues:  payload,
		IPAddress:  meta.IP,
		UserAgent:  meta.UserAgent,
	}); err != nil {
		s.logger.Warn("failed to record audit log", zap.String("action", models.AuditActionVideoUpload), zap.Error(err))
	}
}
