package handlers

import (
	"errors"

	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/ticket-sync/internal/api/dto"
	"github.com/spec-kit/ticket-sync/internal/service"
	apperrors "github.com/spec-kit/ticket-sync/pkg/util"
)

// SyncHandler exposes the manual synchronization trigger.
type SyncHandler struct {
	service *service.SyncService
}

// NewSyncHandler constructs handler.
func NewSyncHandler(syncService *service.SyncService) *SyncHandler {
	return &SyncHandler{service: syncService}
}

// Run POST /sync/run.
func (h *SyncHandler) Run(c *fiber.Ctx) error {
	report, err := h.service.Run(c.UserContext())
	if err != nil {
		if errors.Is(err, service.ErrSyncBusy) {
			return apperrors.NewConflict("a synchronization run is already in progress", "")
		}
		return apperrors.NewUpstreamFailure("synchronization run failed", err)
	}
	return c.JSON(fiber.Map{
		"success": true,
		"data": dto.SyncRunResponse{
			Deleted:   report.Deleted,
			Processed: report.Processed,
			Succeeded: report.Succeeded,
			Failed:    report.Failed,
			ElapsedMS: report.Elapsed.Milliseconds(),
		},
	})
}
