package worker

import (
	"github.com/spec-kit/ticket-sync/internal/service"
)

// StartWritebackWorker registers feed write-back handlers.
func StartWritebackWorker(writebackService *service.WritebackService) {
	if writebackService == nil {
		return
	}
	writebackService.RegisterHandlers()
}
