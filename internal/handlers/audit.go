package handlers

import (
	"github.com/gin-gonic/gin"
)

const auditPageLimit = 200

// ListAuditLogs returns the latest audit entries. The route restricts it
// to admin and viewer.
func (h *Handler) ListAuditLogs(c *gin.Context) {
	logs, err := h.store.ListAuditLogs(c.Request.Context(), auditPageLimit)
	if err != nil {
		failErr(c, err)
		return
	}
	ok(c, "", logs)
}
