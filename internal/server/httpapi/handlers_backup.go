package httpapi

import (
	"io"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/mkarpovs/crewtally/internal/common"
)

func (s *Server) handleExportBackup(c *gin.Context) {
	raw, err := s.backups.ExportJSON(c.Request.Context())
	if err != nil {
		writeError(c, err)
		return
	}
	c.Header("Content-Disposition", `attachment; filename="crewtally-backup.json"`)
	c.Data(http.StatusOK, "application/json", raw)
}

func (s *Server) handleImportBackup(c *gin.Context) {
	raw, err := io.ReadAll(c.Request.Body)
	if err != nil {
		writeError(c, common.ErrInvalidBackup)
		return
	}

	if err := s.backups.Import(c.Request.Context(), raw); err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "success"})
}

func (s *Server) handleUploadBackupS3(c *gin.Context) {
	key, err := s.backups.UploadToS3(c.Request.Context(), s.s3)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"key": key})
}

func (s *Server) handleRestoreBackupS3(c *gin.Context) {
	var req struct {
		Key string `json:"key" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if err := s.backups.DownloadFromS3(c.Request.Context(), s.s3, req.Key); err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "success"})
}
