package httpapi

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// handleListAreas returns the areas visible to the caller: everything for
// admins, the display-order intersection with assignedAreas otherwise.
func (s *Server) handleListAreas(c *gin.Context) {
	visible, err := s.areas.VisibleTo(c.Request.Context(), currentUser(c))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, visible)
}

func (s *Server) handleAddArea(c *gin.Context) {
	var req struct {
		Name string `json:"name" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if err := s.areas.Add(c.Request.Context(), req.Name); err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"status": "success"})
}

func (s *Server) handleRenameArea(c *gin.Context) {
	var req struct {
		Name string `json:"name" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if err := s.areas.Rename(c.Request.Context(), c.Param("name"), req.Name); err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "success"})
}

func (s *Server) handleDeleteArea(c *gin.Context) {
	if err := s.areas.Delete(c.Request.Context(), c.Param("name")); err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "success"})
}
