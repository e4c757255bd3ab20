package httpapi

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/mkarpovs/crewtally/internal/server/ledger"
	"github.com/mkarpovs/crewtally/internal/server/models"
)

// checkAreaAccess enforces area scoping for non-admins. Returns false after
// writing the response when access is denied.
func checkAreaAccess(c *gin.Context, area string) bool {
	if !currentUser(c).CanAccessArea(area) {
		c.JSON(http.StatusForbidden, gin.H{"error": "area not assigned"})
		return false
	}
	return true
}

func (s *Server) handleListDates(c *gin.Context) {
	dates, err := s.ledger.ListDates(c.Request.Context())
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, dates)
}

func (s *Server) handleListRows(c *gin.Context) {
	area := c.Param("area")
	if !checkAreaAccess(c, area) {
		return
	}

	doc, err := s.ledger.GetDate(c.Request.Context(), c.Param("date"))
	if err != nil {
		writeError(c, err)
		return
	}

	rows := []*models.AttendanceRow{}
	if a := doc.Area(area); a != nil {
		rows = a.Rows
	}
	c.JSON(http.StatusOK, rows)
}

func (s *Server) handleAddRow(c *gin.Context) {
	area := c.Param("area")
	if !checkAreaAccess(c, area) {
		return
	}

	var req struct {
		Label string `json:"label" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	row, err := s.ledger.AddRow(c.Request.Context(), c.Param("date"), area, req.Label)
	if err != nil {
		writeError(c, err)
		return
	}
	if row == nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "empty designation"})
		return
	}
	c.JSON(http.StatusCreated, row)
}

type presentUpdate struct {
	Value *int `json:"value"`
}

type rowPatchRequest struct {
	Present   *presentUpdate `json:"present"`
	Confirmed *bool          `json:"confirmed"`
}

func (s *Server) handleUpdateRow(c *gin.Context) {
	area := c.Param("area")
	if !checkAreaAccess(c, area) {
		return
	}

	var req rowPatchRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	patch := ledger.RowPatch{Confirmed: req.Confirmed}
	if req.Present != nil {
		patch.Present = &ledger.PresentUpdate{Value: req.Present.Value}
	}

	if err := s.ledger.UpdateRow(c.Request.Context(), c.Param("date"), area, c.Param("key"), patch); err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "success"})
}

func (s *Server) handleDeleteRow(c *gin.Context) {
	area := c.Param("area")
	if !checkAreaAccess(c, area) {
		return
	}

	if err := s.ledger.DeleteRow(c.Request.Context(), c.Param("date"), area, c.Param("key")); err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "success"})
}

func (s *Server) handleAreaTotals(c *gin.Context) {
	area := c.Param("area")
	if !checkAreaAccess(c, area) {
		return
	}

	totals, err := s.ledger.AreaTotals(c.Request.Context(), c.Param("date"), area)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, totals)
}

// handleGrandTotal sums the caller's visible areas only, so two users with
// different assignments can see different totals for the same date.
func (s *Server) handleGrandTotal(c *gin.Context) {
	ctx := c.Request.Context()

	visible, err := s.areas.VisibleTo(ctx, currentUser(c))
	if err != nil {
		writeError(c, err)
		return
	}

	total, err := s.ledger.GrandTotal(ctx, c.Param("date"), visible)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"date": c.Param("date"), "total": total})
}

func (s *Server) handleConfirmAll(c *gin.Context) {
	ctx := c.Request.Context()

	visible, err := s.areas.VisibleTo(ctx, currentUser(c))
	if err != nil {
		writeError(c, err)
		return
	}

	flipped, err := s.ledger.ConfirmAllValid(ctx, c.Param("date"), visible)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"confirmed": flipped})
}

func (s *Server) handleAuditTrail(c *gin.Context) {
	entries, err := s.ledger.AuditTrail(c.Request.Context(), c.Param("date"))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, entries)
}

func (s *Server) handleSuggestDesignations(c *gin.Context) {
	area := c.Query("area")
	if area != "" && !checkAreaAccess(c, area) {
		return
	}

	suggestions, err := s.index.Suggest(c.Request.Context(), c.Query("q"), area)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, suggestions)
}
