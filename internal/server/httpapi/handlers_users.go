package httpapi

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/mkarpovs/crewtally/internal/server/models"
	"github.com/mkarpovs/crewtally/internal/server/users"
)

func (s *Server) handleListUsers(c *gin.Context) {
	list, err := s.users.List(c.Request.Context())
	if err != nil {
		writeError(c, err)
		return
	}

	views := make([]userView, 0, len(list))
	for _, u := range list {
		views = append(views, viewOf(u))
	}
	c.JSON(http.StatusOK, views)
}

// handleCreateUser creates an account. When no password is supplied a
// temporary one is generated and returned once in the response; it is never
// stored in recoverable form.
func (s *Server) handleCreateUser(c *gin.Context) {
	var req struct {
		Username string      `json:"username" binding:"required"`
		Password string      `json:"password"`
		Role     models.Role `json:"role"`
		Areas    []string    `json:"areas"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if req.Role == "" {
		req.Role = models.RoleUser
	}

	tempPassword := ""
	if req.Password == "" {
		var err error
		tempPassword, err = users.GenerateTemporaryPassword(users.TempPasswordLength)
		if err != nil {
			writeError(c, err)
			return
		}
		req.Password = tempPassword
	}

	user, err := s.users.Create(c.Request.Context(), req.Username, req.Password, req.Role, req.Areas)
	if err != nil {
		writeError(c, err)
		return
	}

	resp := gin.H{"user": viewOf(user)}
	if tempPassword != "" {
		resp["temporaryPassword"] = tempPassword
	}
	c.JSON(http.StatusCreated, resp)
}

func (s *Server) handleUpdateUser(c *gin.Context) {
	var req struct {
		Disabled *bool        `json:"disabled"`
		Role     *models.Role `json:"role"`
		Areas    *[]string    `json:"areas"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	ctx := c.Request.Context()
	username := c.Param("username")

	if req.Disabled != nil {
		if err := s.users.SetDisabled(ctx, username, *req.Disabled); err != nil {
			writeError(c, err)
			return
		}
	}
	if req.Role != nil {
		if err := s.users.SetRole(ctx, username, *req.Role); err != nil {
			writeError(c, err)
			return
		}
	}
	if req.Areas != nil {
		if err := s.users.SetAssignedAreas(ctx, username, *req.Areas); err != nil {
			writeError(c, err)
			return
		}
	}

	user, err := s.users.Get(ctx, username)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, viewOf(user))
}

func (s *Server) handleResetPassword(c *gin.Context) {
	tempPassword, err := users.GenerateTemporaryPassword(users.TempPasswordLength)
	if err != nil {
		writeError(c, err)
		return
	}

	if err := s.users.ResetPassword(c.Request.Context(), c.Param("username"), tempPassword); err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"temporaryPassword": tempPassword})
}
