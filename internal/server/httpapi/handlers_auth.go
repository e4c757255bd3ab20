package httpapi

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/mkarpovs/crewtally/internal/server/auth"
	"github.com/mkarpovs/crewtally/internal/server/docstore"
	"github.com/mkarpovs/crewtally/internal/server/models"
)

// userView is the API-facing projection of a user. Credentials stay on the
// server side.
type userView struct {
	UserName      string      `json:"username"`
	Role          models.Role `json:"role"`
	AssignedAreas []string    `json:"assignedAreas"`
	Disabled      bool        `json:"disabled"`
}

func viewOf(u *models.User) userView {
	return userView{
		UserName:      u.UserName,
		Role:          u.Role,
		AssignedAreas: u.AssignedAreas,
		Disabled:      u.Disabled,
	}
}

func (s *Server) handleLogin(c *gin.Context) {
	var req struct {
		Username string `json:"username" binding:"required"`
		Password string `json:"password" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	user, err := s.sessions.Login(c.Request.Context(), req.Username, req.Password)
	if err != nil {
		writeError(c, err)
		return
	}

	token, err := auth.GenerateToken(user.UserName, s.jwtSecret, s.tokenValidity)
	if err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"token": token, "user": viewOf(user)})
}

func (s *Server) handleLogout(c *gin.Context) {
	if err := s.sessions.Logout(c.Request.Context()); err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "success"})
}

func (s *Server) handleMe(c *gin.Context) {
	c.JSON(http.StatusOK, viewOf(currentUser(c)))
}

func (s *Server) handleGetSettings(c *gin.Context) {
	settings := models.DefaultSettings()
	if _, err := s.store.Get(c.Request.Context(), docstore.KeySettings, settings); err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, settings)
}

// handlePutSettings replaces the settings document wholesale, same as every
// other document write.
func (s *Server) handlePutSettings(c *gin.Context) {
	var settings models.Settings
	if err := c.ShouldBindJSON(&settings); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if err := s.store.Put(c.Request.Context(), docstore.KeySettings, &settings); err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, settings)
}
