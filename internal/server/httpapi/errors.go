package httpapi

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/mkarpovs/crewtally/internal/common"
)

// writeError maps domain errors to HTTP status codes. Anything unmatched is
// a 500; handlers never leak store internals beyond the error string.
func writeError(c *gin.Context, err error) {
	var locked *common.AccountLockedError
	if errors.As(err, &locked) {
		c.JSON(http.StatusLocked, gin.H{
			"error":            locked.Error(),
			"remainingMinutes": locked.RemainingMinutes,
		})
		return
	}

	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, common.ErrInvalidCredentials):
		status = http.StatusUnauthorized
	case errors.Is(err, common.ErrAccountDisabled):
		status = http.StatusForbidden
	case errors.Is(err, common.ErrDuplicateUsername), errors.Is(err, common.ErrDuplicateArea):
		status = http.StatusConflict
	case errors.Is(err, common.ErrUserNotFound), errors.Is(err, common.ErrAreaNotFound), errors.Is(err, common.ErrNotFound):
		status = http.StatusNotFound
	case errors.Is(err, common.ErrInvalidBackup), errors.Is(err, common.ErrInvalidPresentValue), errors.Is(err, common.ErrPasswordTooShort):
		status = http.StatusBadRequest
	}

	c.JSON(status, gin.H{"error": err.Error()})
}
