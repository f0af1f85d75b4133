package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// getMe godoc
// @Summary Show the caller and its effective permissions.
// @Description The presentation layer uses it to decide which actions to offer.
// @Tags root
// @Produce json
// @Success 200 {object} domain.Actor
// @Failure 401 {object} dto.ErrorResponse
// @Security BearerAuth
// @Router /me [get]
func getMe(c *gin.Context) {
	actor, ok := actorFromContext(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, actor)
}

func registerMeRoutes(group *gin.RouterGroup) {
	group.GET("/me", getMe)
}
