package handlers

import (
	"log/slog"
	"net/http"

	portssvc "github.com/SscSPs/maika_backend/internal/core/ports/services"
	"github.com/SscSPs/maika_backend/internal/dto"
	"github.com/SscSPs/maika_backend/internal/middleware"
	"github.com/gin-gonic/gin"
)

// permissionHandler manages user and role grants. Every route requires ADMIN,
// which the service enforces.
type permissionHandler struct {
	permissionService portssvc.PermissionSvcFacade
}

func newPermissionHandler(ps portssvc.PermissionSvcFacade) *permissionHandler {
	return &permissionHandler{permissionService: ps}
}

func registerPermissionRoutes(rg *gin.RouterGroup, ps portssvc.PermissionSvcFacade) {
	h := newPermissionHandler(ps)

	users := rg.Group("/users/:userID")
	{
		users.GET("/permissions", h.getUserPermissions)
		users.PUT("/permissions", h.replaceUserPermissions)
		users.PUT("/role", h.assignRole)
	}
	rg.PUT("/roles/:roleName/permissions", h.replaceRolePermissions)
}

// getUserPermissions godoc
// @Summary Get the effective permissions of a user
// @Tags permissions
// @Produce  json
// @Param   userID path string true "User ID"
// @Success 200 {array} domain.Permission
// @Failure 403 {object} dto.ErrorResponse
// @Failure 500 {object} dto.ErrorResponse
// @Security BearerAuth
// @Router /users/{userID}/permissions [get]
func (h *permissionHandler) getUserPermissions(c *gin.Context) {
	actor, ok := actorFromContext(c)
	if !ok {
		return
	}
	perms, err := h.permissionService.GetUserPermissions(c.Request.Context(), actor, c.Param("userID"))
	if err != nil {
		respondError(c, err, "Failed to retrieve permissions")
		return
	}
	c.JSON(http.StatusOK, perms)
}

// replaceUserPermissions godoc
// @Summary Replace the direct permissions of a user
// @Tags permissions
// @Accept  json
// @Param   userID path string true "User ID"
// @Param   permissions body dto.ReplacePermissionsRequest true "New grants"
// @Success 204 "Permissions replaced"
// @Failure 400 {object} dto.ErrorResponse "Unknown name or scoped grant without scope"
// @Failure 403 {object} dto.ErrorResponse
// @Failure 500 {object} dto.ErrorResponse
// @Security BearerAuth
// @Router /users/{userID}/permissions [put]
func (h *permissionHandler) replaceUserPermissions(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())
	actor, ok := actorFromContext(c)
	if !ok {
		return
	}
	var req dto.ReplacePermissionsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindError(c, err)
		return
	}

	userID := c.Param("userID")
	if err := h.permissionService.ReplaceUserPermissions(c.Request.Context(), actor, userID, req.Permissions); err != nil {
		respondError(c, err, "Failed to replace permissions")
		return
	}
	logger.Info("User permissions replaced", slog.String("target_user_id", userID), slog.Int("count", len(req.Permissions)))
	c.Status(http.StatusNoContent)
}

// replaceRolePermissions godoc
// @Summary Replace the permissions of a role
// @Description Creates the role when it does not exist yet.
// @Tags permissions
// @Accept  json
// @Param   roleName path string true "Role name"
// @Param   permissions body dto.ReplacePermissionsRequest true "New grants"
// @Success 204 "Permissions replaced"
// @Failure 400 {object} dto.ErrorResponse
// @Failure 403 {object} dto.ErrorResponse
// @Failure 500 {object} dto.ErrorResponse
// @Security BearerAuth
// @Router /roles/{roleName}/permissions [put]
func (h *permissionHandler) replaceRolePermissions(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())
	actor, ok := actorFromContext(c)
	if !ok {
		return
	}
	var req dto.ReplacePermissionsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindError(c, err)
		return
	}

	roleName := c.Param("roleName")
	if err := h.permissionService.ReplaceRolePermissions(c.Request.Context(), actor, roleName, req.Permissions); err != nil {
		respondError(c, err, "Failed to replace permissions")
		return
	}
	logger.Info("Role permissions replaced", slog.String("role", roleName), slog.Int("count", len(req.Permissions)))
	c.Status(http.StatusNoContent)
}

// assignRole godoc
// @Summary Assign a role to a user
// @Tags permissions
// @Accept  json
// @Param   userID path string true "User ID"
// @Param   role body dto.AssignRoleRequest true "Role"
// @Success 204 "Role assigned"
// @Failure 400 {object} dto.ErrorResponse
// @Failure 403 {object} dto.ErrorResponse
// @Failure 404 {object} dto.ErrorResponse "Role not found"
// @Failure 500 {object} dto.ErrorResponse
// @Security BearerAuth
// @Router /users/{userID}/role [put]
func (h *permissionHandler) assignRole(c *gin.Context) {
	actor, ok := actorFromContext(c)
	if !ok {
		return
	}
	var req dto.AssignRoleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindError(c, err)
		return
	}
	if err := h.permissionService.AssignRole(c.Request.Context(), actor, c.Param("userID"), req.RoleName); err != nil {
		respondError(c, err, "Failed to assign role")
		return
	}
	c.Status(http.StatusNoContent)
}
