package handlers

import (
	"log/slog"
	"net/http"

	portssvc "github.com/SscSPs/maika_backend/internal/core/ports/services"
	"github.com/SscSPs/maika_backend/internal/dto"
	"github.com/SscSPs/maika_backend/internal/middleware"
	"github.com/gin-gonic/gin"
)

// hierarchyHandler manages tags and the entities attached to them.
type hierarchyHandler struct {
	tagService    portssvc.TagSvcFacade
	entityService portssvc.EntitySvcFacade
}

func newHierarchyHandler(ts portssvc.TagSvcFacade, es portssvc.EntitySvcFacade) *hierarchyHandler {
	return &hierarchyHandler{tagService: ts, entityService: es}
}

func registerHierarchyRoutes(rg *gin.RouterGroup, ts portssvc.TagSvcFacade, es portssvc.EntitySvcFacade) {
	h := newHierarchyHandler(ts, es)

	tags := rg.Group("/tags")
	{
		tags.GET("", h.listTags)
		tags.POST("", h.createTag)
		tags.PUT("/:tagName", h.reparentTag)
		tags.DELETE("/:tagName", h.deleteTag)
	}

	entities := rg.Group("/entities")
	{
		entities.GET("", h.listEntities)
		entities.POST("", h.createEntity)
		entities.GET("/:entityID", h.getEntity)
		entities.PUT("/:entityID", h.updateEntity)
		entities.DELETE("/:entityID", h.deleteEntity)
	}
}

// listTags godoc
// @Summary List tags
// @Tags hierarchy
// @Produce  json
// @Success 200 {array} domain.Tag
// @Failure 500 {object} dto.ErrorResponse
// @Security BearerAuth
// @Router /tags [get]
func (h *hierarchyHandler) listTags(c *gin.Context) {
	tags, err := h.tagService.ListTags(c.Request.Context())
	if err != nil {
		respondError(c, err, "Failed to list tags")
		return
	}
	c.JSON(http.StatusOK, tags)
}

// createTag godoc
// @Summary Create a tag
// @Description Creates a root tag, or a child when parentName is set.
// @Tags hierarchy
// @Accept  json
// @Produce  json
// @Param   tag body dto.CreateTagRequest true "Tag"
// @Success 201 {object} domain.Tag
// @Failure 400 {object} dto.ErrorResponse
// @Failure 403 {object} dto.ErrorResponse
// @Failure 409 {object} dto.ErrorResponse "Tag already exists"
// @Failure 500 {object} dto.ErrorResponse
// @Security BearerAuth
// @Router /tags [post]
func (h *hierarchyHandler) createTag(c *gin.Context) {
	actor, ok := actorFromContext(c)
	if !ok {
		return
	}
	var req dto.CreateTagRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindError(c, err)
		return
	}

	tag, err := h.tagService.CreateTag(c.Request.Context(), actor, req)
	if err != nil {
		respondError(c, err, "Failed to create tag")
		return
	}
	c.JSON(http.StatusCreated, tag)
}

// reparentTag godoc
// @Summary Move a tag
// @Description Sets the parent of a tag; a null parent makes it a root. Moves that would create a cycle are rejected.
// @Tags hierarchy
// @Accept  json
// @Produce  json
// @Param   tagName path string true "Tag name"
// @Param   parent body dto.UpdateTagRequest true "New parent"
// @Success 200 {object} domain.Tag
// @Failure 400 {object} dto.ErrorResponse
// @Failure 403 {object} dto.ErrorResponse
// @Failure 404 {object} dto.ErrorResponse
// @Failure 500 {object} dto.ErrorResponse
// @Security BearerAuth
// @Router /tags/{tagName} [put]
func (h *hierarchyHandler) reparentTag(c *gin.Context) {
	actor, ok := actorFromContext(c)
	if !ok {
		return
	}
	var req dto.UpdateTagRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindError(c, err)
		return
	}

	tag, err := h.tagService.ReparentTag(c.Request.Context(), actor, c.Param("tagName"), req)
	if err != nil {
		respondError(c, err, "Failed to update tag")
		return
	}
	c.JSON(http.StatusOK, tag)
}

// deleteTag godoc
// @Summary Delete a tag
// @Tags hierarchy
// @Param   tagName path string true "Tag name"
// @Success 204 "Tag deleted"
// @Failure 403 {object} dto.ErrorResponse
// @Failure 404 {object} dto.ErrorResponse
// @Failure 409 {object} dto.ErrorResponse "Tag still has children or entities"
// @Failure 500 {object} dto.ErrorResponse
// @Security BearerAuth
// @Router /tags/{tagName} [delete]
func (h *hierarchyHandler) deleteTag(c *gin.Context) {
	actor, ok := actorFromContext(c)
	if !ok {
		return
	}
	if err := h.tagService.DeleteTag(c.Request.Context(), actor, c.Param("tagName")); err != nil {
		respondError(c, err, "Failed to delete tag")
		return
	}
	c.Status(http.StatusNoContent)
}

// listEntities godoc
// @Summary List entities
// @Tags hierarchy
// @Produce  json
// @Param   tag query string false "Only entities under this tag, descendants included"
// @Success 200 {array} domain.Entity
// @Failure 400 {object} dto.ErrorResponse
// @Failure 500 {object} dto.ErrorResponse
// @Security BearerAuth
// @Router /entities [get]
func (h *hierarchyHandler) listEntities(c *gin.Context) {
	var params dto.ListEntitiesParams
	if err := c.ShouldBindQuery(&params); err != nil {
		bindError(c, err)
		return
	}
	entities, err := h.entityService.ListEntities(c.Request.Context(), params)
	if err != nil {
		respondError(c, err, "Failed to list entities")
		return
	}
	c.JSON(http.StatusOK, entities)
}

// getEntity godoc
// @Summary Get an entity
// @Tags hierarchy
// @Produce  json
// @Param   entityID path int true "Entity ID"
// @Success 200 {object} domain.Entity
// @Failure 404 {object} dto.ErrorResponse
// @Failure 500 {object} dto.ErrorResponse
// @Security BearerAuth
// @Router /entities/{entityID} [get]
func (h *hierarchyHandler) getEntity(c *gin.Context) {
	entityID, ok := int64Param(c, "entityID")
	if !ok {
		return
	}
	entity, err := h.entityService.GetEntity(c.Request.Context(), entityID)
	if err != nil {
		respondError(c, err, "Failed to retrieve entity")
		return
	}
	c.JSON(http.StatusOK, entity)
}

// createEntity godoc
// @Summary Create an entity
// @Tags hierarchy
// @Accept  json
// @Produce  json
// @Param   entity body dto.CreateEntityRequest true "Entity"
// @Success 201 {object} domain.Entity
// @Failure 400 {object} dto.ErrorResponse
// @Failure 403 {object} dto.ErrorResponse
// @Failure 500 {object} dto.ErrorResponse
// @Security BearerAuth
// @Router /entities [post]
func (h *hierarchyHandler) createEntity(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())
	actor, ok := actorFromContext(c)
	if !ok {
		return
	}
	var req dto.CreateEntityRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindError(c, err)
		return
	}

	entity, err := h.entityService.CreateEntity(c.Request.Context(), actor, req)
	if err != nil {
		respondError(c, err, "Failed to create entity")
		return
	}
	logger.Info("Entity created", slog.Int64("entity_id", entity.ID))
	c.JSON(http.StatusCreated, entity)
}

// updateEntity godoc
// @Summary Update an entity
// @Description Renames an entity or moves it to another tag.
// @Tags hierarchy
// @Accept  json
// @Produce  json
// @Param   entityID path int true "Entity ID"
// @Param   entity body dto.UpdateEntityRequest true "Fields to change"
// @Success 200 {object} domain.Entity
// @Failure 400 {object} dto.ErrorResponse
// @Failure 403 {object} dto.ErrorResponse
// @Failure 404 {object} dto.ErrorResponse
// @Failure 500 {object} dto.ErrorResponse
// @Security BearerAuth
// @Router /entities/{entityID} [put]
func (h *hierarchyHandler) updateEntity(c *gin.Context) {
	actor, ok := actorFromContext(c)
	if !ok {
		return
	}
	entityID, ok := int64Param(c, "entityID")
	if !ok {
		return
	}
	var req dto.UpdateEntityRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindError(c, err)
		return
	}

	entity, err := h.entityService.UpdateEntity(c.Request.Context(), actor, entityID, req)
	if err != nil {
		respondError(c, err, "Failed to update entity")
		return
	}
	c.JSON(http.StatusOK, entity)
}

// deleteEntity godoc
// @Summary Delete an entity
// @Description Deletes an entity no transaction references. Otherwise answers 409 with the blocking transaction.
// @Tags hierarchy
// @Param   entityID path int true "Entity ID"
// @Success 204 "Entity deleted"
// @Failure 403 {object} dto.ErrorResponse
// @Failure 404 {object} dto.ErrorResponse
// @Failure 409 {object} dto.ErrorResponse "Entity referenced by a transaction"
// @Failure 500 {object} dto.ErrorResponse
// @Security BearerAuth
// @Router /entities/{entityID} [delete]
func (h *hierarchyHandler) deleteEntity(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())
	actor, ok := actorFromContext(c)
	if !ok {
		return
	}
	entityID, ok := int64Param(c, "entityID")
	if !ok {
		return
	}

	if err := h.entityService.DeleteEntity(c.Request.Context(), actor, entityID); err != nil {
		respondError(c, err, "Failed to delete entity")
		return
	}
	logger.Info("Entity deleted", slog.Int64("entity_id", entityID))
	c.Status(http.StatusNoContent)
}
