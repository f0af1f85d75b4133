package dto

// CreateTagRequest defines the structure for creating a tag.
type CreateTagRequest struct {
	Name       string  `json:"name" binding:"required,max=100"`
	ParentName *string `json:"parentName,omitempty" binding:"omitempty,max=100"`
}

// UpdateTagRequest reparents a tag. A nil parent turns the tag into a root.
type UpdateTagRequest struct {
	ParentName *string `json:"parentName"`
}

// CreateEntityRequest defines the structure for creating an entity.
type CreateEntityRequest struct {
	Name    string `json:"name" binding:"required,max=255"`
	TagName string `json:"tagName" binding:"required"`
}

// UpdateEntityRequest defines the fields that can be updated on an entity.
type UpdateEntityRequest struct {
	Name    *string `json:"name,omitempty" binding:"omitempty,min=1,max=255"`
	TagName *string `json:"tagName,omitempty" binding:"omitempty,min=1"`
}

// ListEntitiesParams filters the entity listing by tag, descendants included.
type ListEntitiesParams struct {
	Tag *string `form:"tag"`
}
