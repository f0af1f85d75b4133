package domain

// Entity is a party that can send or receive money. It always belongs to exactly one tag.
type Entity struct {
	ID      int64  `json:"id"`
	Name    string `json:"name"`
	TagName string `json:"tagName"` // FK -> tags.name (NON-NULL)
	AuditFields
}

// EntityRef is the minimal view of an entity needed to evaluate permissions.
type EntityRef struct {
	ID      int64  `json:"id"`
	TagName string `json:"tagName"`
}

// Ref returns the permission view of the entity.
func (e Entity) Ref() EntityRef {
	return EntityRef{ID: e.ID, TagName: e.TagName}
}
