package model

// ItemKind distinguishes folders from leaf bookmarks.
type ItemKind int

const (
	ItemFolder ItemKind = iota
	ItemLeaf
)

// Item is one entry in a bookmark level. Identity is the ID; the index an
// item currently occupies is never part of its identity.
type Item struct {
	ID       string   `json:"id"`
	Title    string   `json:"title"`
	URL      string   `json:"url,omitempty"` // empty for folders
	Kind     ItemKind `json:"kind"`
	ParentID *string  `json:"parentId"` // nil = top level
}

// NewItemParams holds parameters for creating a new Item.
type NewItemParams struct {
	Title    string
	URL      string
	Kind     ItemKind
	ParentID *string
}

// NewItem creates an Item with a generated UUID.
func NewItem(params NewItemParams) Item {
	return Item{
		ID:       GenerateUUID(),
		Title:    params.Title,
		URL:      params.URL,
		Kind:     params.Kind,
		ParentID: params.ParentID,
	}
}

// IsFolder returns true if this item is a folder.
func (i Item) IsFolder() bool {
	return i.Kind == ItemFolder
}

// PtrEqual compares two string pointers for equality.
func PtrEqual(a, b *string) bool {
	if a == nil && b == nil {
		return true
	}
	if a == nil || b == nil {
		return false
	}
	return *a == *b
}
