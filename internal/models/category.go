package models

import "strconv"

// Category represents a transaction category. A nil UserID marks a global
// category shared by every user.
type Category struct {
	ID     int64  `json:"id"`
	Name   string `json:"name"`
	UserID *int64 `json:"user_id,omitempty"`
}

// IsGlobal reports whether the category is shared by all users.
func (c Category) IsGlobal() bool { return c.UserID == nil }

// CategoryQuery holds the parameters of GET /categories.
type CategoryQuery struct {
	IncludeGlobal bool
	UserID        *int64
	Q             string
}

// CategoryIndex resolves category ids and names for display and form
// pre-population.
type CategoryIndex struct {
	byID   map[int64]string
	byName map[string]int64
	list   []Category
}

// NewCategoryIndex indexes categories by id and by name.
func NewCategoryIndex(categories []Category) *CategoryIndex {
	idx := &CategoryIndex{
		byID:   make(map[int64]string, len(categories)),
		byName: make(map[string]int64, len(categories)),
		list:   categories,
	}
	for _, c := range categories {
		idx.byID[c.ID] = c.Name
		if _, seen := idx.byName[c.Name]; !seen {
			idx.byName[c.Name] = c.ID
		}
	}
	return idx
}

// Name returns the name for id.
func (i *CategoryIndex) Name(id int64) (string, bool) {
	if i == nil {
		return "", false
	}
	name, ok := i.byID[id]
	return name, ok
}

// IDByName returns the id of the first category named name.
func (i *CategoryIndex) IDByName(name string) (int64, bool) {
	if i == nil {
		return 0, false
	}
	id, ok := i.byName[name]
	return id, ok
}

// Categories returns the indexed categories in server order.
func (i *CategoryIndex) Categories() []Category {
	if i == nil {
		return nil
	}
	return i.list
}

// Options returns the categories as dropdown choices.
func (i *CategoryIndex) Options() []Option {
	out := make([]Option, 0, len(i.Categories()))
	for _, c := range i.Categories() {
		out = append(out, Option{Value: strconv.FormatInt(c.ID, 10), Label: c.Name})
	}
	return out
}
