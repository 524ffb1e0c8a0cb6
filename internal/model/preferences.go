package model

// Preferences is the notification-preferences resource. Categories holds one
// opt-in flag per canonical category name.
type Preferences struct {
	EmailEnabled bool            `json:"email_enabled"`
	PushEnabled  bool            `json:"push_enabled"`
	Categories   map[string]bool `json:"categories" validate:"dive,keys,knowncategory,endkeys"`
}

// Clone returns a deep copy so editors can mutate without aliasing.
func (p Preferences) Clone() Preferences {
	out := p
	out.Categories = make(map[string]bool, len(p.Categories))
	for k, v := range p.Categories {
		out.Categories[k] = v
	}
	return out
}
