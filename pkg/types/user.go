package types

// User is a team member who can be assigned stories. Color is a display
// tag, not a permission attribute; Role is informational only.
type User struct {
	ID     string `json:"id"`
	Name   string `json:"name"`
	Avatar string `json:"avatar"`
	Color  string `json:"color"`
	Role   string `json:"role"`
}
