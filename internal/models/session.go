package models

// Identity is the signed-in user carried by the session cookie.
type Identity struct {
	Token string `json:"-"`
	Name  string `json:"name"`
	Email string `json:"email"`
	Phone string `json:"phone,omitempty"`
	Role  Role   `json:"role"`
}

// HasRole reports whether the identity holds one of roles. An empty list
// accepts any signed-in identity.
func (i *Identity) HasRole(roles ...string) bool {
	if i == nil {
		return false
	}
	if len(roles) == 0 {
		return true
	}
	for _, r := range roles {
		if string(i.Role) == r {
			return true
		}
	}
	return false
}
