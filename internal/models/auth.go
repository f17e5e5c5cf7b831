package models

// Role is the portal section a signed-in user belongs to.
type Role string

const (
	RoleTenant   Role = "tenant"
	RoleAgent    Role = "agent"
	RoleLandlord Role = "landlord"
	RoleAdmin    Role = "admin"
)

// Credentials is the login form posted by the browser.
type Credentials struct {
	Email    string `json:"email" form:"email" validate:"required,email"`
	Password string `json:"password" form:"password" validate:"required,min=6"`
}

// LoginResult is what the backend returns for a successful login.
type LoginResult struct {
	Token string `json:"token"`
	Name  string `json:"name"`
	Email string `json:"email"`
	Phone string `json:"phone,omitempty"`
	Role  Role   `json:"role"`
}

// Identity converts the login answer into the session identity.
func (r *LoginResult) Identity() *Identity {
	return &Identity{Token: r.Token, Name: r.Name, Email: r.Email, Phone: r.Phone, Role: r.Role}
}
