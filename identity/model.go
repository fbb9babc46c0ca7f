package identity

import "time"

// Identity is a registered user. The password hash never leaves the process.
type Identity struct {
	ID           int64     `gorm:"primaryKey" json:"id"`
	Name         string    `json:"name"`
	LastName     string    `json:"lastName"`
	Username     string    `json:"username"`
	Email        string    `json:"email"`
	PasswordHash string    `gorm:"column:password" json:"-"`
	CreatedAt    time.Time `json:"createdAt"`
	UpdatedAt    time.Time `json:"updatedAt"`

	Roles []Role `gorm:"-" json:"roles"`
}

// TableName implements gorm's tabler.
func (Identity) TableName() string { return "users" }

// Subject returns the email, which is the token subject.
func (i *Identity) Subject() string { return i.Email }

// Authorities returns the names of the loaded roles.
func (i *Identity) Authorities() []string {
	names := make([]string, 0, len(i.Roles))
	for _, r := range i.Roles {
		names = append(names, r.Name)
	}
	return names
}

// Role is a named authority, e.g. ROLE_USER.
type Role struct {
	ID   int64  `gorm:"primaryKey" json:"id"`
	Name string `json:"name"`
}

// TableName implements gorm's tabler.
func (Role) TableName() string { return "roles" }

// userRole links an identity to a role.
type userRole struct {
	UserID int64 `gorm:"primaryKey"`
	RoleID int64 `gorm:"primaryKey"`
}

func (userRole) TableName() string { return "user_roles" }

// Registration is the input of a signup.
type Registration struct {
	Name     string `json:"name" validate:"required,max=50"`
	LastName string `json:"lastName" validate:"omitempty,max=50"`
	Username string `json:"username" validate:"omitempty,max=50"`
	Email    string `json:"email" validate:"required,email,max=255"`
	Password string `json:"password" validate:"required"`
}
