package identity

import (
	"context"
	"net/http"

	"gorm.io/gorm"

	"github.com/kbukum/invoicer/database"
	"github.com/kbukum/invoicer/errors"
)

// Store persists identities and their role links.
type Store interface {
	// FindByEmail returns the identity with its roles loaded, or a
	// USER_NOT_FOUND error.
	FindByEmail(ctx context.Context, email string) (*Identity, error)
	// ExistsByEmail reports whether an identity already uses email.
	ExistsByEmail(ctx context.Context, email string) (bool, error)
	// FindRole returns the role with the given name, or a NOT_FOUND error.
	FindRole(ctx context.Context, name string) (*Role, error)
	// Create inserts the identity and links roles in one transaction.
	// A taken email yields DUPLICATE_EMAIL.
	Create(ctx context.Context, identity *Identity, roles []Role) error
}

// GormStore is the Store backed by the service database.
type GormStore struct {
	db *database.DB
}

var _ Store = (*GormStore)(nil)

// NewGormStore creates a GormStore.
func NewGormStore(db *database.DB) *GormStore {
	return &GormStore{db: db}
}

// FindByEmail loads the identity row, then its roles.
func (s *GormStore) FindByEmail(ctx context.Context, email string) (*Identity, error) {
	var identity Identity
	err := s.db.WithContext(ctx).Where("email = ?", email).Take(&identity).Error
	if err != nil {
		if database.IsNotFoundError(err) {
			return nil, errors.UserNotFound(http.StatusNotFound)
		}
		return nil, database.FromDatabase(err, "user")
	}

	roles, err := s.loadRoles(ctx, identity.ID)
	if err != nil {
		return nil, err
	}
	identity.Roles = roles
	return &identity, nil
}

func (s *GormStore) loadRoles(ctx context.Context, userID int64) ([]Role, error) {
	roles := make([]Role, 0, 1)
	err := s.db.WithContext(ctx).
		Table("roles").
		Select("roles.id, roles.name").
		Joins("JOIN user_roles ON user_roles.role_id = roles.id").
		Where("user_roles.user_id = ?", userID).
		Order("roles.id").
		Scan(&roles).Error
	if err != nil {
		return nil, database.FromDatabase(err, "role")
	}
	return roles, nil
}

// ExistsByEmail reports whether an identity already uses email.
func (s *GormStore) ExistsByEmail(ctx context.Context, email string) (bool, error) {
	var count int64
	if err := s.db.WithContext(ctx).Model(&Identity{}).Where("email = ?", email).Count(&count).Error; err != nil {
		return false, database.FromDatabase(err, "user")
	}
	return count > 0, nil
}

// FindRole returns the role with the given name.
func (s *GormStore) FindRole(ctx context.Context, name string) (*Role, error) {
	var role Role
	if err := s.db.WithContext(ctx).Where("name = ?", name).Take(&role).Error; err != nil {
		return nil, database.FromDatabase(err, "role")
	}
	return &role, nil
}

// Create inserts the identity and its role links in one transaction.
func (s *GormStore) Create(ctx context.Context, identity *Identity, roles []Role) error {
	err := s.db.WithTransaction(ctx, func(tx *gorm.DB) error {
		if err := tx.Create(identity).Error; err != nil {
			return err
		}
		for _, r := range roles {
			if err := tx.Create(&userRole{UserID: identity.ID, RoleID: r.ID}).Error; err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		if database.IsDuplicateError(err) {
			return errors.DuplicateEmail().WithCause(err)
		}
		return database.FromDatabase(err, "user")
	}
	return nil
}
