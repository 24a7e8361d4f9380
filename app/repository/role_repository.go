package repository

import (
	"context"
	"errors"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/avishkar-academy/vault/app/models"
)

// roleRepository implements the RoleRepository interface
type roleRepository struct {
	db *gorm.DB
}

// NewRoleRepository creates a new role repository instance
func NewRoleRepository(db *gorm.DB) RoleRepository {
	return &roleRepository{db: db}
}

// GetRole returns the stored role, or models.RoleUser when none is stored
func (r *roleRepository) GetRole(ctx context.Context, userID string) (string, error) {
	var role models.UserRole
	err := r.db.WithContext(ctx).Where("user_id = ?", userID).First(&role).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return models.RoleUser, nil
	}
	if err != nil {
		return "", err
	}
	return role.Role, nil
}

// Assign sets the role with a single upsert on the user_id unique index
func (r *roleRepository) Assign(ctx context.Context, userID, role string) (*models.UserRole, error) {
	entry := models.UserRole{UserID: userID, Role: role}
	err := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "user_id"}},
			DoUpdates: clause.AssignmentColumns([]string{"role", "updated_at"}),
		}).
		Create(&entry).Error
	if err != nil {
		return nil, err
	}

	var stored models.UserRole
	if err := r.db.WithContext(ctx).Where("user_id = ?", userID).First(&stored).Error; err != nil {
		return nil, err
	}
	return &stored, nil
}
