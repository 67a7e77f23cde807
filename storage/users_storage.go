package storage

import (
	"context"

	"github.com/pkg/errors"
	"gorm.io/gorm"

	"github.com/rio-inventory/inventory/storage/model"
)

// UsersStorage returns a UsersStorage
func (s *Storage) UsersStorage() *UsersStorage {
	return &UsersStorage{
		ReferenceStorage: newReferenceStorage[model.User, model.AddUser, model.UserUpdate](
			s, model.ReferenceUser,
		),
	}
}

// UsersStorage implements model.UsersStore using GORM
type UsersStorage struct {
	*ReferenceStorage[model.User, model.AddUser, model.UserUpdate]
}

// GetByAzureOID returns the user with the passed external identity
func (s *UsersStorage) GetByAzureOID(ctx context.Context, oid string) (*model.User, error) {
	db, cancel := s.conn(ctx)
	defer cancel()
	var u model.User
	if err := db.Where("azure_oid = ?", oid).First(&u).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, model.NotFoundErrorFmt("user not found: %s", oid)
		}
		return nil, errors.WithStack(err)
	}
	return &u, nil
}
