package database

import (
	"context"

	"github.com/meetme/conferencebridge/internal/database/models"
)

// SystemConfigRepository manages key-value system configuration.
type SystemConfigRepository interface {
	Get(ctx context.Context, key string) (string, error)
	Set(ctx context.Context, key, value string) error
	GetAll(ctx context.Context) ([]models.SystemConfig, error)
}

// RoomRepository manages the static conference room registry: the
// sqlite-backed equivalent of a meetme.conf [rooms] section.
type RoomRepository interface {
	Create(ctx context.Context, room *models.Room) error
	GetByConfno(ctx context.Context, confno string) (*models.Room, error)
	List(ctx context.Context) ([]models.Room, error)
	Update(ctx context.Context, room *models.Room) error
	Delete(ctx context.Context, confno string) error
}
