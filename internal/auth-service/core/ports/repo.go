package ports

import (
	"context"

	"transit-mapper/internal/auth-service/core/domain/model"
)

type IMappersRepo interface {
	Create(ctx context.Context, mapper model.Mapper) (string, error)
	GetByEmail(ctx context.Context, email string) (model.Mapper, error)
}
