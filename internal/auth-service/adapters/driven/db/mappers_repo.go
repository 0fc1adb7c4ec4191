package db

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"transit-mapper/internal/auth-service/core/domain/model"
	"transit-mapper/internal/auth-service/core/myerrors"
	"transit-mapper/internal/auth-service/core/ports"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

type MappersRepo struct {
	db *DB
}

func NewMappersRepo(db *DB) ports.IMappersRepo {
	return &MappersRepo{db: db}
}

func (mr *MappersRepo) Create(ctx context.Context, mapper model.Mapper) (string, error) {
	q := `INSERT INTO mappers (username, email, password_hash) VALUES ($1, $2, $3) RETURNING mapper_id`

	id := ""
	row := mr.db.pool.QueryRow(ctx, q, mapper.Username, mapper.Email, mapper.PasswordHash)
	if err := row.Scan(&id); err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			if strings.Contains(pgErr.ConstraintName, "username") {
				return "", myerrors.ErrUsernameTaken
			}
			return "", myerrors.ErrEmailRegistered
		}
		return "", fmt.Errorf("failed to insert mapper: %v", err)
	}

	return id, nil
}

func (mr *MappersRepo) GetByEmail(ctx context.Context, email string) (model.Mapper, error) {
	q := `
		SELECT
			m.mapper_id,
			m.username,
			m.email,
			m.password_hash,
			m.created_at
		FROM
			mappers m
		WHERE
			m.email = $1
	`

	var m model.Mapper
	err := mr.db.pool.QueryRow(ctx, q, email).Scan(
		&m.MapperID,
		&m.Username,
		&m.Email,
		&m.PasswordHash,
		&m.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return model.Mapper{}, myerrors.ErrUnknownEmail
		}
		return model.Mapper{}, err
	}

	return m, nil
}
