package model

import "time"

// Mapper is a field surveyor account. Mappers own the trips they record.
type Mapper struct {
	MapperID     string
	Username     string
	Email        string
	PasswordHash []byte
	CreatedAt    time.Time
}
