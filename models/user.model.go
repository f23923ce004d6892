// Package models contains the models of the relational database
package models

import (
	"time"

	"github.com/google/uuid"
)

// User represents the user in the relational database
type User struct {
	ID          *uuid.UUID   `gorm:"type:uuid;default:uuid_generate_v4();primary_key"`
	CreatedAt   *time.Time   `gorm:"not null;default:now()"`
	UpdatedAt   *time.Time   `gorm:"not null;default:now()"`
	Name        string       `gorm:"type:varchar(150);default:null"`
	Email       string       `gorm:"type:varchar(255);uniqueIndex;not null"`
	Credentials []Credential `gorm:"foreignKey:UserID"`
}
