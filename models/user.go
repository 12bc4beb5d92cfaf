package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
	"golang.org/x/crypto/bcrypt"
)

// UserRole enum
type UserRole string

const (
	Issuer  UserRole = "issuer"
	Officer UserRole = "officer"
)

func (r UserRole) Valid() bool {
	return r == Issuer || r == Officer
}

// Zones is the administrative partitioning used to route issues to officers.
var Zones = []string{
	"North Zone", "South Zone", "East Zone", "West Zone", "Central Zone",
}

var Designations = []string{
	"Junior Engineer", "Senior Engineer", "Assistant Officer",
	"Deputy Officer", "Chief Officer",
}

type User struct {
	ID        primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	Name      string             `bson:"name" json:"name"`
	Email     string             `bson:"email" json:"email"`
	Password  string             `bson:"password,omitempty" json:"-"`
	Role      UserRole           `bson:"role" json:"role"`
	// Officer-only attributes: the category/zone an officer is responsible for.
	Category    IssueCategory `bson:"category,omitempty" json:"category,omitempty"`
	Zone        string        `bson:"zone,omitempty" json:"zone,omitempty"`
	Designation string        `bson:"designation,omitempty" json:"designation,omitempty"`
	CreatedAt   time.Time     `bson:"createdAt" json:"createdAt"`
	UpdatedAt   time.Time     `bson:"updatedAt" json:"updatedAt"`
}

func (u *User) HashPassword() error {
	hashed, err := bcrypt.GenerateFromPassword([]byte(u.Password), bcrypt.DefaultCost)
	if err != nil {
		return err
	}
	u.Password = string(hashed)
	return nil
}

func (u *User) ComparePassword(candidate string) bool {
	err := bcrypt.CompareHashAndPassword([]byte(u.Password), []byte(candidate))
	return err == nil
}
