package models

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type User struct {
	ID           uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	Name         string    `gorm:"not null" json:"name"`
	Email        string    `gorm:"uniqueIndex;not null" json:"email"`
	PasswordHash string    `gorm:"not null" json:"-"`
	Age          int       `gorm:"not null;default:0" json:"age"`
	Avatar       []byte    `json:"-"`
	AvatarKey    string    `json:"-"`
	CreatedAt    time.Time `json:"createdAt"`
	UpdatedAt    time.Time `json:"updatedAt"`

	// Связи
	Tokens []UserToken `gorm:"foreignKey:UserID;constraint:OnDelete:CASCADE" json:"-"`
	Tasks  []Task      `gorm:"foreignKey:OwnerID;constraint:OnDelete:CASCADE" json:"-"`
}

// BeforeCreate генерирует ID на стороне приложения, чтобы не зависеть от диалекта БД
func (u *User) BeforeCreate(_ *gorm.DB) error {
	if u.ID == uuid.Nil {
		u.ID = uuid.New()
	}
	return nil
}

// HasAvatar сообщает, загружен ли у пользователя аватар
func (u *User) HasAvatar() bool {
	return len(u.Avatar) > 0 || u.AvatarKey != ""
}

// MarshalJSON добавляет в ответ признак hasAvatar; сами байты наружу не уходят
func (u User) MarshalJSON() ([]byte, error) {
	type plain User
	return json.Marshal(struct {
		plain
		HasAvatar bool `json:"hasAvatar"`
	}{plain: plain(u), HasAvatar: u.HasAvatar()})
}

// UserToken одна активная сессия пользователя
type UserToken struct {
	ID        uuid.UUID `gorm:"type:uuid;primaryKey"`
	UserID    uuid.UUID `gorm:"type:uuid;index;not null"`
	Token     string    `gorm:"uniqueIndex;not null"`
	CreatedAt time.Time
}

func (t *UserToken) BeforeCreate(_ *gorm.DB) error {
	if t.ID == uuid.Nil {
		t.ID = uuid.New()
	}
	return nil
}
