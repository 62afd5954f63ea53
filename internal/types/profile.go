package types

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

type ProfileStatus string

const (
	ProfileStatusPendingContent   ProfileStatus = "pending_content"
	ProfileStatusReady            ProfileStatus = "ready"
	ProfileStatusPublished        ProfileStatus = "published"
	ProfileStatusGenerationFailed ProfileStatus = "generation_failed"
)

func (s ProfileStatus) Valid() bool {
	switch s {
	case ProfileStatusPendingContent, ProfileStatusReady, ProfileStatusPublished, ProfileStatusGenerationFailed:
		return true
	}
	return false
}

// ProfileOrigin discriminates the two record shapes that feed the pipeline:
// onboarded service providers and community-member profiles. Everything
// downstream (tracking, sentiment, ranking) operates on the one normalized
// Profile shape regardless of origin.
type ProfileOrigin string

const (
	ProfileOriginServiceProvider ProfileOrigin = "service_provider"
	ProfileOriginCommunity       ProfileOrigin = "community"
)

type Profile struct {
	ID              uuid.UUID      `gorm:"type:uuid;primaryKey" json:"id"`
	DisplayName     string         `gorm:"column:display_name;not null" json:"display_name"`
	Skill           string         `gorm:"column:skill;not null;index" json:"skill"`
	YearsExperience int            `gorm:"column:years_experience;not null;default:0" json:"years_experience"`
	Location        string         `gorm:"column:location" json:"location"`
	Bio             string         `gorm:"column:bio" json:"bio"`
	SuggestedPrice  float64        `gorm:"column:suggested_price;not null;default:0" json:"suggested_price"`
	Origin          ProfileOrigin  `gorm:"column:origin;not null;default:service_provider" json:"origin"`
	Status          ProfileStatus  `gorm:"column:status;not null;index" json:"status"`
	Metadata        datatypes.JSON `gorm:"column:metadata" json:"metadata,omitempty"`
	CreatedAt       time.Time      `gorm:"not null" json:"created_at"`
	UpdatedAt       time.Time      `gorm:"not null" json:"updated_at"`
	DeletedAt       gorm.DeletedAt `gorm:"index" json:"deleted_at,omitempty"`
}

func (Profile) TableName() string { return "profile" }
