package types

import (
	"time"

	"github.com/google/uuid"
)

// ViewMetric is 1:1 with Profile. totalViews and bookings only ever grow;
// the day/week/month counters reset when the previous view falls outside
// the respective calendar window.
type ViewMetric struct {
	ProfileID      uuid.UUID `gorm:"type:uuid;primaryKey" json:"profile_id"`
	DisplayName    string    `gorm:"column:display_name" json:"display_name"`
	ProfileType    string    `gorm:"column:profile_type" json:"profile_type"`
	TotalViews     int64     `gorm:"column:total_views;not null;default:0" json:"total_views"`
	UniqueViews    int64     `gorm:"column:unique_views;not null;default:0" json:"unique_views"`
	ViewsToday     int64     `gorm:"column:views_today;not null;default:0" json:"views_today"`
	ViewsThisWeek  int64     `gorm:"column:views_this_week;not null;default:0" json:"views_this_week"`
	ViewsThisMonth int64     `gorm:"column:views_this_month;not null;default:0" json:"views_this_month"`
	Bookings       int64     `gorm:"column:bookings;not null;default:0" json:"bookings"`
	ConversionRate float64   `gorm:"column:conversion_rate;not null;default:0" json:"conversion_rate"`
	LastViewedAt   time.Time `gorm:"column:last_viewed_at" json:"last_viewed_at"`
	CreatedAt      time.Time `gorm:"not null" json:"created_at"`
	UpdatedAt      time.Time `gorm:"not null" json:"updated_at"`
}

func (ViewMetric) TableName() string { return "view_metric" }
