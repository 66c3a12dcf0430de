package db_models

type AnnouncementStatus string

const (
	AnnouncementPending       AnnouncementStatus = "pending"
	AnnouncementImageAttached AnnouncementStatus = "image_attached"
	AnnouncementTextOnly      AnnouncementStatus = "text_only"
	AnnouncementFailed        AnnouncementStatus = "failed"
)

type Place struct {
	BaseModel
	ExperienceID string `gorm:"not null;index"`
	Name         string `gorm:"not null"`
	Description  *string
	Latitude     float64 `gorm:"not null"`
	Longitude    float64 `gorm:"not null"`
	Address      *string
	Category     *string

	AnnouncementStatus    AnnouncementStatus `gorm:"default:pending"`
	AnnouncementPostID    string
	AnnouncementForumID   string
	AnnouncementError     string
	AnnouncementClaimedAt *int64
}
