package db_models

// Experience is one Whop tenant. The id is Whop's own experience id (exp_...).
type Experience struct {
	ID         string `gorm:"primaryKey"`
	Title      string
	BizID      string
	BizName    string
	Prompt     string
	WebhookURL string
	CreatedAt  int64 `gorm:"autoCreateTime:nano"`
	UpdatedAt  int64 `gorm:"autoUpdateTime:nano"`

	Places []Place `gorm:"foreignKey:ExperienceID;constraint:OnDelete:CASCADE"`
}
