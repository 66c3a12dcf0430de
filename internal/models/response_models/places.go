package response_models

import "time"

type Place struct {
	ID           string    `json:"id"`
	ExperienceID string    `json:"experienceId"`
	Name         string    `json:"name"`
	Description  *string   `json:"description"`
	Latitude     float64   `json:"latitude"`
	Longitude    float64   `json:"longitude"`
	Address      *string   `json:"address"`
	Category     *string   `json:"category"`
	CreatedAt    time.Time `json:"createdAt"`
	UpdatedAt    time.Time `json:"updatedAt"`

	Announcement Announcement `json:"announcement"`
}

type Announcement struct {
	Status  string `json:"status"`
	PostID  string `json:"postId,omitempty"`
	ForumID string `json:"forumId,omitempty"`
	Error   string `json:"error,omitempty"`
}

type Experience struct {
	ID      string  `json:"id"`
	Title   string  `json:"title"`
	BizID   string  `json:"bizId"`
	BizName string  `json:"bizName"`
	Prompt  string  `json:"prompt"`
	Places  []Place `json:"places"`

	AccessLevel string `json:"accessLevel,omitempty"`
}

type UploadImage struct {
	Success      bool   `json:"success"`
	AttachmentID string `json:"attachmentId"`
	UploadTimeMs int64  `json:"uploadTimeMs"`
}

type ForumPost struct {
	Success bool   `json:"success"`
	PostID  string `json:"postId"`
	ForumID string `json:"forumId"`
}

type Deleted struct {
	Success bool `json:"success"`
}

type GeneratedImage struct {
	Success  bool   `json:"success"`
	ImageURL string `json:"imageUrl"`
}

type GeocodeResult struct {
	Latitude    float64 `json:"lat"`
	Longitude   float64 `json:"lng"`
	FullAddress string  `json:"fullAddress"`
}
