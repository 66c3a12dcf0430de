package request_models

// CreatePlaceRequest uses pointers for coordinates so a zero latitude is still "present".
type CreatePlaceRequest struct {
	Name         string   `json:"name" binding:"required"`
	Description  *string  `json:"description"`
	Latitude     *float64 `json:"latitude" binding:"required"`
	Longitude    *float64 `json:"longitude" binding:"required"`
	Address      *string  `json:"address"`
	Category     *string  `json:"category"`
	AttachmentID *string  `json:"attachmentId"`
}

// UpdatePlaceRequest only applies the fields that are present.
type UpdatePlaceRequest struct {
	Name        *string  `json:"name"`
	Description *string  `json:"description"`
	Latitude    *float64 `json:"latitude"`
	Longitude   *float64 `json:"longitude"`
	Address     *string  `json:"address"`
	Category    *string  `json:"category"`
}

type CreateForumPostRequest struct {
	PlaceID          string  `json:"placeId"`
	PlaceName        string  `json:"placeName" binding:"required"`
	PlaceDescription *string `json:"placeDescription"`
	Address          *string `json:"address"`
	Category         *string `json:"category"`
	AttachmentID     *string `json:"attachmentId"`
}
