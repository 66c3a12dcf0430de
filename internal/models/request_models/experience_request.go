package request_models

type UpdatePromptRequest struct {
	Prompt string `json:"prompt"`
}

type GenerateImageRequest struct {
	// Image is a data URL, e.g. data:image/jpeg;base64,....
	Image string `json:"image"`
}
