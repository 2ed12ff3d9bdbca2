package dto

import "time"

type UploadResponse struct {
	Success  bool      `json:"success"`
	ID       string    `json:"id"`
	Filename string    `json:"filename"`
	Uploaded time.Time `json:"uploaded"`
}

type DeleteResponse struct {
	Success bool   `json:"success"`
	ID      string `json:"id"`
	Message string `json:"message"`
	Warning string `json:"warning,omitempty"`
}

type ImageResponse struct {
	ID       string    `json:"id"`
	Name     string    `json:"name"`
	Caption  string    `json:"caption,omitempty"`
	Captured time.Time `json:"captured"`
	Uploaded time.Time `json:"uploaded"`
}

type ImagesListResponse struct {
	Images  []ImageResponse `json:"images"`
	HasMore bool            `json:"hasMore"`
}
