package models

import "time"

// LoginRequest is the payload sent to the authentication endpoint.
type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// LoginResponse carries the credentials issued on a successful login.
type LoginResponse struct {
	Token        string `json:"token"`
	RefreshToken string `json:"refreshToken"`
}

// ErrorResponse is the optional JSON body of a rejected request.
type ErrorResponse struct {
	Message string `json:"message"`
}

// User is an account known to the development backend.
type User struct {
	Email        string `json:"email"`
	PasswordHash []byte `json:"password_hash"`
}

// ImageMetadata describes one photo attached to a listing.
type ImageMetadata struct {
	ID          string `json:"id"`
	FileName    string `json:"file_name"` // Original filename
	ContentType string `json:"content_type"`
	Size        int64  `json:"size"`
}

// Listing is a submitted vehicle listing.
type Listing struct {
	ID        string          `json:"id"`
	Owner     string          `json:"owner"`
	Model     string          `json:"model"`
	Price     string          `json:"price"`
	Phone     string          `json:"phone"`
	City      string          `json:"city"`
	Images    []ImageMetadata `json:"images"`
	CreatedAt time.Time       `json:"created_at"`
}
