package keys

type CreateKeyRequest struct {
	Name           string `json:"name" binding:"required,max=100"`
	Description    string `json:"description"`
	RecipientEmail string `json:"recipient_email" binding:"required,email"`
}

type UpdateKeyRequest struct {
	Name           *string `json:"name" binding:"omitempty,max=100"`
	Description    *string `json:"description"`
	RecipientEmail *string `json:"recipient_email" binding:"omitempty,email"`
	IsActive       *bool   `json:"is_active"`
}
