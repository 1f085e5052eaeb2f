package models

// ContactMessage is the public contact form payload.
type ContactMessage struct {
	Name             string  `json:"name" validate:"required,min=2"`
	Email            string  `json:"email" validate:"required,email"`
	Subject          string  `json:"subject" validate:"required,min=5"`
	Message          string  `json:"message" validate:"required,min=10"`
	TelegramUsername *string `json:"telegram_username"`
	WhatsappNumber   *string `json:"whatsapp_number"`
}

// ContactSuccess is the upstream confirmation text.
type ContactSuccess struct {
	Message string `json:"message"`
}
