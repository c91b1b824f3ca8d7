package dto

// RegisterRequest represents a registration request
type RegisterRequest struct {
	Email      string  `json:"email" binding:"required,email,max=100"`
	Password   string  `json:"password" binding:"required,strongpwd"`
	FullName   string  `json:"full_name" binding:"required,min=2,max=100"`
	NationalID *string `json:"national_id" binding:"omitempty,nationalid"`
	Phone      *string `json:"phone" binding:"omitempty,phone"`
	Address    *string `json:"address" binding:"omitempty,max=255"`
}

// LoginRequest represents a login request
type LoginRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

// RecoverPasswordRequest starts password recovery
type RecoverPasswordRequest struct {
	Email string `json:"email" binding:"required,email"`
}

// ConfirmResetCodeRequest exchanges an emailed code for a reset token
type ConfirmResetCodeRequest struct {
	Email string `json:"email" binding:"required,email"`
	Code  string `json:"code" binding:"required,resetcode"`
}

// ResetPasswordRequest sets a new password using a reset token
type ResetPasswordRequest struct {
	Email       string `json:"email" binding:"required,email"`
	Token       string `json:"token" binding:"required"`
	NewPassword string `json:"new_password" binding:"required,strongpwd"`
}

// VerifyEmailRequest confirms an email address
type VerifyEmailRequest struct {
	Email string `json:"email" binding:"required,email"`
	Token string `json:"token" binding:"required"`
}

// ResendVerificationRequest asks for a new verification email
type ResendVerificationRequest struct {
	Email string `json:"email" binding:"required,email"`
}

// RefreshRequest carries the refresh token when it is not sent as a cookie
type RefreshRequest struct {
	RefreshToken string `json:"refresh_token"`
}

// LogoutRequest carries the refresh token when it is not sent as a cookie
type LogoutRequest struct {
	RefreshToken string `json:"refresh_token"`
}
