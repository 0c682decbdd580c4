package user

// Request types double as HTML form models, hence both json and form tags.

type RegisterRequest struct {
	Email           string `json:"email" form:"Email" binding:"required,email"`
	Password        string `json:"password" form:"Password" binding:"required"`
	ConfirmPassword string `json:"-" form:"ConfirmPassword" binding:"omitempty,eqfield=Password"`
	FirstName       string `json:"firstName" form:"FirstName" binding:"required,max=100"`
	LastName        string `json:"lastName" form:"LastName" binding:"required,max=100"`
}

type LoginRequest struct {
	Email      string `json:"email" form:"Email" binding:"required,email"`
	Password   string `json:"password" form:"Password" binding:"required"`
	RememberMe bool   `json:"-" form:"RememberMe"`
	ReturnURL  string `json:"-" form:"ReturnUrl"`
}

// CreateUserRequest is the admin-initiated variant of registration.
type CreateUserRequest struct {
	Email     string `json:"email" form:"Email" binding:"required,email"`
	Password  string `json:"password" form:"Password" binding:"required"`
	FirstName string `json:"firstName" form:"FirstName" binding:"required,max=100"`
	LastName  string `json:"lastName" form:"LastName" binding:"required,max=100"`
	Role      string `json:"role" form:"Role" binding:"required,oneof=Admin User"`
}

type UpdateProfileRequest struct {
	FirstName string `json:"firstName" form:"FirstName" binding:"required,max=100"`
	LastName  string `json:"lastName" form:"LastName" binding:"required,max=100"`
	Email     string `json:"email" form:"Email" binding:"required,email"`
}

type ForgotPasswordRequest struct {
	Email string `json:"email" form:"Email" binding:"required,email"`
}

type ResetPasswordRequest struct {
	Email           string `json:"email" form:"Email" binding:"required,email"`
	NewPassword     string `json:"newPassword" form:"NewPassword" binding:"required"`
	ConfirmPassword string `json:"confirmPassword" form:"ConfirmPassword" binding:"required,eqfield=NewPassword"`
	Token           string `json:"token" form:"Token" binding:"required"`
}

type UpdatePasswordRequest struct {
	Password string `json:"password" binding:"required"`
}
