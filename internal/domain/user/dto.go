package user

type UserResponse struct {
	ID           string  `json:"id"`
	CompanyID    *string `json:"company_id,omitempty"`
	Email        string  `json:"email"`
	IsSuperAdmin bool    `json:"is_super_admin"`
	CreatedAt    string  `json:"created_at"`
}
