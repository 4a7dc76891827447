package user

// UserResponse represents user data in API responses
type UserResponse struct {
	ID                   string  `json:"id"`
	Email                string  `json:"email"`
	FullName             string  `json:"full_name"`
	Role                 string  `json:"role"`
	IsActive             bool    `json:"is_active"`
	AssignedCheckpointID *string `json:"assigned_checkpoint_id,omitempty"`
	CreatedAt            string  `json:"created_at"`
	UpdatedAt            string  `json:"updated_at"`
}

func NewUserResponse(u User) UserResponse {
	return UserResponse{
		ID:                   u.ID,
		Email:                u.Email,
		FullName:             u.FullName,
		Role:                 string(u.Role),
		IsActive:             u.IsActive,
		AssignedCheckpointID: u.AssignedCheckpointID,
		CreatedAt:            u.CreatedAt.Format("2006-01-02 15:04:05"),
		UpdatedAt:            u.UpdatedAt.Format("2006-01-02 15:04:05"),
	}
}
