package types

import "time"

type UserResponse struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Email     string    `json:"email"`
	Role      string    `json:"role"`
	CreatedAt time.Time `json:"created_at"`
}

type CaseResponse struct {
	ID          string    `json:"id"`
	Title       string    `json:"title"`
	Details     string    `json:"details"`
	Location    string    `json:"location"`
	Status      string    `json:"status"`
	DetectiveID *string   `json:"detective_id"`
	ManagerID   *string   `json:"manager_id"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}
