package dto

// RegisterPersonRequest payload.
type RegisterPersonRequest struct {
	Kind       string `json:"kind"`
	Name       string `json:"name"`
	JiraUserID string `json:"jira_user_id"`
	Email      string `json:"email"`
	Region     string `json:"region"`
	Role       *int   `json:"role"`
}

// PersonResponse response.
type PersonResponse struct {
	PersonID   string `json:"person_id"`
	Kind       string `json:"kind"`
	Name       string `json:"name"`
	JiraUserID string `json:"jira_user_id"`
	Email      string `json:"email"`
	Region     string `json:"region"`
	Role       int    `json:"role"`
}

// TokenRequest payload for session issuance.
type TokenRequest struct {
	Email string `json:"email"`
}

// TokenResponse carries the issued session token.
type TokenResponse struct {
	Token string `json:"token"`
	Role  int    `json:"role"`
}
