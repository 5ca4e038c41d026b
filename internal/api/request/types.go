package request

// RegisterRequest is the request body for registering a player
type RegisterRequest struct {
	Name string `json:"name"`
}
