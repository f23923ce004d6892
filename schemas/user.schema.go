package schemas

// Principal is the acting user identity resolved from the identity provider
type Principal struct {
	ID    string `json:"id"`
	Email string `json:"email"`
	Name  string `json:"name"`
}
