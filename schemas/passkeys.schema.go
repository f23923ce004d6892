package schemas

import "encoding/json"

// ClientCredential is the subset of the browser credential payload that the
// service inspects directly; the raw payload is handed to the verification
// engine untouched
type ClientCredential struct {
	ID       string `json:"id" validate:"required,validate_base64url"`
	Type     string `json:"type" validate:"omitempty,oneof=public-key"`
	Response struct {
		Transports []string `json:"transports"`
	} `json:"response"`
}

// RegistrationVerify is the payload received when finishing a passkey registration
type RegistrationVerify struct {
	Credential json.RawMessage `json:"credential"`
	Origin     string          `json:"origin"`
	RPID       string          `json:"rp_id"`
}

// AuthenticationVerify is the payload received when finishing a passkey login
type AuthenticationVerify struct {
	Email      string          `json:"email"`
	Credential json.RawMessage `json:"credential"`
	Origin     string          `json:"origin"`
	RPID       string          `json:"rp_id"`
}
