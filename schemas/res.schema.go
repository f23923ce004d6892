// Package schemas contains the payloads exchanged with the frontend
package schemas

// Res is the envelope wrapping every JSON response of the service
type Res struct {
	OK      bool   `json:"ok"`
	Code    string `json:"code,omitempty"`
	Message string `json:"message,omitempty"`
}
