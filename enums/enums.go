// Package enums contains enums
package enums

// ChallengePurpose tags a stored challenge with the ceremony it was issued for
type ChallengePurpose string

const (
	// ChallengeRegistration -> challenge issued for a passkey registration ceremony
	ChallengeRegistration ChallengePurpose = "registration"
	// ChallengeAuthentication -> challenge issued for a passkey login ceremony
	ChallengeAuthentication ChallengePurpose = "authentication"
)

const (
	// SysHealth -> denotes the health status of the system
	SysHealth = "health"
	// SysHealthMsg -> denotes the custom health status message of the system
	SysHealthMsg = "system_message"
)
