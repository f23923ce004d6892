// Package services contains the passkey ceremony flows and the stores they
// operate on
package services

import (
	"fmt"
	"net/url"
	"strings"

	"github.com/cloudclip/auth/config"
	"github.com/cloudclip/auth/errors"
)

// appOriginPrefixes are platform specific origin schemes (native apps) that
// bypass the web origin allow list
var appOriginPrefixes = []string{"android:"}

// RPContext is the relying party binding computed for a single request
type RPContext struct {
	Origin string
	RPID   string
}

// RP resolves the expected origin and relying party identifier of a request
type RP struct {
	Env *config.Env
}

// Resolve computes the relying party context from the declared origin or,
// when absent, the forwarded host or host of the request. The explicit origin
// is used verbatim when supplied and the rpID defaults to the hostname of the
// resolved origin unless overridden.
func (r *RP) Resolve(explicitOrigin, originHeader, forwardedHost, host, explicitRPID string) (RPContext, error) {
	origin := strings.TrimSpace(explicitOrigin)
	if origin == "" {
		origin = strings.TrimSpace(originHeader)
	}

	if origin == "" {
		target := strings.TrimSpace(forwardedHost)
		if target == "" {
			target = strings.TrimSpace(host)
		}
		if target == "" {
			return RPContext{}, fmt.Errorf("%w: no origin or host available", errors.ErrOriginUnresolvable)
		}

		scheme := "https"
		if isLoopback(target) {
			scheme = "http"
		}
		origin = fmt.Sprintf("%s://%s", scheme, target)
	}

	rpID := strings.TrimSpace(explicitRPID)

	// app origins carry no hostname; they are kept verbatim and the rpID has
	// to be supplied explicitly or derived from the request host
	if isAppOrigin(origin) {
		if rpID == "" {
			target := strings.TrimSpace(forwardedHost)
			if target == "" {
				target = strings.TrimSpace(host)
			}
			if parsed, err := url.Parse("https://" + target); err == nil {
				rpID = parsed.Hostname()
			}
		}
		if rpID == "" {
			return RPContext{}, fmt.Errorf("%w: no rpID available for app origin %s", errors.ErrOriginUnresolvable, origin)
		}

		return RPContext{
			Origin: origin,
			RPID:   rpID,
		}, nil
	}

	parsed, err := url.Parse(origin)
	if err != nil || parsed.Hostname() == "" {
		return RPContext{}, fmt.Errorf("%w: %s is not a valid origin", errors.ErrOriginUnresolvable, origin)
	}

	if rpID == "" {
		rpID = parsed.Hostname()
	}

	return RPContext{
		Origin: origin,
		RPID:   rpID,
	}, nil
}

// Allowed enforces the static origin allow list; the allow list is
// authoritative regardless of how the origin was obtained
func (r *RP) Allowed(origin string) error {
	if origin == "" {
		return errors.ErrOriginUnresolvable
	}

	for _, approved := range r.Env.Origins() {
		if origin == approved {
			return nil
		}
	}

	if isAppOrigin(origin) {
		return nil
	}

	return fmt.Errorf("%w: %s", errors.ErrOriginNotAllowed, origin)
}

func isAppOrigin(origin string) bool {
	for _, prefix := range appOriginPrefixes {
		if strings.HasPrefix(origin, prefix) {
			return true
		}
	}

	return false
}

func isLoopback(host string) bool {
	hostname := host
	if parsed, err := url.Parse("http://" + host); err == nil && parsed.Hostname() != "" {
		hostname = parsed.Hostname()
	}

	switch hostname {
	case "localhost", "127.0.0.1", "::1":
		return true
	}

	return false
}
