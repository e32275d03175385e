package auth

import (
	"errors"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// Legacy (secret based) service account tokens carry flat claims; bound
// tokens nest them under "kubernetes.io".
const (
	legacyNamespaceClaim = "kubernetes.io/serviceaccount/namespace"
	legacyAccountClaim   = "kubernetes.io/serviceaccount/service-account.name"
	boundClaim           = "kubernetes.io"
)

// ErrOpaqueToken is returned for tokens that are not JWTs, e.g. OpenShift
// "sha256~" OAuth access tokens.
var ErrOpaqueToken = errors.New("token is not a JWT")

// Identity is what the account token says about its owner. It is read
// without verifying the signature; the cluster API is the authority.
type Identity struct {
	Subject        string
	Namespace      string
	ServiceAccount string
	ExpiresAt      time.Time
}

// Expired reports whether the token carried an expiry that has passed at now.
func (i *Identity) Expired(now time.Time) bool {
	return !i.ExpiresAt.IsZero() && now.After(i.ExpiresAt)
}

// Inspect decodes the claims of a service account token.
func Inspect(token string) (*Identity, error) {
	token = strings.TrimSpace(strings.TrimPrefix(token, "Bearer "))
	if strings.Count(token, ".") != 2 {
		return nil, ErrOpaqueToken
	}
	claims := jwt.MapClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(token, claims); err != nil {
		return nil, err
	}
	id := &Identity{}
	id.Subject, _ = claims.GetSubject()
	if exp, err := claims.GetExpirationTime(); err == nil && exp != nil {
		id.ExpiresAt = exp.Time
	}
	if ns, ok := claims[legacyNamespaceClaim].(string); ok {
		id.Namespace = ns
	}
	if sa, ok := claims[legacyAccountClaim].(string); ok {
		id.ServiceAccount = sa
	}
	if k, ok := claims[boundClaim].(map[string]any); ok {
		if ns, ok := k["namespace"].(string); ok && id.Namespace == "" {
			id.Namespace = ns
		}
		if sa, ok := k["serviceaccount"].(map[string]any); ok && id.ServiceAccount == "" {
			id.ServiceAccount, _ = sa["name"].(string)
		}
	}
	// system:serviceaccount:<namespace>:<name>
	if parts := strings.Split(id.Subject, ":"); len(parts) == 4 && parts[1] == "serviceaccount" {
		if id.Namespace == "" {
			id.Namespace = parts[2]
		}
		if id.ServiceAccount == "" {
			id.ServiceAccount = parts[3]
		}
	}
	return id, nil
}
