package auth

import (
	"errors"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/camel-workshop/tester/internal/models"
)

func sign(t *testing.T, claims jwt.MapClaims) string {
	t.Helper()
	s, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte("not-the-cluster-key"))
	if err != nil {
		t.Fatalf("sign: %v", err)
	}
	return s
}

func TestInspectLegacyToken(t *testing.T) {
	tok := sign(t, jwt.MapClaims{
		"iss":                                   "kubernetes/serviceaccount",
		"sub":                                   "system:serviceaccount:cmap-camel:robot",
		"kubernetes.io/serviceaccount/namespace": "cmap-camel",
		"kubernetes.io/serviceaccount/service-account.name": "robot",
	})
	id, err := Inspect(tok)
	if err != nil {
		t.Fatalf("inspect: %v", err)
	}
	if id.Namespace != "cmap-camel" || id.ServiceAccount != "robot" {
		t.Fatalf("unexpected identity %+v", id)
	}
	if id.Expired(time.Now()) {
		t.Fatalf("token without exp must not be expired")
	}
}

func TestInspectBoundToken(t *testing.T) {
	exp := time.Now().Add(-time.Hour)
	tok := sign(t, jwt.MapClaims{
		"sub": "system:serviceaccount:shop:tester",
		"exp": exp.Unix(),
		"kubernetes.io": map[string]any{
			"namespace":      "shop",
			"serviceaccount": map[string]any{"name": "tester"},
		},
	})
	id, err := Inspect("Bearer " + tok)
	if err != nil {
		t.Fatalf("inspect: %v", err)
	}
	if id.Namespace != "shop" || id.ServiceAccount != "tester" {
		t.Fatalf("unexpected identity %+v", id)
	}
	if !id.Expired(time.Now()) {
		t.Fatalf("expected expired token")
	}
}

func TestInspectSubjectOnly(t *testing.T) {
	id, err := Inspect(sign(t, jwt.MapClaims{"sub": "system:serviceaccount:ns1:sa1"}))
	if err != nil {
		t.Fatalf("inspect: %v", err)
	}
	if id.Namespace != "ns1" || id.ServiceAccount != "sa1" {
		t.Fatalf("unexpected identity %+v", id)
	}
}

func TestInspectOpaqueToken(t *testing.T) {
	if _, err := Inspect("sha256~abcdef"); !errors.Is(err, ErrOpaqueToken) {
		t.Fatalf("expected ErrOpaqueToken, got %v", err)
	}
}

func TestResolveProject(t *testing.T) {
	tok := sign(t, jwt.MapClaims{"sub": "system:serviceaccount:cmap-camel:robot"})

	req := models.Request{AccountToken: tok}
	id, filled := ResolveProject(&req)
	if id == nil || !filled {
		t.Fatalf("expected project from token, got id=%v filled=%v", id, filled)
	}
	if req.OpenshiftProject != "cmap-camel" {
		t.Fatalf("unexpected project %q", req.OpenshiftProject)
	}

	req = models.Request{AccountToken: tok, OpenshiftProject: "explicit"}
	if _, filled := ResolveProject(&req); filled || req.OpenshiftProject != "explicit" {
		t.Fatalf("explicit project must win, got %q", req.OpenshiftProject)
	}

	req = models.Request{AccountToken: "sha256~opaque"}
	if id, filled := ResolveProject(&req); id != nil || filled || req.OpenshiftProject != "" {
		t.Fatalf("opaque token must leave the project alone")
	}
}
