package auth

import "github.com/camel-workshop/tester/internal/models"

// ResolveProject fills req.OpenshiftProject from the account token when the
// request left it empty. It returns the token identity, nil for opaque tokens,
// and whether the project was taken from the token.
func ResolveProject(req *models.Request) (*Identity, bool) {
	id, err := Inspect(req.AccountToken)
	if err != nil {
		return nil, false
	}
	if req.OpenshiftProject == "" && id.Namespace != "" {
		req.OpenshiftProject = id.Namespace
		return id, true
	}
	return id, false
}
