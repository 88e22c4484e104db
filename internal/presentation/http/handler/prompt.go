package handler

import (
	"context"

	"github.com/disfruleg/disfruleg-pos/internal/presentation/http/dto/request"
)

// bodyPrompt answers the admin step-up with the credentials sent along with
// the add request. A request without credentials counts as a dismissed
// prompt.
type bodyPrompt struct {
	creds *request.AdminCredentials
}

func (p bodyPrompt) AdminCredentials(ctx context.Context) (string, string, bool) {
	if p.creds == nil || ctx.Err() != nil {
		return "", "", false
	}
	return p.creds.Username, p.creds.Password, true
}
