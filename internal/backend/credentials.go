package backend

import (
	"context"
	"net/http"
)

// Cookie is one backend session cookie, kept in the gateway session.
type Cookie struct {
	Name  string `json:"name"`
	Value string `json:"value"`
}

// Credentials are the backend session cookies of a signed-in user.
type Credentials []Cookie

type credentialsKey struct{}

// WithCredentials attaches the user's backend cookies to every call made with ctx.
func WithCredentials(ctx context.Context, creds Credentials) context.Context {
	return context.WithValue(ctx, credentialsKey{}, creds)
}

func CredentialsFrom(ctx context.Context) Credentials {
	if creds, ok := ctx.Value(credentialsKey{}).(Credentials); ok {
		return creds
	}
	return nil
}

func credentialsFromCookies(cookies []*http.Cookie) Credentials {
	creds := make(Credentials, 0, len(cookies))
	for _, cookie := range cookies {
		if cookie.Value == "" || cookie.MaxAge < 0 {
			continue
		}
		creds = append(creds, Cookie{Name: cookie.Name, Value: cookie.Value})
	}
	return creds
}
