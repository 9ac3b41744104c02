package auth

import "context"

type claimsKey struct{}

// WithClaims stores validated claims on ctx.
func WithClaims(ctx context.Context, claims UserClaims) context.Context {
	return context.WithValue(ctx, claimsKey{}, claims)
}

// ClaimsFrom returns the claims stored by WithClaims, or nil.
func ClaimsFrom(ctx context.Context) UserClaims {
	claims, _ := ctx.Value(claimsKey{}).(UserClaims)
	return claims
}

// SubjectFrom is the authenticated subject, or "" for anonymous requests.
func SubjectFrom(ctx context.Context) string {
	if claims := ClaimsFrom(ctx); claims != nil {
		return claims.UserID()
	}
	return ""
}
