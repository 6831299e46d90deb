package ctxutil

import "context"

type consentDataKey struct{}

// ConsentData carries the visitor's stored cookie choices for the current request.
type ConsentData struct {
	VisitorID   string
	Essential   bool
	Analytics   bool
	Marketing   bool
	Preferences bool
}

func WithConsentData(ctx context.Context, cd *ConsentData) context.Context {
	return context.WithValue(ctx, consentDataKey{}, cd)
}

func GetConsentData(ctx context.Context) *ConsentData {
	if ctx == nil {
		return nil
	}
	if cd, ok := ctx.Value(consentDataKey{}).(*ConsentData); ok {
		return cd
	}
	return nil
}
