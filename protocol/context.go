package protocol

import "context"

type requestMetaKey struct{}

// RequestMeta carries transport-level key/value metadata alongside a
// request, such as HTTP headers on an upgraded connection. The auth
// middleware reads credentials out of it.
type RequestMeta map[string]string

// ContextWithRequestMeta attaches request metadata to the context.
func ContextWithRequestMeta(ctx context.Context, meta RequestMeta) context.Context {
	return context.WithValue(ctx, requestMetaKey{}, meta)
}

// RequestMetaFromContext returns the attached metadata, or nil.
func RequestMetaFromContext(ctx context.Context) RequestMeta {
	meta, _ := ctx.Value(requestMetaKey{}).(RequestMeta)
	return meta
}

// GetRequestMeta returns one metadata value, or empty string when the
// key or the metadata itself is absent.
func GetRequestMeta(ctx context.Context, key string) string {
	return RequestMetaFromContext(ctx)[key]
}

// SetRequestMeta returns a context whose metadata includes the given
// pair. Existing metadata is copied, never mutated, so contexts sharing
// a parent stay independent.
func SetRequestMeta(ctx context.Context, key, value string) context.Context {
	old := RequestMetaFromContext(ctx)
	meta := make(RequestMeta, len(old)+1)
	for k, v := range old {
		meta[k] = v
	}
	meta[key] = value
	return ContextWithRequestMeta(ctx, meta)
}
