package service

import "context"

type contextKey struct{}

// NewContext makes s the cart store for everything running under ctx.
func NewContext(ctx context.Context, s *CartService) context.Context {
	return context.WithValue(ctx, contextKey{}, s)
}

// FromContext returns the store installed by NewContext, or ErrNoProvider.
func FromContext(ctx context.Context) (*CartService, error) {
	s, ok := ctx.Value(contextKey{}).(*CartService)
	if !ok || s == nil {
		return nil, ErrNoProvider
	}
	return s, nil
}

func MustFromContext(ctx context.Context) *CartService {
	s, err := FromContext(ctx)
	if err != nil {
		panic(err)
	}
	return s
}
