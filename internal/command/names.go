package command

import "context"

// NameResolver turns a user id into a display name. Implementations may call
// the chat platform and must never be used while the ledger lock is held.
type NameResolver interface {
	DisplayName(ctx context.Context, group, user string) string
}

// FallbackNames derives "user####" from the last four characters of the id.
type FallbackNames struct{}

func (FallbackNames) DisplayName(_ context.Context, _, user string) string {
	r := []rune(user)
	if len(r) > 4 {
		r = r[len(r)-4:]
	}
	return "user" + string(r)
}

// StaticNames serves names from a fixed table, falling back to FallbackNames.
type StaticNames map[string]string

func (s StaticNames) DisplayName(ctx context.Context, group, user string) string {
	if n, ok := s[user]; ok {
		return n
	}
	return FallbackNames{}.DisplayName(ctx, group, user)
}
