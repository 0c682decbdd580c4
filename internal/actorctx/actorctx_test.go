package actorctx

import (
	"context"
	"testing"
)

func TestUserIDRoundTrip(t *testing.T) {
	ctx := WithUserID(context.Background(), "u-1")

	id, ok := UserIDFrom(ctx)
	if !ok || id != "u-1" {
		t.Fatalf("got %q %v, want u-1 true", id, ok)
	}

	if _, ok := UserIDFrom(WithUserID(context.Background(), "")); ok {
		t.Fatalf("empty id should not count as present")
	}

	if _, ok := UserIDFrom(context.Background()); ok {
		t.Fatalf("bare context should have no user")
	}
}
