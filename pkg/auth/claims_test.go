package auth

import (
	"context"
	"testing"

	"github.com/golang-jwt/jwt/v5"
)

func TestClaims_UserID(t *testing.T) {
	tests := []struct {
		name    string
		subject string
		want    int64
		wantErr bool
	}{
		{name: "numeric", subject: "17", want: 17},
		{name: "empty", subject: "", wantErr: true},
		{name: "non-numeric", subject: "abc", wantErr: true},
		{name: "zero", subject: "0", wantErr: true},
		{name: "negative", subject: "-4", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := &Claims{RegisteredClaims: jwt.RegisteredClaims{Subject: tt.subject}}
			got, err := c.UserID()
			if tt.wantErr {
				if err == nil {
					t.Errorf("expected error for subject %q", tt.subject)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got != tt.want {
				t.Errorf("UserID() = %d, want %d", got, tt.want)
			}
		})
	}
}

func TestGetUserIDFromContext(t *testing.T) {
	if _, ok := GetUserIDFromContext(context.Background()); ok {
		t.Error("expected no user id in empty context")
	}

	ctx := WithClaims(context.Background(), &Claims{RegisteredClaims: jwt.RegisteredClaims{Subject: "9"}})
	id, ok := GetUserIDFromContext(ctx)
	if !ok || id != 9 {
		t.Errorf("expected (9, true), got (%d, %v)", id, ok)
	}

	if _, err := RequireUserIDFromContext(context.Background()); err == nil {
		t.Error("expected error when claims are missing")
	}
}
