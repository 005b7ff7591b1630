package utils

import (
	"testing"
	"time"
)

func TestStateTokenRoundTrip(t *testing.T) {
	token, err := GenerateStateToken("secret", "user-1", "facebook", time.Minute)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	claims, err := ValidateStateToken("secret", token)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if claims.UserID != "user-1" || claims.Provider != "facebook" {
		t.Errorf("unexpected claims: %+v", claims)
	}
	if claims.ID == "" {
		t.Error("expected a jti on the state token")
	}
}

func TestStateTokenRejectsWrongKey(t *testing.T) {
	token, err := GenerateStateToken("secret", "user-1", "facebook", time.Minute)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if _, err := ValidateStateToken("other", token); err == nil {
		t.Error("expected validation to fail with the wrong key")
	}
}

func TestStateTokenRejectsExpired(t *testing.T) {
	token, err := GenerateStateToken("secret", "user-1", "instagram", -time.Minute)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if _, err := ValidateStateToken("secret", token); err == nil {
		t.Error("expected validation to fail for an expired token")
	}
}
