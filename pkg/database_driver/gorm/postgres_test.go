package gorm

import (
	"errors"
	"testing"
)

func TestConnectWithoutSettings(t *testing.T) {
	_, err := ConnectToPostgreSQL("", "", "user", "pass", "", false)
	if !errors.Is(err, ErrMissingConnection) {
		t.Errorf("expected ErrMissingConnection, got %v", err)
	}
}

func TestDSN(t *testing.T) {
	tests := []struct {
		sslmode bool
		want    string
	}{
		{false, "host=db user=u password=p dbname=bot port=5432 sslmode=disable connect_timeout=0"},
		{true, "host=db user=u password=p dbname=bot port=5432 sslmode=require connect_timeout=0"},
	}
	for _, tt := range tests {
		if got := dsn("db", "5432", "u", "p", "bot", tt.sslmode); got != tt.want {
			t.Errorf("dsn() = %q, want %q", got, tt.want)
		}
	}
}
