package db_test

import (
	"context"
	"strings"
	"testing"

	"github.com/alicebob/miniredis/v2"

	"github.com/atinyakov/chatdemo/internal/db"
)

func TestInitPostgres_ErrorPaths(t *testing.T) {
	cases := []struct {
		name       string
		dsn        string
		wantSubstr string
	}{
		{"invalid DSN", "some=random", "ping postgres"},
		{"empty DSN", "", "ping postgres"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := db.InitPostgres(tc.dsn)
			if err == nil {
				t.Fatalf("InitPostgres(%q) did not return error", tc.dsn)
			}
			if !strings.Contains(err.Error(), tc.wantSubstr) {
				t.Errorf("InitPostgres(%q) error = %q; want substring %q", tc.dsn, err.Error(), tc.wantSubstr)
			}
		})
	}
}

func TestInitRedis_ErrorPaths(t *testing.T) {
	cases := []struct {
		name       string
		url        string
		wantSubstr string
	}{
		{"empty URL", "", "redis url is required"},
		{"bad scheme", "http://localhost:6379", "parse redis url"},
		{"unreachable", "redis://127.0.0.1:1/0", "ping redis"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := db.InitRedis(context.Background(), tc.url)
			if err == nil {
				t.Fatalf("InitRedis(%q) did not return error", tc.url)
			}
			if !strings.Contains(err.Error(), tc.wantSubstr) {
				t.Errorf("InitRedis(%q) error = %q; want substring %q", tc.url, err.Error(), tc.wantSubstr)
			}
		})
	}
}

func TestInitRedis_Miniredis(t *testing.T) {
	mr := miniredis.RunT(t)

	client, err := db.InitRedis(context.Background(), "redis://"+mr.Addr()+"/0")
	if err != nil {
		t.Fatalf("InitRedis returned error: %v", err)
	}
	defer client.Close()
}
