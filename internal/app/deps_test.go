package app

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/videotube/backend/internal/auth"
	"github.com/videotube/backend/internal/config"
)

type fakePool struct{}

func (fakePool) Acquire(context.Context) (*pgxpool.Conn, error) {
	return nil, errors.New("not implemented")
}

func (fakePool) Close() {}

type fakeMedia struct{}

func (fakeMedia) UploadFile(context.Context, string, string) (string, error) {
	return "", errors.New("not implemented")
}

func TestBuildDependencies(t *testing.T) {
	cfg := config.Config{UploadDir: t.TempDir()}
	tokens := auth.NewTokenIssuer("access-secret", "refresh-secret", time.Minute, time.Hour)

	deps := buildDependencies(fakePool{}, cfg, fakeMedia{}, tokens)

	if deps.Users == nil {
		t.Fatal("expected user repository to be configured")
	}
	if deps.Subscriptions == nil {
		t.Fatal("expected subscription repository to be configured")
	}
	if deps.Videos == nil {
		t.Fatal("expected video repository to be configured")
	}
	if deps.Tokens == nil {
		t.Fatal("expected token issuer to be configured")
	}
	if deps.Media == nil {
		t.Fatal("expected media storage to be configured")
	}
	if deps.AuthLimiter == nil {
		t.Fatal("expected auth rate limiter to be configured")
	}
	if deps.UploadDir != cfg.UploadDir {
		t.Fatalf("expected upload dir %q got %q", cfg.UploadDir, deps.UploadDir)
	}
}
