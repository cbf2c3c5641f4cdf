package persistence

import (
	"context"
	"errors"
	"reflect"
	"testing"

	"github.com/Adithya-Monish-Kumar-K/content-store/internal/model"
	"github.com/Adithya-Monish-Kumar-K/content-store/internal/persistence/filestore"
	"github.com/Adithya-Monish-Kumar-K/content-store/pkg/config"
)

type failingSaver struct{}

func (failingSaver) Save(context.Context, model.Snapshot) error { return errors.New("boom") }

func fileStore(dir string) *filestore.Store {
	cfg := config.Default().Store
	cfg.DataDir = dir
	return filestore.New(cfg)
}

func TestCopyBetweenDirectories(t *testing.T) {
	ctx := context.Background()
	src := fileStore(t.TempDir())
	want := model.Snapshot{
		Users: []model.User{{ID: 1, Username: "a", Email: "a@x", Password: "p"}},
		Posts: []model.Post{{ID: 5, OwnerID: 1, Caption: "c", LikeCount: 1}},
		Likes: []model.Like{{PostID: 5, UserID: 1}},
	}
	if err := src.Save(ctx, want); err != nil {
		t.Fatal(err)
	}
	dst := fileStore(t.TempDir())
	if _, err := Copy(ctx, src, dst); err != nil {
		t.Fatalf("Copy: %v", err)
	}
	got, err := dst.Load(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("copied %+v, want %+v", got, want)
	}
}

func TestCopyReportsDestinationFailure(t *testing.T) {
	if _, err := Copy(context.Background(), fileStore(t.TempDir()), failingSaver{}); err == nil {
		t.Fatal("expected error")
	}
}
