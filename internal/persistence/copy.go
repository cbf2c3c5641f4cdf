// Package persistence holds what the file and PostgreSQL backends share.
package persistence

import (
	"context"
	"fmt"

	"github.com/Adithya-Monish-Kumar-K/content-store/internal/model"
)

type Loader interface {
	Load(ctx context.Context) (model.Snapshot, error)
}

type Saver interface {
	Save(ctx context.Context, snap model.Snapshot) error
}

// Copy loads everything from src and writes it to dst, replacing what dst
// held. It returns the snapshot that was copied.
func Copy(ctx context.Context, src Loader, dst Saver) (model.Snapshot, error) {
	snap, err := src.Load(ctx)
	if err != nil {
		return model.Snapshot{}, fmt.Errorf("reading source: %w", err)
	}
	if err := dst.Save(ctx, snap); err != nil {
		return model.Snapshot{}, fmt.Errorf("writing destination: %w", err)
	}
	return snap, nil
}
