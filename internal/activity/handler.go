package activity

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"time"

	apperrors "github.com/Adithya-Monish-Kumar-K/content-store/pkg/errors"
	"github.com/Adithya-Monish-Kumar-K/content-store/pkg/resilience"
)

const snapshotQueryTimeout = 3 * time.Second

// SnapshotSource returns the most recently persisted stats, or nil when
// nothing has been saved yet.
type SnapshotSource interface {
	Latest(ctx context.Context) (*Stats, error)
}

type Handler struct {
	aggregator *Aggregator
	snapshots  SnapshotSource
	logger     *slog.Logger
}

func NewHandler(aggregator *Aggregator) *Handler {
	return &Handler{
		aggregator: aggregator,
		logger:     slog.Default().With("component", "activity-handler"),
	}
}

// WithSnapshots enables GET /api/v1/activity/snapshot.
func (h *Handler) WithSnapshots(src SnapshotSource) *Handler {
	h.snapshots = src
	return h
}

// Stats serves GET /api/v1/activity.
func (h *Handler) Stats(w http.ResponseWriter, r *http.Request) {
	h.writeJSON(w, http.StatusOK, h.aggregator.Stats())
}

// Snapshot serves GET /api/v1/activity/snapshot.
func (h *Handler) Snapshot(w http.ResponseWriter, r *http.Request) {
	if h.snapshots == nil {
		h.writeError(w, apperrors.New(apperrors.ErrUnavailable, "snapshots are not configured"))
		return
	}
	var latest *Stats
	err := resilience.WithTimeout(r.Context(), snapshotQueryTimeout, "snapshot-latest", func(ctx context.Context) error {
		var err error
		latest, err = h.snapshots.Latest(ctx)
		return err
	})
	switch {
	case errors.Is(err, context.DeadlineExceeded):
		h.writeError(w, apperrors.New(apperrors.ErrTimeout, "snapshot query timed out"))
	case err != nil:
		h.logger.Error("loading activity snapshot", "error", err)
		h.writeError(w, apperrors.New(apperrors.ErrUnavailable, "snapshot store unavailable"))
	case latest == nil:
		h.writeError(w, apperrors.New(apperrors.ErrNotFound, "no snapshot saved yet"))
	default:
		h.writeJSON(w, http.StatusOK, latest)
	}
}

func (h *Handler) writeError(w http.ResponseWriter, err error) {
	h.writeJSON(w, apperrors.HTTPStatusCode(err), map[string]string{"error": err.Error()})
}

func (h *Handler) writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		h.logger.Error("failed to write activity response", "error", err)
	}
}
