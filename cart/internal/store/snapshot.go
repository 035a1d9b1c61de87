package store

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/google/uuid"
)

var ErrInvalidSnapshot = errors.New("invalid cart snapshot")

const snapshotVersion = 1

type snapshot struct {
	Version int  `json:"version"`
	Items   Cart `json:"items"`
}

func (s *Store) Snapshot() ([]byte, error) {
	data, err := json.Marshal(snapshot{Version: snapshotVersion, Items: s.items})
	if err != nil {
		return nil, fmt.Errorf("failed marshaling cart snapshot with error=%w", err)
	}
	return data, nil
}

// Restore replaces the cart with the snapshot. Snapshots holding duplicate ids,
// non-positive quantities or negative prices are rejected and leave the store as it was.
func (s *Store) Restore(data []byte) error {
	snap := snapshot{}
	if err := json.Unmarshal(data, &snap); err != nil {
		return fmt.Errorf("failed unmarshaling cart snapshot with error=%w", errors.Join(err, ErrInvalidSnapshot))
	}
	if snap.Version != snapshotVersion {
		return fmt.Errorf("unsupported snapshot version=%d with error=%w", snap.Version, ErrInvalidSnapshot)
	}

	seen := make(map[uuid.UUID]struct{}, len(snap.Items))
	for _, item := range snap.Items {
		if item.ID == uuid.Nil {
			return fmt.Errorf("line item without id with error=%w", ErrInvalidSnapshot)
		}
		if _, ok := seen[item.ID]; ok {
			return fmt.Errorf("duplicate line item id=%s with error=%w", item.ID, ErrInvalidSnapshot)
		}
		if item.Quantity < 1 {
			return fmt.Errorf("line item id=%s has quantity=%d with error=%w", item.ID, item.Quantity, ErrInvalidSnapshot)
		}
		if item.Price.IsNegative() {
			return fmt.Errorf("line item id=%s has negative price with error=%w", item.ID, ErrInvalidSnapshot)
		}
		seen[item.ID] = struct{}{}
	}

	if snap.Items == nil {
		snap.Items = Cart{}
	}
	s.items = snap.Items
	return nil
}
