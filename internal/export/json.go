package export

import (
	"context"
	"encoding/json"
	"fmt"
	"io"

	"github.com/khanglvm/recordbook/internal/store"
)

// Line is one JSONL entry.
type Line struct {
	Kind string      `json:"kind"`
	Item interface{} `json:"item"`
}

// WriteJSON writes st either as one indented snapshot document or, with
// lines set, as one {"kind","item"} object per line.
func WriteJSON(ctx context.Context, st *store.Store, w io.Writer, lines bool) (int, error) {
	snap, err := Take(ctx, st)
	if err != nil {
		return 0, err
	}

	encoder := json.NewEncoder(w)
	total := len(snap.Students) + len(snap.Records) + len(snap.Generated)

	if !lines {
		encoder.SetIndent("", "  ")
		if err := encoder.Encode(snap); err != nil {
			return 0, fmt.Errorf("failed to encode snapshot: %w", err)
		}
		return total, nil
	}

	for _, s := range snap.Students {
		if err := encoder.Encode(Line{Kind: "student", Item: s}); err != nil {
			return 0, fmt.Errorf("failed to encode student: %w", err)
		}
	}
	for _, r := range snap.Records {
		if err := encoder.Encode(Line{Kind: "record", Item: r}); err != nil {
			return 0, fmt.Errorf("failed to encode record: %w", err)
		}
	}
	for _, g := range snap.Generated {
		if err := encoder.Encode(Line{Kind: "generated", Item: g}); err != nil {
			return 0, fmt.Errorf("failed to encode generated: %w", err)
		}
	}
	return total, nil
}
