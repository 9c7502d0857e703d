package source

import (
	"context"
	"fmt"

	"platewatch/internal/domain"
	"platewatch/internal/scanner"
)

// RangeSource enumerates every identifier in a fixed prefix + zero-padded
// numeric suffix range. Pure and restartable; the plate resolver fills in
// the VIN later.
type RangeSource struct {
	prefix string
	start  int
	end    int
	width  int
}

var _ scanner.Source = (*RangeSource)(nil)

// NewRangeSource builds an enumerator over [start, end] inclusive. Width is
// the zero-pad width of the numeric suffix; it defaults to 5.
func NewRangeSource(prefix string, start, end, width int) *RangeSource {
	if width <= 0 {
		width = 5
	}
	return &RangeSource{prefix: prefix, start: start, end: end, width: width}
}

// Name identifies the strategy inside the registry.
func (r *RangeSource) Name() string {
	return "range"
}

// Discover yields the full candidate range. The window is unused here; the
// plate resolver applies it per candidate.
func (r *RangeSource) Discover(_ context.Context, _ domain.Window) ([]domain.Candidate, error) {
	if r.end < r.start {
		return nil, fmt.Errorf("range end %d before start %d", r.end, r.start)
	}

	candidates := make([]domain.Candidate, 0, r.end-r.start+1)
	for n := r.start; n <= r.end; n++ {
		candidates = append(candidates, domain.Candidate{
			Plate: fmt.Sprintf("%s%0*d", r.prefix, r.width, n),
		})
	}

	return candidates, nil
}
