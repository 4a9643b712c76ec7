// Package timeline derives the progress steps shown on tickets and on the public tracking page.
package timeline

import (
	"fmt"

	"github.com/diewo77/go-repairs/internal/models"
)

// Sequence is the canonical progress order. Cancelled is out of band and not part of it.
var Sequence = []models.RepairStatus{
	models.StatusNew,
	models.StatusDiagnostic,
	models.StatusInRepair,
	models.StatusReady,
	models.StatusCollected,
}

// Step is one entry of the rendered progress bar.
type Step struct {
	Status    models.RepairStatus `json:"status"`
	Completed bool                `json:"completed"`
	Current   bool                `json:"current"`
}

// ComputeSteps returns one Step per entry of Sequence. Earlier steps are completed and the matching
// step is current. For a cancelled repair no step is completed or current; callers check
// IsCancelled and render the cancelled state instead. Unknown statuses fail with ErrInvalidStatus.
func ComputeSteps(status models.RepairStatus) ([]Step, error) {
	idx := indexOf(status)
	if idx < 0 && status != models.StatusCancelled {
		return nil, fmt.Errorf("%w: %q", models.ErrInvalidStatus, status)
	}
	steps := make([]Step, len(Sequence))
	for i, s := range Sequence {
		steps[i] = Step{Status: s}
		if idx < 0 {
			continue
		}
		steps[i].Completed = i < idx
		steps[i].Current = i == idx
	}
	return steps, nil
}

// IsCancelled reports whether status is the out-of-band cancelled state.
func IsCancelled(status models.RepairStatus) bool {
	return status == models.StatusCancelled
}

// Progress returns the completion ratio in [0,1]; 0 for cancelled.
func Progress(status models.RepairStatus) float64 {
	idx := indexOf(status)
	if idx < 0 {
		return 0
	}
	return float64(idx) / float64(len(Sequence)-1)
}

func indexOf(status models.RepairStatus) int {
	for i, s := range Sequence {
		if s == status {
			return i
		}
	}
	return -1
}
