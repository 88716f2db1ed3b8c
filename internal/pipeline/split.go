package pipeline

import (
	"fmt"

	"eduparser/internal/extraction"
)

// LabeledCandidate pairs an extracted candidate with the source label that
// will appear in the output, so a merged scan's rows stay traceable to the
// document inside the file they came from.
type LabeledCandidate struct {
	Candidate extraction.Candidate
	Label     string
}

// Split assigns source labels to the candidates extracted from one file.
// A file with a single document keeps the bare file name; a merged scan
// labels each document "name (Doc i/N)" in the order the model reported
// them, which follows physical page order.
func Split(candidates []extraction.Candidate, sourceName string) []LabeledCandidate {
	if len(candidates) == 0 {
		return nil
	}
	if len(candidates) == 1 {
		return []LabeledCandidate{{Candidate: candidates[0], Label: sourceName}}
	}

	labeled := make([]LabeledCandidate, 0, len(candidates))
	for i, c := range candidates {
		labeled = append(labeled, LabeledCandidate{
			Candidate: c,
			Label:     fmt.Sprintf("%s (Doc %d/%d)", sourceName, i+1, len(candidates)),
		})
	}
	return labeled
}
