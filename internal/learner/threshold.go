package learner

// Minimum rated examples per side before profile generation is worthwhile.
// The evolution prompt needs both positive and negative examples to draw a
// contrast; below this floor the signal is too thin.
const (
	MinRelevantExamples    = 2
	MinNotRelevantExamples = 2
)

// EnoughSignal reports whether the rated-article counts clear the floor for
// building or evolving a profile. Pure function, no side effects.
func EnoughSignal(relevantCount, notRelevantCount int) bool {
	return relevantCount >= MinRelevantExamples && notRelevantCount >= MinNotRelevantExamples
}
