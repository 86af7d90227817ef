package domain

// StepResult is the outcome of a single transition.
// State and ExecutedNodes reference the caller's own objects, which were mutated in place.
type StepResult struct {
	OK            bool     `json:"ok"`
	State         Fields   `json:"updated_state"`
	ExecutedNodes History  `json:"executed_nodes"`
	Events        []string `json:"events"`
}

// Readiness is the verdict of a readiness gate.
type Readiness struct {
	Passed   bool     `json:"passed"`
	Errors   []string `json:"errors"`
	Warnings []string `json:"warnings"`
}

// Pass returns a passing verdict with no findings.
func Pass() Readiness {
	return Readiness{Passed: true, Errors: []string{}, Warnings: []string{}}
}
