package forge

// Model names persisted alongside a score row so callers can tell which
// strategy produced it. A legacy result must never overwrite an evidence
// result; that guard lives in the persistence service, keyed on these names.
const (
	ModelEvidence = "evidence"
	ModelLegacy   = "legacy"
)

// Strategy is a deterministic scoring model. Implementations are pure: no
// I/O, no hidden state, identical input yields identical output.
type Strategy interface {
	Name() string
	Score(in ScoreInput) Result
}
