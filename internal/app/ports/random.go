package ports

// Random is the source of randomness for mission generation.
// Implementations must be safe for concurrent use.
type Random interface {
	// Intn returns a uniform int in [0, n). n must be positive.
	Intn(n int) int
	// Float64 returns a uniform float in [0, 1).
	Float64() float64
}
