package services

import (
	"math/rand"
)

// Picker selects one index out of n candidates. Leader succession uses it
// so the uniform-random production choice can be replaced with a
// deterministic one in tests.
type Picker interface {
	Pick(n int) int
}

type RandomPicker struct{}

func (RandomPicker) Pick(n int) int {
	return rand.Intn(n)
}
