package passes

import (
	"crypto/rand"
	"math/big"
)

// randomUint draws a uniform value in [0, n) from crypto/rand, the same
// CSPRNG-backed draw shuffle's permutation and shatter's condition-kind
// selection use, and the same approach
// package arch takes for its own draws.
func randomUint(n int) (int, error) {
	v, err := rand.Int(rand.Reader, big.NewInt(int64(n)))
	if err != nil {
		return 0, err
	}
	return int(v.Int64()), nil
}

// permute returns a uniformly random permutation of indices [0, n).
func permute(n int) ([]int, error) {
	idx := make([]int, n)
	for i := range idx {
		idx[i] = i
	}
	for i := n - 1; i > 0; i-- {
		j, err := randomUint(i + 1)
		if err != nil {
			return nil, err
		}
		idx[i], idx[j] = idx[j], idx[i]
	}
	return idx, nil
}
