package otp

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestAlgorithmString(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name      string
		algorithm Algorithm
		want      string
	}{
		{name: "sha3 kmac 128", algorithm: SHA3KMAC128, want: "SHA3-KMAC-128"},
		{name: "sha3 kmac 256", algorithm: SHA3KMAC256, want: "SHA3-KMAC-256"},
		{name: "blake3 keyed 128", algorithm: BLAKE3KeyedMode128, want: "BLAKE3-Keyed-Mode-128"},
		{name: "blake3 keyed 256", algorithm: BLAKE3KeyedMode256, want: "BLAKE3-Keyed-Mode-256"},
		{name: "out of range", algorithm: Algorithm(4), want: "Unknown"},
		{name: "far out of range", algorithm: Algorithm(0xffffffff), want: "Unknown"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.want, tt.algorithm.String())
		})
	}
}

// Discriminant values are the wire contract with the compute module; pin
// them so a reordering of the constants cannot slip through.
func TestAlgorithmDiscriminants(t *testing.T) {
	t.Parallel()

	assert.EqualValues(t, 0, SHA3KMAC128)
	assert.EqualValues(t, 1, SHA3KMAC256)
	assert.EqualValues(t, 2, BLAKE3KeyedMode128)
	assert.EqualValues(t, 3, BLAKE3KeyedMode256)
}

func TestAlgorithmValid(t *testing.T) {
	t.Parallel()

	for _, a := range Algorithms() {
		assert.True(t, a.Valid(), a.String())
	}
	assert.False(t, Algorithm(4).Valid())
}
