package otp

import (
	"context"
	"encoding/hex"
	"errors"
	"regexp"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/snowmerak/passcode/pkg/keyedhash"
)

var otpPattern = regexp.MustCompile(`^[0-9a-f]{12}$`)

func newNativeEngine(t *testing.T) *Engine {
	t.Helper()

	e, err := NewEngine(WithMode("native"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = e.Close() })

	return e
}

func TestComputeDeterministic(t *testing.T) {
	t.Parallel()

	key := []byte("a shared secret key, 32 bytes!!!")
	challenge := []byte("challenge value")

	for _, alg := range Algorithms() {
		t.Run(alg.String(), func(t *testing.T) {
			t.Parallel()

			// Two independently constructed engines stand in for two
			// process lifetimes: the passcode must not depend on any
			// per-instantiation state.
			first := newNativeEngine(t)
			second := newNativeEngine(t)

			pcA, err := first.NewPasscode(alg, key)
			require.NoError(t, err)
			defer pcA.Close()

			pcB, err := second.NewPasscode(alg, key)
			require.NoError(t, err)
			defer pcB.Close()

			a1, err := pcA.Compute(challenge)
			require.NoError(t, err)
			a2, err := pcA.Compute(challenge)
			require.NoError(t, err)
			b, err := pcB.Compute(challenge)
			require.NoError(t, err)

			assert.Equal(t, a1, a2)
			assert.Equal(t, a1, b)
		})
	}
}

func TestComputeOutputShape(t *testing.T) {
	t.Parallel()

	e := newNativeEngine(t)
	key := []byte("key")

	challenges := map[string][]byte{
		"empty":  {},
		"1 byte": {0x42},
		"1 KiB":  make([]byte, 1024),
	}

	for _, alg := range Algorithms() {
		for name, challenge := range challenges {
			pc, err := e.NewPasscode(alg, key)
			require.NoError(t, err)

			code, err := pc.Compute(challenge)
			require.NoError(t, err, "%s/%s", alg, name)
			assert.Regexp(t, otpPattern, code,
				"%s with %s challenge must be 12 lowercase hex chars", alg, name)

			require.NoError(t, pc.Close())
		}
	}
}

func TestKeyAvalanche(t *testing.T) {
	t.Parallel()

	e := newNativeEngine(t)
	challenge := []byte("fixed challenge")

	for _, alg := range Algorithms() {
		key := []byte("0123456789abcdef0123456789abcdef")

		pc, err := e.NewPasscode(alg, key)
		require.NoError(t, err)
		base, err := pc.Compute(challenge)
		require.NoError(t, err)
		require.NoError(t, pc.Close())

		flipped := append([]byte(nil), key...)
		flipped[0] ^= 0x01

		pc2, err := e.NewPasscode(alg, flipped)
		require.NoError(t, err)
		got, err := pc2.Compute(challenge)
		require.NoError(t, err)
		require.NoError(t, pc2.Close())

		assert.NotEqual(t, base, got, "%s: one key bit flip must change the passcode", alg)
	}
}

func TestChallengeAvalanche(t *testing.T) {
	t.Parallel()

	e := newNativeEngine(t)
	key := []byte("0123456789abcdef0123456789abcdef")

	for _, alg := range Algorithms() {
		pc, err := e.NewPasscode(alg, key)
		require.NoError(t, err)

		challenge := []byte("fixed challenge")
		base, err := pc.Compute(challenge)
		require.NoError(t, err)

		flipped := append([]byte(nil), challenge...)
		flipped[len(flipped)-1] ^= 0x80
		got, err := pc.Compute(flipped)
		require.NoError(t, err)

		assert.NotEqual(t, base, got, "%s: one challenge bit flip must change the passcode", alg)
		require.NoError(t, pc.Close())
	}
}

// The cross-implementation vector: fixed key and challenge, four passcodes
// that every conforming implementation must reproduce. The expected values
// are derived here through the reference primitives, and every backend must
// agree with them.
func TestCrossImplementationVector(t *testing.T) {
	t.Parallel()

	key, err := hex.DecodeString(
		"0123456789abcdef0123456789abcdef0123456789abcdef0123456789abcdef")
	require.NoError(t, err)
	challenge, err := hex.DecodeString("fedcba9876543210fedcba9876543210")
	require.NoError(t, err)

	label := []byte(keyedhash.PasscodeLabel)
	expected := map[Algorithm]string{
		SHA3KMAC128:        keyedhash.OTP(keyedhash.KMAC128(key, label, challenge, 32)),
		SHA3KMAC256:        keyedhash.OTP(keyedhash.KMAC256(key, label, challenge, 32)),
		BLAKE3KeyedMode128: keyedhash.OTP(keyedhash.Blake3Keyed256(key, challenge)),
		BLAKE3KeyedMode256: keyedhash.OTP(keyedhash.Blake3Keyed512(key, challenge)),
	}

	e := newNativeEngine(t)
	for alg, want := range expected {
		assert.Regexp(t, otpPattern, want)

		pc, err := e.NewPasscode(alg, key)
		require.NoError(t, err)
		got, err := pc.Compute(challenge)
		require.NoError(t, err)
		require.NoError(t, pc.Close())

		assert.Equalf(t, want, got, "%s diverges from the reference derivation", alg)
	}

	// The two KMAC variants are built on different sponge rates and must
	// not collide on this vector.
	assert.NotEqual(t, expected[SHA3KMAC128], expected[SHA3KMAC256])
}

func TestFreeFunctionsMatchHandlePath(t *testing.T) {
	t.Parallel()

	e := newNativeEngine(t)
	key := []byte("free function key")
	challenge := []byte("free function challenge")
	label := []byte(keyedhash.PasscodeLabel)

	pc, err := e.NewPasscode(SHA3KMAC256, key)
	require.NoError(t, err)
	defer pc.Close()

	viaHandle, err := pc.Compute(challenge)
	require.NoError(t, err)

	viaFree, err := e.Sha3Kmac256(key, label, challenge)
	require.NoError(t, err)

	// With the passcode label the stateless path and the handle path are
	// the same computation.
	assert.Equal(t, viaHandle, viaFree)

	other, err := e.Sha3Kmac256(key, []byte("another label"), challenge)
	require.NoError(t, err)
	assert.NotEqual(t, viaFree, other, "labels must separate domains")
}

func TestAlgorithmNameNeverFails(t *testing.T) {
	t.Parallel()

	e := newNativeEngine(t)
	pc, err := e.NewPasscode(BLAKE3KeyedMode128, []byte("key"))
	require.NoError(t, err)
	defer pc.Close()

	assert.Equal(t, "BLAKE3-Keyed-Mode-128", pc.AlgorithmName())
	assert.Equal(t, BLAKE3KeyedMode128, pc.Algorithm())
}

func TestNewPasscodeInvalidAlgorithm(t *testing.T) {
	t.Parallel()

	e := newNativeEngine(t)
	_, err := e.NewPasscode(Algorithm(17), []byte("key"))
	assert.ErrorIs(t, err, ErrInvalidAlgorithm)
}

// countingBackend records every boundary interaction so validation-failure
// tests can assert that rejected inputs never touch the boundary.
type countingBackend struct {
	calls int
}

func (c *countingBackend) Name() string { return "counting" }

func (c *countingBackend) Compute(
	_ context.Context, _ uint32, _, _, _ []byte,
) (string, error) {
	c.calls++
	return "000000000000", nil
}

func (c *countingBackend) NewInstance(_ context.Context, _ uint32, _ []byte) (uint64, error) {
	c.calls++
	return 1, nil
}

func (c *countingBackend) ComputeInstance(_ context.Context, _ uint64, _ []byte) (string, error) {
	c.calls++
	return "000000000000", nil
}

func (c *countingBackend) FreeInstance(_ context.Context, _ uint64) error {
	c.calls++
	return nil
}

func (c *countingBackend) Close(_ context.Context) error { return nil }

func newCountingEngine(counting *countingBackend) *Engine {
	return &Engine{ctx: context.Background(), backend: counting}
}

func TestValidationPrecedesBoundary(t *testing.T) {
	t.Parallel()

	counting := &countingBackend{}
	e := newCountingEngine(counting)

	_, err := e.NewPasscode(SHA3KMAC128, nil)
	assert.ErrorIs(t, err, ErrInvalidKey)

	_, err = e.Sha3Kmac128(nil, []byte("label"), []byte("data"))
	assert.ErrorIs(t, err, ErrInvalidKey)

	_, err = e.Blake3KeyedMode256([]byte("key"), nil)
	assert.ErrorIs(t, err, ErrInvalidData)

	_, err = e.NewPasscode(Algorithm(99), []byte("key"))
	assert.ErrorIs(t, err, ErrInvalidAlgorithm)

	assert.Zero(t, counting.calls, "rejected inputs must make zero boundary calls")
}

func TestComputeNilChallenge(t *testing.T) {
	t.Parallel()

	counting := &countingBackend{}
	e := newCountingEngine(counting)

	pc, err := e.NewPasscode(SHA3KMAC128, []byte("key"))
	require.NoError(t, err)
	require.Equal(t, 1, counting.calls, "construction marshals the key once")

	_, err = pc.Compute(nil)
	assert.ErrorIs(t, err, ErrInvalidData)
	assert.Equal(t, 1, counting.calls, "a rejected challenge must not cross the boundary")
}

func TestPasscodeClose(t *testing.T) {
	t.Parallel()

	counting := &countingBackend{}
	e := newCountingEngine(counting)

	pc, err := e.NewPasscode(BLAKE3KeyedMode256, []byte("key"))
	require.NoError(t, err)

	require.NoError(t, pc.Close())
	require.NoError(t, pc.Close(), "double close is a no-op")
	assert.Equal(t, 2, counting.calls, "exactly one FreeInstance after construction")

	_, err = pc.Compute([]byte("challenge"))
	assert.ErrorIs(t, err, ErrClosed)
}

func TestComputeFailureSurfaces(t *testing.T) {
	t.Parallel()

	e := &Engine{ctx: context.Background(), backend: &faultingBackend{}}

	_, err := e.Sha3Kmac128([]byte("key"), nil, []byte("data"))
	assert.ErrorIs(t, err, ErrComputeFailure)

	_, err = e.NewPasscode(SHA3KMAC128, []byte("key"))
	assert.ErrorIs(t, err, ErrComputeFailure)
}

type faultingBackend struct{}

func (f *faultingBackend) Name() string { return "faulting" }

func (f *faultingBackend) Compute(
	_ context.Context, _ uint32, _, _, _ []byte,
) (string, error) {
	return "", errors.New("module trapped")
}

func (f *faultingBackend) NewInstance(_ context.Context, _ uint32, _ []byte) (uint64, error) {
	return 0, errors.New("allocator exhausted")
}

func (f *faultingBackend) ComputeInstance(_ context.Context, _ uint64, _ []byte) (string, error) {
	return "", errors.New("module trapped")
}

func (f *faultingBackend) FreeInstance(_ context.Context, _ uint64) error {
	return errors.New("module trapped")
}

func (f *faultingBackend) Close(_ context.Context) error { return nil }
