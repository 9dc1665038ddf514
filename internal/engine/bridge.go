package engine

import (
	"context"
	"encoding/hex"
	"fmt"
	"os"
	"os/exec"
	"strings"
	"sync"

	"github.com/snowmerak/passcode/pkg/keyedhash"
)

// bridgeBackend satisfies the contract by shelling out to the Node.js
// implementation for each call: a one-shot script is fed hex-encoded inputs
// and the passcode is read back from stdout. Slower than the sandbox by a
// process spawn per call, but byte-identical in output.
type bridgeBackend struct {
	command string
	script  string

	mu        sync.Mutex
	next      uint64
	instances map[uint64]bridgeInstance
}

type bridgeInstance struct {
	algorithm uint32
	key       []byte
}

// statelessCalls maps each discriminant to the JS free function and the
// digest length it is called with.
var statelessCalls = map[uint32]struct {
	fn    string
	kmac  bool
	bytes int
}{
	AlgSha3Kmac128:    {fn: "sha3Kmac128", kmac: true, bytes: 32},
	AlgSha3Kmac256:    {fn: "sha3Kmac256", kmac: true, bytes: 32},
	AlgBlake3Keyed128: {fn: "blake3KeyedMode256", bytes: 32},
	AlgBlake3Keyed256: {fn: "blake3KeyedMode512", bytes: 64},
}

func newBridgeBackend(command, script string) (*bridgeBackend, error) {
	if script == "" {
		return nil, fmt.Errorf("no bridge script configured")
	}
	if _, err := exec.LookPath(command); err != nil {
		return nil, fmt.Errorf("bridge command %q unavailable: %w", command, err)
	}
	if _, err := os.Stat(script); err != nil {
		return nil, fmt.Errorf("bridge script: %w", err)
	}

	return &bridgeBackend{
		command:   command,
		script:    script,
		next:      1,
		instances: make(map[uint64]bridgeInstance),
	}, nil
}

func (b *bridgeBackend) Name() string { return "bridge" }

func (b *bridgeBackend) Compute(
	ctx context.Context,
	algorithm uint32,
	key, label, data []byte,
) (string, error) {
	call, ok := statelessCalls[algorithm]
	if !ok {
		return "", fmt.Errorf("unknown algorithm discriminant %d", algorithm)
	}

	var js string
	if call.kmac {
		js = fmt.Sprintf(`const lib = require(%q);
const key = Buffer.from(%q, 'hex');
const label = Buffer.from(%q, 'hex');
const data = Buffer.from(%q, 'hex');
const out = Buffer.from(lib.%s(key, label, data, %d));
console.log(out.toString('hex').slice(0, %d));`,
			b.script,
			hex.EncodeToString(key),
			hex.EncodeToString(label),
			hex.EncodeToString(data),
			call.fn, call.bytes, keyedhash.OTPLength,
		)
	} else {
		js = fmt.Sprintf(`const lib = require(%q);
const key = Buffer.from(%q, 'hex');
const data = Buffer.from(%q, 'hex');
const out = Buffer.from(lib.%s(key, data));
console.log(out.toString('hex').slice(0, %d));`,
			b.script,
			hex.EncodeToString(key),
			hex.EncodeToString(data),
			call.fn, keyedhash.OTPLength,
		)
	}

	return b.run(ctx, js)
}

func (b *bridgeBackend) NewInstance(
	_ context.Context,
	algorithm uint32,
	key []byte,
) (uint64, error) {
	if algorithm > AlgBlake3Keyed256 {
		return 0, fmt.Errorf("unknown algorithm discriminant %d", algorithm)
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	handle := b.next
	b.next++
	b.instances[handle] = bridgeInstance{
		algorithm: algorithm,
		key:       append([]byte(nil), key...),
	}

	return handle, nil
}

func (b *bridgeBackend) ComputeInstance(
	ctx context.Context,
	handle uint64,
	data []byte,
) (string, error) {
	b.mu.Lock()
	inst, ok := b.instances[handle]
	b.mu.Unlock()
	if !ok {
		return "", fmt.Errorf("unknown instance handle %d", handle)
	}

	js := fmt.Sprintf(`const { Passcode } = require(%q);
const key = Buffer.from(%q, 'hex');
const data = Buffer.from(%q, 'hex');
const pc = new Passcode(%d, key);
console.log(pc.compute(data));`,
		b.script,
		hex.EncodeToString(inst.key),
		hex.EncodeToString(data),
		inst.algorithm,
	)

	return b.run(ctx, js)
}

func (b *bridgeBackend) FreeInstance(_ context.Context, handle uint64) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if _, ok := b.instances[handle]; !ok {
		return fmt.Errorf("unknown instance handle %d", handle)
	}
	delete(b.instances, handle)

	return nil
}

func (b *bridgeBackend) Close(_ context.Context) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.instances = make(map[uint64]bridgeInstance)

	return nil
}

// run executes one bridge invocation and validates the passcode it prints.
func (b *bridgeBackend) run(ctx context.Context, js string) (string, error) {
	out, err := exec.CommandContext(ctx, b.command, "-e", js).Output()
	if err != nil {
		return "", fmt.Errorf("bridge invocation: %w", err)
	}

	otp := strings.TrimSpace(string(out))
	if len(otp) != keyedhash.OTPLength {
		return "", fmt.Errorf("bridge returned %d characters, want %d", len(otp), keyedhash.OTPLength)
	}
	if _, err := hex.DecodeString(otp); err != nil {
		return "", fmt.Errorf("bridge returned non-hex output: %w", err)
	}

	return otp, nil
}
