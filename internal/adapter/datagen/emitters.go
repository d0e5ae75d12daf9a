package datagen

import (
	"fmt"
	"math/rand/v2"

	"github.com/jeremyhahn/neurlang/internal/core/domain"
)

// int64ptr is a small helper since Go has no literal address-of for a
// freshly computed value.
func int64ptr(v int64) *int64 { return &v }

func pick(rng *rand.Rand, options []string) string {
	return options[rng.IntN(len(options))]
}

func randRange(rng *rand.Rand, lo, hi int) int {
	return lo + rng.IntN(hi-lo)
}

// emitArithmetic synthesizes a two-operand arithmetic example.
func emitArithmetic(rng *rand.Rand) emitted {
	ops := []string{"add", "sub", "mul", "div", "mod", "and", "or", "xor"}
	op := pick(rng, ops)
	a := int64(randRange(rng, 1, 100))
	b := int64(randRange(rng, 1, 100))

	var expected int64
	var mnemonic string
	switch op {
	case "add":
		expected, mnemonic = a+b, "add"
	case "sub":
		expected, mnemonic = a-b, "sub"
	case "mul":
		expected, mnemonic = a*b, "mul"
	case "div":
		expected, mnemonic = a/b, "div"
	case "mod":
		expected, mnemonic = a%b, "rem"
	case "and":
		expected, mnemonic = a&b, "and"
	case "or":
		expected, mnemonic = a|b, "or"
	case "xor":
		expected, mnemonic = a^b, "xor"
	}

	prompts := []string{
		fmt.Sprintf("Compute %d %s %d", a, op, b),
		fmt.Sprintf("What is %d %s %d", a, op, b),
	}
	asm := fmt.Sprintf("mov r0, %d\nmov r1, %d\n%s r0, r0, r1\nhalt", a, b, mnemonic)
	return emitted{prompt: pick(rng, prompts), assembly: asm, expectedOutput: int64ptr(expected), category: domain.CatArithmetic}
}

// emitConditional synthesizes a branch-on-comparison example.
func emitConditional(rng *rand.Rand) emitted {
	a := int64(randRange(rng, -50, 50))
	b := int64(randRange(rng, -50, 50))
	var expected int64
	if a > b {
		expected = a
	} else {
		expected = b
	}
	asm := fmt.Sprintf(`mov r0, %d
mov r1, %d
ble r0, r1,.else
mov r2, r0
b.end
.else:
mov r2, r1
.end:
mov r0, r2
halt`, a, b)
	prompt := fmt.Sprintf("Return the larger of %d and %d", a, b)
	return emitted{prompt: prompt, assembly: asm, expectedOutput: int64ptr(expected), category: domain.CatConditionals}
}

// emitLoop synthesizes a summation loop over [1, n].
func emitLoop(rng *rand.Rand) emitted {
	n := int64(randRange(rng, 1, 20))
	var expected int64
	for i := int64(1); i <= n; i++ {
		expected += i
	}
	asm := fmt.Sprintf(`mov r0, 0
mov r1, 1
mov r2, %d
.top:
bgt r1, r2,.end
add r0, r0, r1
add r1, r1, 1
b.top
.end:
halt`, n)
	prompt := fmt.Sprintf("Sum the integers from 1 to %d", n)
	return emitted{prompt: prompt, assembly: asm, expectedOutput: int64ptr(expected), category: domain.CatLoops}
}

// emitMemory synthesizes a store-then-load round trip.
func emitMemory(rng *rand.Rand) emitted {
	v := int64(randRange(rng, 0, 256))
	asm := fmt.Sprintf(`mov r0, %d
store r0, [r1]
load r2, [r1]
mov r0, r2
halt`, v)
	prompt := fmt.Sprintf("Store %d to memory and load it back", v)
	return emitted{prompt: prompt, assembly: asm, expectedOutput: int64ptr(v), category: domain.CatMemory}
}

// emitIntrinsic exercises one of the bits.* intrinsic opcodes.
func emitIntrinsic(rng *rand.Rand) emitted {
	intrinsics := []string{"popcount", "clz", "ctz", "bswap"}
	name := pick(rng, intrinsics)
	v := int64(randRange(rng, 1, 1<<20))
	asm := fmt.Sprintf("mov r0, %d\nbits.%s r0, r0\nhalt", v, name)
	prompt := fmt.Sprintf("Compute %s of %d", name, v)
	return emitted{prompt: prompt, assembly: asm, expectedOutput: nil, category: domain.CatIntrinsics}
}

// emitFPU synthesizes a floating-point arithmetic example.
func emitFPU(rng *rand.Rand) emitted {
	ops := []string{"fadd", "fsub", "fmul", "fdiv"}
	op := pick(rng, ops)
	a := float64(randRange(rng, 1, 50))
	b := float64(randRange(rng, 1, 50))
	asm := fmt.Sprintf("fmov r0, %g\nfmov r1, %g\n%s r0, r0, r1\nhalt", a, b, op)
	prompt := fmt.Sprintf("Compute %g %s %g in floating point", a, op, b)
	return emitted{prompt: prompt, assembly: asm, expectedOutput: nil, category: domain.CatFPU}
}

// emitFunction synthesizes a call to a small helper function.
func emitFunction(rng *rand.Rand) emitted {
	a := int64(randRange(rng, 1, 30))
	asm := fmt.Sprintf(`mov r0, %d
call @double
halt

double:
add r0, r0, r0
halt`, a)
	prompt := fmt.Sprintf("Double the value %d using a function call", a)
	return emitted{prompt: prompt, assembly: asm, expectedOutput: int64ptr(a * 2), category: domain.CatFunctions}
}

// emitAlgorithm synthesizes a small well-known algorithm (gcd via
// remainder-based Euclid).
func emitAlgorithm(rng *rand.Rand) emitted {
	a := int64(randRange(rng, 2, 100))
	b := int64(randRange(rng, 2, 100))
	expected := gcd(a, b)
	asm := fmt.Sprintf(`mov r0, %d
mov r1, %d
.top:
beq r1, zero,.end
mov r2, r1
rem r1, r0, r1
mov r0, r2
b.top
.end:
halt`, a, b)
	prompt := fmt.Sprintf("Compute the greatest common divisor of %d and %d", a, b)
	return emitted{prompt: prompt, assembly: asm, expectedOutput: int64ptr(expected), category: domain.CatAlgorithms}
}

func gcd(a, b int64) int64 {
	for b != 0 {
		a, b = b, a%b
	}
	return a
}

// emitStdlib exercises the stdlib array_len helper.
func emitStdlib(rng *rand.Rand) emitted {
	n := int64(randRange(rng, 1, 10))
	asm := fmt.Sprintf(`mov r0, %d
call @array_len
halt`, n)
	prompt := fmt.Sprintf("Return the length of an array with %d elements", n)
	return emitted{prompt: prompt, assembly: asm, expectedOutput: int64ptr(n), category: domain.CatStdlib}
}

// emitConcurrency synthesizes a counter-increment example; the emitted
// code is a plain add, not an atomic instruction.
func emitConcurrency(rng *rand.Rand) emitted {
	v := int64(randRange(rng, 0, 50))
	asm := fmt.Sprintf(`mov r0, %d
mov r1, 1
add r0, r0, r1
halt`, v)
	prompt := fmt.Sprintf("Atomically increment a counter starting at %d", v)
	return emitted{prompt: prompt, assembly: asm, expectedOutput: int64ptr(v + 1), category: domain.CatConcurrency}
}

// emitSecurity synthesizes a bounds-check-before-load pattern.
func emitSecurity(rng *rand.Rand) emitted {
	idx := int64(randRange(rng, 0, 16))
	limit := int64(16)
	asm := fmt.Sprintf(`mov r0, %d
mov r1, %d
bge r0, r1,.trap
load r2, [r0]
mov r0, r2
halt
.trap:
trap`, idx, limit)
	prompt := fmt.Sprintf("Bounds-check index %d against limit %d before loading", idx, limit)
	return emitted{prompt: prompt, assembly: asm, expectedOutput: nil, category: domain.CatSecurity}
}

// emitIO synthesizes a trivial read-byte-from-port style sequence.
func emitIO(rng *rand.Rand) emitted {
	port := int64(randRange(rng, 0, 8))
	asm := fmt.Sprintf(`mov r0, %d
load.b r1, [r0]
mov r0, r1
halt`, port)
	prompt := fmt.Sprintf("Read a byte from port %d", port)
	return emitted{prompt: prompt, assembly: asm, expectedOutput: nil, category: domain.CatIO}
}

// emitExtension synthesizes an unusual-but-legal opcode combination used to
// exercise less common code paths (sign extension via shift pair).
func emitExtension(rng *rand.Rand) emitted {
	v := int64(randRange(rng, -8, 8))
	asm := fmt.Sprintf(`mov r0, %d
shl r0, r0, 56
shr r0, r0, 56
halt`, v&0xFF)
	prompt := fmt.Sprintf("Sign-extend the low byte of %d", v)
	return emitted{prompt: prompt, assembly: asm, expectedOutput: nil, category: domain.CatExtensions}
}

// emitCrypto synthesizes a toy XOR-cipher round.
func emitCrypto(rng *rand.Rand) emitted {
	plain := int64(randRange(rng, 0, 256))
	key := int64(randRange(rng, 1, 256))
	expected := plain ^ key
	asm := fmt.Sprintf(`mov r0, %d
mov r1, %d
xor r0, r0, r1
halt`, plain, key)
	prompt := fmt.Sprintf("XOR %d with key %d", plain, key)
	return emitted{prompt: prompt, assembly: asm, expectedOutput: int64ptr(expected), category: domain.CatCrypto}
}
