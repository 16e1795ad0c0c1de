//go:build avogen
// +build avogen

package main

import (
	. "github.com/mmcloughlin/avo/build"
	op "github.com/mmcloughlin/avo/operand"
	"github.com/mmcloughlin/avo/reg"
)

// This file generates the fused D1 delta and zigzag kernel of the block
// encoder. Every element is compared with its predecessor, so two unaligned
// loads (src[i:i+2] and src[i-1:i+1]) give both operands of a lane pair and
// there is no carry between iterations.
//
// SSE2 has no 64-bit arithmetic shift. The sign mask of each quadword is
// built from the high doubleword instead: PSRAL by 31 turns every doubleword
// into its sign, PSHUFD 0xF5 copies the high doubleword over the low one.

func genZigZagDeltaEncodeKernel() {
	TEXT("zigzagDeltaEncodeSSE2", NOSPLIT, "func(dst *uint64, src *uint64, prev uint64, n int)")
	Doc("zigzagDeltaEncodeSSE2 writes zigzag(src[i]-src[i-1]) to dst[i] for i < n,")
	Doc("using prev as src[-1].")

	dstParam := Load(Param("dst"), GP64())
	dstBase := dstParam.(reg.GPVirtual)
	srcParam := Load(Param("src"), GP64())
	srcBase := srcParam.(reg.GPVirtual)
	prev := Load(Param("prev"), GP64())
	n := Load(Param("n"), GP64())

	done := "zigzag_delta_done"
	pairLoop := "zigzag_delta_pair_loop"
	tailLoop := "zigzag_delta_tail_loop"

	TESTQ(n, n)
	JE(op.LabelRef(done))

	// Element 0 against prev.
	first := GP64()
	sign := GP64()
	MOVQ(op.Mem{Base: srcBase}, first)
	SUBQ(prev, first)
	zigzagEncodeScalar(first, sign)
	MOVQ(first, op.Mem{Base: dstBase})

	index := GP64()
	MOVQ(op.Imm(1), index)

	next := GP64()
	curr := XMM()
	before := XMM()
	mask := XMM()

	Label(pairLoop)
	LEAQ(op.Mem{Base: index, Disp: 2}, next)
	CMPQ(next, n)
	JA(op.LabelRef(tailLoop))

	MOVOU(op.Mem{Base: srcBase, Index: index, Scale: 8}, curr)
	MOVOU(op.Mem{Base: srcBase, Index: index, Scale: 8, Disp: -8}, before)
	PSUBQ(before, curr)

	// mask = curr >> 63 (arithmetic, per quadword)
	MOVO(curr, mask)
	PSRAL(op.Imm(31), mask)
	PSHUFD(op.Imm(0xf5), mask, mask)

	PSLLQ(op.Imm(1), curr)
	PXOR(mask, curr)
	MOVOU(curr, op.Mem{Base: dstBase, Index: index, Scale: 8})

	ADDQ(op.Imm(2), index)
	JMP(op.LabelRef(pairLoop))

	// Tail loop for the last element when n-1 is odd
	Label(tailLoop)
	CMPQ(index, n)
	JAE(op.LabelRef(done))

	val := GP64()
	MOVQ(op.Mem{Base: srcBase, Index: index, Scale: 8}, val)
	SUBQ(op.Mem{Base: srcBase, Index: index, Scale: 8, Disp: -8}, val)
	zigzagEncodeScalar(val, sign)
	MOVQ(val, op.Mem{Base: dstBase, Index: index, Scale: 8})

	INCQ(index)
	JMP(op.LabelRef(tailLoop))

	Label(done)
	RET()
}

// zigzagEncodeScalar replaces v by (v << 1) ^ (v >> 63), clobbering sign.
func zigzagEncodeScalar(v, sign reg.GPVirtual) {
	MOVQ(v, sign)
	SARQ(op.Imm(63), sign)
	SHLQ(op.Imm(1), v)
	XORQ(sign, v)
}
