//go:build avogen
// +build avogen

package main

import (
	. "github.com/mmcloughlin/avo/build"
	op "github.com/mmcloughlin/avo/operand"
	"github.com/mmcloughlin/avo/reg"
)

// This file generates the in-place 64-bit zigzag decode kernel:
//
//	x = (u >> 1) ^ -(u & 1)
//
// -(u & 1) is built without a 64-bit arithmetic shift: PSLLQ by 63 moves the
// low bit into the sign of the high doubleword, PSRAL by 31 spreads it and
// PSHUFD 0xF5 copies the high doubleword over the low one.

func genZigZagDecodeKernel() {
	TEXT("zigzagDecodeSSE2", NOSPLIT, "func(buf *uint64, n int)")
	Doc("zigzagDecodeSSE2 decodes n zigzag encoded uint64 values in place.")

	bufParam := Load(Param("buf"), GP64())
	bufPtr := bufParam.(reg.GPVirtual)
	n := Load(Param("n"), GP64())

	done := "zigzag_decode_done"
	pairLoop := "zigzag_decode_pair_loop"
	tailLoop := "zigzag_decode_tail_loop"

	index := GP64()
	XORQ(index, index)

	next := GP64()
	val := XMM()
	mask := XMM()

	Label(pairLoop)
	LEAQ(op.Mem{Base: index, Disp: 2}, next)
	CMPQ(next, n)
	JA(op.LabelRef(tailLoop))

	MOVOU(op.Mem{Base: bufPtr, Index: index, Scale: 8}, val)
	MOVO(val, mask)
	PSLLQ(op.Imm(63), mask)
	PSRAL(op.Imm(31), mask)
	PSHUFD(op.Imm(0xf5), mask, mask)
	PSRLQ(op.Imm(1), val)
	PXOR(mask, val)
	MOVOU(val, op.Mem{Base: bufPtr, Index: index, Scale: 8})

	ADDQ(op.Imm(2), index)
	JMP(op.LabelRef(pairLoop))

	Label(tailLoop)
	CMPQ(index, n)
	JAE(op.LabelRef(done))

	word := GP64()
	low := GP64()
	MOVQ(op.Mem{Base: bufPtr, Index: index, Scale: 8}, word)
	MOVQ(word, low)
	SHRQ(op.Imm(1), word)
	ANDQ(op.Imm(1), low)
	NEGQ(low)
	XORQ(low, word)
	MOVQ(word, op.Mem{Base: bufPtr, Index: index, Scale: 8})

	INCQ(index)
	JMP(op.LabelRef(tailLoop))

	Label(done)
	RET()
}
