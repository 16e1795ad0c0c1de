//go:build avogen
// +build avogen

package main

import (
	"flag"
	"strings"

	. "github.com/mmcloughlin/avo/build"
)

var (
	component = flag.String("component", "all", "component to generate")
)

// main emits the zigzag kernels used by the vector engine on amd64.
//
//	go run -tags avogen ./internal/avo -out zigzag_amd64.s
func main() {
	flag.Parse()

	comp := strings.ToLower(*component)

	Package("github.com/Akron/middleout-go")
	ConstraintExpr("amd64")
	ConstraintExpr("!noasm")

	if comp == "delta" || comp == "all" {
		genZigZagDeltaEncodeKernel()
	}

	if comp == "zigzag" || comp == "all" {
		genZigZagDecodeKernel()
	}

	Generate()
}
