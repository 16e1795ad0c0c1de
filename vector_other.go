//go:build !amd64 || noasm

package middleout

func initSIMDSelection() {
	initLaneSelection()
}
