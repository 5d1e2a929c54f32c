package output

import (
	"io"

	"github.com/mdp/qrterminal/v3"
	"rsc.io/qr"
)

// RenderAddressQR draws address as a terminal QR code so it can be scanned
// into a wallet or faucet page. Nothing is written unless w is a terminal
// or force is set.
func RenderAddressQR(w io.Writer, address string, force bool) bool {
	if !force && !IsTerminal(w) {
		return false
	}

	qrterminal.GenerateWithConfig(address, qrterminal.Config{
		Level:          qr.M,
		Writer:         w,
		QuietZone:      1,
		HalfBlocks:     true,
		BlackChar:      qrterminal.BLACK_BLACK,
		WhiteChar:      qrterminal.WHITE_WHITE,
		WhiteBlackChar: qrterminal.WHITE_BLACK,
		BlackWhiteChar: qrterminal.BLACK_WHITE,
	})
	return true
}
