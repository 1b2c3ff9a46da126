package events

import (
	"encoding/hex"
	"math/big"
	"strconv"
)

func formatAmount(v *big.Int) string {
	if v == nil {
		return "0"
	}
	return v.String()
}

func intToString(v int64) string {
	return strconv.FormatInt(v, 10)
}

func hexID(id [32]byte) string {
	return hex.EncodeToString(id[:])
}

func hexAddr(addr [20]byte) string {
	return hex.EncodeToString(addr[:])
}
