package anco

import "runtime"

// ZeroizeBytes overwrites the provided slice with zeros and prevents compiler
// dead store elimination using runtime.KeepAlive.
//
// Conversion buffers hold whatever the user typed. Wiping them narrows how
// long that text sits in memory; copies made by the engine or by string
// conversion are out of reach.
func ZeroizeBytes(buf []byte) {
	for i := range buf {
		buf[i] = 0
	}
	runtime.KeepAlive(buf)
}
