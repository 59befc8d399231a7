package crypto

import (
	"runtime"

	"axolotld/internal/domain"
)

// Wipe zeroes each provided buffer. This is best-effort and aims to
// reduce the chance of the compiler eliding the write.
//
//go:noinline
func Wipe(bufs ...[]byte) {
	for _, b := range bufs {
		for i := range b {
			b[i] = 0
		}
	}
	runtime.KeepAlive(bufs)
}

// WipePrivate zeroes a private key in place. A nil key is ignored.
func WipePrivate(k *domain.X25519Private) {
	if k == nil {
		return
	}
	Wipe(k[:])
}
