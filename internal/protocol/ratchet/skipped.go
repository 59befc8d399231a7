package ratchet

import (
	"time"

	"axolotld/internal/crypto"
	"axolotld/internal/domain"
	"axolotld/internal/protocol/kdf"
)

// staged is the outcome of walking a receive chain forward.
type staged struct {
	keys       []domain.SkippedKey
	chainKey   []byte
	messageKey []byte
}

// stage walks chainKey from position from up to and including position to.
// Keys for positions strictly before to are staged under headerKey. The key
// for position to is returned as messageKey; when stageResult is set and
// from != to it is staged as well. Nothing is written to the state here; the
// caller appends the staged keys once the message authenticates.
func (e *Engine) stage(headerKey, chainKey []byte, from, to uint32, stageResult bool) (staged, error) {
	if to-from > e.maxSkip {
		return staged{}, ErrTooManySkipped
	}
	now := e.now()
	out := staged{chainKey: chainKey}
	for n := from; n < to; n++ {
		mk, next := kdf.DeriveMessageKey(e.suite, out.chainKey)
		out.keys = append(out.keys, domain.SkippedKey{
			Timestamp:  now,
			HeaderKey:  append([]byte(nil), headerKey...),
			MessageKey: mk,
		})
		out.chainKey = next
	}
	out.messageKey, out.chainKey = kdf.DeriveMessageKey(e.suite, out.chainKey)
	if stageResult && from != to {
		out.keys = append(out.keys, domain.SkippedKey{
			Timestamp:  now,
			HeaderKey:  append([]byte(nil), headerKey...),
			MessageKey: append([]byte(nil), out.messageKey...),
		})
	}
	return out, nil
}

// PruneSkippedKeys drops skipped keys stamped before cutoff and reports how
// many were removed.
func PruneSkippedKeys(st *domain.RatchetState, cutoff time.Time) int {
	kept := st.SkippedKeys[:0]
	removed := 0
	for _, sk := range st.SkippedKeys {
		if sk.Timestamp.Before(cutoff) {
			crypto.Wipe(sk.HeaderKey, sk.MessageKey)
			removed++
			continue
		}
		kept = append(kept, sk)
	}
	if len(kept) == 0 {
		kept = nil
	}
	st.SkippedKeys = kept
	return removed
}
