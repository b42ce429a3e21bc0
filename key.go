package compose

import (
	"fmt"
	"hash/fnv"
	"runtime"
	"strconv"
)

// Key is a stable 64-bit fingerprint of a composable call site: the calling
// function's name, source file, and line (see NewKey), folded with a
// caller-supplied sub-key for iteration (list item identity). The column is
// not part of it, so two NewKey calls on one source line yield the same key
// unless their discriminators differ. Keys are stable across runs at the same
// source revision, which is what lets the slot table re-enter the same
// group on the next composition pass.
type Key uint64

// String renders the key as a hex string for debug logging.
func (k Key) String() string {
	return strconv.FormatUint(uint64(k), 16)
}

// NewKey derives a Key from the caller's source location (file, line) and
// an arbitrary caller-supplied discriminator. Composables normally call
// this once at their own top and pass the result to Composer.WithGroup;
// list-rendering composables fold in the item's stable identity (its id,
// not its index) as the discriminator so reordering doesn't reshuffle
// identity.
//
// skip is the number of additional stack frames to skip past NewKey's own
// caller — 0 is correct for direct callers.
func NewKey(discriminator any, skip ...int) Key {
	extraSkip := 0
	if len(skip) > 0 {
		extraSkip = skip[0]
	}
	pc, file, line, ok := runtime.Caller(1 + extraSkip)
	h := fnv.New64a()
	if ok {
		fn := runtime.FuncForPC(pc)
		if fn != nil {
			h.Write([]byte(fn.Name()))
		}
		h.Write([]byte(file))
		writeVarint(h, int64(line))
	}
	hashAny(h, discriminator)
	return Key(h.Sum64())
}

// JoinKey folds a sub-key into an existing key. Used when a single call
// site emits a family of groups that need distinct identity (the standard
// pattern for `for`-loop bodies: JoinKey(siteKey, item.ID)).
func JoinKey(base Key, sub any) Key {
	h := fnv.New64a()
	writeVarint(h, int64(base))
	hashAny(h, sub)
	return Key(h.Sum64())
}

type byteWriter interface {
	Write(p []byte) (int, error)
}

func writeVarint(w byteWriter, v int64) {
	var buf [10]byte
	n := 0
	uv := uint64(v)
	for {
		b := byte(uv & 0x7f)
		uv >>= 7
		if uv != 0 {
			b |= 0x80
		}
		buf[n] = b
		n++
		if uv == 0 {
			break
		}
	}
	w.Write(buf[:n])
}

// hashAny folds a small, closed set of identity-carrying types into the
// hash. Anything else falls back to its String()/fmt representation's
// bytes captured via a type switch, avoiding reflection on the hot path.
func hashAny(w byteWriter, v any) {
	switch x := v.(type) {
	case nil:
		w.Write([]byte{0})
	case string:
		w.Write([]byte(x))
	case int:
		writeVarint(w, int64(x))
	case int32:
		writeVarint(w, int64(x))
	case int64:
		writeVarint(w, x)
	case uint32:
		writeVarint(w, int64(x))
	case uint64:
		writeVarint(w, int64(x))
	case Key:
		writeVarint(w, int64(x))
	case NodeId:
		writeVarint(w, int64(x))
	case fmtStringer:
		w.Write([]byte(x.String()))
	default:
		// Best effort: distinct values of unsupported types still hash
		// distinctly from each other via their default formatting, though
		// two distinct values that print the same will collide. Callers
		// needing strong guarantees should pass a string or int id.
		w.Write([]byte(sprintFallback(x)))
	}
}

type fmtStringer interface {
	String() string
}

func sprintFallback(v any) string {
	return fmt.Sprintf("%v", v)
}
