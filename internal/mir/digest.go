package mir

import (
	"encoding/binary"

	"github.com/cespare/xxhash/v2"
)

// CallSiteDigest fingerprints the module's call structure: every call site's
// ordinal together with the shape of its callee. Any mutation that adds,
// removes, or redirects a call changes the digest, so a cached call graph can
// cheaply prove it still matches the instruction stream.
func (m *Module) CallSiteDigest() uint64 {
	d := xxhash.New()
	var buf [8]byte

	writeInt := func(v int) {
		binary.LittleEndian.PutUint64(buf[:], uint64(v))
		d.Write(buf[:])
	}

	for _, fn := range m.Functions {
		d.WriteString(fn.Name)
		writeInt(len(fn.Blocks))
		for _, apply := range fn.Applies() {
			writeInt(apply.Ordinal)
			switch {
			case apply.CalleeFunction() != nil:
				d.WriteString("d:" + apply.CalleeFunction().Name)
			case apply.CalleeMethod() != nil:
				method := apply.CalleeMethod()
				d.WriteString("m:" + method.Class.Name + "." + method.Method)
			default:
				d.WriteString("o")
			}
		}
	}
	return d.Sum64()
}
