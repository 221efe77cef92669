package manifest

import (
	"encoding/binary"
	"slices"

	"go.trai.ch/remake/internal/core/domain"
)

// Encode serialises m in the binary manifest format. Targets are written in
// lexical order and environment entries by key, so equal manifests encode to
// equal bytes.
func Encode(m *domain.Manifest) []byte {
	var e encoder
	e.buf = append(e.buf, Magic...)
	e.putU64(uint64(m.Platform))
	e.putU64(m.Version)

	names := m.Names()
	e.putU64(uint64(len(names)))
	for _, name := range names {
		t, _ := m.Target(name)
		e.target(t)
	}
	return e.buf
}

type encoder struct {
	buf []byte
}

func (e *encoder) target(t *domain.Target) {
	e.putString(t.Name.String())
	e.putStrings(domain.Strings(t.Dependencies))
	e.putU64(uint64(len(t.Commands)))
	for _, c := range t.Commands {
		e.putString(c.Executable)
		e.putStrings(c.Arguments)
		e.putBool(c.IgnoreError)
		e.putMap(c.Environment)
		e.putString(c.WorkingDir)
	}
}

func (e *encoder) putU64(v uint64) {
	e.buf = binary.LittleEndian.AppendUint64(e.buf, v)
}

func (e *encoder) putBool(v bool) {
	if v {
		e.buf = append(e.buf, 1)
		return
	}
	e.buf = append(e.buf, 0)
}

func (e *encoder) putString(s string) {
	e.putU64(uint64(len(s)))
	e.buf = append(e.buf, s...)
}

func (e *encoder) putStrings(ss []string) {
	e.putU64(uint64(len(ss)))
	for _, s := range ss {
		e.putString(s)
	}
}

func (e *encoder) putMap(m map[string]string) {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	slices.Sort(keys)

	e.putU64(uint64(len(keys)))
	for _, k := range keys {
		e.putString(k)
		e.putString(m[k])
	}
}
