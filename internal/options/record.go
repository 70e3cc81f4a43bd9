package options

import "slices"

// Key identifies one launcher option. The set of keys is closed.
type Key string

const (
	KeySCFile        Key = "sc-file"
	KeyOutDir        Key = "out-dir"
	KeyExtendSC      Key = "extend-sc"
	KeyClasspath     Key = "cp"
	KeyJRELib        Key = "jre-lib"
	KeyMainClass     Key = "main-class"
	KeyReflectionLog Key = "reflection-log"
	KeyHelp          Key = "help"
)

// keys lists every key in declaration order.
var keys = []Key{
	KeySCFile,
	KeyOutDir,
	KeyExtendSC,
	KeyClasspath,
	KeyJRELib,
	KeyMainClass,
	KeyReflectionLog,
	KeyHelp,
}

// Flag returns the command-line token for the key, e.g. "-sc-file".
func (k Key) Flag() string {
	return "-" + string(k)
}

// Record is the result of parsing launcher tokens.
//
// A key is present only if its flag was supplied. Scalar values are kept
// as the raw strings given on the command line; the classpath is a list
// accumulated across every -cp occurrence.
type Record struct {
	values    map[Key]string
	classpath []string
	hasCP     bool
	help      bool
}

func newRecord() *Record {
	return &Record{values: make(map[Key]string)}
}

// Lookup returns the raw value of a scalar option and whether it was set.
func (r *Record) Lookup(k Key) (string, bool) {
	v, ok := r.values[k]
	return v, ok
}

// Has reports whether the option was supplied.
func (r *Record) Has(k Key) bool {
	switch k {
	case KeyClasspath:
		return r.hasCP
	case KeyHelp:
		return r.help
	}
	_, ok := r.values[k]
	return ok
}

// Classpath returns a copy of the accumulated classpath entries.
func (r *Record) Classpath() []string {
	return slices.Clone(r.classpath)
}

// Help reports whether -help was supplied.
func (r *Record) Help() bool {
	return r.help
}

// Keys returns the supplied keys in declaration order.
func (r *Record) Keys() []string {
	var present []string
	for _, k := range keys {
		if r.Has(k) {
			present = append(present, string(k))
		}
	}
	return present
}
