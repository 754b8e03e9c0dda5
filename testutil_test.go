package boxtree

// stubData is a minimal UserData implementation shared across this
// package's tests.
type stubData struct {
	Tag uint32
}

func (d stubData) IsEmpty() bool { return d.Tag == 0 }

func red() Albedo   { return Albedo{R: 255, A: 255} }
func green() Albedo { return Albedo{G: 255, A: 255} }
func blue() Albedo  { return Albedo{B: 255, A: 255} }
