package security

// ZeroBytes overwrites b in place.
func ZeroBytes(b []byte) {
	for i := range b {
		b[i] = 0
	}
}

// ZeroString drops the reference held by s. Go strings are immutable so the backing
// array is left to the collector.
func ZeroString(s *string) {
	if s != nil {
		*s = ""
	}
}
