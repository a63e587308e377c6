package ring

const (
	// bytesPerRawSample is the width of one converter sample on the wire.
	bytesPerRawSample = 3

	// maxCapacity bounds the slot count so cursors fit comfortably in uint32.
	maxCapacity = 1 << 16
)
