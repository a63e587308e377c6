package source

const (
	// fullScale24 is the largest positive 24-bit sample value.
	fullScale24 = 1<<23 - 1

	// bytesPerSample is the width of one native sample on the wire.
	bytesPerSample = 3

	// nativeChannels is the channel count delivered by the converter.
	nativeChannels = 1
)
