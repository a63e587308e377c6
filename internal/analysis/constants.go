package analysis

const (
	// q31One is 1.0 in Q31.
	q31One = 1 << 31

	// fullScale24 is the largest 24-bit sample magnitude.
	fullScale24 = 1<<23 - 1

	// Shorter kernels convolve faster directly with SIMD.
	minKernelForFFT = 256

	defaultFFTBlockSize = 512

	// A real FFT of size N has N/2+1 unique coefficients.
	fftHermitianDivisor = 2

	// Band edges as fractions of the output sample rate.
	passbandEdge = 0.4
	nyquistEdge  = 0.5
	stopbandEdge = 0.6

	// Frequency grid step used when scanning bands, in Hz.
	scanStepHz = 50.0

	// Hann main lobe half-width plus one bin of margin.
	toneLobeBins = 3

	// referenceAttenuation is the stopband target, in dB, of the Kaiser
	// designs the fixed stages are compared against.
	referenceAttenuation = 60.0

	// Blocks of filter settling discarded before a tone is measured.
	settleBlocks = 1

	floorDB = -200.0
)
