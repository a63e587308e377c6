package analysis

import (
	"math"

	"github.com/tphakala/go-audio-recorder/internal/decimate"
	"github.com/tphakala/go-audio-recorder/internal/filter"
	"github.com/tphakala/go-audio-recorder/internal/mathutil"
	"github.com/tphakala/go-audio-recorder/internal/pcm"
)

// StageReport describes one fixed decimation stage.
type StageReport struct {
	InputRate float64
	Factor    int
	NumTaps   int
	DCGain    float64

	// NyquistDB is the response at the stage's output Nyquist frequency,
	// relative to DC.
	NyquistDB float64

	// StopbandDB is the worst response, relative to DC, over the band that
	// folds back below 0.4 of the stage output rate.
	StopbandDB float64

	// ReferenceStopbandDB is StopbandDB for a Kaiser design of the same
	// length and factor.
	ReferenceStopbandDB float64

	// TransitionHz is the transition width, at the stage input, that a
	// Kaiser design of NumTaps reaches at the reference attenuation.
	TransitionHz float64

	// ReferenceTaps is the Kaiser length needed for the reference
	// attenuation across the stage's own guard band, from 0.4 to 0.6 of the
	// output rate.
	ReferenceTaps int
}

// CascadeReport describes the equivalent filter of one cascade.
type CascadeReport struct {
	Rate    pcm.SampleRate
	Factor  int
	NumTaps int
	DCGain  float64
	Stages  []StageReport

	// PassbandMinDB and PassbandMaxDB bound the response over
	// [0, 0.4·Rate], relative to DC.
	PassbandMinDB float64
	PassbandMaxDB float64

	// NyquistDB is the response at Rate/2 relative to DC.
	NyquistDB float64

	// StopbandDB is the worst response relative to DC over
	// [0.6·Rate, native Nyquist].
	StopbandDB float64
}

// Response returns the linear magnitude of coeffs, running at sampleRate, at
// each frequency in Hz.
func Response(coeffs []float64, sampleRate float64, freqs []float64) []float64 {
	out := make([]float64, len(freqs))
	for i, f := range freqs {
		out[i] = filter.ResponseAt(coeffs, f/sampleRate)
	}
	return out
}

// bandExtremes scans [lo, hi] Hz in scanStepHz steps and returns the minimum
// and maximum magnitude of coeffs relative to ref, in dB.
func bandExtremes(coeffs []float64, sampleRate, lo, hi, ref float64) (minDB, maxDB float64) {
	var freqs []float64
	for f := lo; f <= hi; f += scanStepHz {
		freqs = append(freqs, f)
	}

	minDB, maxDB = math.Inf(1), math.Inf(-1)
	for _, m := range Response(coeffs, sampleRate, freqs) {
		db := filter.MagnitudeDB(m / ref)
		minDB = min(minDB, db)
		maxDB = max(maxDB, db)
	}
	return minDB, maxDB
}

// AnalyzeStage reports on one stage whose input runs at inputRate.
func AnalyzeStage(spec decimate.StageSpec, inputRate float64) StageReport {
	coeffs := CoefficientsToFloat(spec.Taps)
	dc := DCGain(spec.Taps)
	outRate := inputRate / float64(spec.Factor)

	r := StageReport{
		InputRate: inputRate,
		Factor:    spec.Factor,
		NumTaps:   len(spec.Taps),
		DCGain:    dc,
		NyquistDB: filter.MagnitudeDB(filter.ResponseAt(coeffs, nyquistEdge/float64(spec.Factor)) / dc),
	}

	// Content at outRate-f aliases onto f.
	lo := outRate * (1 - passbandEdge)
	_, r.StopbandDB = bandExtremes(coeffs, inputRate, lo, inputRate/2, dc)

	r.ReferenceStopbandDB = floorDB
	if ref, err := filter.DesignDecimator(len(spec.Taps), spec.Factor, referenceAttenuation, dc); err == nil {
		_, r.ReferenceStopbandDB = bandExtremes(ref, inputRate, lo, inputRate/2, dc)
	}

	r.TransitionHz = mathutil.EstimateTransitionBW(referenceAttenuation, r.NumTaps) * inputRate
	guard := (1 - 2*passbandEdge) / float64(spec.Factor)
	r.ReferenceTaps = mathutil.EstimateFilterLength(referenceAttenuation, guard)

	return r
}

// AnalyzeCascade reports on every stage of spec and on its equivalent filter.
func AnalyzeCascade(spec decimate.CascadeSpec) CascadeReport {
	native := float64(pcm.NativeRate)
	rate := float64(spec.Rate)

	h := EquivalentFilter(spec)
	r := CascadeReport{
		Rate:    spec.Rate,
		Factor:  spec.Factor(),
		NumTaps: len(h),
		DCGain:  filter.ResponseAt(h, 0),
		Stages:  make([]StageReport, len(spec.Stages)),
	}

	in := native
	for i, s := range spec.Stages {
		r.Stages[i] = AnalyzeStage(s, in)
		in /= float64(s.Factor)
	}

	if r.DCGain == 0 {
		r.PassbandMinDB, r.PassbandMaxDB = floorDB, floorDB
		r.NyquistDB, r.StopbandDB = floorDB, floorDB
		return r
	}

	r.PassbandMinDB, r.PassbandMaxDB = bandExtremes(h, native, 0, passbandEdge*rate, r.DCGain)
	r.NyquistDB = filter.MagnitudeDB(filter.ResponseAt(h, nyquistEdge*rate/native) / r.DCGain)
	_, r.StopbandDB = bandExtremes(h, native, stopbandEdge*rate, native/2, r.DCGain)

	return r
}

// AnalyzeAll reports on every built-in cascade.
func AnalyzeAll() []CascadeReport {
	specs := decimate.Specs()
	out := make([]CascadeReport, len(specs))
	for i, s := range specs {
		out[i] = AnalyzeCascade(s)
	}
	return out
}
