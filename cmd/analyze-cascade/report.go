package main

import (
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/tphakala/go-audio-recorder/internal/analysis"
	"github.com/tphakala/go-audio-recorder/internal/pcm"
)

const (
	tabMinWidth = 0
	tabWidth    = 8
	tabPadding  = 2
)

// Test tones as fractions of the output rate: passband, either side of
// Nyquist, and well into the stopband.
var toneFractions = []float64{0.1, 0.45, 0.55, 0.8, 1.3}

// passbandToneHz is always measured, below every output rate's passband edge.
const passbandToneHz = 1000.0

func newTabWriter(w io.Writer) *tabwriter.Writer {
	return tabwriter.NewWriter(w, tabMinWidth, tabWidth, tabPadding, ' ', tabwriter.AlignRight)
}

// writeCascade prints one cascade report.
func writeCascade(w io.Writer, r *analysis.CascadeReport) {
	fmt.Fprintf(w, "=== %s: /%d in %d stages, equivalent filter %d taps ===\n",
		r.Rate, r.Factor, len(r.Stages), r.NumTaps)

	tw := newTabWriter(w)
	fmt.Fprintln(tw, "stage\tinput Hz\tfactor\ttaps\tDC gain\tNyquist dB\tstopband dB\tKaiser dB\ttransition Hz\tKaiser taps\t")
	for i, s := range r.Stages {
		fmt.Fprintf(tw, "%d\t%.0f\t%d\t%d\t%.4f\t%.2f\t%.2f\t%.2f\t%.0f\t%d\t\n",
			i, s.InputRate, s.Factor, s.NumTaps, s.DCGain, s.NyquistDB, s.StopbandDB, s.ReferenceStopbandDB,
			s.TransitionHz, s.ReferenceTaps)
	}
	_ = tw.Flush()

	fmt.Fprintf(w, "DC gain %.4f, passband %+.2f/%+.2f dB, Nyquist %.2f dB, stopband %.2f dB\n",
		r.DCGain, r.PassbandMinDB, r.PassbandMaxDB, r.NyquistDB, r.StopbandDB)
}

// measureTones runs the standard test tones for rate through the bank. Tones
// at or above the native Nyquist frequency are skipped.
func measureTones(rate pcm.SampleRate, amplitude float64, blocks int) ([]analysis.ToneMeasurement, error) {
	freqs := []float64{passbandToneHz}
	for _, f := range toneFractions {
		freqs = append(freqs, f*float64(rate))
	}

	out := make([]analysis.ToneMeasurement, 0, len(freqs))
	for _, f := range freqs {
		if f >= float64(pcm.NativeRate)/2 {
			continue
		}
		m, err := analysis.MeasureTone(rate, f, amplitude, blocks)
		if err != nil {
			return nil, err
		}
		out = append(out, m)
	}
	return out, nil
}

// writeTones prints tone measurements.
func writeTones(w io.Writer, ms []analysis.ToneMeasurement) {
	tw := newTabWriter(w)
	fmt.Fprintln(tw, "tone Hz\talias Hz\tgain\tgain dB\tlevel dBFS\t")
	for _, m := range ms {
		fmt.Fprintf(tw, "%.0f\t%.0f\t%.5f\t%.2f\t%.2f\t\n", m.Frequency, m.AliasFrequency, m.Gain, m.GainDB, m.LevelDB)
	}
	_ = tw.Flush()
}

// writeSpectrum prints the strongest spectral peaks of a tone measurement's
// decimated output.
func writeSpectrum(w io.Writer, m *analysis.ToneMeasurement, peaks int) {
	fmt.Fprintf(w, "spectrum of %.0f Hz at %s:\n", m.Frequency, m.Rate)

	freqs, amp := analysis.Spectrum(m.Output, float64(m.Rate))
	tw := newTabWriter(w)
	fmt.Fprintln(tw, "Hz\tamplitude\tdBFS\t")
	for _, p := range analysis.Peaks(freqs, amp, peaks) {
		fmt.Fprintf(tw, "%.1f\t%.6f\t%.2f\t\n", p.Frequency, p.Amplitude, p.LevelDB)
	}
	_ = tw.Flush()
}
