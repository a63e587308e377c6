// Command analyze-cascade prints the measured response of the fixed
// decimation cascades: per-stage DC gain and attenuation next to a Kaiser
// reference of the same length, the equivalent filter's passband and
// stopband, and the level of test tones after real decimation.
//
// Usage:
//
//	analyze-cascade              # every output rate
//	analyze-cascade -rate 16     # one rate
//	analyze-cascade -tones=false # filter response only
//	analyze-cascade -rate 48 -spectrum 30000 -peaks 8
package main

import (
	"flag"
	"fmt"
	"log"
	"math"
	"os"

	"github.com/tphakala/simd/cpu"

	"github.com/tphakala/go-audio-recorder/internal/analysis"
	"github.com/tphakala/go-audio-recorder/internal/pcm"
)

const (
	kHzToHz = 1000

	defaultAmplitude = 0.5
	defaultBlocks    = 6
	defaultPeaks     = 5
)

func main() {
	if err := run(); err != nil {
		log.Fatal(err)
	}
}

func run() error {
	rateKHz := flag.Float64("rate", 0, "Output rate in kHz to analyze (0 analyzes all)")
	tones := flag.Bool("tones", true, "Measure test tones through the filter bank")
	amplitude := flag.Float64("amplitude", defaultAmplitude, "Test tone amplitude relative to full scale")
	blocks := flag.Int("blocks", defaultBlocks, "Native blocks per tone measurement")
	spectrumHz := flag.Float64("spectrum", 0, "Print the output spectrum of a tone at this frequency in Hz (0 disables)")
	peaks := flag.Int("peaks", defaultPeaks, "Spectral peaks to print with -spectrum")
	flag.Parse()

	reports := analysis.AnalyzeAll()
	if *rateKHz != 0 {
		want := pcm.SampleRate(math.Round(*rateKHz * kHzToHz))
		reports = filterReports(reports, want)
		if len(reports) == 0 {
			return fmt.Errorf("no cascade for %g kHz", *rateKHz)
		}
	}

	fmt.Printf("SIMD: %s\n", cpu.Info())

	for _, r := range reports {
		fmt.Println()
		writeCascade(os.Stdout, &r)

		if !*tones {
			continue
		}
		measurements, err := measureTones(r.Rate, *amplitude, *blocks)
		if err != nil {
			return fmt.Errorf("%s: %w", r.Rate, err)
		}
		writeTones(os.Stdout, measurements)
	}

	if *spectrumHz > 0 {
		for _, r := range reports {
			m, err := analysis.MeasureTone(r.Rate, *spectrumHz, *amplitude, *blocks)
			if err != nil {
				return fmt.Errorf("%s spectrum: %w", r.Rate, err)
			}
			fmt.Println()
			writeSpectrum(os.Stdout, &m, *peaks)
		}
	}

	return nil
}

func filterReports(reports []analysis.CascadeReport, rate pcm.SampleRate) []analysis.CascadeReport {
	for _, r := range reports {
		if r.Rate == rate {
			return []analysis.CascadeReport{r}
		}
	}
	return nil
}
