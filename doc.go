// Package recorder implements the signal path of a continuous digital audio
// recorder in pure Go.
//
// Acquisition hardware delivers fixed-size blocks of 24-bit mono samples at
// 384 kHz. Each block passes through an acquisition ring that absorbs
// consumer jitter and then through a bank of fixed-point FIR decimation
// cascades that convert it to the selected output rate and bit depth.
//
// # Features
//
//   - Lock-free single-producer single-consumer ring with sticky overrun
//     detection and overwrite-oldest semantics
//   - Q31 decimating FIR cascades for 192, 96, 48, 32, 24 and 16 kHz, with
//     filter memory carried across blocks
//   - 16-bit and 24-bit little-endian output by truncation
//   - Synthetic tone and WAV replay sources standing in for the hardware
//   - WAV file sink
//
// # Quick Start
//
// Record five seconds of a test tone to a WAV file:
//
//	cfg := recorder.DefaultConfig()
//	src, err := recorder.NewToneSource(&cfg, 1000, 0.5, 0)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	f, _ := os.Create("out.wav")
//	sink, err := recorder.NewWAVSink(f, &cfg)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	stats, err := recorder.Record(ctx, &cfg, src, sink, 5*time.Second)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	_ = sink.Close()
//
// For control over the driving loop, create a [Recorder] with [New], call
// [Recorder.Start] and poll [Recorder.Step] from a single goroutine:
//
//	r, err := recorder.New(&cfg, src)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	if err := r.Start(ctx); err != nil {
//	    log.Fatal(err)
//	}
//	defer r.Stop()
//	for {
//	    if _, err := r.Step(sink); errors.Is(err, recorder.ErrOverrun) {
//	        log.Printf("gap in recording")
//	        r.ClearOverrun()
//	    }
//	}
//
// # Overrun
//
// The consumer must convert each block within one block period on average.
// When it falls more than RingCapacity blocks behind, the producer overwrites
// unread blocks and the ring raises a sticky overrun flag. [Recorder.Step]
// and [Recorder.Run] report it as [ErrOverrun]; whether to abort or continue
// with a gap is the caller's choice. A block converted while the backlog
// already stands at RingCapacity may be partly overwritten as it is read.
//
// # Switching Rates
//
// [Recorder.SetTarget] selects a different output rate between blocks. The
// newly selected cascade always starts from zeroed filter memory, so output
// after a switch never depends on audio processed before it.
package recorder
