package decimate

import "github.com/tphakala/go-audio-recorder/internal/pcm"

// Q31 lowpass designs for each decimation step. Every table is symmetric, so
// the time-reversed order the FIR engine expects is the same as the stored
// order. First-stage tables are scaled to roughly 0.7 DC gain to leave
// headroom for transient peaks in the full-scale native stream.

var taps192k0 = []int32{
	-21932835, -31283673, 20226235, 65093442, -23389170, -137747312, 30271796, 477147941,
	730493753,
	477147941, 30271796, -137747312, -23389170, 65093442, 20226235, -31283673, -21932835,
}

var taps96k0 = []int32{
	-20749647, -66609278, 51582801, 442242045, 691682165, 442242045, 51582801, -66609278, -20749647,
}

var taps96k1 = []int32{
	-3229201, 1658598, 16721610, 16330065, -12855261, -23661054, 18450717, 41258441,
	-22628821, -68277309, 26456118, 114386501, -29451143, -213892037, 31368109, 678814008,
	1041713732,
	678814008, 31368109, -213892037, -29451143, 114386501, 26456118, -68277309, -22628821,
	41258441, 18450717, -23661054, -12855261, 16330065, 16721610, 1658598, -3229201,
}

var taps48k0 = []int32{
	-42201666, 18023525, 423595866, 727113801, 423595866, 18023525, -42201666,
}

var taps48k1 = []int32{
	-35829136, -93392547, 90204797, 624894336, 955274946, 624894336, 90204797, -93392547, -35829136,
}

var taps48k2 = []int32{
	-2823963, 804105, 13756249, 13832557, -12099816, -21810016, 17681236, 39284877,
	-22118934, -66381589, 26258540, 112809109, -29540929, -212849373, 31655722, 678451831,
	1041361918,
	678451831, 31655722, -212849373, -29540929, 112809109, 26258540, -66381589, -22118934,
	39284877, 17681236, -21810016, -12099816, 13832557, 13756249, 804105, -2823963,
}

var taps32k0 = []int32{
	-44988434, 8328033, 424987782, 743421426, 424987782, 8328033, -44988434,
}

var taps24k0 = []int32{
	87026071, 382177371, 589816446, 382177371, 87026071,
}

var taps24k1 = []int32{
	-59682168, 25489114, 599055019, 1028294198, 599055019, 25489114, -59682168,
}

var taps24k2 = []int32{
	-35829136, -93392547, 90204797, 624894336, 955274946, 624894336, 90204797, -93392547, -35829136,
}

var taps24k3 = []int32{
	-2823963, 804105, 13756249, 13832557, -12099816, -21810016, 17681236, 39284877,
	-22118934, -66381589, 26258540, 112809109, -29540929, -212849373, 31655722, 678451831,
	1041361918,
	678451831, 31655722, -212849373, -29540929, 112809109, 26258540, -66381589, -22118934,
	39284877, 17681236, -21810016, -12099816, 13832557, 13756249, 804105, -2823963,
}

var taps16k0 = []int32{
	86385383, 380767973, 588547483, 380767973, 86385383,
}

var taps16k1 = []int32{
	-63623254, 11777617, 601023485, 1051356664, 601023485, 11777617, -63623254,
}

// taps16k2 is shared with the second 32 kHz stage.
var taps16k2 = []int32{
	-27728029, -77658950, 90916825, 613537738, 945568961, 613537738, 90916825, -77658950, -27728029,
}

// taps16k3 is the final 3:1 stage, shared with the 32 kHz cascade.
var taps16k3 = []int32{
	544679, 5591621, 10519170, 11396576, 3740919, -9199321, -16459240, -8186184,
	12423382, 27105429, 17140829, -15659956, -43184586, -32667249, 18552286, 68866053,
	61256147, -20863109, -119392334, -129148756, 22338651, 303309288, 578589578,
	692986716,
	578589578, 303309288, 22338651, -129148756, -119392334, -20863109, 61256147,
	68866053, 18552286, -32667249, -43184586, -15659956, 17140829, 27105429, 12423382,
	-8186184, -16459240, -9199321, 3740919, 11396576, 10519170, 5591621, 544679,
}

// cascadeTable lists the stage ladder for every supported output rate. The
// 3:1 step always comes last, once the signal has been brought down to
// 48 kHz and its band is narrow enough for the 47-tap design.
var cascadeTable = []CascadeSpec{
	{
		Rate: pcm.Rate192kHz,
		Stages: []StageSpec{
			{Taps: taps192k0, Factor: 2},
		},
	},
	{
		Rate: pcm.Rate96kHz,
		Stages: []StageSpec{
			{Taps: taps96k0, Factor: 2},
			{Taps: taps96k1, Factor: 2},
		},
	},
	{
		Rate: pcm.Rate48kHz,
		Stages: []StageSpec{
			{Taps: taps48k0, Factor: 2},
			{Taps: taps48k1, Factor: 2},
			{Taps: taps48k2, Factor: 2},
		},
	},
	{
		Rate: pcm.Rate32kHz,
		Stages: []StageSpec{
			{Taps: taps32k0, Factor: 2},
			{Taps: taps16k2, Factor: 2},
			{Taps: taps16k3, Factor: 3},
		},
	},
	{
		Rate: pcm.Rate24kHz,
		Stages: []StageSpec{
			{Taps: taps24k0, Factor: 2},
			{Taps: taps24k1, Factor: 2},
			{Taps: taps24k2, Factor: 2},
			{Taps: taps24k3, Factor: 2},
		},
	},
	{
		Rate: pcm.Rate16kHz,
		Stages: []StageSpec{
			{Taps: taps16k0, Factor: 2},
			{Taps: taps16k1, Factor: 2},
			{Taps: taps16k2, Factor: 2},
			{Taps: taps16k3, Factor: 3},
		},
	},
}
