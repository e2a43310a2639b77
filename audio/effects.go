package audio

import (
	"math"
	"math/rand/v2"
	"time"

	"github.com/gopxl/beep"
	"github.com/gopxl/beep/effects"
)

// WaveType defines oscillator wave shapes
type WaveType int

const (
	WaveSine WaveType = iota
	WaveSquare
	WaveNoise
)

// oscillator generates a fixed-length wave whose pitch glides linearly from
// startFreq to endFreq
type oscillator struct {
	startFreq float64
	endFreq   float64
	phase     float64
	total     int
	pos       int
	wave      WaveType
	rate      beep.SampleRate
	noise     *rand.Rand
}

// NewOscillator creates a gliding oscillator; equal frequencies give a steady tone
func NewOscillator(startFreq, endFreq float64, duration time.Duration, wave WaveType, rate beep.SampleRate) beep.Streamer {
	return &oscillator{
		startFreq: startFreq,
		endFreq:   endFreq,
		total:     rate.N(duration),
		wave:      wave,
		rate:      rate,
		noise:     rand.New(rand.NewPCG(1, 2)),
	}
}

func (o *oscillator) Stream(samples [][2]float64) (n int, ok bool) {
	if o.pos >= o.total {
		return 0, false
	}
	for i := range samples {
		if o.pos >= o.total {
			return i, true
		}

		var val float64
		switch o.wave {
		case WaveSine:
			val = math.Sin(2 * math.Pi * o.phase)
		case WaveSquare:
			val = 1.0
			if o.phase >= 0.5 {
				val = -1.0
			}
		case WaveNoise:
			val = o.noise.Float64()*2 - 1
		}
		samples[i][0], samples[i][1] = val, val

		progress := float64(o.pos) / float64(o.total)
		freq := o.startFreq + (o.endFreq-o.startFreq)*progress
		o.phase += freq / float64(o.rate)
		o.phase -= math.Floor(o.phase)
		o.pos++
	}
	return len(samples), true
}

func (o *oscillator) Err() error { return nil }

// envelope shapes a stream with a linear attack then an exponential decay
type envelope struct {
	streamer beep.Streamer
	pos      int
	attack   int
	decay    float64 // per-sample gain multiplier after the attack
	gain     float64
}

// NewEnvelope applies an attack ramp, then decays the level by 60 dB over
// the decay time
func NewEnvelope(s beep.Streamer, attack, decay time.Duration, rate beep.SampleRate) beep.Streamer {
	e := &envelope{streamer: s, attack: rate.N(attack), decay: 1, gain: 1}
	if n := rate.N(decay); n > 0 {
		e.decay = math.Pow(0.001, 1/float64(n))
	}
	return e
}

func (e *envelope) Stream(samples [][2]float64) (n int, ok bool) {
	n, ok = e.streamer.Stream(samples)
	for i := 0; i < n; i++ {
		vol := e.gain
		if e.pos < e.attack {
			vol = float64(e.pos) / float64(e.attack)
		} else {
			e.gain *= e.decay
		}
		samples[i][0] *= vol
		samples[i][1] *= vol
		e.pos++
	}
	return n, ok
}

func (e *envelope) Err() error { return e.streamer.Err() }

// newVolume scales linear volume; math.Log2(0) is -Inf, so 0 is silent
func newVolume(s beep.Streamer, vol float64) beep.Streamer {
	if vol <= 0 {
		return &effects.Volume{Streamer: s, Base: 2, Volume: 0, Silent: true}
	}
	return &effects.Volume{Streamer: s, Base: 2, Volume: math.Log2(vol)}
}

// clickSound is the press feedback: a short falling blip over a noise transient
func clickSound(rate beep.SampleRate, vol float64) beep.Streamer {
	tone := NewEnvelope(NewOscillator(1800, 900, clickDuration, WaveSine, rate), clickAttack, clickDuration, rate)
	tick := NewEnvelope(NewOscillator(0, 0, clickNoiseDuration, WaveNoise, rate), 0, clickNoiseDuration, rate)

	return newVolume(beep.Mix(
		newVolume(tone, 0.8),
		newVolume(tick, 0.25),
	), vol)
}
