// Package audio plays the press click through the system speaker. Every
// operation degrades to a no-op when the device is missing or disabled.
package audio

import (
	"fmt"
	"sync"
	"time"

	"github.com/gopxl/beep"
	"github.com/gopxl/beep/speaker"
)

const (
	sampleRate         = beep.SampleRate(48000)
	speakerBuffer      = 100 * time.Millisecond
	clickDuration      = 60 * time.Millisecond
	clickAttack        = 2 * time.Millisecond
	clickNoiseDuration = 8 * time.Millisecond
)

// Player owns the speaker mixer
type Player struct {
	mu          sync.Mutex
	mixer       *beep.Mixer
	enabled     bool
	volume      float64
	initialized bool
}

// NewPlayer creates a player; nothing sounds until Init succeeds
func NewPlayer(enabled bool, volume float64) *Player {
	return &Player{
		mixer:   &beep.Mixer{},
		enabled: enabled,
		volume:  volume,
	}
}

// Init opens the speaker. A disabled player never touches the device.
func (p *Player) Init() error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.initialized || !p.enabled {
		return nil
	}
	if err := speaker.Init(sampleRate, sampleRate.N(speakerBuffer)); err != nil {
		return fmt.Errorf("speaker init: %w", err)
	}
	speaker.Play(p.mixer)
	p.initialized = true
	return nil
}

// Configure applies reloaded audio settings. Enabling a player that was
// never initialized still requires Init.
func (p *Player) Configure(enabled bool, volume float64) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.enabled = enabled
	p.volume = volume
}

// Click queues one press click
func (p *Player) Click() {
	p.mu.Lock()
	defer p.mu.Unlock()

	if !p.initialized || !p.enabled || p.volume <= 0 {
		return
	}
	speaker.Lock()
	p.mixer.Add(clickSound(sampleRate, p.volume))
	speaker.Unlock()
}

// Close silences pending sounds; safe without Init
func (p *Player) Close() {
	p.mu.Lock()
	defer p.mu.Unlock()

	if !p.initialized {
		return
	}
	speaker.Lock()
	p.mixer.Clear()
	speaker.Unlock()
	p.initialized = false
}
