package main

import (
	"fmt"
	"io"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	"github.com/mrdg/cue/audio"
)

// dropper is implemented by devices that count lost events.
type dropper interface {
	Dropped() uint64
}

func renderState(env *env, w io.Writer) {
	bpm, _ := env.getProp("seq", "bpm")
	fmt.Fprintf(w, "♩ = %v\n", bpm)

	clips := env.sequencer.Clips()
	var names []string
	for name := range clips {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		renderClip(env, w, name, clips[name])
	}

	var devices []string
	for name := range env.devices {
		devices = append(devices, name)
	}
	sort.Strings(devices)
	for _, name := range devices {
		if d, ok := env.devices[name].(dropper); ok {
			fmt.Fprintf(w, "%s: %d dropped events\n", colorize(name, colorGreen), d.Dropped())
		}
	}
}

func renderClip(env *env, w io.Writer, name string, clip *audio.Clip) {
	beats := int(clip.Beats())
	fmt.Fprintf(w, "\n%s (%v beats)\n", colorize(name, colorGreen), clip.Beats())

	var labels []string
	var maxNameLen int
	for _, pitch := range clip.Pitches() {
		label := strconv.Itoa(pitch) + " " + soundName(clip.Instrument(), pitch)
		labels = append(labels, label)
		if len(label) > maxNameLen {
			maxNameLen = len(label)
		}
	}
	maxNameLen += 1

	const stepsPerBeat = stepSize / 4
	const spacePerStep = 4
	var icons []string
	for i := 1; i <= beats; i++ {
		icons = append(icons, numIcon(i))
	}
	spacing := stepsPerBeat*spacePerStep - 1
	fmt.Fprintf(w, "%s  %s\n", strings.Repeat(" ", maxNameLen), strings.Join(icons, strings.Repeat(" ", spacing)))

	for i, pitch := range clip.Pitches() {
		var steps string
		for _, on := range clip.Grid(pitch, beats*stepsPerBeat) {
			step := "⬜️"
			if on {
				step = "⬛️"
			}
			steps += step + "  "
		}
		fmt.Fprintf(w, "%s %s\n", formatSampleName(labels[i], maxNameLen), steps)
	}

	var levels []string
	clip.LevelPoints(func(beat, db float64) {
		levels = append(levels, fmt.Sprintf("%v: %+.1fdB", beat, db))
	})
	if len(levels) > 0 {
		fmt.Fprintf(w, "%s %s\n", strings.Repeat(" ", maxNameLen), colorize(strings.Join(levels, "  "), colorMagenta))
	}
}

// soundName returns the name of the sound a sampler plays for pitch.
func soundName(p audio.Playable, pitch int) string {
	dev, ok := p.(audio.Device)
	if !ok {
		return ""
	}
	v, err := dev.Get(audio.PropSoundMap)
	if err != nil {
		return ""
	}
	mapping, ok := v.(*audio.SoundMapping)
	if !ok {
		return ""
	}
	if snd := mapping.Get(pitch); snd != nil {
		return displayName(snd.File())
	}
	return ""
}

func formatSampleName(sample string, max int) string {
	if len(sample) > max {
		sample = sample[:max-1]
		sample += "…"
	}
	if len(sample) < max {
		sample += strings.Repeat(" ", max-len(sample))
	}
	return colorize(sample, colorBlue)
}

func displayName(filename string) string {
	filename = filepath.Base(filename)
	return filename[:len(filename)-len(filepath.Ext(filename))]
}

func numIcon(n int) string {
	// https://www.unicode.org/emoji/charts/full-emoji-list.html#0030_fe0f_20e3
	return string([]byte{48 + byte(n%10), 239, 184, 143, 226, 131, 163})
}

const (
	colorBlack = iota + 30
	colorRed
	colorGreen
	colorYellow
	colorBlue
	colorMagenta
)

func colorize(text string, color int) string {
	return fmt.Sprintf("\033[%dm%s\033[0m", color, text)
}
