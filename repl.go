package main

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"sort"
	"strings"

	"github.com/chzyer/readline"
	"github.com/mrdg/cue/audio"
	"github.com/mrdg/cue/dub"
)

// stepSize is the resolution of match expressions: 16th notes.
const stepSize = 16

type env struct {
	sequencer *audio.Sequencer
	devices   map[string]audio.Device
	out       io.Writer
}

func (e *env) device(name string) (audio.Device, error) {
	dev, ok := e.devices[name]
	if !ok {
		return nil, fmt.Errorf("unknown device: %s", name)
	}
	return dev, nil
}

func (e *env) setProp(device, prop string, v interface{}) error {
	dev, err := e.device(device)
	if err != nil {
		return err
	}
	return dev.Set(prop, v)
}

func (e *env) getProp(device, prop string) (interface{}, error) {
	dev, err := e.device(device)
	if err != nil {
		return nil, err
	}
	return dev.Get(prop)
}

// updateClips applies f to a copy of the clip map and swaps it in, so the
// audio thread never sees a map that is being changed.
func (e *env) updateClips(f func(clips map[string]*audio.Clip) error) error {
	old := e.sequencer.Clips()
	clips := make(map[string]*audio.Clip, len(old))
	for k, v := range old {
		clips[k] = v
	}
	if err := f(clips); err != nil {
		return err
	}
	return e.sequencer.Set("clips", clips)
}

func (e *env) eval(input string) error {
	cmd, err := dub.Parse(input)
	if err != nil {
		return err
	}
	name := string(cmd.Name)
	for _, c := range commands {
		if name != c.name {
			continue
		}
		if err := c.run(e, cmd); err != nil {
			return fmt.Errorf("%s: %w", c.name, err)
		}
		return nil
	}
	return fmt.Errorf("unknown command: %s", name)
}

// runScript evaluates every line of r and stops at the first error.
func (e *env) runScript(r io.Reader) error {
	scanner := bufio.NewScanner(r)
	for n := 1; scanner.Scan(); n++ {
		err := e.eval(scanner.Text())
		if errors.Is(err, dub.ErrEmpty) {
			continue
		}
		if err != nil {
			return fmt.Errorf("line %d: %w", n, err)
		}
	}
	return scanner.Err()
}

func repl(env *env) error {
	rl, err := readline.New("> ")
	if err != nil {
		return err
	}
	defer rl.Close()

	for {
		line, err := rl.Readline()
		if err == io.EOF || err == readline.ErrInterrupt {
			return nil
		}
		if err != nil {
			fmt.Fprintln(env.out, err)
			continue
		}
		if err := env.eval(line); err != nil && !errors.Is(err, dub.ErrEmpty) {
			fmt.Fprintln(env.out, err)
		}
	}
}

type command struct {
	name  string
	usage string
	run   func(*env, dub.Command) error
}

var commands []command

func init() {
	commands = []command{
		{"loop", "loop <clip> <device> <beats> <pitch> '<match>", loopCommand},
		{"level", "level <clip> <beat> <db>", levelCommand},
		{"clear", "clear <clip>", clearCommand},
		{"set", "set <device> <prop> <value>", setCommand},
		{"load-sound", `load-sound <device> "<file>" <key>`, loadSoundCommand},
		{"preset", "preset <device> <name>", presetCommand},
		{"bpm", "bpm <bpm>", bpmCommand},
		{"show", "show", showCommand},
		{"help", "help", helpCommand},
	}
}

func setCommand(env *env, cmd dub.Command) error {
	var device, prop string
	var value dub.Node
	if err := cmd.Scan(&device, &prop, &value); err != nil {
		return err
	}
	switch v := value.(type) {
	case dub.Int:
		return env.setProp(device, prop, int(v))
	case dub.Float:
		return env.setProp(device, prop, float64(v))
	case dub.String:
		return env.setProp(device, prop, string(v))
	case dub.Identifier:
		return env.setProp(device, prop, string(v))
	default:
		return fmt.Errorf("unsupported property type: %v", v)
	}
}

func loadSoundCommand(env *env, cmd dub.Command) error {
	var device, file string
	var key int
	if err := cmd.Scan(&device, &file, &key); err != nil {
		return err
	}
	sound, err := audio.LoadSound(file)
	if err != nil {
		return err
	}
	return mapSound(env, device, key, sound)
}

func mapSound(env *env, device string, key int, sound *audio.Sound) error {
	v, err := env.getProp(device, audio.PropSoundMap)
	if err != nil {
		return err
	}
	mapping, ok := v.(*audio.SoundMapping)
	if !ok {
		return fmt.Errorf("cannot convert %v to sound mapping", v)
	}
	m := *mapping
	if err := m.Put(key, sound); err != nil {
		return err
	}
	return env.setProp(device, audio.PropSoundMap, &m)
}

func presetCommand(env *env, cmd dub.Command) error {
	var device, name string
	if err := cmd.Scan(&device, &name); err != nil {
		return err
	}
	dev, err := env.device(device)
	if err != nil {
		return err
	}
	return audio.LoadPreset(name, dev)
}

func bpmCommand(env *env, cmd dub.Command) error {
	var bpm float64
	if err := cmd.Scan(&bpm); err != nil {
		return err
	}
	return env.sequencer.Set("bpm", bpm)
}

// loopCommand sets the notes of one pitch in a clip. Other pitches in the
// clip are kept, so a pattern is built one line per sound.
func loopCommand(env *env, cmd dub.Command) error {
	var clipName, device string
	var beats, pitch int
	var match dub.MatchExpr
	if err := cmd.Scan(&clipName, &device, &beats, &pitch, &match); err != nil {
		return err
	}
	if beats < 1 {
		return fmt.Errorf("clip needs at least one beat: %d", beats)
	}
	dev, err := env.device(device)
	if err != nil {
		return err
	}
	playable, ok := dev.(audio.Playable)
	if !ok {
		return fmt.Errorf("device is not playable: %s", device)
	}
	steps, err := dub.EvalMatchExpr(match, beats, 4, stepSize, false)
	if err != nil {
		return err
	}
	return env.updateClips(func(clips map[string]*audio.Clip) error {
		clip, ok := clips[clipName]
		if ok && clip.Instrument() == playable && clip.Beats() == float64(beats) {
			clip = clip.Clone()
			clip.RemovePitch(pitch)
		} else {
			clip = audio.NewClip(float64(beats), playable)
		}
		stepLength := 4.0 / stepSize
		for i, on := range steps {
			if on != 0 {
				clip.AddNote(float64(i)*stepLength, pitch, 100, stepLength)
			}
		}
		clips[clipName] = clip
		return nil
	})
}

func levelCommand(env *env, cmd dub.Command) error {
	var clipName string
	var beat, db float64
	if err := cmd.Scan(&clipName, &beat, &db); err != nil {
		return err
	}
	return env.updateClips(func(clips map[string]*audio.Clip) error {
		clip, ok := clips[clipName]
		if !ok {
			return fmt.Errorf("unknown clip: %s", clipName)
		}
		if beat < 0 || beat >= clip.Beats() {
			return fmt.Errorf("beat %v is outside of clip %s", beat, clipName)
		}
		if _, ok := clip.Instrument().(audio.Automatable); !ok {
			return fmt.Errorf("level of clip %s cannot be automated", clipName)
		}
		clip = clip.Clone()
		clip.AddLevel(beat, db)
		clips[clipName] = clip
		return nil
	})
}

func clearCommand(env *env, cmd dub.Command) error {
	var clipName string
	if err := cmd.Scan(&clipName); err != nil {
		return err
	}
	return env.updateClips(func(clips map[string]*audio.Clip) error {
		if _, ok := clips[clipName]; !ok {
			return fmt.Errorf("unknown clip: %s", clipName)
		}
		delete(clips, clipName)
		return nil
	})
}

func showCommand(env *env, cmd dub.Command) error {
	if err := cmd.Scan(); err != nil {
		return err
	}
	renderState(env, env.out)
	return nil
}

func helpCommand(env *env, cmd dub.Command) error {
	var usages []string
	for _, c := range commands {
		usages = append(usages, c.usage)
	}
	sort.Strings(usages)
	fmt.Fprintln(env.out, strings.Join(usages, "\n"))
	return nil
}
