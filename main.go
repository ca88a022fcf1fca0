package main

import (
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"
	"sort"

	"github.com/mrdg/cue/audio"
	"github.com/mrdg/cue/config"
)

func main() {
	var (
		configPath = flag.String("config", "", "config file (default ~/.config/cue/config.json)")
		bpm        = flag.Float64("bpm", 0, "tempo, overrides the config")
		sounds     = flag.String("sounds", "", "glob of WAV files mapped to keys, overrides the config")
		run        = flag.String("run", "", "file of commands to run before starting")
		render     = flag.String("render", "", "write the output to this WAV file instead of playing it")
		seconds    = flag.Float64("seconds", 8, "length of the output written with -render")
	)
	flag.Parse()

	cfg, err := loadConfig(*configPath)
	if err != nil {
		log.Fatal(err)
	}
	if *bpm != 0 {
		cfg.BPM = *bpm
	}
	if *sounds != "" {
		cfg.Kit.Sounds = *sounds
	}
	if err := cfg.Validate(); err != nil {
		log.Fatal(err)
	}
	params := cfg.Params()

	env, mixer, err := setup(cfg, os.Stdout)
	if err != nil {
		log.Fatal(err)
	}

	if *run != "" {
		f, err := os.Open(*run)
		if err != nil {
			log.Fatal(err)
		}
		err = env.runScript(f)
		f.Close()
		if err != nil {
			log.Fatalf("%s: %v", *run, err)
		}
	}

	if *render != "" {
		if err := renderFile(*render, mixer, params, int(*seconds*params.SampleRate)); err != nil {
			log.Fatal(err)
		}
		return
	}

	sink, err := audio.NewSink(mixer, params)
	if err != nil {
		log.Fatal(err)
	}
	defer sink.Stop()
	if err := sink.Start(); err != nil {
		log.Fatal(err)
	}

	if err := repl(env); err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
}

func loadConfig(path string) (*config.Config, error) {
	if path == "" {
		return config.Load()
	}
	return config.LoadFile(path)
}

// setup creates the sequencer and a sampler named drums loaded with the kit
// from cfg, and a mixer that plays them.
func setup(cfg *config.Config, out io.Writer) (*env, *audio.Mixer, error) {
	params := cfg.Params()
	seq := audio.NewSequencer(audio.NewProps(), params)
	if err := seq.Set("bpm", cfg.BPM); err != nil {
		return nil, nil, err
	}
	drums := audio.Sampler(audio.NewProps(), params)

	e := &env{
		sequencer: seq,
		devices: map[string]audio.Device{
			"seq":   seq,
			"drums": drums,
		},
		out: out,
	}
	if err := loadKit(e, "drums", cfg.Kit); err != nil {
		return nil, nil, err
	}

	var mixer audio.Mixer
	mixer.AddTicker(seq)
	mixer.AddSources(drums)
	return e, &mixer, nil
}

func loadKit(env *env, device string, kit config.KitConfig) error {
	if kit.Sounds != "" {
		files, err := filepath.Glob(kit.Sounds)
		if err != nil {
			return err
		}
		sort.Strings(files)
		for i, file := range files {
			sound, err := audio.LoadSound(file)
			if err != nil {
				return err
			}
			if err := mapSound(env, device, kit.RootKey+i, sound); err != nil {
				log.Printf("kit: skipping %s: %v", file, err)
			}
		}
	}
	if kit.Preset != "" {
		dev, err := env.device(device)
		if err != nil {
			return err
		}
		if err := audio.LoadPreset(kit.Preset, dev); err != nil {
			return err
		}
	}
	return nil
}

func renderFile(path string, mixer *audio.Mixer, params audio.Params, frames int) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := audio.Render(f, mixer, params, frames); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}
