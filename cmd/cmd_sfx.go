package cmd

import (
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/GiGurra/boa/pkg/boa"
	"github.com/samber/lo"
	"github.com/spf13/cobra"

	"github.com/greyveil/bard/cmd/audio"
)

type SfxParams struct {
	Settings string  `short:"s" help:"Settings file path (default: standard config location)." default:""`
	Dir      string  `short:"C" help:"Base directory for effect paths." default:"."`
	Volume   float64 `short:"v" help:"Override volume (0-100, -1 = use configured)." default:"-1"`
}

func SfxCmd() *cobra.Command {
	return boa.CmdT[SfxParams]{
		Use:         "sfx <name>",
		Short:       "Play a sound effect once",
		ParamEnrich: defaultParamEnricher(),
		RunFunc: func(params *SfxParams, cmd *cobra.Command, args []string) {
			if len(args) != 1 {
				fmt.Fprintln(os.Stderr, "sfx: expected exactly one effect name")
				os.Exit(1)
			}
			if err := runSfx(params, args[0]); err != nil {
				fmt.Fprintf(os.Stderr, "sfx: %v\n", err)
				os.Exit(1)
			}
		},
	}.ToCobra()
}

func runSfx(params *SfxParams, name string) error {
	if !audio.AudioAvailable {
		return audio.ErrAudioUnavailable
	}

	s, _, err := loadSettings(params.Settings)
	if err != nil {
		return err
	}

	effect, ok := s.EffectByName(name)
	if !ok {
		names := lo.Map(s.SoundEffects, func(e audio.SoundEffect, _ int) string {
			return e.Name
		})
		if len(names) == 0 {
			return fmt.Errorf("unknown effect %q (none configured, run: bard init)", name)
		}
		return fmt.Errorf("unknown effect %q (configured: %s)", name, strings.Join(names, ", "))
	}

	volume := s.SoundboardVolume
	if effect.Volume != nil {
		volume = *effect.Volume
	}
	if params.Volume >= 0 {
		volume = params.Volume
	}

	out := audio.NewOutput(audio.DirResolver{Root: params.Dir})
	defer out.Close()

	done := make(chan struct{})
	if err := out.Load(effect.FilePath, func() { close(done) }); err != nil {
		return err
	}
	out.SetVolume(volume)
	if err := out.Play(); err != nil {
		return err
	}

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, os.Interrupt, syscall.SIGTERM)
	select {
	case <-done:
	case <-sig:
		out.Stop()
	}
	return nil
}
