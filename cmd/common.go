package cmd

import (
	"fmt"
	"os"

	"github.com/GiGurra/boa/pkg/boa"
	"golang.org/x/term"

	"github.com/greyveil/bard/cmd/audio"
	"github.com/greyveil/bard/cmd/settings"
)

func defaultParamEnricher() boa.ParamEnricher {
	return boa.ParamEnricherCombine(
		boa.ParamEnricherBool,
		boa.ParamEnricherName,
		boa.ParamEnricherShort,
	)
}

// settingsPath resolves an explicit --settings flag against the default
// location.
func settingsPath(flag string) (string, error) {
	if flag != "" {
		return flag, nil
	}
	path := settings.DefaultPath()
	if path == "" {
		return "", fmt.Errorf("could not determine settings location, pass --settings")
	}
	return path, nil
}

func loadSettings(flag string) (audio.Settings, string, error) {
	path, err := settingsPath(flag)
	if err != nil {
		return audio.Settings{}, "", err
	}
	s, err := settings.Load(path)
	if err != nil {
		return audio.Settings{}, "", fmt.Errorf("failed to load %s: %w", path, err)
	}
	return s, path, nil
}

func getTermWidth() int {
	if width, _, err := term.GetSize(int(os.Stdout.Fd())); err == nil && width > 0 {
		return width
	}
	if width, _, err := term.GetSize(int(os.Stderr.Fd())); err == nil && width > 0 {
		return width
	}
	return 120
}
