package main

import (
	"context"
	"fmt"
	"os"

	tea "charm.land/bubbletea/v2"
	"github.com/clarktrimble/sabot"
	_ "github.com/marcboeker/go-duckdb"

	"visdom"
	"visdom/hash"
	"visdom/preset"
	"visdom/serial"
	"visdom/store/duck"
	"visdom/timer"
	"visdom/tui"
	"visdom/util"
)

const cfgPath = "visdom.yaml"

func main() {

	path := cfgPath
	if len(os.Args) > 1 {
		path = os.Args[1]
	}

	err := util.SampleConfig(visdom.SampleLayout, path, 0644)
	if err != nil {
		fatal(err)
	}

	layout, err := visdom.LoadLayout(path)
	if err != nil {
		fatal(err)
	}

	logFile := util.OpenLog(layout.LogPath, 0644)
	defer util.CloseLog(logFile)
	lgr := &sabot.Sabot{Writer: logFile, MaxLen: layout.Truncate}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	dk, err := duck.New(lgr)
	if err != nil {
		fatal(err)
	}
	defer dk.Close()

	err = layout.Load(dk)
	if err != nil {
		fatal(err)
	}

	loop := serial.NewLoop()
	mem := hash.NewMemory("")
	clock := timer.Real{Exec: loop}

	ctl, err := layout.Dashboard.New(ctx, dk, visdom.Charts(), mem, clock, loop, lgr)
	if err != nil {
		fatal(err)
	}

	var presets *preset.File
	if layout.PresetFile != "" {
		presets, err = preset.Load(layout.PresetFile, lgr)
		if err != nil {
			fatal(err)
		}

		err = presets.Watch(ctx, loop, func() {
			lgr.Info(ctx, "presets reloaded", "path", layout.PresetFile)
		})
		if err != nil {
			lgr.Error(ctx, "not watching presets", err)
		}
	}

	ctl.Start()
	lgr.Info(ctx, "dashboard started", "state", ctl.Describe())

	model := tui.New(ctx, ctl, loop, mem, presets, lgr)
	_, err = tea.NewProgram(model).Run()
	if err != nil {
		fatal(err)
	}
}

func fatal(err error) {

	fmt.Fprintf(os.Stderr, "visdom: %+v\n", err)
	os.Exit(1)
}
