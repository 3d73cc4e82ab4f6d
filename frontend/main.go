//go:build js && wasm

package main

import (
	"context"
	"log/slog"
	"os"
	"syscall/js"

	"swooshui/internal/swoosh"
)

type App struct {
	doc js.Value
	log *slog.Logger
}

func main() {
	app := &App{
		doc: js.Global().Get("document"),
		log: slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelWarn})),
	}

	if app.doc.IsUndefined() || app.doc.IsNull() {
		app.log.Error("no document, swooshui not mounted")
		return
	}

	switch state := app.doc.Get("readyState").String(); state {
	case "loading":
		var ready js.Func
		ready = js.FuncOf(func(this js.Value, args []js.Value) any {
			ready.Release()
			go app.mount()
			return nil
		})
		app.doc.Call("addEventListener", "DOMContentLoaded", ready)
	default:
		app.mount()
	}

	select {}
}

func (a *App) mount() {
	_, err := swoosh.Mount(context.Background(), &document{v: a.doc},
		swoosh.WithLogger(a.log),
		swoosh.WithClickHook(a.logClick),
	)
	if err != nil {
		a.log.Error("swooshui mount failed", "err", err)
	}
}

func (a *App) logClick(label string) {
	js.Global().Get("console").Call("log", "Clicked: "+label)
}
