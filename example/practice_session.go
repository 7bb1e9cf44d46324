package main

import (
	"fmt"
	"os"
	"os/signal"
	"time"

	"github.com/whistlekit/whistlekit/internal/logger"
	"github.com/whistlekit/whistlekit/internal/store"
	"github.com/whistlekit/whistlekit/sdk/contracts"
	"github.com/whistlekit/whistlekit/sdk/instrument"
	"github.com/whistlekit/whistlekit/sdk/practice"
	"github.com/whistlekit/whistlekit/sdk/song"
	"github.com/whistlekit/whistlekit/sdk/transport"
)

func main() {
	log := logger.NewZapLogger()

	db, err := store.Open(store.DefaultDBFile)
	if err != nil {
		log.Error("Failed to open song store", log.Field().Error("error", err))
		return
	}
	defer db.Close()

	sg, err := song.NewManual("D Major Scale", []int{62, 64, 66, 67, 69, 71, 73, 74}, 100)
	if err != nil {
		log.Error("Failed to build song", log.Field().Error("error", err))
		return
	}
	if err := db.Save(sg); err != nil {
		log.Error("Failed to save song", log.Field().Error("error", err))
		return
	}

	playable := instrument.RangeFor(instrument.TagTinWhistle, instrument.Range{})
	matcher := practice.New(
		practice.WithLogger(log),
		practice.WithOnComplete(func(name string) {
			fmt.Printf("Completed %q, well done!\n", name)
		}),
		practice.WithOnChange(func(s practice.Snapshot) {
			if !s.Active || s.Complete {
				return
			}
			line := fmt.Sprintf("Play note %d (%d/%d)", s.Target, s.CurrentIndex+1, len(s.Sequence))
			if f, ok := instrument.FingeringFor(s.Target); ok {
				line += "  fingering " + f.String()
			}
			fmt.Println(line)
		}),
	)

	adapter := transport.New(
		contracts.WithLogger(log),
		contracts.WithLogLevel(contracts.InfoLevel),
		contracts.WithClientName("whistlekit-example"),
		contracts.WithRescanInterval(time.Second),
	)
	if err := adapter.Initialize(); err != nil {
		log.Error("Failed to initialize MIDI transport", log.Field().Error("error", err))
		return
	}
	defer adapter.Shutdown()

	for _, d := range adapter.Devices() {
		fmt.Printf("Device: %s (%s)\n", d.Name, d.Manufacturer)
	}

	cancel := adapter.SubscribeNotes(func(ev contracts.NoteEvent) {
		if ev.Kind != contracts.NoteOn || !playable.Contains(ev.Note) {
			return
		}
		matcher.HandleNoteOn(ev.Note, ev.Timestamp)
	})
	defer cancel()

	matcher.Start(sg.Title, sg.Notes)

	fmt.Println("Practicing... Press Ctrl+C to exit.")
	sigc := make(chan os.Signal, 1)
	signal.Notify(sigc, os.Interrupt)
	<-sigc
	matcher.Stop()
}
