// Command seisarc opens a seisarchive-managed database and runs a bulk
// write demonstration against it, in the shape of the teacher's root
// main.go wiring config into a database connection and a pass over a batch
// of objects.
package main

import (
	"context"
	"flag"
	"log"

	"github.com/pkg/errors"

	"github.com/quakecore/seisarchive/archive"
	"github.com/quakecore/seisarchive/config"
	"github.com/quakecore/seisarchive/driver"
	"github.com/quakecore/seisarchive/model"
)

func main() {
	envFile := flag.String("env", ".env", "path to the environment file to load")
	flag.Parse()

	cfg := config.LoadEnvConfig(*envFile)

	ctx := context.Background()
	pg := driver.NewPostgres(cfg.DSN)

	a, err := archive.Open(ctx, pg, archive.SchemaVersion{Major: cfg.SupportedMajor, Minor: cfg.SupportedMinor})
	if err != nil {
		log.Fatalf("seisarc: %+v", errors.Wrap(err, "open archive"))
	}
	defer a.Close()

	tree := demoEventTree()
	writer := archive.NewBulkWriter(a, cfg.BatchSize, true)
	errCount, err := writer.Run(ctx, tree)
	if err != nil {
		log.Fatalf("seisarc: %+v", errors.Wrap(err, "bulk import"))
	}
	if errCount > 0 {
		log.Printf("seisarc: bulk import finished with %d failed node(s)", errCount)
	}

	log.Printf("seisarc: done, identity cache holds %d objects", a.CacheSize())
}

// demoEventTree builds one Event with an Origin, a Pick and a Magnitude
// carrying one station contribution, exercising every attribute kind the
// domain model declares.
func demoEventTree() *model.Node {
	event := model.NewEvent("smi:quakecore/event/demo001")
	event.Type = strPtr("earthquake")

	origin := model.NewOrigin("smi:quakecore/origin/demo001", event)
	origin.Latitude = 37.7749
	origin.Longitude = -122.4194
	origin.Depth = floatPtr(8.3)

	pick := model.NewPick("smi:quakecore/pick/demo001", event)
	pick.WaveformID = model.WaveformStreamID{
		NetworkCode: "NC",
		StationCode: "BKS",
		ChannelCode: "HHZ",
	}
	pick.PhaseHint = strPtr("P")

	magnitude := model.NewMagnitude("smi:quakecore/magnitude/demo001", origin)
	magnitude.Value = 4.2
	magnitude.Type = strPtr("Mw")
	magnitude.StationContributions = []*model.StationMagnitudeContribution{
		model.NewStationMagnitudeContribution(model.GeneratePublicID("quakecore", "StationMagnitude")),
	}

	return model.NewNode(event,
		model.NewNode(origin,
			model.NewNode(magnitude),
		),
		model.NewNode(pick),
	)
}

func strPtr(s string) *string     { return &s }
func floatPtr(f float64) *float64 { return &f }
