// Profiling:
// go build ./profile/spatial
// ./spatial -mode mem
// go tool pprof -http=":8000" -nodefraction=0.001 ./spatial mem.pprof

package main

import (
	"flag"
	"math/rand"
	"time"

	"github.com/TheBitDrifter/locus"
	"github.com/TheBitDrifter/locus/spatial"
	"github.com/pkg/profile"
	"github.com/sirupsen/logrus"
)

type velocity struct {
	X, Z float32
}

func main() {
	mode := flag.String("mode", "cpu", "profile mode: cpu or mem")
	rounds := flag.Int("rounds", 5, "storages to build")
	steps := flag.Int("steps", 600, "simulation steps per round")
	entities := flag.Int("entities", 100_000, "entities per round")
	flag.Parse()

	var p interface{ Stop() }
	switch *mode {
	case "mem":
		p = profile.Start(profile.MemProfileAllocs, profile.ProfilePath("."), profile.NoShutdownHook)
	default:
		p = profile.Start(profile.CPUProfile, profile.ProfilePath("."), profile.NoShutdownHook)
	}
	run(*rounds, *steps, *entities)
	p.Stop()
}

func run(rounds, steps, numEntities int) {
	log := locus.Config.Logger()
	position := locus.FactoryNewComponent[spatial.Vec3]()
	vel := locus.FactoryNewComponent[velocity]()
	key := locus.NewGroupKey(position, vel)
	rng := rand.New(rand.NewSource(1))
	dt := time.Second / 60

	for round := range rounds {
		storage := locus.Factory.NewStorage()
		for range numEntities {
			rec := locus.NewInit(key)
			locus.With(rec, position, spatial.Vec3{X: rng.Float32() * 1000, Z: rng.Float32() * 1000})
			locus.With(rec, vel, velocity{X: rng.Float32() - 0.5, Z: rng.Float32() - 0.5})
			storage.NewEntity(key, rec.Bytes())
		}

		index := locus.NewSpatialIndex(storage, position)
		cursor := locus.Factory.NewCursor(locus.Factory.NewGroupFilter(position, vel), storage)
		found := 0
		for range steps {
			for cursor.Next() {
				p := position.GetFromCursor(cursor)
				v := vel.GetFromCursor(cursor)
				p.X += v.X
				p.Z += v.Z
			}
			index.Tick(dt)
			index.Update()
			found += len(index.RangeQuery(key, spatial.NewRect(450, 450, 100, 100)))
		}
		index.Wait()

		tree, _ := index.Tree(key)
		stats := tree.Stats()
		log.WithFields(logrus.Fields{
			"round":     round,
			"builds":    stats.BuildsCompleted,
			"skipped":   stats.RunsSkipped,
			"lastBuild": stats.LastBuildDuration,
			"found":     found,
		}).Warn("profile round finished")
		index.Destroy()
	}
}
