package main

import (
	"math/rand/v2"

	"go.uber.org/zap"

	"github.com/example/music-odyssey/internal/platform/logging"
	"github.com/example/music-odyssey/internal/platform/run"
	"github.com/example/music-odyssey/internal/schedule"
	"github.com/example/music-odyssey/services/generator/internal/catalog"
	gencfg "github.com/example/music-odyssey/services/generator/internal/config"
	"github.com/example/music-odyssey/services/generator/internal/seedlist"
)

func main() {
	cfg, err := gencfg.Load()
	if err != nil {
		panic(err)
	}
	log, err := logging.New(cfg.LogLevel, cfg.LogFormat)
	if err != nil {
		panic(err)
	}
	defer func() { _ = log.Sync() }()

	groups, err := seedlist.Load(cfg.SeedList)
	if err != nil {
		log.Error("load seed list", zap.String("path", cfg.SeedList), zap.Error(err))
		run.Exit(1)
	}
	builder := seedlist.Build(groups)

	var rng *rand.Rand
	if cfg.RandomSeed != nil {
		rng = rand.New(rand.NewPCG(*cfg.RandomSeed, *cfg.RandomSeed))
	}
	res, err := catalog.Finalize(builder.Albums(), cfg.TargetCount, cfg.Start, rng)
	if err != nil {
		log.Error("finalize schedule", zap.Error(err))
		run.Exit(1)
	}

	if err := schedule.WriteSeedFile(cfg.Output, res.Table, schedule.SchemaV2); err != nil {
		log.Error("write seed file", zap.String("path", cfg.Output), zap.Error(err))
		_ = log.Sync()
		run.Exit(1)
	}

	dates := res.Table.Dates()
	log.Info("schedule generated",
		zap.String("path", cfg.Output),
		zap.Int("curated", builder.Len()),
		zap.Int("entries", res.Table.Len()),
		zap.Int("placeholders", res.Placeholders),
		zap.String("first", dates[0]),
		zap.String("last", dates[len(dates)-1]),
	)
}
