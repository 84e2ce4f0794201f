package main

import (
	"flag"

	"github.com/danmuck/hublink/internal/config"
	"github.com/danmuck/hublink/internal/observability"
	"github.com/rs/zerolog/log"
)

const defaultPath = "cmd/hublinkd/config.toml"

func main() {
	observability.InitLogger("configgen")
	output := flag.String("output", defaultPath, "output path for config template")
	validate := flag.Bool("validate", false, "validate an existing config file")
	input := flag.String("input", defaultPath, "config path for validation")
	force := flag.Bool("force", false, "overwrite existing config file")
	flag.Parse()

	if *validate {
		cfg, err := config.Load(*input)
		if err != nil {
			log.Fatal().Err(err).Msg("config invalid")
		}
		log.Info().Str("path", *input).Int("services", len(cfg.Services)).Msg("validated config")
		return
	}

	if err := config.WriteTemplate(*output, *force); err != nil {
		log.Fatal().Err(err).Msg("write template failed")
	}
	log.Info().Str("path", *output).Msg("wrote config template")
}
