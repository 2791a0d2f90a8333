package main

import (
	"flag"
	"os"

	"github.com/arhyth/debitxgo"
	"github.com/rs/zerolog"
	"gopkg.in/yaml.v3"
)

func main() {
	zerolog.SetGlobalLevel(zerolog.InfoLevel)
	logger := zerolog.New(os.Stderr).With().Timestamp().Logger()

	var cfg debitxgo.Config
	cfp := flag.String("config", "config.yml", "path to configuration file")
	flag.Parse()
	cfgfl, err := os.Open(*cfp)
	if err != nil {
		logger.Fatal().Err(err).Msg("error opening config file")
	}
	if err = yaml.NewDecoder(cfgfl).Decode(&cfg); err != nil {
		logger.Fatal().Err(err).Msg("error decoding config file")
	}

	lh, err := debitxgo.NewLocalHelper(&cfg)
	if err != nil {
		logger.Fatal().Err(err).Msg("error starting local helper")
	}
	if _, err = lh.InitDB(); err != nil {
		logger.Fatal().Err(err).Msg("error initializing database")
	}
	accts, err := lh.SeedAccounts(cfg.Seed.Accounts)
	if err != nil {
		logger.Fatal().Err(err).Msg("error seeding accounts")
	}
	for _, acct := range accts {
		logger.Info().
			Str("id", acct.ID).
			Str("owner", acct.Owner).
			Int64("balance", acct.Balance).
			Msg("account seeded")
	}
}
