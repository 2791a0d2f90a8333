package main

import (
	"flag"
	"net/http"
	"os"
	"time"

	"github.com/arhyth/debitxgo"
	"github.com/bwmarrin/snowflake"
	"github.com/sony/gobreaker/v2"
	"golang.org/x/sync/semaphore"
	"gopkg.in/yaml.v3"

	"github.com/rs/zerolog"
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

	var (
		accts debitxgo.AccountStore
		idem  debitxgo.IdempotencyStore
	)
	if cfg.Database.ConnStr != "" {
		pgendpt, err := debitxgo.NewPostgresEndpoint(cfg.Database.ConnStr, &logger)
		if err != nil {
			logger.Fatal().Err(err).Msg("error starting database")
		}
		accts, idem = pgendpt, pgendpt
	} else {
		logger.Info().Msg("no database configured, using in-memory stores")
		accts = debitxgo.NewMemAccountStore()
		idem = debitxgo.NewMemIdempotencyStore()
	}

	svc, err := debitxgo.NewService(accts, idem, cfg.WorkflowConfig(), &logger)
	if err != nil {
		logger.Fatal().Err(err).Msg("error starting service")
	}

	limits := &debitxgo.ServiceLimits{
		CreateAccount: semaphore.NewWeighted(64),
		Withdraw:      semaphore.NewWeighted(256),
		WithdrawBatch: semaphore.NewWeighted(16),
		Balance:       semaphore.NewWeighted(256),
		Statement:     semaphore.NewWeighted(16),
	}
	brkrs := &debitxgo.ServiceBreaker{
		CreateAccount: gobreaker.NewTwoStepCircuitBreaker[*debitxgo.Account](gobreaker.Settings{Name: "create_account"}),
		Withdraw:      gobreaker.NewTwoStepCircuitBreaker[*debitxgo.WithdrawalReceipt](gobreaker.Settings{Name: "withdraw"}),
		WithdrawBatch: gobreaker.NewTwoStepCircuitBreaker[debitxgo.BatchResult](gobreaker.Settings{Name: "withdraw_batch"}),
		Balance:       gobreaker.NewTwoStepCircuitBreaker[int64](gobreaker.Settings{Name: "balance"}),
		Statement:     gobreaker.NewTwoStepCircuitBreaker[interface{}](gobreaker.Settings{Name: "statement"}),
	}

	var wrapped debitxgo.Service = svc
	for _, mw := range []debitxgo.Middleware{
		debitxgo.NewCircuitBreakMiddleware(brkrs),
		debitxgo.NewLimitMiddleware(limits, 5*time.Second),
		debitxgo.NewValidationMiddleware(),
	} {
		wrapped = mw(wrapped)
	}

	node, err := snowflake.NewNode(1)
	if err != nil {
		logger.Fatal().Err(err).Msg("error starting ID node")
	}
	hndlr := debitxgo.NewHTTPHandler(wrapped, node, &logger)

	logger.Info().Str("addr", ":3000").Msg("listening")
	if err = http.ListenAndServe(":3000", hndlr); err != nil {
		logger.Fatal().Err(err).Msg("server exited")
	}
}
