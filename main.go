package main

import (
	"context"

	"github.com/rs/zerolog/log"

	handlerx "github.com/tanpawarit/Callcrew-Multi-Agent-Call-Center/callcenter/handlers"
	inferencex "github.com/tanpawarit/Callcrew-Multi-Agent-Call-Center/callcenter/inference"
	registryx "github.com/tanpawarit/Callcrew-Multi-Agent-Call-Center/callcenter/registry"
	storex "github.com/tanpawarit/Callcrew-Multi-Agent-Call-Center/callcenter/store"
	configx "github.com/tanpawarit/Callcrew-Multi-Agent-Call-Center/pkg/config"
	_ "github.com/tanpawarit/Callcrew-Multi-Agent-Call-Center/pkg/logger/autoload"
)

func main() {
	ctx := context.Background()

	inferenceCfg := configx.MustNew[inferencex.Config]("INFERENCE")
	gateway := inferencex.MustNew(*inferenceCfg)

	storeCfg := configx.MustNew[storex.PostgresConfig]("POSTGRES")
	recordStore, err := storex.NewPostgresStore(*storeCfg)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to open record store")
	}
	if err := recordStore.CreateSchema(ctx); err != nil {
		log.Fatal().Err(err).Msg("failed to ensure record store schema")
	}

	router := handlerx.NewRouter(gateway, recordStore, log.Logger)
	resolver := handlerx.NewResolver(gateway, recordStore, log.Logger)
	escalator := handlerx.NewEscalator(gateway, recordStore, log.Logger)

	calls, err := registryx.New(recordStore, router, resolver, escalator, log.Logger)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to build call registry")
	}
	_ = calls

	log.Info().Msg("call center orchestrator ready")
}
