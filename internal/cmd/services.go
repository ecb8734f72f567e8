package main

import (
	"database/sql"

	"github.com/jdelgado-dtlabs/TheMillionaireGame-sub002/internal/gateway"
	"github.com/jdelgado-dtlabs/TheMillionaireGame-sub002/internal/ledger"
	"github.com/jdelgado-dtlabs/TheMillionaireGame-sub002/internal/question"
	"github.com/jdelgado-dtlabs/TheMillionaireGame-sub002/internal/registry"
	"github.com/jdelgado-dtlabs/TheMillionaireGame-sub002/internal/resultsink"
	"github.com/jdelgado-dtlabs/TheMillionaireGame-sub002/internal/session"
	"github.com/jonboulle/clockwork"
	"github.com/rs/zerolog/log"
)

// Services holds the wired dependency chain.
type Services struct {
	Coordinator       *session.Coordinator
	ConnectionManager *gateway.ConnectionManager
	Handler           *gateway.Handler
	Sink              *resultsink.Async
	SinkCloser        func() error
}

func setupServices(config *Config, database *sql.DB) (*Services, error) {
	clock := clockwork.NewRealClock()
	reg := registry.New(clock)
	led := ledger.New()

	var questions question.Source
	if database != nil {
		questions = question.NewRepository(database)
	} else {
		questions = question.NewMemorySource(config.seedQuestions()...)
		log.Info().Int("questions", len(config.Questions)).Msg("using in-memory question source")
	}

	var publisher resultsink.Publisher = resultsink.LogPublisher{}
	closer := func() error { return nil }
	if config.Results.Enabled {
		jsCfg := resultsink.DefaultJetStreamConfig()
		jsCfg.URL = getEnv("NATS_URL", jsCfg.URL)
		if config.Results.StreamName != "" {
			jsCfg.StreamName = config.Results.StreamName
		}
		if config.Results.SubjectPrefix != "" {
			jsCfg.SubjectPrefix = config.Results.SubjectPrefix
		}
		js, err := resultsink.NewJetStreamPublisher(jsCfg)
		if err != nil {
			return nil, err
		}
		publisher = js
		closer = js.Close
	}
	sink := resultsink.NewAsync(publisher, getEnvAsInt("RESULT_SINK_BUFFER", 64))

	cm := gateway.NewConnectionManager(gateway.DefaultConnectionConfig(), reg.MarkDisconnected)

	coordinator := session.NewCoordinator(reg, led, questions, cm, sink, clock, config.sessionConfig())
	handler := gateway.NewHandler(coordinator, cm)

	return &Services{
		Coordinator:       coordinator,
		ConnectionManager: cm,
		Handler:           handler,
		Sink:              sink,
		SinkCloser:        closer,
	}, nil
}
