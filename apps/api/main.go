package main

import (
	"context"
	"expvar"
	"fmt"
	"io"
	"log"
	"net/http"
	_ "net/http/pprof"
	"os"

	"github.com/pkg/errors"

	echoapi "github.com/trezcool/shule/apps/api/echo"
	"github.com/trezcool/shule/core"
	"github.com/trezcool/shule/core/quiz"
	"github.com/trezcool/shule/core/user"
	emailsvc "github.com/trezcool/shule/services/email"
	eventsvc "github.com/trezcool/shule/services/events"
	logsvc "github.com/trezcool/shule/services/logger"
	"github.com/trezcool/shule/storage/cache"
	"github.com/trezcool/shule/storage/sheets"
	gsheets "github.com/trezcool/shule/storage/sheets/google"
	inmemsheets "github.com/trezcool/shule/storage/sheets/inmem"
)

func main() {
	// =========================================================================
	// Set up Dependencies

	conf := core.NewConfig()

	// set up loggers
	logger := logsvc.NewRollbarLogger(
		log.New(os.Stdout, "API : ", log.LstdFlags|log.Lmicroseconds|log.Lshortfile),
		conf,
	)
	logger.Enable(conf.RollbarToken != "" && !conf.Debug)

	storeLogger := logsvc.NewRollbarLogger(
		log.New(os.Stdout, "STORE : ", log.LstdFlags|log.Lmicroseconds|log.Lshortfile),
		conf,
	)

	// set up record store
	backend, err := newBackend(conf)
	if err != nil {
		logger.Fatal(fmt.Sprintf("setting up record store: %v", err), err)
	}
	store := sheets.NewStore(sheets.Options{
		Backend:     backend,
		RetryDelays: conf.Sheets.RetryDelays,
		Logger:      storeLogger,
	})
	if err = store.EnsureTables(context.Background()); err != nil {
		// tables are ensured again on first use
		storeLogger.Warn(fmt.Sprintf("ensuring tables: %v", err), err)
	}

	// set up claims & events
	claims, closeClaims := newClaimStore(conf, logger)
	defer closeClaims()

	events, closeEvents := newEventPublisher(conf, logger)
	defer closeEvents()

	// set up services
	var mailSvc core.EmailService
	if conf.Debug {
		mailSvc = emailsvc.NewConsoleService(conf, log.New(os.Stdout, "MAIL : ", log.LstdFlags), logger)
	} else {
		mailSvc = emailsvc.NewSendgridService(conf, logger)
	}

	translator := core.NewTranslator()
	validate := core.NewValidator(translator)
	user.InitValidators(validate, translator)

	usrSvc := user.NewService(user.Options{
		Repo:        sheets.NewUserRepository(store),
		Signups:     sheets.NewSignupRepository(store),
		Validate:    validate,
		MailSvc:     mailSvc,
		Events:      events,
		Logger:      logger,
		AdminEmails: conf.AdminEmails,
	})
	quizSvc := quiz.NewService(quiz.ServiceOptions{
		Questions:   sheets.NewQuestionRepository(store),
		Results:     sheets.NewResultRepository(store),
		Submissions: claims,
		Subjects:    conf.Quiz.Subjects,
		TTL:         conf.Quiz.SubmissionTTL,
		Validate:    validate,
		Events:      events,
		Logger:      logger,
	})

	// =========================================================================
	// Initialize App

	logger.Info(fmt.Sprintf("Application initializing : version %q", conf.Build))
	defer logger.Info("Application stopped")

	// =========================================================================
	// Start Debug Service
	//
	// /debug/pprof - Added to the default mux by importing the net/http/pprof package.
	// /debug/vars - Added to the default mux by importing the expvar package.

	if conf.Server.DebugHost != "" {
		expvar.NewString("build").Set(conf.Build)
		expvar.NewString("env").Set(conf.Env)

		go func() {
			if err := http.ListenAndServe(conf.Server.DebugHost, http.DefaultServeMux); err != nil {
				logger.Error(fmt.Sprintf("debug server closed: %v", err), err)
			}
		}()
	}

	// =========================================================================
	// Start API Service

	server := echoapi.NewServer(
		echoapi.ServerDeps{
			Conf:       conf,
			Logger:     logger,
			UserSvc:    usrSvc,
			QuizSvc:    quizSvc,
			Claims:     claims,
			Validate:   validate,
			Translator: translator,
		},
	)

	go func() {
		server.Start()
	}()

	// =========================================================================
	// Shutdown

	select {
	case err = <-server.Errors():
		logger.Error(fmt.Sprintf("server error: %v", err), err)

	case sig := <-server.ShutdownSignal():
		logger.Info(fmt.Sprintf("%v: Start shutdown...", sig))

		// give outstanding requests a deadline for completion
		ctx, cancel := context.WithTimeout(context.Background(), conf.Server.ShutdownTimeout)
		defer cancel()

		// asking listener to shutdown and shed load
		if err = server.Shutdown(ctx); err != nil {
			logger.Error(fmt.Sprintf("could not stop server gracefully: %v", err), err)

			if err = server.Close(); err != nil {
				logger.Error(fmt.Sprintf("could not force stop server: %v", err), err)
			}
		}
	}
}

func newBackend(conf *core.Config) (sheets.Backend, error) {
	switch conf.Sheets.Backend {
	case "memory":
		return inmemsheets.NewBackend(), nil
	case "google", "":
		return gsheets.NewBackend(context.Background(), conf.Sheets)
	default:
		return nil, errors.Errorf("unknown sheets backend %q", conf.Sheets.Backend)
	}
}

// newClaimStore uses Redis when configured, so claims are shared between instances.
func newClaimStore(conf *core.Config, logger core.Logger) (quiz.SubmissionStore, func()) {
	if conf.Redis.Address == "" {
		return cache.NewMemoryStore(), func() {}
	}
	rs, err := cache.NewRedisStore(conf.Redis, "shule:")
	if err != nil {
		logger.Fatal(fmt.Sprintf("connecting to redis: %v", err), err)
	}
	return rs, closer(rs, "redis", logger)
}

func newEventPublisher(conf *core.Config, logger core.Logger) (core.EventPublisher, func()) {
	if conf.RabbitMQ.URL == "" {
		return eventsvc.NewLogPublisher(logger), func() {}
	}
	pub, err := eventsvc.NewRabbitMQPublisher(conf.RabbitMQ)
	if err != nil {
		logger.Fatal(fmt.Sprintf("connecting to rabbitmq: %v", err), err)
	}
	return pub, closer(pub, "rabbitmq", logger)
}

func closer(c io.Closer, name string, logger core.Logger) func() {
	return func() {
		if err := c.Close(); err != nil {
			logger.Error(fmt.Sprintf("closing %s: %v", name, err), err)
		}
	}
}
