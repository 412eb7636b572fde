package main

import (
	"context"
	"fmt"
	"log"
	"os"

	"github.com/trezcool/shule/core"
	"github.com/trezcool/shule/core/quiz"
	"github.com/trezcool/shule/core/user"
	eventsvc "github.com/trezcool/shule/services/events"
	logsvc "github.com/trezcool/shule/services/logger"
	"github.com/trezcool/shule/storage/cache"
	"github.com/trezcool/shule/storage/sheets"
	gsheets "github.com/trezcool/shule/storage/sheets/google"
)

func main() {
	conf := core.NewConfig()

	logger := logsvc.NewRollbarLogger(
		log.New(os.Stderr, "ADMIN : ", log.LstdFlags|log.Lmicroseconds|log.Lshortfile),
		conf,
	)
	logger.Enable(false)

	// set up record store
	backend, err := gsheets.NewBackend(context.Background(), conf.Sheets)
	if err != nil {
		logger.Fatal(fmt.Sprintf("setting up record store: %v", err), err)
	}
	store := sheets.NewStore(sheets.Options{
		Backend:     backend,
		RetryDelays: conf.Sheets.RetryDelays,
		Logger:      logger,
	})

	// set up services
	translator := core.NewTranslator()
	validate := core.NewValidator(translator)
	user.InitValidators(validate, translator)
	events := eventsvc.NewLogPublisher(logger)

	// start CLI
	cli := commandLine{
		out:   os.Stdout,
		store: store,
		usrSvc: user.NewService(user.Options{
			Repo:     sheets.NewUserRepository(store),
			Signups:  sheets.NewSignupRepository(store),
			Validate: validate,
			Events:   events,
			Logger:   logger,
		}),
		quizSvc: quiz.NewService(quiz.ServiceOptions{
			Questions:   sheets.NewQuestionRepository(store),
			Results:     sheets.NewResultRepository(store),
			Submissions: cache.NewMemoryStore(),
			Subjects:    conf.Quiz.Subjects,
			Validate:    validate,
			Events:      events,
			Logger:      logger,
		}),
		subjects: conf.Quiz.Subjects,
	}
	if err := cli.run(os.Args); err != nil {
		if err != errHelp {
			fmt.Fprintf(os.Stderr, "\nerror: %s\n", err)
		}
		os.Exit(1)
	}
}
