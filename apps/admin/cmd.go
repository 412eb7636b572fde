package main

import (
	"errors"
	"flag"
	"fmt"
	"io"

	"github.com/trezcool/shule/core"
	"github.com/trezcool/shule/core/quiz"
	"github.com/trezcool/shule/core/user"
	"github.com/trezcool/shule/storage/sheets"
)

var errHelp = errors.New("help provided")

type commandLine struct {
	out      io.Writer
	store    *sheets.Store
	usrSvc   user.ServiceInterface
	quizSvc  quiz.ServiceInterface
	subjects []core.Subject
}

func (cli *commandLine) printUsage() {
	fmt.Fprintln(cli.out, "Usage:")
	fmt.Fprintln(cli.out, "  ensuretables - create the missing tables and headers")
	fmt.Fprintln(cli.out, "  adduser -email EMAIL [-name NAME] [-role student|teacher|admin] [-inactive] - add a user")
	fmt.Fprintln(cli.out, "  bank [-group junior|senior] - report how the question table loads")
	fmt.Fprintln(cli.out, "  results -email EMAIL - count the results recorded for a user")
}

func (cli *commandLine) run(args []string) error {
	if len(args) < 2 {
		cli.printUsage()
		return errHelp
	}

	addUserCmd := flag.NewFlagSet("adduser", flag.ContinueOnError)
	addUserEmail := addUserCmd.String("email", "", "The user's email.")
	addUserName := addUserCmd.String("name", "", "The user's display name.")
	addUserRole := addUserCmd.String("role", user.RoleStudent, "The user's role.")
	addUserInactive := addUserCmd.Bool("inactive", false, "Add the user without giving access yet.")

	bankCmd := flag.NewFlagSet("bank", flag.ContinueOnError)
	bankGroup := bankCmd.String("group", "", "Only load the questions of this group.")

	resultsCmd := flag.NewFlagSet("results", flag.ContinueOnError)
	resultsEmail := resultsCmd.String("email", "", "The user's email.")

	for _, fs := range []*flag.FlagSet{addUserCmd, bankCmd, resultsCmd} {
		fs.SetOutput(cli.out)
	}

	switch args[1] {
	case "ensuretables":
		return cli.ensureTables()
	case "adduser":
		if err := addUserCmd.Parse(args[2:]); err != nil {
			return err
		}
		if *addUserEmail == "" {
			addUserCmd.Usage()
			return errHelp
		}
		return cli.addUser(user.NewUser{
			Email:    *addUserEmail,
			Name:     *addUserName,
			Role:     *addUserRole,
			IsActive: !*addUserInactive,
		})
	case "bank":
		if err := bankCmd.Parse(args[2:]); err != nil {
			return err
		}
		return cli.bank(*bankGroup)
	case "results":
		if err := resultsCmd.Parse(args[2:]); err != nil {
			return err
		}
		if *resultsEmail == "" {
			resultsCmd.Usage()
			return errHelp
		}
		return cli.results(*resultsEmail)
	default:
		cli.printUsage()
		return errHelp
	}
}
