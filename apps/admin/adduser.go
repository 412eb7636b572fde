package main

import (
	"context"
	"fmt"

	"github.com/trezcool/shule/core/user"
)

// addUser appends a users row. Existing emails are refused.
func (cli *commandLine) addUser(nu user.NewUser) error {
	usr, err := cli.usrSvc.Create(context.Background(), nu)
	if err != nil {
		return err
	}
	status := "active"
	if !usr.IsActive {
		status = "inactive"
	}
	fmt.Fprintf(cli.out, "added %s (%s, %s)\n", usr.Email, usr.Role, status)
	return nil
}

func (cli *commandLine) results(email string) error {
	n, err := cli.quizSvc.CountResults(context.Background(), email)
	if err != nil {
		return err
	}
	fmt.Fprintf(cli.out, "%s: %d result(s)\n", email, n)
	return nil
}
