package main

import (
	"context"
	"fmt"
)

func (cli *commandLine) resetPassword(uname, pwd string) error {
	c, err := cli.newDeps()
	if err != nil {
		return err
	}
	defer func() { _ = c.Close() }()

	if err = c.Users.ResetPassword(context.Background(), uname, pwd); err != nil {
		return err
	}
	fmt.Println("Password updated.")
	return nil
}
