package main

import (
	"context"
	"fmt"

	"github.com/trezcool/rollcall/core/user"
)

// addUser validates and creates a user.User in the configured store.
func (cli *commandLine) addUser(nu user.NewUser) error {
	c, err := cli.newDeps()
	if err != nil {
		return err
	}
	defer func() { _ = c.Close() }()

	ctx := context.Background()
	if err = nu.Validate(ctx, c.Validate, c.Users); err != nil {
		return err
	}
	usr, err := c.Users.Create(ctx, nu)
	if err != nil {
		return err
	}
	fmt.Printf("User %q (%s) created.\n", usr.Username, usr.Role)
	return nil
}
