package main

import (
	"fmt"

	"github.com/pkg/errors"

	echoapi "github.com/trezcool/partnerships/apps/api/echo"
)

func validRole(role string) bool {
	for _, r := range echoapi.Roles {
		if r == role {
			return true
		}
	}
	return false
}

func (cli *commandLine) token(username, email string, roles []string) error {
	for _, role := range roles {
		if !validRole(role) {
			return errors.Errorf("unknown role %q, must be one of %v", role, echoapi.Roles)
		}
	}
	tkn, err := echoapi.GenerateToken(echoapi.NewClaims(cli.conf, username, email, roles...), cli.conf.SecretKey)
	if err != nil {
		return errors.Wrap(err, "generating token")
	}
	fmt.Fprintln(cli.out, tkn)
	return nil
}
