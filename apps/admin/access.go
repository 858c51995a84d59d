package main

import (
	"context"
	"fmt"

	"github.com/mwalimu/somo/client"
	"github.com/mwalimu/somo/core/identity"
)

func (cli *commandLine) listUsers(ctx context.Context, cl *client.Client) error {
	users, err := cl.ListUsers(ctx)
	if err != nil {
		return err
	}

	fmt.Printf("%-30s %-30s %-10s %-10s\n", "UID", "EMAIL", "ROLE", "DISABLED")
	for _, usr := range users {
		role, _ := usr.Claims[identity.ClaimRole].(string)
		fmt.Printf("%-30s %-30s %-10s %-10t\n", usr.ID, usr.Email, role, usr.Disabled)
	}
	return nil
}

func (cli *commandLine) updateAccess(ctx context.Context, cl *client.Client, cmd, uid string) error {
	var (
		role     *string
		disabled *bool
	)
	switch cmd {
	case "grantadmin":
		r := string(identity.RoleAdmin)
		role = &r
	case "revokeadmin":
		r := string(identity.RoleNone)
		role = &r
	case "disable":
		d := true
		disabled = &d
	case "enable":
		d := false
		disabled = &d
	}

	access, err := cl.UpdateAccess(ctx, uid, role, disabled)
	if err != nil {
		return err
	}
	fmt.Printf("updated %s: claims=%v disabled=%t\n", access.UID, access.Claims, access.Disabled)
	return nil
}
