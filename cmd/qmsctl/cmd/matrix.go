package cmd

import (
	"fmt"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/upb/qms-dashboard/internal/authz"
	"github.com/upb/qms-dashboard/models"
)

var matrixActions = []authz.Action{authz.ActionView, authz.ActionEdit, authz.ActionDelete, authz.ActionRun}

func newMatrixCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "matrix [roles...]",
		Short: "Print the permission matrix of each role",
		Long: `Print the resolved permission matrix. With no arguments every known
role is printed. Unknown roles resolve to a matrix that denies everything.

Examples:
  qmsctl matrix
  qmsctl matrix auditor other_auditor`,
		Run: func(cmd *cobra.Command, args []string) {
			roles := targetRoles(args)
			writeMatrix(cmd, roles)
		},
	}
}

func targetRoles(args []string) []authz.Role {
	if len(args) == 0 {
		return authz.KnownRoles()
	}
	roles := make([]authz.Role, len(args))
	for i, arg := range args {
		roles[i] = authz.Role(strings.TrimSpace(arg))
	}
	return roles
}

func writeMatrix(cmd *cobra.Command, roles []authz.Role) {
	w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
	header := []string{"ROLE", "RESOURCE"}
	for _, a := range matrixActions {
		header = append(header, strings.ToUpper(string(a)))
	}
	fmt.Fprintln(w, strings.Join(header, "\t"))

	for _, role := range roles {
		matrix := authz.ResolvePermissions(role)
		for _, resource := range models.AllResources() {
			row := []string{string(role), string(resource)}
			for _, a := range matrixActions {
				row = append(row, cell(matrix, resource, a))
			}
			fmt.Fprintln(w, strings.Join(row, "\t"))
		}
	}
	_ = w.Flush()
}

// cell renders "-" for actions the resource has no column for
func cell(m authz.Matrix, resource models.ResourceType, action authz.Action) string {
	for _, a := range authz.MatrixActions(resource) {
		if a == action {
			if m.Allows(resource, action) {
				return "yes"
			}
			return "no"
		}
	}
	return "-"
}
