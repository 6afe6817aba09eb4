package main

import (
	"fmt"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/jwalitptl/eservice-api/internal/model"
	"github.com/jwalitptl/eservice-api/internal/service/permission"
)

func newRoutesCmd() *cobra.Command {
	var roleType string

	cmd := &cobra.Command{
		Use:   "routes",
		Short: "Print the route table",
		Long: `Print every guarded route with its requirement and audience.

With --expected, print the permissions a role type is expected to hold instead.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			table := permission.Routes()
			out := cmd.OutOrStdout()

			if roleType != "" {
				for _, n := range table.ExpectedPermissions(model.RoleType(roleType)).Names() {
					fmt.Fprintln(out, n)
				}
				return nil
			}

			w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
			fmt.Fprintln(w, "METHOD\tPATTERN\tREQUIRES\tAUDIENCE")
			for _, r := range table.Routes() {
				audience := make([]string, len(r.Audience))
				for i, a := range r.Audience {
					audience[i] = string(a)
				}
				fmt.Fprintf(w, "%s\t%s\t%s\t%s\n", r.Method, r.Pattern, r.Requirement, strings.Join(audience, ","))
			}
			return w.Flush()
		},
	}

	cmd.Flags().StringVar(&roleType, "expected", "", "role type (admin, manager, staff, customer) to list expected permissions for")
	return cmd
}

func newCheckCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "check METHOD PATH",
		Short: "Show which permission a request needs",
		Example: `  portalctl check GET /api/office/7/availability
  portalctl check DELETE /api/appointments/19`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			method, path := strings.ToUpper(args[0]), args[1]
			out := cmd.OutOrStdout()

			route, ok := permission.Routes().Match(method, path)
			if !ok {
				fmt.Fprintf(out, "%s %s: no entry, any authenticated user\n", method, path)
				return nil
			}
			fmt.Fprintf(out, "%s %s: matched %s, requires %s\n", method, path, route.Key(), route.Requirement)
			return nil
		},
	}
}
