package cmd

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"toi/internal/defs"
)

func addHibernateCommand(parent *cobra.Command) {
	cmd := &cobra.Command{
		Use:   "hibernate",
		Short: "Run a hibernate cycle against the configured arena and device",
		Args:  cobra.NoArgs,
		RunE:  runHibernate,
	}
	parent.AddCommand(cmd)
}

func runHibernate(cmd *cobra.Command, args []string) error {
	sess, err := openSession()
	if err != nil {
		return err
	}
	defer sess.Close()

	result := sess.eng.Hibernate(context.Background())
	fmt.Fprintf(cmd.OutOrStdout(), "result: %s\n", result.String())
	if result.Has(defs.ABORTED) {
		return fmt.Errorf("hibernate aborted: %s", result.String())
	}
	return nil
}
