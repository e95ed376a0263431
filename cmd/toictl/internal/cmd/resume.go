package cmd

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"toi/internal/defs"
)

var altImageFlag bool

func addResumeCommand(parent *cobra.Command) {
	cmd := &cobra.Command{
		Use:   "resume",
		Short: "Run a resume cycle against the configured arena and device",
		Args:  cobra.NoArgs,
		RunE:  runResume,
	}
	cmd.Flags().BoolVar(&altImageFlag, "alt-image", false, "discard the found image instead of restoring it")
	parent.AddCommand(cmd)
}

func runResume(cmd *cobra.Command, args []string) error {
	sess, err := openSession()
	if err != nil {
		return err
	}
	defer sess.Close()

	result := sess.eng.Resume(context.Background(), altImageFlag)
	fmt.Fprintf(cmd.OutOrStdout(), "result: %s\n", result.String())
	if result.Has(defs.ABORTED) {
		return fmt.Errorf("resume aborted: %s", result.String())
	}
	return nil
}
