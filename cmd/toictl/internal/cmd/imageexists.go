package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

func addImageExistsCommand(parent *cobra.Command) {
	cmd := &cobra.Command{
		Use:   "image-exists",
		Short: "Report whether the configured device holds a resumable image",
		Args:  cobra.NoArgs,
		RunE:  runImageExists,
	}
	parent.AddCommand(cmd)
}

func runImageExists(cmd *cobra.Command, args []string) error {
	sess, err := openSession()
	if err != nil {
		return err
	}
	defer sess.Close()

	exists := sess.writer.ImageExists()
	fmt.Fprintln(cmd.OutOrStdout(), exists)
	return nil
}
