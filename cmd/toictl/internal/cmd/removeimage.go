package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

func addRemoveImageCommand(parent *cobra.Command) {
	cmd := &cobra.Command{
		Use:   "remove-image",
		Short: "Invalidate any stored image on the configured device (§4.5 remove_image)",
		Args:  cobra.NoArgs,
		RunE:  runRemoveImage,
	}
	parent.AddCommand(cmd)
}

func runRemoveImage(cmd *cobra.Command, args []string) error {
	sess, err := openSession()
	if err != nil {
		return err
	}
	defer sess.Close()

	if err := sess.writer.RemoveImage(); err != 0 {
		return fmt.Errorf("remove-image failed: %s", err.Error())
	}
	fmt.Fprintln(cmd.OutOrStdout(), "image removed")
	return nil
}
