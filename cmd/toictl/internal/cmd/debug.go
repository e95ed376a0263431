package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"toi/internal/debugprofile"
)

var profileOutPath string

func addDebugCommand(parent *cobra.Command) {
	debug := &cobra.Command{
		Use:   "debug",
		Short: "Diagnostics that don't drive a hibernate/resume cycle",
	}

	profile := &cobra.Command{
		Use:   "profile",
		Short: "Write the last cycle's I/O-time accounting as a pprof profile (C8 print_debug_info)",
		Args:  cobra.NoArgs,
		RunE:  runDebugProfile,
	}
	profile.Flags().StringVar(&profileOutPath, "out", "toi.pprof", "output path for the pprof profile")
	debug.AddCommand(profile)

	info := &cobra.Command{
		Use:   "info",
		Short: "Print the active writer module's debug info (print_debug_info)",
		Args:  cobra.NoArgs,
		RunE:  runDebugInfo,
	}
	debug.AddCommand(info)

	parent.AddCommand(debug)
}

func runDebugProfile(cmd *cobra.Command, args []string) error {
	sess, err := openSession()
	if err != nil {
		return err
	}
	defer sess.Close()

	f, err := os.Create(profileOutPath)
	if err != nil {
		return err
	}
	defer f.Close()

	if err := debugprofile.Write(f, sess.eng.Acct.Fetch()); err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "wrote profile to %s\n", profileOutPath)
	return nil
}

func runDebugInfo(cmd *cobra.Command, args []string) error {
	sess, err := openSession()
	if err != nil {
		return err
	}
	defer sess.Close()

	fmt.Fprintln(cmd.OutOrStdout(), sess.writer.PrintDebugInfo())
	return nil
}
