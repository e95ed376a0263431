// Package cmd wires toictl's cobra command tree: hibernate, resume,
// image-exists, remove-image, and debug profile (§6).
//
// Grounded on the teacher pack's dsmmcken-dh-cli NewRootCmd/addXCommands
// layout: one constructor per subcommand family, registered onto a shared
// root in Execute.
package cmd

import (
	"github.com/spf13/cobra"
)

var (
	configPath  string
	devicePath  string
	arenaPages  int
	headerPages int
)

// Execute builds and runs the root command against os.Args.
func Execute() error {
	root := newRootCmd()
	addHibernateCommand(root)
	addResumeCommand(root)
	addImageExistsCommand(root)
	addRemoveImageCommand(root)
	addDebugCommand(root)
	return root.Execute()
}

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "toictl",
		Short:         "Drive hibernate/resume cycles against a host-process arena",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringVar(&configPath, "config", "", "path to a TOML policy file (optional)")
	root.PersistentFlags().StringVar(&devicePath, "device", "toi-swap.img", "path to the backing swap-image file")
	root.PersistentFlags().IntVar(&arenaPages, "arena-pages", 64, "number of pages in the host arena")
	root.PersistentFlags().IntVar(&headerPages, "header-pages", 4, "sectors reserved for the image header")
	return root
}
