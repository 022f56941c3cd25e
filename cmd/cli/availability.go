package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/teenyweeny/urlshortener/cmd"
)

// AvailabilityCmd vérifie qu'un code personnalisé est encore libre.
var AvailabilityCmd = &cobra.Command{
	Use:     "availability [code]",
	Aliases: []string{"check"},
	Short:   "Check whether a custom short code is available",
	Args:    cobra.ExactArgs(1),
	Run: func(c *cobra.Command, args []string) {
		linkService, closeRepo := openService(c)
		defer closeRepo()

		available, err := linkService.IsCodeAvailable(c.Context(), args[0])
		if err != nil {
			fail(err)
		}
		if !available {
			fmt.Printf("Le code %q est déjà pris.\n", args[0])
			os.Exit(2)
		}
		fmt.Printf("Le code %q est disponible.\n", args[0])
	},
}

func init() {
	cmd.RootCmd.AddCommand(AvailabilityCmd)
}
