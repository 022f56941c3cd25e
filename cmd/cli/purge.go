package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/teenyweeny/urlshortener/cmd"
)

// PurgeCmd supprime immédiatement tous les liens expirés.
var PurgeCmd = &cobra.Command{
	Use:   "purge",
	Short: "Delete every expired link now",
	Args:  cobra.NoArgs,
	Run: func(c *cobra.Command, args []string) {
		linkService, closeRepo := openService(c)
		defer closeRepo()

		deleted, err := linkService.PurgeExpired(c.Context())
		if err != nil {
			// Les suppressions réussies restent acquises.
			fmt.Printf("%d lien(s) expiré(s) supprimé(s) avant l'erreur.\n", deleted)
			fail(err)
		}
		fmt.Printf("%d lien(s) expiré(s) supprimé(s).\n", deleted)
	},
}

func init() {
	cmd.RootCmd.AddCommand(PurgeCmd)
}
