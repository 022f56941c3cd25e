package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/teenyweeny/urlshortener/cmd"
)

// DeleteCmd supprime un lien par son identifiant.
var DeleteCmd = &cobra.Command{
	Use:   "delete [id]",
	Short: "Delete a short link by id",
	Args:  cobra.ExactArgs(1),
	Run: func(c *cobra.Command, args []string) {
		linkService, closeRepo := openService(c)
		defer closeRepo()

		removed, err := linkService.DeleteLink(c.Context(), args[0])
		if err != nil {
			fail(err)
		}
		if removed {
			fmt.Printf("Lien %s supprimé.\n", args[0])
			return
		}
		fmt.Printf("Aucun lien avec l'id %s.\n", args[0])
	},
}

func init() {
	cmd.RootCmd.AddCommand(DeleteCmd)
}
