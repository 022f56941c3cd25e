package cli

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/teenyweeny/urlshortener/cmd"
	customerrors "github.com/teenyweeny/urlshortener/internal/errors"
	"github.com/teenyweeny/urlshortener/internal/services"
)

// openService ouvre le store configuré ou termine le programme.
// La fonction retournée ferme le store et doit être appelée via defer.
func openService(c *cobra.Command) (*services.LinkService, func()) {
	svc, closeRepo, err := cmd.OpenLinkService(c.Context())
	if err != nil {
		cmd.Log.Fatal().Err(err).Str("driver", cmd.Cfg.Store.Driver).Msg("Failed to open link store")
	}
	return svc, func() {
		if err := closeRepo(); err != nil {
			cmd.Log.Error().Err(err).Msg("Failed to close link store")
		}
	}
}

// fail affiche un message lisible pour les erreurs attendues et quitte.
func fail(err error) {
	switch {
	case errors.Is(err, customerrors.ErrShortCodeNotFound):
		fmt.Println("Error: short code not found")
	case errors.Is(err, customerrors.ErrCodeUnavailable):
		fmt.Println("Error: this custom code is already taken")
	default:
		fmt.Printf("Error: %v\n", err)
	}
	os.Exit(1)
}
