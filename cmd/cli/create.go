package cli

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/teenyweeny/urlshortener/cmd"
	"github.com/teenyweeny/urlshortener/internal/services"
	"github.com/teenyweeny/urlshortener/internal/shorturl"
)

var (
	longURLFlag   string
	customCode    string
	customDomain  string
	expiresInFlag time.Duration
)

// CreateCmd représente la commande 'create'
var CreateCmd = &cobra.Command{
	Use:   "create",
	Short: "Crée une URL courte à partir d'une URL longue.",
	Long: `Cette commande raccourcit une URL longue fournie et affiche le code court généré.

Exemple:
  teenyweeny create --url="https://www.google.com/search?q=go+lang"
  teenyweeny create --url=example.com --code=docs --domain=go.example.com --expires-in=24h`,
	Run: func(c *cobra.Command, args []string) {
		linkService, closeRepo := openService(c)
		defer closeRepo()

		opts := services.CreateOptions{CustomCode: customCode, CustomDomain: customDomain}
		if expiresInFlag > 0 {
			at := linkService.Now().Add(expiresInFlag).UnixMilli()
			opts.ExpiresAt = &at
		}

		// Appeler le LinkService pour créer le lien court.
		link, err := linkService.CreateLink(c.Context(), longURLFlag, opts)
		if err != nil {
			fail(err)
		}

		fmt.Printf("URL courte créée avec succès:\n")
		fmt.Printf("Code: %s\n", link.ShortCode)
		fmt.Printf("URL complète: %s\n", linkService.FullShortURL(link))
		fmt.Printf("Expiration: %s\n", shorturl.FormatExpiration(link.ExpiresAt, linkService.Now()))
		fmt.Printf("ID: %s\n", link.ID)
	},
}

func init() {
	CreateCmd.Flags().StringVar(&longURLFlag, "url", "", "The long URL to shorten")
	CreateCmd.Flags().StringVar(&customCode, "code", "", "Custom short code (letters, digits, '-' and '_')")
	CreateCmd.Flags().StringVar(&customDomain, "domain", "", "Custom domain used in the short URL")
	CreateCmd.Flags().DurationVar(&expiresInFlag, "expires-in", 0, "Lifetime of the link, e.g. 90m or 24h (0 = never)")

	// Marquer le flag comme requis
	_ = CreateCmd.MarkFlagRequired("url")

	cmd.RootCmd.AddCommand(CreateCmd)
}
