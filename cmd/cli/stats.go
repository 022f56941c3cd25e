package cli

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/teenyweeny/urlshortener/cmd"
	"github.com/teenyweeny/urlshortener/internal/shorturl"
)

// StatsCmd représente la commande 'stats'
var StatsCmd = &cobra.Command{
	Use:   "stats [short-code]",
	Short: "Get statistics for a short URL, or for all of them",
	Long: `Get click statistics for the provided short code.
Without a short code, prints the totals and the top performing links.`,
	Args: cobra.MaximumNArgs(1),
	Run:  runStats,
}

func init() {
	cmd.RootCmd.AddCommand(StatsCmd)
}

// runStats exécute la logique pour la commande stats
func runStats(c *cobra.Command, args []string) {
	linkService, closeRepo := openService(c)
	defer closeRepo()
	now := linkService.Now()

	if len(args) == 0 {
		o, err := linkService.Stats(c.Context())
		if err != nil {
			fail(err)
		}
		fmt.Printf("Total de liens: %d\n", o.TotalLinks)
		fmt.Printf("Total de clics: %d\n", o.TotalClicks)
		fmt.Printf("Moyenne de clics par lien: %.2f\n", o.AverageClicks)
		if len(o.TopPerformers) > 0 {
			fmt.Println("Top liens:")
			for i, l := range o.TopPerformers {
				fmt.Printf("  %d. %s  %d clics  %s\n", i+1, linkService.FullShortURL(&l), l.Clicks, l.OriginalURL)
			}
		}
		return
	}

	shortCode := args[0]
	// Lire les statistiques ne compte pas comme un clic.
	link, err := linkService.Resolve(c.Context(), shortCode)
	if err != nil {
		fail(err)
	}

	fmt.Printf("Statistiques pour le code court: %s\n", shortCode)
	fmt.Printf("URL longue: %s\n", link.OriginalURL)
	fmt.Printf("URL courte: %s\n", linkService.FullShortURL(link))
	fmt.Printf("Total de clics: %d\n", link.Clicks)
	fmt.Printf("Date de création: %s (%s)\n",
		time.UnixMilli(link.CreatedAt).Format("2006-01-02 15:04:05"), shorturl.TimeAgo(link.CreatedAt, now))
	fmt.Printf("Expiration: %s\n", shorturl.FormatExpiration(link.ExpiresAt, now))
}
