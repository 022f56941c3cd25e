package cli

import (
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/teenyweeny/urlshortener/cmd"
	"github.com/teenyweeny/urlshortener/internal/services"
	"github.com/teenyweeny/urlshortener/internal/shorturl"
)

var (
	searchFlag string
	sortFlag   string
)

// ListCmd affiche les liens, filtrés et triés comme sur le tableau de bord.
var ListCmd = &cobra.Command{
	Use:   "list",
	Short: "List short links",
	Long: `List every stored link. Expired links that were not purged yet are shown as Expired.

Exemple:
  teenyweeny list --q=example --sort=most-clicks`,
	Args: cobra.NoArgs,
	Run: func(c *cobra.Command, args []string) {
		key, err := services.ParseSortKey(sortFlag)
		if err != nil {
			fail(err)
		}

		linkService, closeRepo := openService(c)
		defer closeRepo()

		links, err := linkService.List(c.Context(), searchFlag, key)
		if err != nil {
			fail(err)
		}
		if len(links) == 0 {
			fmt.Println("Aucun lien.")
			return
		}

		now := linkService.Now()
		w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
		fmt.Fprintln(w, "ID\tSHORT URL\tCLICKS\tCREATED\tEXPIRES\tORIGINAL URL")
		for i := range links {
			l := &links[i]
			fmt.Fprintf(w, "%s\t%s\t%d\t%s\t%s\t%s\n",
				l.ID, linkService.FullShortURL(l), l.Clicks,
				shorturl.TimeAgo(l.CreatedAt, now), shorturl.FormatExpiration(l.ExpiresAt, now), l.OriginalURL)
		}
		_ = w.Flush()
	},
}

func init() {
	ListCmd.Flags().StringVar(&searchFlag, "q", "", "Only links whose URL or code contains this text")
	ListCmd.Flags().StringVar(&sortFlag, "sort", string(services.SortNewest), "Order: newest, oldest or most-clicks")
	cmd.RootCmd.AddCommand(ListCmd)
}
