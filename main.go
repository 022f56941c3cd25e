package main

import (
	"github.com/teenyweeny/urlshortener/cmd"
	_ "github.com/teenyweeny/urlshortener/cmd/cli"
	_ "github.com/teenyweeny/urlshortener/cmd/server"
)

func main() {
	cmd.Execute()
}
