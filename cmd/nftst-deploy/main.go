// Command nftst-deploy deploys the NFTst contract to Sepolia and prints its address.
package main

import (
	"os"

	"github.com/Bidon15/nftst-deployer/internal/cli"
)

func main() {
	os.Exit(cli.Execute())
}
