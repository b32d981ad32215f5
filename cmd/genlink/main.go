// GENLINK - cmd/genlink/main.go
// Development helper that signs an invitation link without going through
// the order API.
package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/joho/godotenv"

	"onboarding/internal/invitation"
	"onboarding/pkg/config"
)

func main() {
	_ = godotenv.Load()

	oc := flag.String("oc", "", "service order number")
	osID := flag.String("os", "", "order server id")
	country := flag.String("country", "co", "country code for the invited supplier")
	flag.Parse()

	if *oc == "" || *osID == "" {
		fmt.Fprintln(os.Stderr, "usage: genlink -oc <order> -os <server> [-country co]")
		os.Exit(2)
	}

	cfg := config.Load()
	links := invitation.NewLinkBuilder(cfg.Link.BaseURL, cfg.Link.Secret, cfg.Link.Expiration)

	link, err := links.Build(*oc, *osID, *country)
	if err != nil {
		fmt.Fprintln(os.Stderr, "failed to sign link:", err)
		os.Exit(1)
	}

	fmt.Println(link)
}
