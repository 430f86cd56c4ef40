// Command ledger_token mints and checks bearer tokens for the ledger API.
// Identities are issued elsewhere in production; this is for local use and
// for provisioning JWT_SECRET values.
package main

import (
	"flag"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/SscSPs/expense_ledger/internal/platform/config"
	"github.com/SscSPs/expense_ledger/internal/utils"
)

func main() {
	var (
		owner     = flag.String("owner", "", "owner ID to put in the token subject")
		expiry    = flag.Duration("expiry", 24*time.Hour, "token lifetime")
		verify    = flag.String("verify", "", "token to verify instead of minting one")
		newSecret = flag.Bool("new-secret", false, "print a fresh random JWT_SECRET and exit")
	)
	flag.Parse()

	logger := slog.New(slog.NewTextHandler(os.Stderr, nil))

	if *newSecret {
		secret, err := utils.GenerateSecret(utils.MinSecretBytes)
		if err != nil {
			logger.Error("Failed to generate secret", slog.String("error", err.Error()))
			os.Exit(1)
		}
		fmt.Println(secret)
		return
	}

	cfg, err := config.LoadConfig()
	if err != nil {
		logger.Error("Failed to load config", slog.String("error", err.Error()))
		os.Exit(1)
	}

	if *verify != "" {
		claims, err := utils.ParseAndValidateJWT(*verify, cfg.JWTSecret, cfg.JWTIssuer)
		if err != nil {
			logger.Error("Token rejected", slog.String("error", err.Error()))
			os.Exit(1)
		}
		expires := "never"
		if claims.ExpiresAt != nil {
			expires = claims.ExpiresAt.Time.Format(time.RFC3339)
		}
		fmt.Printf("owner=%s expires=%s\n", claims.Subject, expires)
		return
	}

	if *owner == "" {
		logger.Error("-owner is required")
		flag.Usage()
		os.Exit(2)
	}
	token, err := utils.GenerateJWT(*owner, cfg.JWTSecret, *expiry, cfg.JWTIssuer)
	if err != nil {
		logger.Error("Failed to sign token", slog.String("error", err.Error()))
		os.Exit(1)
	}
	fmt.Println(token)
}
