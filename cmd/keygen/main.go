// Command keygen issues premium or trial codes and admin tokens from the
// command line for support staff.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"

	"github.com/sbpremium/gifts-backend/pkg/auth"
	"github.com/sbpremium/gifts-backend/pkg/config"
	"github.com/sbpremium/gifts-backend/pkg/enums"
	"github.com/sbpremium/gifts-backend/pkg/logger"
)

func main() {
	logg := logger.New(logger.Options{ServiceName: "keygen"})
	_ = godotenv.Load()

	duration := flag.String("duration", "7D", "code duration: 1D|3D|7D|14D|30D")
	kind := flag.String("kind", string(enums.CodeKindPremium), "code kind: premium|trial")
	count := flag.Int("count", 1, "number of codes to issue")
	adminToken := flag.String("admin-token", "", "mint an admin token for this developer id instead of codes")
	flag.Parse()

	if subject := strings.TrimSpace(*adminToken); subject != "" {
		cfg, err := config.Load()
		if err != nil {
			logg.Error(context.Background(), "failed to load config", err)
			os.Exit(1)
		}
		token, err := auth.MintAdminToken(cfg.Admin, time.Now(), subject)
		if err != nil {
			logg.Error(context.Background(), "failed to mint admin token", err)
			os.Exit(1)
		}
		fmt.Println(token)
		return
	}

	if err := run(os.Stdout, *duration, *kind, *count); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
