package main

import (
	"fmt"
	"io"
	"time"

	"github.com/sbpremium/gifts-backend/internal/keys"
	"github.com/sbpremium/gifts-backend/pkg/enums"
)

func run(out io.Writer, rawDuration, rawKind string, count int) error {
	return runWith(keys.NewIssuer(), out, rawDuration, rawKind, count)
}

func runWith(issuer *keys.Issuer, out io.Writer, rawDuration, rawKind string, count int) error {
	d, err := enums.ParseDuration(rawDuration)
	if err != nil {
		return err
	}
	kind := enums.CodeKind(rawKind)
	if !kind.IsValid() {
		return fmt.Errorf("invalid kind %q", rawKind)
	}
	if count < 1 {
		return fmt.Errorf("count must be at least 1")
	}

	for i := 0; i < count; i++ {
		var issued keys.Issued
		if kind == enums.CodeKindTrial {
			issued = issuer.Trial(d)
		} else {
			issued = issuer.Premium(d)
		}
		expires := "never"
		if issued.ExpiresAt != nil {
			expires = issued.ExpiresAt.Format(time.RFC3339)
		}
		if _, err := fmt.Fprintf(out, "%s\t%s\t%s\n", issued.Code, issued.Duration, expires); err != nil {
			return err
		}
	}
	return nil
}
