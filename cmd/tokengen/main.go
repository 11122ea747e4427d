// tokengen mints service tokens for the OCR API when AUTH_REQUIRED is set.
// The token is signed with the same JWT_SECRET the server validates against.
package main

import (
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/joho/godotenv"

	"github.com/padvis/ocr-serve/internal/config"
	"github.com/padvis/ocr-serve/internal/middleware"
)

func main() {
	godotenv.Load()

	name := flag.String("name", "", "caller name embedded in the token (required)")
	ttl := flag.Duration("ttl", 30*24*time.Hour, "token lifetime")
	flag.Parse()

	if *name == "" {
		fmt.Fprintln(os.Stderr, "usage: tokengen -name <caller> [-ttl <duration>]")
		os.Exit(2)
	}

	cfg := config.Load()

	now := time.Now()
	claims := middleware.ServiceClaims{
		Name: *name,
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(*ttl)),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString([]byte(cfg.JWTSecret))
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to sign token: %v\n", err)
		os.Exit(1)
	}

	fmt.Println(signed)
}
