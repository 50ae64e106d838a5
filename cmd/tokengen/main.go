// Package main provides a CLI tool for generating test tokens and keys for
// the tempora API. These tokens use the dev signing key and will NOT work in
// production.
package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"tempora/internal/temporal/secretstore"
)

const (
	// Dev signing key - matches config.go when JWT_SIGNING_KEY is not set
	devSigningKey = "dev-secret-key-change-in-production"

	defaultTokenTTL = 15 * time.Minute
)

type tokenOutput struct {
	Token     string            `json:"token"`
	Type      string            `json:"type"`
	ExpiresIn string            `json:"expires_in,omitempty"`
	Usage     map[string]string `json:"usage"`
}

func main() {
	issuerCmd := flag.NewFlagSet("issuer", flag.ExitOnError)
	issuerSubject := issuerCmd.String("subject", "registrar@university.example", "Token subject")
	issuerTTL := issuerCmd.Duration("ttl", defaultTokenTTL, "Token time-to-live")
	issuerKey := issuerCmd.String("key", devSigningKey, "HS256 signing key")
	issuerJSON := issuerCmd.Bool("json", false, "Output as JSON")

	keyCmd := flag.NewFlagSet("secrets-key", flag.ExitOnError)
	keyJSON := keyCmd.Bool("json", false, "Output as JSON")

	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}

	switch os.Args[1] {
	case "issuer":
		issuerCmd.Parse(os.Args[2:])
		generateIssuerToken(*issuerSubject, *issuerKey, *issuerTTL, *issuerJSON)
	case "secrets-key":
		keyCmd.Parse(os.Args[2:])
		generateSecretsKey(*keyJSON)
	case "help", "-h", "--help":
		printUsage()
	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n\n", os.Args[1])
		printUsage()
		os.Exit(1)
	}
}

func printUsage() {
	fmt.Println(`tokengen - Generate test tokens and keys for the tempora API

WARNING: issuer tokens use the dev signing key by default and will NOT work
         in production. Only use for local development and testing.

Usage:
  tokengen <command> [flags]

Commands:
  issuer       Generate a bearer token for the issuance endpoints
  secrets-key  Generate an encryption key for TEMPORA_SECRETS_KEY

Examples:
  # Generate issuer token with defaults
  tokengen issuer

  # Generate issuer token with a custom subject and TTL
  tokengen issuer -subject "registrar@mit.example" -ttl 1h

  # Generate a fresh key for the encrypted secret store
  tokengen secrets-key

Use "tokengen <command> -h" for more information about a command.`)
}

func generateIssuerToken(subject, signingKey string, ttl time.Duration, jsonOutput bool) {
	now := time.Now()
	claims := jwt.RegisteredClaims{
		Subject:   subject,
		Issuer:    "tempora-tokengen",
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
	}

	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(signingKey))
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error generating token: %v\n", err)
		os.Exit(1)
	}

	if jsonOutput {
		printJSON(tokenOutput{
			Token:     token,
			Type:      "issuer_token",
			ExpiresIn: ttl.String(),
			Usage: map[string]string{
				"header": "Authorization: Bearer <token>",
			},
		})
		return
	}

	fmt.Println("Issuer Token (JWT)")
	fmt.Println("==================")
	fmt.Printf("Subject:    %s\n", subject)
	fmt.Printf("Expires In: %s\n", ttl)
	fmt.Println()
	fmt.Println("Token:")
	fmt.Println(token)
	fmt.Println()
	fmt.Println("Usage:")
	fmt.Println("  curl -H \"Authorization: Bearer <token>\" http://localhost:8080/api/credentials/issue")
}

func generateSecretsKey(jsonOutput bool) {
	key, err := secretstore.GenerateKey()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error generating key: %v\n", err)
		os.Exit(1)
	}

	if jsonOutput {
		printJSON(tokenOutput{
			Token: key,
			Type:  "secrets_key",
			Usage: map[string]string{
				"env": "TEMPORA_SECRETS_KEY=" + key,
			},
		})
		return
	}

	fmt.Println("Secret Store Key")
	fmt.Println("================")
	fmt.Printf("Key: %s\n", key)
	fmt.Println()
	fmt.Println("Usage:")
	fmt.Println("  export TEMPORA_SECRETS_KEY=" + key)
}

func printJSON(v any) {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		fmt.Fprintf(os.Stderr, "Error encoding JSON: %v\n", err)
		os.Exit(1)
	}
}
