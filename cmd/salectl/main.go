package main

import (
	"encoding/hex"
	"flag"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"crowdsale/cmd/internal/passphrase"
	"crowdsale/crypto"
	"crowdsale/gateway/middleware"
)

func main() {
	os.Exit(run(os.Args[1:], os.Stdout, os.Stderr))
}

func run(args []string, stdout, stderr io.Writer) int {
	if len(args) < 1 {
		printUsage(stderr)
		return 2
	}
	switch args[0] {
	case "keygen":
		return runKeygen(args[1:], stdout, stderr)
	case "inspect":
		return runInspect(args[1:], stdout, stderr)
	case "token":
		return runToken(args[1:], stdout, stderr)
	case "address":
		return runAddress(args[1:], stdout, stderr)
	case "help", "-h", "--help":
		printUsage(stdout)
		return 0
	default:
		fmt.Fprintf(stderr, "unknown command %q\n", args[0])
		printUsage(stderr)
		return 2
	}
}

func printUsage(w io.Writer) {
	fmt.Fprintln(w, "Usage: salectl <command> [flags]")
	fmt.Fprintln(w, "  keygen [-out <file>]         generate a secp256k1 key and its address")
	fmt.Fprintln(w, "  inspect -keystore <file>     print the address held by a keystore")
	fmt.Fprintln(w, "  token -subject <addr> ...    mint a gateway bearer token")
	fmt.Fprintln(w, "  address -label <name>        print the derived module account address")
}

const defaultPassEnv = "SALE_KEYSTORE_PASS"

// runKeygen prints a fresh key. With -out the key is written to an encrypted
// keystore instead of being printed.
func runKeygen(args []string, stdout, stderr io.Writer) int {
	fs := flag.NewFlagSet("keygen", flag.ContinueOnError)
	fs.SetOutput(stderr)
	out := fs.String("out", "", "write the key to an encrypted keystore file")
	passEnv := fs.String("pass-env", defaultPassEnv, "environment variable holding the keystore passphrase")
	if err := fs.Parse(args); err != nil {
		return 2
	}
	key, err := crypto.GeneratePrivateKey()
	if err != nil {
		fmt.Fprintf(stderr, "generate key: %v\n", err)
		return 1
	}
	if *out == "" {
		fmt.Fprintf(stdout, "address: %s\n", key.PubKey().Address().String())
		fmt.Fprintf(stdout, "private key: %s\n", hex.EncodeToString(key.Bytes()))
		return 0
	}
	pass, err := passphrase.NewSource(*passEnv, "keystore").Get()
	if err != nil {
		fmt.Fprintln(stderr, err)
		return 1
	}
	addr, err := crypto.WriteKeystore(*out, key, pass)
	if err != nil {
		fmt.Fprintf(stderr, "write keystore: %v\n", err)
		return 1
	}
	fmt.Fprintf(stdout, "address: %s\n", addr.String())
	fmt.Fprintf(stdout, "keystore: %s\n", *out)
	return 0
}

func runInspect(args []string, stdout, stderr io.Writer) int {
	fs := flag.NewFlagSet("inspect", flag.ContinueOnError)
	fs.SetOutput(stderr)
	path := fs.String("keystore", "", "keystore file")
	passEnv := fs.String("pass-env", defaultPassEnv, "environment variable holding the keystore passphrase")
	if err := fs.Parse(args); err != nil {
		return 2
	}
	pass, err := passphrase.NewSource(*passEnv, "keystore").Get()
	if err != nil {
		fmt.Fprintln(stderr, err)
		return 1
	}
	key, err := crypto.ReadKeystore(*path, pass)
	if err != nil {
		fmt.Fprintf(stderr, "read keystore: %v\n", err)
		return 1
	}
	fmt.Fprintf(stdout, "address: %s\n", key.PubKey().Address().String())
	return 0
}

func runToken(args []string, stdout, stderr io.Writer) int {
	fs := flag.NewFlagSet("token", flag.ContinueOnError)
	fs.SetOutput(stderr)
	subject := fs.String("subject", "", "bech32 address of the caller")
	scopes := fs.String("scopes", "", "comma-separated scopes (operator,board,auditor,kyc,oracle)")
	secretEnv := fs.String("secret-env", "SALE_JWT_SECRET", "environment variable holding the HMAC secret")
	issuer := fs.String("issuer", "", "token issuer")
	ttl := fs.Duration("ttl", time.Hour, "token lifetime")
	if err := fs.Parse(args); err != nil {
		return 2
	}
	addr, err := crypto.ParseAddress(*subject)
	if err != nil {
		fmt.Fprintf(stderr, "invalid subject: %v\n", err)
		return 2
	}
	var scopeList []string
	for _, scope := range strings.Split(*scopes, ",") {
		if trimmed := strings.TrimSpace(scope); trimmed != "" {
			scopeList = append(scopeList, trimmed)
		}
	}
	token, err := middleware.IssueToken(os.Getenv(*secretEnv), *issuer, addr, scopeList, *ttl, time.Now())
	if err != nil {
		fmt.Fprintf(stderr, "issue token: %v (set %s)\n", err, *secretEnv)
		return 1
	}
	fmt.Fprintln(stdout, token)
	return 0
}

func runAddress(args []string, stdout, stderr io.Writer) int {
	fs := flag.NewFlagSet("address", flag.ContinueOnError)
	fs.SetOutput(stderr)
	label := fs.String("label", "", "module account label (sale, custody)")
	if err := fs.Parse(args); err != nil {
		return 2
	}
	if strings.TrimSpace(*label) == "" {
		fmt.Fprintln(stderr, "label required")
		return 2
	}
	fmt.Fprintln(stdout, crypto.FormatAddress(crypto.DeriveAddress(*label)))
	return 0
}
