package logging

import (
	"log/slog"
	"net/url"
	"strings"

	"crowdsale/crypto"
)

// RedactedValue replaces credentials in log output.
const RedactedValue = "[REDACTED]"

// Keys containing any of these fragments never reach a sink in clear text.
var sensitiveFragments = []string{
	"secret",
	"passphrase",
	"password",
	"authorization",
	"privatekey",
	"private_key",
}

// Sensitive reports whether values logged under key are masked by the handler.
func Sensitive(key string) bool {
	normalized := strings.ToLower(strings.TrimSpace(key))
	for _, fragment := range sensitiveFragments {
		if strings.Contains(normalized, fragment) {
			return true
		}
	}
	return false
}

// Secret logs whether a credential is configured without revealing it.
func Secret(key, value string) slog.Attr {
	if strings.TrimSpace(value) == "" {
		return slog.String(key, "")
	}
	return slog.String(key, RedactedValue)
}

// DSN strips the password from a connection string. Values that do not parse
// as URLs, such as plain sqlite paths, are logged unchanged.
func DSN(key, dsn string) slog.Attr {
	u, err := url.Parse(dsn)
	if err != nil || u.User == nil {
		return slog.String(key, dsn)
	}
	if _, ok := u.User.Password(); !ok {
		return slog.String(key, dsn)
	}
	return slog.String(key, u.Redacted())
}

// Address renders addr as a bech32 attribute.
func Address(key string, addr [20]byte) slog.Attr {
	return slog.String(key, crypto.FormatAddress(addr))
}

func redact(attr slog.Attr) slog.Attr {
	if attr.Value.Kind() == slog.KindGroup || !Sensitive(attr.Key) {
		return attr
	}
	return Secret(attr.Key, attr.Value.String())
}
