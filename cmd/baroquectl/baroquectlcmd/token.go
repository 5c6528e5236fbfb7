package baroquectlcmd

import (
	"errors"
	"fmt"
	"os"
	"time"

	"go.cbdd.dev/baroquedb/auth"
)

// AuthConfig configures pre-shared keys of API authorization.
type AuthConfig struct {
	Keys string `long:"keys" env:"KEYS" description:"Whitespace or comma separated, base64-encoded keys. The first key is used to sign tokens. If not set, requests aren't authorized"`
}

type cmdToken struct {
	Auth       AuthConfig    `group:"Auth" namespace:"auth" env-namespace:"AUTH"`
	Capability []string      `long:"capability" short:"c" choice:"status" choice:"query" choice:"all" default:"all" description:"Capability granted by the token. May be repeated"`
	Expiry     time.Duration `long:"expiry" default:"24h" description:"Duration after which the token expires"`
}

func init() {
	CommandRegistry.AddCommand("", "token", "Sign an API authorization token", `
Sign a bearer token for the API of 'baroquectl serve', using the first of
the configured --auth.keys.

>    baroquectl token --auth.keys c2VjcmV0 --capability query --expiry 1h
`, &cmdToken{})
}

func (cmd *cmdToken) Execute([]string) error {
	startup()

	var token, err = cmd.sign()
	if err != nil {
		return err
	}
	_, err = fmt.Fprintln(os.Stdout, token)
	return err
}

func (cmd *cmdToken) sign() (string, error) {
	if cmd.Auth.Keys == "" {
		return "", errors.New("expected --auth.keys")
	}
	var ka, err = auth.NewKeyedAuth(cmd.Auth.Keys)
	if err != nil {
		return "", err
	}

	var claims auth.Claims
	for _, c := range cmd.Capability {
		switch c {
		case "status":
			claims.Capability |= auth.CapabilityStatus
		case "query":
			claims.Capability |= auth.CapabilityQuery
		case "all":
			claims.Capability |= auth.CapabilityAll
		}
	}
	return ka.Token(claims, cmd.Expiry)
}
