// Package jwt provides the command generating the secret shared with the execution client.
package jwt

import (
	"crypto/rand"
	"os"
	"path/filepath"

	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
	"github.com/urfave/cli/v2"
)

var log = logrus.WithField("prefix", "jwt")

const secretLength = 32

// OutputFileFlag is where the generated secret is written.
var OutputFileFlag = &cli.StringFlag{
	Name:  "output-file",
	Usage: "Target file the hex encoded secret is written to",
	Value: "jwt.hex",
}

// Command generates a random 32 byte secret for engine API authentication.
var Command = &cli.Command{
	Name:        "generate-auth-secret",
	Usage:       "creates a random, 32 byte hex string in a plaintext file to be used for authenticating JSON-RPC requests",
	Description: "The same file is passed to the beacon node with --jwt-secret and to the execution client.",
	Flags:       []cli.Flag{OutputFileFlag},
	Action: func(cliCtx *cli.Context) error {
		path, err := generateSecretFile(cliCtx.String(OutputFileFlag.Name))
		if err != nil {
			return err
		}
		log.WithField("path", path).Info("Wrote new JWT secret")
		return nil
	},
}

func generateSecretFile(fileName string) (string, error) {
	if fileName == "" {
		return "", errors.New("no output file given")
	}
	path, err := filepath.Abs(fileName)
	if err != nil {
		return "", err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
		return "", errors.Wrap(err, "could not create secret directory")
	}
	secret := make([]byte, secretLength)
	if _, err := rand.Read(secret); err != nil {
		return "", errors.Wrap(err, "could not read random bytes")
	}
	if err := os.WriteFile(path, []byte(hexutil.Encode(secret)), 0600); err != nil {
		return "", errors.Wrap(err, "could not write secret")
	}
	return path, nil
}
