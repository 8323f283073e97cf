// Command sealsecret encrypts a secret with Cloud KMS and prints a kms://
// reference that can be used as an API key value in the service config.
//
//	echo -n "$GROQ_KEY" | sealsecret -key projects/p/locations/global/keyRings/r/cryptoKeys/k
package main

import (
	"bufio"
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"strings"

	gcpkms "cloud.google.com/go/kms/apiv1"

	"github.com/GregMSThompson/swift-sage/internal/crypto"
	"github.com/GregMSThompson/swift-sage/internal/secrets"
	"github.com/GregMSThompson/swift-sage/pkg/logger"
)

func main() {
	keyName := flag.String("key", os.Getenv("KMSKEYNAME"), "KMS crypto key resource name")
	decrypt := flag.Bool("decrypt", false, "decrypt a kms:// reference instead of sealing a value")
	flag.Parse()

	log := logger.New(os.Getenv("LOGLEVEL"), logger.NewCloudRunHandler)
	ctx := logger.ToContext(context.Background(), log)

	if err := run(ctx, os.Stdin, os.Stdout, *keyName, *decrypt); err != nil {
		log.Error("sealsecret failed", "error", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, in io.Reader, out io.Writer, keyName string, decrypt bool) error {
	if keyName == "" {
		return errors.New("-key or KMSKEYNAME is required")
	}
	value, err := readValue(in)
	if err != nil {
		return err
	}

	client, err := gcpkms.NewKeyManagementClient(ctx)
	if err != nil {
		return err
	}
	defer client.Close()

	return seal(ctx, crypto.NewKMS(client, keyName), value, decrypt, out)
}

type sealer interface {
	KmsEncrypt(ctx context.Context, plaintext string) (string, error)
	KmsDecrypt(ctx context.Context, ciphertext string) (string, error)
}

func seal(ctx context.Context, k sealer, value string, decrypt bool, out io.Writer) error {
	if decrypt {
		plain, err := (&secrets.Resolver{KMS: k}).Resolve(ctx, value)
		if err != nil {
			return err
		}
		_, err = fmt.Fprintln(out, plain)
		return err
	}

	sealed, err := k.KmsEncrypt(ctx, value)
	if err != nil {
		return err
	}
	_, err = fmt.Fprintln(out, secrets.KMSScheme+sealed)
	return err
}

func readValue(in io.Reader) (string, error) {
	b, err := io.ReadAll(bufio.NewReader(in))
	if err != nil {
		return "", err
	}
	value := strings.TrimRight(string(b), "\r\n")
	if value == "" {
		return "", errors.New("no value on stdin")
	}
	return value, nil
}

