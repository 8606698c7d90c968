package main

import (
	"bufio"
	"bytes"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"golang.org/x/crypto/bcrypt"
	"golang.org/x/term"
)

const (
	// minTokenLength matches what operators can reasonably paste into a header.
	minTokenLength = 16
	// generatedTokenBytes is the entropy of tokens produced by "generate".
	generatedTokenBytes = 24
	// defaultCost is the bcrypt cost used for stored hashes.
	defaultCost = bcrypt.DefaultCost
)

var (
	errTokenMismatch = errors.New("tokens do not match")
	errTokenTooShort = fmt.Errorf("token must be at least %d characters", minTokenLength)
)

// secretReader reads one secret, hiding input when stdin is a terminal.
type secretReader func(prompt string) ([]byte, error)

func main() {
	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}

	read := stdinSecretReader(os.Stdin, os.Stderr)

	var err error
	switch command := os.Args[1]; command {
	case "hash":
		err = runHash(read, os.Stdout)
	case "generate":
		err = runGenerate(os.Stdout)
	case "verify":
		if len(os.Args) < 3 {
			fmt.Fprintln(os.Stderr, "Error: verify needs the stored hash as an argument")
			printUsage()
			os.Exit(1)
		}
		err = runVerify(read, os.Args[2], os.Stdout)
	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n", sanitizeCommand(command)) //nolint:gosec // only [a-zA-Z0-9_-] survive sanitizeCommand
		printUsage()
		os.Exit(1)
	}

	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// sanitizeCommand returns a safe representation of a command string for display.
// Any character that is not alphanumeric, a hyphen, or an underscore becomes '_'.
func sanitizeCommand(cmd string) string {
	var b strings.Builder
	b.Grow(len(cmd))
	for _, r := range cmd {
		if (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z') || (r >= '0' && r <= '9') || r == '-' || r == '_' {
			b.WriteRune(r)
		} else {
			b.WriteRune('_')
		}
	}
	return b.String()
}

func printUsage() {
	fmt.Println("Audio Merger API Token Tool")
	fmt.Println("")
	fmt.Println("Usage: hashtoken <command>")
	fmt.Println("")
	fmt.Println("Commands:")
	fmt.Println("  hash          - Prompt for a token and print its bcrypt hash")
	fmt.Println("  generate      - Create a random token and print it with its hash")
	fmt.Println("  verify <hash> - Prompt for a token and check it against a hash")
	fmt.Println("")
	fmt.Println("Set the printed hash as API_TOKEN_HASH to require the token on /merge.")
}

// stdinSecretReader prompts on out. Terminal input is read without echo;
// piped input is read one line at a time.
func stdinSecretReader(in *os.File, out io.Writer) secretReader {
	fd := int(in.Fd()) //nolint:gosec // file descriptors fit in int
	if term.IsTerminal(fd) {
		return func(prompt string) ([]byte, error) {
			fmt.Fprint(out, prompt)
			secret, err := term.ReadPassword(fd)
			fmt.Fprintln(out)
			return secret, err
		}
	}
	return lineSecretReader(in)
}

func lineSecretReader(in io.Reader) secretReader {
	scanner := bufio.NewScanner(in)
	return func(string) ([]byte, error) {
		if !scanner.Scan() {
			if err := scanner.Err(); err != nil {
				return nil, err
			}
			return nil, io.ErrUnexpectedEOF
		}
		return bytes.TrimSpace(scanner.Bytes()), nil
	}
}

// readNewToken reads a token twice and validates it.
func readNewToken(read secretReader) ([]byte, error) {
	token, err := read("API token: ")
	if err != nil {
		return nil, fmt.Errorf("reading token: %w", err)
	}
	token = bytes.Clone(token)

	confirm, err := read("Confirm token: ")
	if err != nil {
		return nil, fmt.Errorf("reading token: %w", err)
	}

	if !bytes.Equal(token, confirm) {
		return nil, errTokenMismatch
	}
	if len(token) < minTokenLength {
		return nil, errTokenTooShort
	}
	return token, nil
}

func runHash(read secretReader, out io.Writer) error {
	token, err := readNewToken(read)
	if err != nil {
		return err
	}

	hash, err := bcrypt.GenerateFromPassword(token, defaultCost)
	if err != nil {
		return fmt.Errorf("hashing token: %w", err)
	}

	fmt.Fprintf(out, "API_TOKEN_HASH=%s\n", hash)
	return nil
}

func runGenerate(out io.Writer) error {
	token, err := generateToken()
	if err != nil {
		return err
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(token), defaultCost)
	if err != nil {
		return fmt.Errorf("hashing token: %w", err)
	}

	fmt.Fprintf(out, "Token:          %s\n", token)
	fmt.Fprintf(out, "API_TOKEN_HASH=%s\n", hash)
	fmt.Fprintln(out, "Store the token now; it cannot be recovered from the hash.")
	return nil
}

func generateToken() (string, error) {
	buf := make([]byte, generatedTokenBytes)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("generating token: %w", err)
	}
	return hex.EncodeToString(buf), nil
}

func runVerify(read secretReader, hash string, out io.Writer) error {
	if _, err := bcrypt.Cost([]byte(hash)); err != nil {
		return fmt.Errorf("invalid hash: %w", err)
	}

	token, err := read("API token: ")
	if err != nil {
		return fmt.Errorf("reading token: %w", err)
	}

	if err := bcrypt.CompareHashAndPassword([]byte(hash), token); err != nil {
		if errors.Is(err, bcrypt.ErrMismatchedHashAndPassword) {
			return errTokenMismatch
		}
		return err
	}

	fmt.Fprintln(out, "Token matches.")
	return nil
}
