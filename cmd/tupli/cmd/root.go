package cmd

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/tumcps/tupli/pkg/schema"
	"github.com/tumcps/tupli/pkg/tupli"
)

var (
	serverURL string
	localDir  string
)

var rootCmd = &cobra.Command{
	Use:   "tupli",
	Short: "Client for the RL benchmark registry",
	Long: `tupli manages benchmarks, artifacts, and recorded episodes, either
against a registry server or a local directory (--local).`,
}

// Execute runs the root command
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	defaultServer := os.Getenv("TUPLI_SERVER")
	if defaultServer == "" {
		defaultServer = "http://localhost:8080"
	}
	rootCmd.PersistentFlags().StringVar(&serverURL, "server", defaultServer, "Registry server URL (env: TUPLI_SERVER)")
	rootCmd.PersistentFlags().StringVar(&localDir, "local", "", "Use a local directory store instead of a server")
}

// httpClient builds the HTTP client with persisted credentials. Commands
// that need a server (login, user management) use this directly.
func httpClient() (*tupli.Client, error) {
	store, err := tupli.NewFileStore()
	if err != nil {
		return nil, err
	}
	return tupli.NewClient(serverURL, tupli.WithCredentialStore(store)), nil
}

// storageBackend returns the storage selected by the flags.
func storageBackend() (tupli.Storage, error) {
	if localDir != "" {
		return tupli.NewFileStorage(localDir)
	}
	return httpClient()
}

func printJSON(v any) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// parseFilter reads an optional filter document from a JSON string.
func parseFilter(raw string) (*schema.Filter, error) {
	if raw == "" {
		return nil, nil
	}
	var filter schema.Filter
	if err := json.Unmarshal([]byte(raw), &filter); err != nil {
		return nil, fmt.Errorf("invalid filter: %w", err)
	}
	return &filter, nil
}

// readInput loads a JSON document from a file, or stdin when path is
// "-".
func readInput(path string, v any) error {
	var data []byte
	var err error
	if path == "-" {
		data, err = readAllStdin()
	} else {
		data, err = os.ReadFile(path)
	}
	if err != nil {
		return err
	}
	return json.Unmarshal(data, v)
}

func readAllStdin() ([]byte, error) {
	info, err := os.Stdin.Stat()
	if err != nil {
		return nil, err
	}
	if info.Mode()&os.ModeCharDevice != 0 {
		return nil, fmt.Errorf("no input on stdin")
	}
	return io.ReadAll(os.Stdin)
}
