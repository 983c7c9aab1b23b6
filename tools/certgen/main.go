// Package main writes a development CA and a server certificate for the
// devapi into a directory (./certs by default). An existing CA in that
// directory is reused so that clients that already trust it keep working.
package main

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/atinyakov/codepath/internal/certgen"
)

func main() {
	dir := flag.String("dir", "certs", "output directory")
	hosts := flag.String("hosts", "localhost,127.0.0.1", "comma-separated server host names and IPs")
	flag.Parse()

	if err := run(*dir, strings.Split(*hosts, ","), os.Stdout); err != nil {
		fmt.Fprintln(os.Stderr, "certgen:", err)
		os.Exit(1)
	}
}

func run(dir string, hosts []string, out io.Writer) error {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create %s: %w", dir, err)
	}
	caCertPath := filepath.Join(dir, "ca.crt")
	caKeyPath := filepath.Join(dir, "ca.key")

	caCert, caKey, err := certgen.LoadCACredentials(caCertPath, caKeyPath)
	switch {
	case err == nil:
		fmt.Fprintf(out, "Reusing CA %s\n", caCertPath)
	case errors.Is(err, fs.ErrNotExist):
		certPEM, keyPEM, err := certgen.GenerateCA("CodePath Dev CA")
		if err != nil {
			return err
		}
		if err := writePair(caCertPath, caKeyPath, certPEM, keyPEM); err != nil {
			return err
		}
		if caCert, caKey, err = certgen.ParseCA(certPEM, keyPEM); err != nil {
			return err
		}
		fmt.Fprintf(out, "Generated CA %s\n", caCertPath)
	default:
		return err
	}

	clean := make([]string, 0, len(hosts))
	for _, h := range hosts {
		if h = strings.TrimSpace(h); h != "" {
			clean = append(clean, h)
		}
	}
	certPEM, keyPEM, err := certgen.GenerateServerCertificate(clean, caCert, caKey)
	if err != nil {
		return err
	}
	serverCert := filepath.Join(dir, "server.crt")
	serverKey := filepath.Join(dir, "server.key")
	if err := writePair(serverCert, serverKey, certPEM, keyPEM); err != nil {
		return err
	}

	fmt.Fprintf(out, "Generated server certificate for %s\n", strings.Join(clean, ", "))
	fmt.Fprintf(out, "  devapi -tls-cert %s -tls-key %s\n", serverCert, serverKey)
	fmt.Fprintf(out, "  codepath -url https://%s:8000 -ca %s\n", clean[0], caCertPath)
	return nil
}

// writePair writes a PEM certificate and its key; the key is private to the user.
func writePair(certPath, keyPath string, certPEM, keyPEM []byte) error {
	if err := os.WriteFile(certPath, certPEM, 0o644); err != nil {
		return fmt.Errorf("write %s: %w", certPath, err)
	}
	if err := os.WriteFile(keyPath, keyPEM, 0o600); err != nil {
		return fmt.Errorf("write %s: %w", keyPath, err)
	}
	return nil
}
