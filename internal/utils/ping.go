package utils

import (
	"fmt"
	"io/fs"
	"net"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"
)

// authorizerTimeout bounds the TCP dial to the Authorizer
const authorizerTimeout = 1500 * time.Millisecond

// serviceAddress resolves the host:port a service URL dials
func serviceAddress(serviceURL string) (string, error) {
	parsedURL, err := url.Parse(serviceURL)
	if err != nil {
		return "", fmt.Errorf("invalid URL: %w", err)
	}
	if parsedURL.Hostname() == "" {
		return "", fmt.Errorf("invalid URL %q: no host", serviceURL)
	}

	port := parsedURL.Port()
	if port == "" {
		port = "80"
		if parsedURL.Scheme == "https" {
			port = "443"
		}
	}
	return net.JoinHostPort(parsedURL.Hostname(), port), nil
}

// PingService checks if a service accepts TCP connections at the given URL
func PingService(serviceURL string, timeout time.Duration) error {
	address, err := serviceAddress(serviceURL)
	if err != nil {
		return err
	}

	conn, err := net.DialTimeout("tcp", address, timeout)
	if err != nil {
		return fmt.Errorf("failed to connect to %s: %w", address, err)
	}
	defer conn.Close()

	return nil
}

// PingAuthorizer checks if the Authorizer service is reachable
func PingAuthorizer(authzURL string) error {
	return PingService(authzURL, authorizerTimeout)
}

// CountAssets checks that the asset root is a directory and counts the
// glTF and GLB files under it
func CountAssets(root string) (int, error) {
	info, err := os.Stat(root)
	if err != nil {
		return 0, fmt.Errorf("asset root: %w", err)
	}
	if !info.IsDir() {
		return 0, fmt.Errorf("asset root %s is not a directory", root)
	}

	count := 0
	err = filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		switch strings.ToLower(filepath.Ext(path)) {
		case ".glb", ".gltf":
			if !d.IsDir() {
				count++
			}
		}
		return nil
	})
	if err != nil {
		return count, fmt.Errorf("asset root: %w", err)
	}
	return count, nil
}
