package oras

import (
	"context"
	"errors"
	"strings"

	"oras.land/oras-go/v2/registry/remote/auth"
	"oras.land/oras-go/v2/registry/remote/credentials"
)

var errReadOnlyStore = errors.New("oras: static credential store is read-only")

// dockerHubAliases are the names Docker Hub credentials may be saved under,
// in lookup order.
var dockerHubAliases = []string{
	"https://index.docker.io/v1/",
	"index.docker.io",
	"registry-1.docker.io",
	"docker.io",
}

// DefaultCredentialStore reads the docker config and its credential helpers.
func DefaultCredentialStore() (credentials.Store, error) {
	store, err := credentials.NewStoreFromDocker(credentials.StoreOptions{})
	if err != nil {
		return nil, err
	}
	return &dockerStore{Store: store}, nil
}

// StaticCredentials returns a read-only store holding a username and
// password for registry.
func StaticCredentials(registry, username, password string) credentials.Store {
	return &staticStore{
		host: hostKey(registry),
		cred: auth.Credential{Username: username, Password: password},
	}
}

// StaticToken returns a read-only store holding a bearer token for registry.
func StaticToken(registry, token string) credentials.Store {
	return &staticStore{
		host: hostKey(registry),
		cred: auth.Credential{AccessToken: token},
	}
}

type staticStore struct {
	host string
	cred auth.Credential
}

func (s *staticStore) Get(_ context.Context, serverAddress string) (auth.Credential, error) {
	if hostKey(serverAddress) == s.host {
		return s.cred, nil
	}
	return auth.EmptyCredential, nil
}

func (s *staticStore) Put(context.Context, string, auth.Credential) error {
	return errReadOnlyStore
}

func (s *staticStore) Delete(context.Context, string) error {
	return errReadOnlyStore
}

// dockerStore retries Docker Hub lookups under each alias.
type dockerStore struct {
	credentials.Store
}

func (s *dockerStore) Get(ctx context.Context, serverAddress string) (auth.Credential, error) {
	cred, err := s.Store.Get(ctx, serverAddress)
	if (err == nil && !isEmptyCredential(cred)) || hostKey(serverAddress) != "docker.io" {
		return cred, err
	}
	for _, alias := range dockerHubAliases {
		if alias == serverAddress {
			continue
		}
		if alt, altErr := s.Store.Get(ctx, alias); altErr == nil && !isEmptyCredential(alt) {
			return alt, nil
		}
	}
	return cred, err
}

// hostKey reduces a server address to the host[:port] used for matching.
// The scheme and path are dropped and every Docker Hub name maps to
// "docker.io", with or without a port.
func hostKey(addr string) string {
	addr = strings.TrimPrefix(addr, "https://")
	addr = strings.TrimPrefix(addr, "http://")
	addr, _, _ = strings.Cut(addr, "/")
	switch hostOnly(addr) {
	case "docker.io", "index.docker.io", "registry-1.docker.io":
		return "docker.io"
	}
	return addr
}

// hostOnly strips the port from host[:port], keeping IPv6 brackets.
func hostOnly(hostport string) string {
	if strings.HasPrefix(hostport, "[") {
		if i := strings.LastIndex(hostport, "]"); i != -1 {
			return hostport[:i+1]
		}
		return hostport
	}
	if i := strings.LastIndex(hostport, ":"); i != -1 {
		return hostport[:i]
	}
	return hostport
}

func isEmptyCredential(cred auth.Credential) bool {
	return cred.Username == "" && cred.Password == "" && cred.AccessToken == "" && cred.RefreshToken == ""
}
