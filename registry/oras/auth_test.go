package oras

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"oras.land/oras-go/v2/registry/remote/auth"
)

func TestStaticCredentials(t *testing.T) {
	t.Parallel()

	store := StaticCredentials("https://registry.example.com/", "user", "pass")
	ctx := context.Background()

	cred, err := store.Get(ctx, "registry.example.com")
	require.NoError(t, err)
	assert.Equal(t, auth.Credential{Username: "user", Password: "pass"}, cred)

	cred, err = store.Get(ctx, "other.example.com")
	require.NoError(t, err)
	assert.Equal(t, auth.EmptyCredential, cred)

	require.ErrorIs(t, store.Put(ctx, "registry.example.com", auth.Credential{}), errReadOnlyStore)
	require.ErrorIs(t, store.Delete(ctx, "registry.example.com"), errReadOnlyStore)
}

func TestStaticToken(t *testing.T) {
	t.Parallel()

	store := StaticToken("localhost:5000", "tok")
	cred, err := store.Get(context.Background(), "localhost:5000")
	require.NoError(t, err)
	assert.Equal(t, "tok", cred.AccessToken)

	cred, err = store.Get(context.Background(), "localhost:5001")
	require.NoError(t, err)
	assert.Equal(t, auth.EmptyCredential, cred)
}

func TestStaticStoreDockerHubAliases(t *testing.T) {
	t.Parallel()

	store := StaticCredentials("docker.io", "user", "pass")
	for _, host := range []string{"docker.io", "index.docker.io", "registry-1.docker.io", "registry-1.docker.io:443", "https://index.docker.io/v1/"} {
		cred, err := store.Get(context.Background(), host)
		require.NoError(t, err)
		assert.Equal(t, "user", cred.Username, host)
	}
}

func TestHostKey(t *testing.T) {
	t.Parallel()

	tests := map[string]string{
		"registry.example.com":          "registry.example.com",
		"https://registry.example.com/": "registry.example.com",
		"http://localhost:5000/v2/":     "localhost:5000",
		"[::1]:5000":                    "[::1]:5000",
		"index.docker.io":               "docker.io",
		"https://index.docker.io/v1/":   "docker.io",
		"docker.io:443":                 "docker.io",
	}
	for in, want := range tests {
		assert.Equal(t, want, hostKey(in), in)
	}
}

func TestHostOnly(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "example.com", hostOnly("example.com"))
	assert.Equal(t, "example.com", hostOnly("example.com:443"))
	assert.Equal(t, "[::1]", hostOnly("[::1]:5000"))
	assert.Equal(t, "[::1", hostOnly("[::1"))
}

// mapStore is an in-memory credential store keyed by exact address.
type mapStore struct {
	creds map[string]auth.Credential
	err   error
}

func (m *mapStore) Get(_ context.Context, addr string) (auth.Credential, error) {
	if m.err != nil {
		return auth.EmptyCredential, m.err
	}
	return m.creds[addr], nil
}

func (m *mapStore) Put(_ context.Context, addr string, cred auth.Credential) error {
	m.creds[addr] = cred
	return nil
}

func (m *mapStore) Delete(_ context.Context, addr string) error {
	delete(m.creds, addr)
	return nil
}

func TestDockerStore(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	hub := auth.Credential{Username: "hub"}
	inner := &mapStore{creds: map[string]auth.Credential{
		"https://index.docker.io/v1/": hub,
		"ghcr.io":                     {Username: "gh"},
	}}
	store := &dockerStore{Store: inner}

	cred, err := store.Get(ctx, "registry-1.docker.io")
	require.NoError(t, err)
	assert.Equal(t, hub, cred)

	cred, err = store.Get(ctx, "ghcr.io")
	require.NoError(t, err)
	assert.Equal(t, "gh", cred.Username)

	cred, err = store.Get(ctx, "quay.io")
	require.NoError(t, err)
	assert.Equal(t, auth.EmptyCredential, cred)

	failing := &dockerStore{Store: &mapStore{err: errors.New("helper crashed")}}
	_, err = failing.Get(ctx, "docker.io")
	require.EqualError(t, err, "helper crashed")
}

func TestIsEmptyCredential(t *testing.T) {
	t.Parallel()

	assert.True(t, isEmptyCredential(auth.EmptyCredential))
	assert.False(t, isEmptyCredential(auth.Credential{Username: "u"}))
	assert.False(t, isEmptyCredential(auth.Credential{AccessToken: "t"}))
	assert.False(t, isEmptyCredential(auth.Credential{RefreshToken: "r"}))
}
