package config

import (
	"errors"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/zalando/go-keyring"

	"github.com/systmms/kvreport/internal/credstore"
	"github.com/systmms/kvreport/internal/logging"
	"github.com/systmms/kvreport/internal/secure"
)

type fakeKeychainClient struct {
	entries map[string]string
	err     error
}

func (f *fakeKeychainClient) Get(service, account string) (string, error) {
	if f.err != nil {
		return "", f.err
	}
	v, ok := f.entries[service+"/"+account]
	if !ok {
		return "", keyring.ErrNotFound
	}
	return v, nil
}

func (f *fakeKeychainClient) Set(service, account, password string) error {
	if f.entries == nil {
		f.entries = make(map[string]string)
	}
	f.entries[service+"/"+account] = password
	return nil
}

func (f *fakeKeychainClient) Delete(service, account string) error {
	delete(f.entries, service+"/"+account)
	return nil
}

func passwordConfig(smtp SMTPConfig) *Config {
	return &Config{
		Path:   filepath.Join("testdata", "kvreport.yaml"),
		Logger: logging.New(false, true),
		Definition: &Definition{
			Mail: MailConfig{From: "kvreport@example.com", SMTP: smtp},
		},
	}
}

func mustOpen(t *testing.T, buf *secure.Buffer) string {
	t.Helper()

	locked, err := buf.Open()
	require.NoError(t, err)
	defer locked.Destroy()
	// memguard's String() is a zero-copy view into the protected pages,
	// which the deferred Destroy wipes before the caller can read it;
	// copy the plaintext out so the returned string stays valid.
	return string(locked.Bytes())
}

func TestResolveSMTPPasswordNoAuth(t *testing.T) {
	t.Parallel()

	cfg := passwordConfig(SMTPConfig{Host: "smtp.example.com", Port: 587})

	buf, err := cfg.ResolveSMTPPassword(credstore.NewWithClient(&fakeKeychainClient{}))
	require.NoError(t, err)
	assert.Nil(t, buf)
}

func TestResolveSMTPPasswordInline(t *testing.T) {
	t.Parallel()

	cfg := passwordConfig(SMTPConfig{
		Host:     "smtp.example.com",
		Port:     587,
		Username: "reporter",
		Password: "inline-secret",
	})

	buf, err := cfg.ResolveSMTPPassword(credstore.NewWithClient(&fakeKeychainClient{}))
	require.NoError(t, err)
	require.NotNil(t, buf)
	defer buf.Destroy()

	assert.Equal(t, "inline-secret", mustOpen(t, buf))
}

func TestResolveSMTPPasswordFromEnv(t *testing.T) {
	cfg := passwordConfig(SMTPConfig{
		Host:        "smtp.example.com",
		Port:        587,
		Username:    "reporter",
		PasswordEnv: "KVREPORT_TEST_SMTP_PASSWORD",
	})

	t.Setenv("KVREPORT_TEST_SMTP_PASSWORD", "env-secret")

	buf, err := cfg.ResolveSMTPPassword(credstore.NewWithClient(&fakeKeychainClient{}))
	require.NoError(t, err)
	require.NotNil(t, buf)
	defer buf.Destroy()

	assert.Equal(t, "env-secret", mustOpen(t, buf))
}

func TestResolveSMTPPasswordEnvMissing(t *testing.T) {
	t.Parallel()

	cfg := passwordConfig(SMTPConfig{
		Host:        "smtp.example.com",
		Port:        587,
		Username:    "reporter",
		PasswordEnv: "KVREPORT_UNSET_VARIABLE",
	})

	_, err := cfg.ResolveSMTPPassword(credstore.NewWithClient(&fakeKeychainClient{}))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "KVREPORT_UNSET_VARIABLE")
	assert.Contains(t, err.Error(), "environment variable is not set")
}

func TestResolveSMTPPasswordFromKeychain(t *testing.T) {
	t.Parallel()

	client := &fakeKeychainClient{}
	store := credstore.NewWithClient(client)
	require.NoError(t, store.Set("reporter", "smtp.example.com", "keychain-secret"))

	cfg := passwordConfig(SMTPConfig{
		Host:     "smtp.example.com",
		Port:     587,
		Username: "reporter",
	})

	buf, err := cfg.ResolveSMTPPassword(store)
	require.NoError(t, err)
	require.NotNil(t, buf)
	defer buf.Destroy()

	assert.Equal(t, "keychain-secret", mustOpen(t, buf))
}

func TestResolveSMTPPasswordMissingEverywhere(t *testing.T) {
	t.Parallel()

	cfg := passwordConfig(SMTPConfig{
		Host:     "smtp.example.com",
		Port:     587,
		Username: "reporter",
	})

	_, err := cfg.ResolveSMTPPassword(credstore.NewWithClient(&fakeKeychainClient{}))
	require.Error(t, err)
	// The error names all three ways to provide the password
	assert.Contains(t, err.Error(), "kvreport login")
	assert.Contains(t, err.Error(), "password_env")
	assert.Contains(t, err.Error(), "inline")
}

func TestResolveSMTPPasswordKeychainBackendError(t *testing.T) {
	t.Parallel()

	client := &fakeKeychainClient{err: errors.New("dbus: no session bus")}

	cfg := passwordConfig(SMTPConfig{
		Host:     "smtp.example.com",
		Port:     587,
		Username: "reporter",
	})

	_, err := cfg.ResolveSMTPPassword(credstore.NewWithClient(client))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "keychain")
	assert.NotContains(t, err.Error(), "kvreport login' to store")
}
