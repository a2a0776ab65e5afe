package main

import (
	"bytes"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"klimr/backend/internal/service"
)

func stubPasswords(t *testing.T, inputs ...string) {
	t.Helper()
	orig := readPassword
	t.Cleanup(func() { readPassword = orig })
	i := 0
	readPassword = func(int) ([]byte, error) {
		if i >= len(inputs) {
			return nil, errors.New("no more input")
		}
		i++
		return []byte(inputs[i-1]), nil
	}
}

func TestPromptPassword(t *testing.T) {
	var out bytes.Buffer

	stubPasswords(t, "battery-staple", "battery-staple")
	got, err := promptPassword(&out, true)
	require.NoError(t, err)
	assert.Equal(t, "battery-staple", got)

	stubPasswords(t, "battery-staple", "different-one")
	_, err = promptPassword(&out, true)
	assert.Error(t, err)

	stubPasswords(t, "")
	_, err = promptPassword(&out, false)
	assert.ErrorIs(t, err, errEmptyPassword)

	stubPasswords(t, "short")
	_, err = promptPassword(&out, false)
	assert.Error(t, err)
}

func TestDescribe(t *testing.T) {
	err := describe(&service.ValidationError{Fields: map[string]string{"person_id": "person not found"}})
	assert.EqualError(t, err, "参数错误: person_id: person not found")

	plain := errors.New("boom")
	assert.Same(t, plain, describe(plain))
}

func TestCommandTree(t *testing.T) {
	for _, path := range [][]string{
		{"migrate", "up"},
		{"migrate", "down"},
		{"migrate", "version"},
		{"account", "add"},
		{"account", "passwd"},
		{"account", "link"},
	} {
		cmd, _, err := rootCmd.Find(path)
		require.NoError(t, err, path)
		assert.Equal(t, path[len(path)-1], cmd.Name())
	}
}
