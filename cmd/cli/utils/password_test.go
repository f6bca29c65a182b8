package utils

import (
	"testing"

	"github.com/0xsequence/tps-reporter/pkg/security"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func stubSecrets(t *testing.T, answers ...string) {
	t.Helper()
	original := security.ReadSecret
	t.Cleanup(func() { security.ReadSecret = original })

	i := 0
	security.ReadSecret = func(string) ([]byte, error) {
		answer := answers[i]
		i++
		return []byte(answer), nil
	}
}

func TestContainsAtLeastNSpecial(t *testing.T) {
	assert.True(t, ContainsAtLeastNSpecial("abc!def", 1))
	assert.False(t, ContainsAtLeastNSpecial("abcdef123", 1))
	assert.True(t, ContainsAtLeastNSpecial("a!b@c", 2))
	assert.False(t, ContainsAtLeastNSpecial("a!bc", 2))
}

func TestRequestPassword(t *testing.T) {
	tests := []struct {
		name    string
		answers []string
		wantErr string
	}{
		{name: "valid", answers: []string{"correct-horse-battery", "correct-horse-battery"}},
		{name: "mismatch", answers: []string{"correct-horse-battery", "correct-horse-batter"}, wantErr: "do not match"},
		{name: "too short", answers: []string{"short!", "short!"}, wantErr: "too short"},
		{name: "no special", answers: []string{"correcthorsebattery", "correcthorsebattery"}, wantErr: "special character"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			stubSecrets(t, tt.answers...)

			passphrase, err := RequestPassword()
			if tt.wantErr != "" {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.answers[0], passphrase)
		})
	}
}
