package utils

import (
	"fmt"

	"github.com/0xsequence/tps-reporter/pkg/security"
)

const minPassphraseLength = 12

// RequestPassword prompts for a passphrase, confirms it, validates strength, and reminds to back it up
func RequestPassword() (string, error) {
	fmt.Println("IMPORTANT: Please ensure you back up your password securely.")
	fmt.Println("If lost, you won't be able to recover your private key.")

	first, err := security.ReadSecret("Enter passphrase to encrypt private key: ")
	if err != nil {
		return "", fmt.Errorf("failed to read passphrase: %w", err)
	}
	defer security.ZeroBytes(first)

	confirmation, err := security.ReadSecret("Confirm passphrase: ")
	if err != nil {
		return "", fmt.Errorf("failed to read confirmation passphrase: %w", err)
	}
	defer security.ZeroBytes(confirmation)

	passphrase := string(first)
	if passphrase != string(confirmation) {
		return "", fmt.Errorf("passphrases do not match")
	}
	if err := ValidatePassphrase(passphrase); err != nil {
		return "", err
	}
	return passphrase, nil
}

// ValidatePassphrase enforces the minimum strength for key file passphrases.
func ValidatePassphrase(passphrase string) error {
	if len(passphrase) < minPassphraseLength {
		return fmt.Errorf("passphrase too short (minimum %d characters)", minPassphraseLength)
	}
	if !ContainsAtLeastNSpecial(passphrase, 1) {
		return fmt.Errorf("passphrase must contain at least 1 special character")
	}
	return nil
}

// ContainsAtLeastNSpecial checks if a string contains at least n special characters
func ContainsAtLeastNSpecial(s string, n int) bool {
	count := 0
	for _, r := range s {
		if !((r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z') || (r >= '0' && r <= '9')) {
			count++
			if count >= n {
				return true
			}
		}
	}
	return false
}
