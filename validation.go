package main

import (
	"fmt"
	"math/rand"
	"strings"
	"unicode"
)

const maxPlayerNameRunes = 32

// normalizePlayerName trims the name, drops control characters and caps the
// length. An empty result means the caller should pick a placeholder.
func normalizePlayerName(raw string) string {
	var b strings.Builder
	count := 0
	for _, r := range strings.TrimSpace(raw) {
		if unicode.IsControl(r) {
			continue
		}
		if count == maxPlayerNameRunes {
			break
		}
		b.WriteRune(r)
		count++
	}
	return strings.TrimSpace(b.String())
}

func placeholderName() string {
	return fmt.Sprintf("Player_%d", rand.Intn(10000))
}
