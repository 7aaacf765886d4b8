package tools

import (
	"regexp"
	"unicode/utf8"
)

var emailRe = regexp.MustCompile(`^[a-zA-Z0-9._%+\-]+@[a-zA-Z0-9.\-]+\.[a-zA-Z]{2,}$`)

func ValidateEmail(email string) bool {
	return emailRe.MatchString(email)
}

// CheckPassword devolve o nome do campo inválido ou "" quando a senha é aceita.
func CheckPassword(password string, minLen int) string {
	if utf8.RuneCountInString(password) < minLen {
		return "password"
	}
	return ""
}
