// Package password реализует хеширование, проверку и валидацию паролей.
//
// GetHash создает bcrypt-хеш пароля для безопасного хранения.
// CompareHash сравнивает bcrypt-хеш с введённым паролем за постоянное время.
// Validate проверяет пароль на минимальные требования.
package password

import (
	"crypto/rand"
	"encoding/base64"
	"errors"
	"fmt"
	"sync"
	"unicode"

	"golang.org/x/crypto/bcrypt"
)

// MinLength — минимальная длина пароля.
const MinLength = 8

var (
	// ErrMismatch возвращается, если пароль не совпадает с хэшем.
	ErrMismatch = errors.New("password does not match")
	// ErrTooShort — пароль короче MinLength.
	ErrTooShort = fmt.Errorf("ensure this field has at least %d characters", MinLength)
	// ErrEntirelyNumeric — пароль состоит только из цифр.
	ErrEntirelyNumeric = errors.New("this password is entirely numeric")
)

// GetHash принимает пароль пользователя и возвращает его bcrypt‑хэш.
func GetHash(password string) (string, error) {
	const op = "password.GetHash"
	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", fmt.Errorf("%s: %w", op, err)
	}
	return string(hashedPassword), nil
}

// CompareHash сравнивает bcrypt‑хэш с введённым паролем.
//
// Возвращает nil, если пароль соответствует хэшу, иначе ErrMismatch.
func CompareHash(originalHash, externalPassword string) error {
	const op = "password.CompareHash"
	err := bcrypt.CompareHashAndPassword([]byte(originalHash), []byte(externalPassword))
	if err == nil {
		return nil
	}
	if errors.Is(err, bcrypt.ErrMismatchedHashAndPassword) {
		return fmt.Errorf("%s: %w", op, ErrMismatch)
	}
	return fmt.Errorf("%s: %w", op, err)
}

// Validate проверяет пароль: не короче MinLength символов и не только из цифр.
// Возвращает список нарушений; пустой список означает, что пароль принят.
func Validate(password string) []error {
	var errs []error
	if len([]rune(password)) < MinLength {
		errs = append(errs, ErrTooShort)
	}
	if password != "" && isNumeric(password) {
		errs = append(errs, ErrEntirelyNumeric)
	}
	return errs
}

func isNumeric(s string) bool {
	for _, r := range s {
		if !unicode.IsDigit(r) {
			return false
		}
	}
	return true
}

// Unusable возвращает хэш случайного пароля, который никто не знает.
// Используется для учётных записей, созданных через внешний вход.
func Unusable() (string, error) {
	const op = "password.Unusable"
	buf := make([]byte, 32)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("%s: %w", op, err)
	}
	// bcrypt учитывает только первые 72 байта; 43 символа base64 укладываются в лимит.
	return GetHash(base64.RawURLEncoding.EncodeToString(buf))
}

var dummyHash = sync.OnceValue(func() string {
	h, err := Unusable()
	if err != nil {
		return ""
	}
	return h
})

// DummyHash возвращает хэш с той же ценой bcrypt, что и у настоящих паролей.
// Сравнение с ним выравнивает время ответа для несуществующих учётных записей.
// Хэш вычисляется один раз за время жизни процесса.
func DummyHash() string {
	return dummyHash()
}
