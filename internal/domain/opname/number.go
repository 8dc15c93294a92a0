package opname

import (
	"fmt"
	"math/rand/v2"
	"regexp"
	"time"
)

// NumberPrefix prefijo de los números de sesión.
const NumberPrefix = "OPN"

var numberPattern = regexp.MustCompile(`^OPN-\d{8}-\d{4}$`)

// NumberGenerator produce números de sesión candidatos; la unicidad la garantiza el repositorio.
type NumberGenerator func(at time.Time) string

// RandomNumber genera OPN-YYYYMMDD-XXXX con fecha UTC y sufijo aleatorio de 4 dígitos.
func RandomNumber(at time.Time) string {
	return FormatNumber(at, rand.IntN(10000))
}

// FormatNumber arma el número de sesión con el sufijo dado (mod 10000).
func FormatNumber(at time.Time, suffix int) string {
	if suffix < 0 {
		suffix = -suffix
	}
	return fmt.Sprintf("%s-%s-%04d", NumberPrefix, at.UTC().Format("20060102"), suffix%10000)
}

// ValidNumber indica si s tiene el formato de número de sesión.
func ValidNumber(s string) bool {
	return numberPattern.MatchString(s)
}
