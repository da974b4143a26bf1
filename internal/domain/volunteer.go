package domain

import (
	"regexp"
	"time"

	"github.com/google/uuid"
)

type Gender string

const (
	GenderMale        Gender = "Masculino"
	GenderFemale      Gender = "Feminino"
	GenderUnspecified Gender = "Neutro ou Não informado"
)

func (g Gender) Valid() bool {
	return g == GenderMale || g == GenderFemale || g == GenderUnspecified
}

// Address is what a postal code resolves to. State holds the full state
// name, not the UF.
type Address struct {
	Street       string `json:"street"`
	Neighborhood string `json:"neighborhood"`
	City         string `json:"city"`
	State        string `json:"state"`
}

// NotFoundAddress is shown when the lookup service knows nothing about the
// postal code.
func NotFoundAddress() Address {
	return Address{
		Street:       "Logradouro Não Encontrado",
		Neighborhood: "Bairro Não Encontrado",
		City:         "Cidade Não Encontrada",
		State:        "Estado Não Encontrado",
	}
}

type Volunteer struct {
	ID        uuid.UUID `json:"id"`
	FullName  string    `json:"fullName"`
	BirthDate time.Time `json:"birthDate"`
	CPF       string    `json:"cpf"`
	Mobile    string    `json:"mobile"`
	CEP       string    `json:"cep"`
	Address   Address   `json:"address"`
	Number    string    `json:"number"`
	Email     string    `json:"email"`
	Gender    Gender    `json:"gender"`
	CreatedAt time.Time `json:"createdAt"`
}

var (
	nonDigit = regexp.MustCompile(`\D`)

	cpfGroup = regexp.MustCompile(`(\d{3})(\d)`)
	cpfTail  = regexp.MustCompile(`(\d{3})(\d{1,2})$`)

	mobileArea  = regexp.MustCompile(`(\d{2})(\d)`)
	mobileSplit = regexp.MustCompile(`(\d{5})(\d)`)

	cepSplit = regexp.MustCompile(`^(\d{5})(\d)`)
)

func Digits(v string) string {
	return nonDigit.ReplaceAllString(v, "")
}

// MaskCPF formats partial or complete input as 000.000.000-00.
func MaskCPF(v string) string {
	v = Digits(v)
	v = replaceFirst(cpfGroup, v, "${1}.${2}")
	v = replaceFirst(cpfGroup, v, "${1}.${2}")
	return replaceFirst(cpfTail, v, "${1}-${2}")
}

// MaskMobile formats partial or complete input as (00) 00000-0000.
func MaskMobile(v string) string {
	v = Digits(v)
	v = replaceFirst(mobileArea, v, "(${1}) ${2}")
	v = replaceFirst(mobileSplit, v, "${1}-${2}")
	return truncate(v, 15)
}

// MaskCEP formats partial or complete input as 00000-000.
func MaskCEP(v string) string {
	v = Digits(v)
	v = replaceFirst(cepSplit, v, "${1}-${2}")
	return truncate(v, 9)
}

func replaceFirst(re *regexp.Regexp, s, repl string) string {
	loc := re.FindStringSubmatchIndex(s)
	if loc == nil {
		return s
	}
	out := re.ExpandString(nil, repl, s, loc)
	return s[:loc[0]] + string(out) + s[loc[1]:]
}

func truncate(s string, n int) string {
	if len(s) > n {
		return s[:n]
	}
	return s
}
