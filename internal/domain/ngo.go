package domain

import "strings"

type State struct {
	UF   string `json:"uf"`
	Name string `json:"name"`
}

var States = []State{
	{"AC", "Acre"},
	{"AL", "Alagoas"},
	{"AP", "Amapá"},
	{"AM", "Amazonas"},
	{"BA", "Bahia"},
	{"CE", "Ceará"},
	{"DF", "Distrito Federal"},
	{"ES", "Espírito Santo"},
	{"GO", "Goiás"},
	{"MA", "Maranhão"},
	{"MT", "Mato Grosso"},
	{"MS", "Mato Grosso do Sul"},
	{"MG", "Minas Gerais"},
	{"PA", "Pará"},
	{"PB", "Paraíba"},
	{"PR", "Paraná"},
	{"PE", "Pernambuco"},
	{"PI", "Piauí"},
	{"RJ", "Rio de Janeiro"},
	{"RN", "Rio Grande do Norte"},
	{"RS", "Rio Grande do Sul"},
	{"RO", "Rondônia"},
	{"RR", "Roraima"},
	{"SC", "Santa Catarina"},
	{"SP", "São Paulo"},
	{"SE", "Sergipe"},
	{"TO", "Tocantins"},
}

// StateName returns the full name for a UF, or the UF itself when unknown.
func StateName(uf string) string {
	uf = strings.ToUpper(strings.TrimSpace(uf))
	for _, s := range States {
		if s.UF == uf {
			return s.Name
		}
	}
	return uf
}

// MatchState finds the state a geocoder reported. An exact name wins;
// otherwise the first catalog entry where either name contains the other.
func MatchState(name string) (State, error) {
	n := strings.ToLower(strings.TrimSpace(name))
	if n == "" {
		return State{}, ErrStateNotFound
	}
	for _, s := range States {
		if strings.ToLower(s.Name) == n {
			return s, nil
		}
	}
	for _, s := range States {
		sn := strings.ToLower(s.Name)
		if strings.Contains(sn, n) || strings.Contains(n, sn) {
			return s, nil
		}
	}
	return State{}, ErrStateNotFound
}

const CategoryAll = "todas"

type NGO struct {
	ID          int    `json:"id"`
	Name        string `json:"name"`
	Category    string `json:"category"`
	Description string `json:"description"`
	Location    string `json:"location"`
}

// UF is the state part of a "City, UF" location.
func (n NGO) UF() string {
	parts := strings.SplitN(n.Location, ", ", 2)
	if len(parts) < 2 {
		return ""
	}
	return strings.TrimSpace(parts[1])
}

var NGOs = []NGO{
	{1, "ONG CRIANÇA SP", "Crianças", "Apoio a crianças carentes", "São Paulo, SP"},
	{2, "ONG ANIMAL RJ", "Animais", "Proteção animal", "Rio de Janeiro, RJ"},
	{3, "ONG EDUCA MG", "Educação", "Educação para todos", "Belo Horizonte, MG"},
	{4, "ONG EVT RS", "Eventos", "Organização de eventos beneficentes", "Porto Alegre, RS"},
	{5, "ONG EDUCA BA", "Educação", "Cursos gratuitos", "Salvador, BA"},
}

type NGOFilter struct {
	Query    string
	Category string
	UF       string
}

func FilterNGOs(ngos []NGO, f NGOFilter) []NGO {
	q := strings.ToLower(f.Query)
	out := make([]NGO, 0, len(ngos))
	for _, n := range ngos {
		if f.Category != "" && f.Category != CategoryAll && n.Category != f.Category {
			continue
		}
		if !strings.Contains(strings.ToLower(n.Name), q) &&
			!strings.Contains(strings.ToLower(n.Description), q) &&
			!strings.Contains(strings.ToLower(n.Location), q) {
			continue
		}
		if f.UF != "" && n.UF() != strings.ToUpper(f.UF) {
			continue
		}
		out = append(out, n)
	}
	return out
}
