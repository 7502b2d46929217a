package models

import "strings"

// Professional is a registered room user. Credit grows when paid reservations are cancelled.
type Professional struct {
	ID     string `json:"id_profissional" bson:"id_profissional" yaml:"id_profissional"`
	Name   string `json:"nome" bson:"nome" yaml:"nome"`
	Title  string `json:"status_tratamento" bson:"status_tratamento" yaml:"status_tratamento"`
	Credit Money  `json:"credito" bson:"credito" yaml:"credito"`
}

// NormalizeProfessionalID trims and upper-cases an id such as "011-k".
func NormalizeProfessionalID(id string) string {
	return strings.ToUpper(strings.TrimSpace(id))
}

// DefaultProfessionals is the directory used when seeding without an explicit list.
func DefaultProfessionals() []Professional {
	return []Professional{
		{ID: "011-K", Name: "Yasmin Melo", Title: "Dra."},
		{ID: "011-T", Name: "Anne Evans", Title: "Dra."},
		{ID: "012-T", Name: "Janete das Graças", Title: "Dra."},
		{ID: "009-V", Name: "Ana Paula Vieites", Title: "Dra."},
		{ID: "014-N", Name: "Eliana Priscilla", Title: "Dra."},
		{ID: "016-P", Name: "Graci Santana", Title: "Dra."},
		{ID: "008-P", Name: "Julia Moura", Title: "Dra."},
		{ID: "001-B", Name: "Sâmia Faulin", Title: "Dra."},
		{ID: "020-T", Name: "Sângely", Title: "Dra."},
	}
}
