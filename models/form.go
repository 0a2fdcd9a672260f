package models

import "strings"

const (
	FormKey_Name        = "name"
	FormKey_Description = "description"
	FormKey_Writer      = "writer"
	FormKey_Repro       = "repro"
	FormKey_Kategori    = "kategori"
	FormKey_Tahun       = "tahun"
	FormKey_Lokasi      = "lokasi"
	FormKey_Periode     = "periode"
	FormKey_Tokoh       = "tokoh"
	FormKey_Tag         = "tag"
)

type MintForm struct {
	Name        string `json:"name"`
	Description string `json:"description"`
	Writer      string `json:"writer"`
	Repro       string `json:"repro"`
	Kategori    string `json:"kategori"`
	Tahun       string `json:"tahun"`
	Lokasi      string `json:"lokasi"`
	Periode     string `json:"periode"`
	Tokoh       string `json:"tokoh"`
	Tag         string `json:"tag"`
}

// FormField describes how a MintForm field is rendered and validated. Renderers iterate FormFields instead of the
// struct so that field order and labels are stable.
type FormField struct {
	Key       string `json:"key"`
	Label     string `json:"label"`
	Required  bool   `json:"required"`
	Multiline bool   `json:"multiline"`
}

var FormFields = []FormField{
	{Key: FormKey_Name, Label: "Name", Required: true},
	{Key: FormKey_Description, Label: "Deskripsi", Required: true, Multiline: true},
	{Key: FormKey_Writer, Label: "Writer"},
	{Key: FormKey_Repro, Label: "Repro"},
	{Key: FormKey_Kategori, Label: "Kategori"},
	{Key: FormKey_Tahun, Label: "Tahun"},
	{Key: FormKey_Lokasi, Label: "Lokasi"},
	{Key: FormKey_Periode, Label: "Periode"},
	{Key: FormKey_Tokoh, Label: "Tokoh"},
	{Key: FormKey_Tag, Label: "Tag"},
}

func (f MintForm) Value(key string) string {
	switch key {
	case FormKey_Name:
		return f.Name
	case FormKey_Description:
		return f.Description
	case FormKey_Writer:
		return f.Writer
	case FormKey_Repro:
		return f.Repro
	case FormKey_Kategori:
		return f.Kategori
	case FormKey_Tahun:
		return f.Tahun
	case FormKey_Lokasi:
		return f.Lokasi
	case FormKey_Periode:
		return f.Periode
	case FormKey_Tokoh:
		return f.Tokoh
	case FormKey_Tag:
		return f.Tag
	}
	return ""
}

// MissingFields returns the keys of required fields that are blank after trimming whitespace, in FormFields order.
func (f MintForm) MissingFields() []string {
	var missing []string
	for _, field := range FormFields {
		if field.Required && len(strings.TrimSpace(f.Value(field.Key))) == 0 {
			missing = append(missing, field.Key)
		}
	}
	return missing
}
