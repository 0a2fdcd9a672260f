package services

import "github.com/ceramicnetwork/go-mint/models"

type metadataTrait struct {
	traitType string
	formKey   string
}

// Attribute order is part of the published metadata format and must not change.
var metadataTraits = []metadataTrait{
	{"Kategori", models.FormKey_Kategori},
	{"Tahun", models.FormKey_Tahun},
	{"Lokasi", models.FormKey_Lokasi},
	{"Periode", models.FormKey_Periode},
	{"Tokoh Terkait", models.FormKey_Tokoh},
	{"Tag", models.FormKey_Tag},
}

// BuildMetadata assembles the token metadata document for an image pinned as imageCid. Values are copied as entered;
// validation happens before the image is pinned.
func BuildMetadata(form models.MintForm, imageCid string) models.NftMetadata {
	attributes := make([]models.NftAttribute, len(metadataTraits))
	for idx, trait := range metadataTraits {
		attributes[idx] = models.NftAttribute{TraitType: trait.traitType, Value: form.Value(trait.formKey)}
	}
	return models.NftMetadata{
		Name:        form.Name,
		Description: form.Description,
		Writer:      form.Writer,
		Repro:       form.Repro,
		Image:       models.IpfsUri(imageCid),
		Attributes:  attributes,
	}
}
