// pkg/model/columns.go
package model

// Column names carried by the source datasets. Column names are the
// contract across layers; consumers match by name, never by position.
const (
	ColCustomerID       = "id_client"
	ColCustomerName     = "nom"
	ColCustomerEmail    = "email"
	ColCustomerCountry  = "pays"
	ColRegistrationDate = "date_inscription"

	ColPurchaseID   = "id_achat"
	ColPurchaseDate = "date_achat"
	ColAmount       = "montant"
	ColProduct      = "produit"
)
