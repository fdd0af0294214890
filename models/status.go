package models

import (
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

// EntityType tags which audited record a sample or finding belongs to.
// Closed set: new kinds are added here plus a variant map entry below.
type EntityType string

const (
	EntityTypeAuction EntityType = "Auction"
	EntityTypeLot     EntityType = "Lot"
	EntityTypeBid     EntityType = "Bid"
	EntityTypeUserWin EntityType = "UserWin"
	EntityTypeAsset   EntityType = "Asset"
	EntityTypeSeller  EntityType = "Seller"
)

// Canonical backend status codes.
const (
	AuctionStatusUpcoming  = "EM_BREVE"
	AuctionStatusPublished = "PUBLICADO"
	AuctionStatusOpen      = "ABERTO_PARA_LANCES"
	AuctionStatusClosed    = "ENCERRADO"
	AuctionStatusCancelled = "CANCELADO"
	AuctionStatusSuspended = "SUSPENSO"

	LotStatusOpen      = "ABERTO_PARA_LANCES"
	LotStatusClosed    = "ENCERRADO"
	LotStatusSold      = "VENDIDO"
	LotStatusWithdrawn = "RETIRADO"
	LotStatusCancelled = "CANCELADO"

	BidStatusActive    = "ATIVO"
	BidStatusOutbid    = "SUPERADO"
	BidStatusCancelled = "CANCELADO"

	UserWinStatusPendingPayment = "PENDENTE_PAGAMENTO"
	UserWinStatusPaid           = "PAGO"
	UserWinStatusCancelled      = "CANCELADO"
)

// StatusVariantMap maps a canonical status code to the UI renderings accepted
// as that status. Several codes legitimately render under more than one label
// ("Vendido" and "Arrematado" are the same lot state to a visitor).
type StatusVariantMap map[string][]string

var auctionStatusVariants = StatusVariantMap{
	AuctionStatusUpcoming:  {"Em breve"},
	AuctionStatusPublished: {"Publicado"},
	AuctionStatusOpen:      {"Aberto para lances", "Em andamento"},
	AuctionStatusClosed:    {"Encerrado", "Finalizado"},
	AuctionStatusCancelled: {"Cancelado"},
	AuctionStatusSuspended: {"Suspenso"},
}

var lotStatusVariants = StatusVariantMap{
	LotStatusOpen:      {"Aberto para lances", "Em disputa"},
	LotStatusClosed:    {"Encerrado"},
	LotStatusSold:      {"Vendido", "Arrematado"},
	LotStatusWithdrawn: {"Retirado", "Retirado do leilão"},
	LotStatusCancelled: {"Cancelado"},
}

var bidStatusVariants = StatusVariantMap{
	BidStatusActive:    {"Ativo"},
	BidStatusOutbid:    {"Superado", "Coberto"},
	BidStatusCancelled: {"Cancelado"},
}

var userWinStatusVariants = StatusVariantMap{
	UserWinStatusPendingPayment: {"Pendente de pagamento", "Aguardando pagamento"},
	UserWinStatusPaid:           {"Pago"},
	UserWinStatusCancelled:      {"Cancelado"},
}

var statusVariantsByEntity = map[EntityType]StatusVariantMap{
	EntityTypeAuction: auctionStatusVariants,
	EntityTypeLot:     lotStatusVariants,
	EntityTypeBid:     bidStatusVariants,
	EntityTypeUserWin: userWinStatusVariants,
}

// StatusVariantsFor returns the variant map for an entity kind. Unknown kinds
// get an empty map, which makes every status comparison a non-match.
func StatusVariantsFor(entityType EntityType) StatusVariantMap {
	if m, ok := statusVariantsByEntity[entityType]; ok {
		return m
	}
	return StatusVariantMap{}
}

// StatusMatches reports whether uiText is an accepted rendering of
// dbStatusCode. Unknown codes never match: a status the auditor has no
// variants for must surface as a finding, not pass silently.
// Matching is exact per variant, case-insensitive, surrounding whitespace
// ignored. No substring matching: truncated labels must not pass.
func StatusMatches(variants StatusVariantMap, dbStatusCode string, uiText string) bool {
	accepted, ok := variants[strings.ToUpper(strings.TrimSpace(dbStatusCode))]
	if !ok {
		return false
	}
	ui := strings.ToLower(strings.TrimSpace(uiText))
	for _, v := range accepted {
		if ui == strings.ToLower(strings.TrimSpace(v)) {
			return true
		}
	}
	return false
}

// LoadStatusVariantOverrides merges a YAML file into the built-in variant
// maps, so a tenant with custom UI labels can be audited without a deploy.
//
// File shape:
//
//	Lot:
//	  VENDIDO: ["Vendido", "Arrematado", "Lote arrematado"]
func LoadStatusVariantOverrides(path string) error {
	raw, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read status variant overrides: %w", err)
	}
	var overrides map[string]map[string][]string
	if err := yaml.Unmarshal(raw, &overrides); err != nil {
		return fmt.Errorf("parse status variant overrides: %w", err)
	}
	for entity, codes := range overrides {
		m, ok := statusVariantsByEntity[EntityType(entity)]
		if !ok {
			m = StatusVariantMap{}
			statusVariantsByEntity[EntityType(entity)] = m
		}
		for code, variants := range codes {
			m[strings.ToUpper(strings.TrimSpace(code))] = variants
		}
	}
	return nil
}
